// Package logs reads and truncates the nginx access and error logs.
package logs

import (
	"os"
	"strings"

	"github.com/quicknginx/quicknginx/internal/config"
	"github.com/quicknginx/quicknginx/internal/exitcodes"
)

// MaxEntries caps how many lines Read returns.
const MaxEntries = 1000

// UnknownTimestamp is reported for lines without a bracketed timestamp.
const UnknownTimestamp = "Unknown"

// Kind selects one of the nginx log files.
type Kind int

const (
	KindAccess Kind = iota
	KindError
)

// Kinds lists the supported log kinds.
var Kinds = []Kind{KindAccess, KindError}

func (k Kind) String() string {
	switch k {
	case KindAccess:
		return "access"
	case KindError:
		return "error"
	}
	return "unknown"
}

// FileName is the log file name inside the log directory.
func (k Kind) FileName() string { return k.String() + ".log" }

// ParseKind resolves a log kind name.
func ParseKind(name string) (Kind, error) {
	for _, k := range Kinds {
		if name == k.String() {
			return k, nil
		}
	}
	return 0, exitcodes.InvalidArgsErrorf("invalid log type %q (use access|error)", name)
}

// Entry is one log line, newest first in Read results.
type Entry struct {
	Content   string `json:"content" yaml:"content"`
	Timestamp string `json:"timestamp" yaml:"timestamp"`
}

// Reader resolves log files under a fixed log directory.
type Reader struct {
	paths config.Paths
}

// NewReader returns a Reader for the given installation paths.
func NewReader(p config.Paths) Reader { return Reader{paths: p} }

// Path returns the file backing kind.
func (r Reader) Path(k Kind) string { return r.paths.LogFile(k.FileName()) }

// Read returns up to MaxEntries lines of the log, most recent first.
func (r Reader) Read(k Kind) ([]Entry, error) {
	b, err := os.ReadFile(r.Path(k))
	if err != nil {
		return nil, exitcodes.IOErr(err)
	}
	lines := splitLines(string(b))
	n := len(lines)
	if n > MaxEntries {
		n = MaxEntries
	}
	entries := make([]Entry, 0, n)
	for i := len(lines) - 1; i >= 0 && len(entries) < n; i-- {
		entries = append(entries, Entry{
			Content:   lines[i],
			Timestamp: ExtractTimestamp(lines[i]),
		})
	}
	return entries, nil
}

// Clear truncates the log to zero length. The file is created if missing;
// a missing log directory is an error.
func (r Reader) Clear(k Kind) error {
	if err := os.WriteFile(r.Path(k), nil, 0o644); err != nil {
		return exitcodes.IOErr(err)
	}
	return nil
}

// ExtractTimestamp returns the text between the first '[' and the first ']'
// of line. The result is not validated as a time.
func ExtractTimestamp(line string) string {
	end := strings.IndexByte(line, ']')
	start := strings.IndexByte(line, '[')
	if end < 0 || start < 0 || start > end {
		return UnknownTimestamp
	}
	return line[start+1 : end]
}

// splitLines splits on '\n', dropping one trailing '\r' per line and the
// empty element after a final newline.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	s = strings.TrimSuffix(s, "\n")
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}
