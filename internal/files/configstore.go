package files

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/quicknginx/quicknginx/internal/exitcodes"
)

// SiteStore rewrites the active site include in the main nginx config.
// Every write is a whole-file read-modify-overwrite: not atomic, but
// idempotent, so a failed call can simply be retried.
type SiteStore interface {
	SetActive(v *Variant) (Result, error) // nil clears every include
	Active() ([]Variant, error)           // includes present, in file order
	HasMarker() (bool, error)
	Backup() (string, error) // returns backup path of the main config
	Path() string
}

// Result describes what SetActive did to the file.
type Result struct {
	Changed  bool // file content differs from before
	Inserted bool // an include was written after the marker
}

type store struct {
	path string
	log  *slog.Logger
}

// New returns a filesystem-backed store for the main config at path.
func New(path string, logger *slog.Logger) SiteStore {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &store{path: path, log: logger}
}

func (s *store) Path() string { return s.path }

func (s *store) readConfig() (string, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		return "", exitcodes.IOErr(err)
	}
	return string(b), nil
}

func (s *store) writeConfig(content string) error {
	if err := os.WriteFile(s.path, []byte(content), 0o644); err != nil {
		return exitcodes.IOErr(err)
	}
	return nil
}

func (s *store) Backup() (string, error) {
	ts := time.Now().Format("20060102-150405")
	dst := s.path + "." + ts + ".bak"
	b, err := os.ReadFile(s.path)
	if err != nil {
		return "", exitcodes.IOErr(err)
	}
	if err := os.WriteFile(dst, b, 0o644); err != nil {
		return "", exitcodes.IOErr(err)
	}
	return dst, nil
}

func (s *store) SetActive(v *Variant) (Result, error) {
	content, err := s.readConfig()
	if err != nil {
		return Result{}, err
	}
	updated, inserted := rewriteIncludes(content, v)
	if v != nil && !inserted {
		// Missing marker is not an error; the file just ends up with no include.
		s.log.Warn("include marker not found; no site enabled", "path", s.path, "site", v.String())
	}
	res := Result{
		Changed:  content != updated,
		Inserted: inserted,
	}
	if err := s.writeConfig(updated); err != nil {
		return Result{}, err
	}
	s.log.Debug("config rewritten", "path", s.path, "changed", res.Changed, "inserted", res.Inserted)
	return res, nil
}

func (s *store) Active() ([]Variant, error) {
	content, err := s.readConfig()
	if err != nil {
		return nil, err
	}
	var found []Variant
	for _, line := range strings.Split(content, "\n") {
		t := strings.TrimSpace(line)
		for _, v := range Variants {
			if t == v.Include() {
				found = append(found, v)
			}
		}
	}
	return found, nil
}

func (s *store) HasMarker() (bool, error) {
	content, err := s.readConfig()
	if err != nil {
		return false, err
	}
	return strings.Contains(content, Marker), nil
}

// rewriteIncludes drops every known include line and, when v is set,
// inserts v's include right after the first Marker occurrence. Line
// endings are normalized to LF so a second call is a no-op.
func rewriteIncludes(content string, v *Variant) (string, bool) {
	lines := strings.Split(content, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSuffix(line, "\r")
		if !isInclude(line) {
			kept = append(kept, line)
		}
	}
	out := strings.Join(kept, "\n")
	if v == nil {
		return out, false
	}
	i := strings.Index(out, Marker)
	if i < 0 {
		return out, false
	}
	at := i + len(Marker)
	return out[:at] + "\n" + includeIndent + v.Include() + out[at:], true
}
