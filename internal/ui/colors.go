package ui

import (
	"fmt"
	"os"
	"strings"
)

// Color codes for terminal output
const (
	Reset     = "\033[0m"
	Bold      = "\033[1m"
	Dim       = "\033[2m"
	Underline = "\033[4m"

	Red     = "\033[31m"
	Green   = "\033[32m"
	Yellow  = "\033[33m"
	Cyan    = "\033[36m"

	BrightBlack   = "\033[90m"
	BrightRed     = "\033[91m"
	BrightGreen   = "\033[92m"
	BrightYellow  = "\033[93m"
	BrightMagenta = "\033[95m"
	BrightCyan    = "\033[96m"
)

// Theme defines the color scheme for different UI elements
type Theme struct {
	// Status indicators
	Success string
	Warning string
	Error   string
	Info    string

	// UI elements
	Header      string
	SubHeader   string
	Label       string
	Value       string
	Command     string
	Flag        string
	Description string
	Separator   string
	Pending     string

	// Log views
	Timestamp string
	Site      string
}

// DefaultTheme returns the default color theme
func DefaultTheme() *Theme {
	return &Theme{
		Success: BrightGreen,
		Warning: BrightYellow,
		Error:   BrightRed,
		Info:    BrightCyan,

		Header:      Bold + BrightCyan,
		SubHeader:   Bold + Cyan,
		Label:       Bold, // terminal default color stays readable on light and dark backgrounds
		Value:       "",
		Command:     BrightGreen,
		Flag:        BrightYellow,
		Description: BrightBlack,
		Separator:   BrightBlack,
		Pending:     BrightBlack,

		Timestamp: BrightBlack,
		Site:      Bold + BrightMagenta,
	}
}

// ColorConfig manages color output settings
type ColorConfig struct {
	Enabled      bool
	EmojiEnabled bool
	Theme        *Theme
}

// NewColorConfig creates a new color configuration with default settings
func NewColorConfig() *ColorConfig {
	noColor := os.Getenv("NO_COLOR") != ""
	term := os.Getenv("TERM")

	// Disable colors if NO_COLOR is set or TERM is dumb
	enabled := !noColor && term != "dumb" && term != ""

	return &ColorConfig{
		Enabled:      enabled,
		EmojiEnabled: true,
		Theme:        DefaultTheme(),
	}
}

// Apply applies a color to text if colors are enabled
func (c *ColorConfig) Apply(color, text string) string {
	if !c.Enabled || color == "" {
		return text
	}
	return color + text + Reset
}

func (c *ColorConfig) Success(text string) string     { return c.Apply(c.Theme.Success, text) }
func (c *ColorConfig) Warning(text string) string     { return c.Apply(c.Theme.Warning, text) }
func (c *ColorConfig) Error(text string) string       { return c.Apply(c.Theme.Error, text) }
func (c *ColorConfig) Info(text string) string        { return c.Apply(c.Theme.Info, text) }
func (c *ColorConfig) Header(text string) string      { return c.Apply(c.Theme.Header, text) }
func (c *ColorConfig) SubHeader(text string) string   { return c.Apply(c.Theme.SubHeader, text) }
func (c *ColorConfig) Label(text string) string       { return c.Apply(c.Theme.Label, text) }
func (c *ColorConfig) Value(text string) string       { return c.Apply(c.Theme.Value, text) }
func (c *ColorConfig) Command(text string) string     { return c.Apply(c.Theme.Command, text) }
func (c *ColorConfig) Flag(text string) string        { return c.Apply(c.Theme.Flag, text) }
func (c *ColorConfig) Description(text string) string { return c.Apply(c.Theme.Description, text) }
func (c *ColorConfig) Timestamp(text string) string   { return c.Apply(c.Theme.Timestamp, text) }
func (c *ColorConfig) Site(text string) string        { return c.Apply(c.Theme.Site, text) }

// FormatCommandAligned formats a command with its description in a fixed-width column
func (c *ColorConfig) FormatCommandAligned(cmd, desc string, width int) string {
	pad := width - len(cmd)
	if pad < 1 {
		pad = 1
	}
	return fmt.Sprintf("  %s%s%s", c.Command(cmd), strings.Repeat(" ", pad), c.Description(desc))
}

// Separator returns a colored separator line
func (c *ColorConfig) Separator(width int) string {
	return c.Apply(c.Theme.Separator, strings.Repeat("─", width))
}

// StatusIcon returns a colored status icon (respects emoji settings)
func (c *ColorConfig) StatusIcon(status string) string {
	if !c.EmojiEnabled {
		switch strings.ToLower(status) {
		case "success", "pass", "running", "active":
			return c.Success("[OK]")
		case "warning", "warn", "unknown":
			return c.Warning("[WARN]")
		case "error", "fail", "failed", "stopped":
			return c.Error("[ERR]")
		default:
			return c.Apply(c.Theme.Pending, "[ ]")
		}
	}

	switch strings.ToLower(status) {
	case "success", "pass", "running", "active":
		return c.Success("✓")
	case "warning", "warn", "unknown":
		return c.Warning("⚠")
	case "error", "fail", "failed", "stopped":
		return c.Error("✗")
	default:
		return c.Apply(c.Theme.Pending, "○")
	}
}

// LogLine colors an nginx log line by severity. Error-log levels are
// bracketed ("[error]"); access lines are colored by status class.
func (c *ColorConfig) LogLine(line string) string {
	if !c.Enabled {
		return line
	}
	lower := strings.ToLower(line)
	switch {
	case strings.Contains(lower, "[emerg]") || strings.Contains(lower, "[alert]") ||
		strings.Contains(lower, "[crit]") || strings.Contains(lower, "[error]") || accessStatus(line) >= 500:
		return Red + line + Reset
	case strings.Contains(lower, "[warn]") || accessStatus(line) >= 400:
		return Yellow + line + Reset
	case strings.Contains(lower, "[notice]") || strings.Contains(lower, "[info]"):
		return Green + line + Reset
	case strings.Contains(lower, "[debug]"):
		return BrightBlack + line + Reset
	}
	return line
}

// accessStatus returns the HTTP status of a combined-format access line, or 0.
func accessStatus(line string) int {
	// ... "GET / HTTP/1.1" 404 153 ...
	i := strings.Index(line, "\" ")
	if i < 0 || i+5 > len(line) {
		return 0
	}
	code := line[i+2 : i+5]
	n := 0
	for _, r := range code {
		if r < '0' || r > '9' {
			return 0
		}
		n = n*10 + int(r-'0')
	}
	return n
}
