package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Output formats accepted by --output.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Printer centralizes output formatting for commands.
// Text goes through ColorConfig; json and yaml encode the value as-is.
type Printer struct {
	format string
	out    io.Writer
	Colors *ColorConfig
}

func NewPrinter(format string) Printer {
	return Printer{format: format, out: os.Stdout, Colors: NewColorConfig()}
}

// WithWriter returns a copy of p that writes to w.
func (p Printer) WithWriter(w io.Writer) Printer {
	p.out = w
	return p
}

// Format returns the configured output format.
func (p Printer) Format() string {
	if p.format == "" {
		return FormatText
	}
	return p.format
}

// Structured reports whether output is machine-readable (json or yaml).
func (p Printer) Structured() bool {
	f := p.Format()
	return f == FormatJSON || f == FormatYAML
}

func (p Printer) writer() io.Writer {
	if p.out == nil {
		return os.Stdout
	}
	return p.out
}

// Textf prints formatted text (always text path).
func (p Printer) Textf(format string, a ...any) { fmt.Fprintf(p.writer(), format, a...) }

// Println prints a plain line.
func (p Printer) Println(a ...any) { fmt.Fprintln(p.writer(), a...) }

// JSON pretty-prints a JSON value.
func (p Printer) JSON(v any) {
	enc := json.NewEncoder(p.writer())
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

// YAML prints v as a YAML document.
func (p Printer) YAML(v any) {
	enc := yaml.NewEncoder(p.writer())
	enc.SetIndent(2)
	_ = enc.Encode(v)
	_ = enc.Close()
}

// Emit writes v in the structured format selected by --output.
// It returns false in text mode so the caller can render its own view.
func (p Printer) Emit(v any) bool {
	switch p.Format() {
	case FormatJSON:
		p.JSON(v)
	case FormatYAML:
		p.YAML(v)
	default:
		return false
	}
	return true
}

// Success prints a success line with themed prefix.
func (p Printer) Success(msg string) {
	c := p.Colors
	// no extra space if message already starts with whitespace
	space := " "
	if len(msg) > 0 && (msg[0] == ' ' || msg[0] == '\t') {
		space = ""
	}
	if c.EmojiEnabled {
		fmt.Fprintf(p.writer(), "%s%s%s\n", c.Success("✓"), space, msg)
	} else {
		fmt.Fprintf(p.writer(), "%s%s%s\n", c.Success("[OK]"), space, msg)
	}
}

// Info prints an informational line.
func (p Printer) Info(msg string) {
	c := p.Colors
	if c.EmojiEnabled {
		fmt.Fprintln(p.writer(), c.Info("ℹ"), msg)
	} else {
		fmt.Fprintln(p.writer(), c.Info("[INFO]"), msg)
	}
}

// Warn prints a warning line.
func (p Printer) Warn(msg string) {
	c := p.Colors
	if c.EmojiEnabled {
		fmt.Fprintln(p.writer(), c.Warning("!"), msg)
	} else {
		fmt.Fprintln(p.writer(), c.Warning("[WARN]"), msg)
	}
}

// Error prints an error line.
func (p Printer) Error(msg string) {
	c := p.Colors
	if c.EmojiEnabled {
		fmt.Fprintln(p.writer(), c.Error("✗"), msg)
	} else {
		fmt.Fprintln(p.writer(), c.Error("[ERR]"), msg)
	}
}

// Header prints a section header.
func (p Printer) Header(title string) {
	fmt.Fprintln(p.writer(), p.Colors.Header(" "+title+" "))
}

// Section prints a section header with separator
func (p Printer) Section(title string) {
	fmt.Fprintln(p.writer())
	fmt.Fprintln(p.writer(), p.Colors.SubHeader(title))
	fmt.Fprintln(p.writer(), p.Colors.Separator(40))
}

// KeyValueLine prints a key-value pair with proper formatting
func (p Printer) KeyValueLine(key, value, colorType string) {
	var coloredValue string
	switch colorType {
	case "blue":
		coloredValue = p.Colors.Info(value)
	case "yellow":
		coloredValue = p.Colors.Warning(value)
	case "green":
		coloredValue = p.Colors.Success(value)
	case "red":
		coloredValue = p.Colors.Error(value)
	case "magenta":
		coloredValue = p.Colors.Site(value)
	case "dim":
		coloredValue = p.Colors.Description(value)
	default:
		coloredValue = p.Colors.Value(value)
	}
	fmt.Fprintf(p.writer(), "%s %s\n", p.Colors.Label(fmt.Sprintf("%-12s", key+":")), coloredValue)
}
