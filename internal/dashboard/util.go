package dashboard

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Icons are the status glyphs, with ASCII fallbacks for --no-emoji.
type Icons struct {
	OK      string
	Warn    string
	Err     string
	Unknown string
	Active  string
	Idle    string
}

func NewIcons(noEmoji bool) Icons {
	if noEmoji {
		return Icons{OK: "[OK]", Warn: "[!]", Err: "[X]", Unknown: "[?]", Active: "(*)", Idle: "( )"}
	}
	return Icons{OK: "✓", Warn: "⚠", Err: "✗", Unknown: "◯", Active: "●", Idle: "○"}
}

var (
	borderColor = lipgloss.Color("63")
	titleColor  = lipgloss.Color("39")
	dimColor    = lipgloss.Color("241")
	okColor     = lipgloss.Color("10")
	warnColor   = lipgloss.Color("226")
	errColor    = lipgloss.Color("9")
	siteColor   = lipgloss.Color("213")
)

// FormatTitle renders a bold, centered, upper-case panel title.
func FormatTitle(title string, width int) string {
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(titleColor).
		Width(max(width, 0)).
		Align(lipgloss.Center).
		Render(strings.ToUpper(title))
}

// box draws the rounded border shared by all panels. w and h are the
// outer size allotted by the layout.
func box(content string, w, h int) string {
	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(borderColor).
		Padding(0, 1).
		Width(max(w-2, 0))
	if h > 2 {
		style = style.Height(h - 2).MaxHeight(h)
	}
	return style.Render(content)
}

// innerWidth is the usable text width inside box.
func innerWidth(w int) int { return max(w-4, 1) }

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	return string(r[:n-1]) + "…"
}
