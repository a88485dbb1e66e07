package dashboard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/quicknginx/quicknginx/internal/logs"
	"github.com/quicknginx/quicknginx/internal/ui"
)

// LogPane shows the newest entries of the selected log in a scrollable
// viewport. Entries arrive newest first, as logs.Reader returns them.
type LogPane struct {
	BaseComponent
	vp      viewport.Model
	kind    logs.Kind
	entries []logs.Entry
	err     error
	colors  *ui.ColorConfig

	// content is rebuilt when entries or width change
	dirty     bool
	builtForW int
}

func NewLogPane(noColor bool) *LogPane {
	colors := ui.NewColorConfigFromGlobal()
	if noColor {
		colors.Enabled = false
	}
	return &LogPane{
		BaseComponent: BaseComponent{id: "logs", title: "Logs", minW: 40, minH: 8},
		vp:            viewport.New(0, 0),
		colors:        colors,
		dirty:         true,
	}
}

func (c *LogPane) Update(msg tea.Msg, data Snapshot) (Component, tea.Cmd) {
	switch msg := msg.(type) {
	case dataMsg:
		if data.LogKind != c.kind {
			c.vp.GotoTop()
		}
		c.kind, c.entries, c.err = data.LogKind, data.Logs, data.LogErr
		c.dirty = true
	case tea.KeyMsg:
		var cmd tea.Cmd
		c.vp, cmd = c.vp.Update(msg)
		return c, cmd
	}
	return c, nil
}

func (c *LogPane) View(w, h int) string {
	if w <= 0 || h <= 0 {
		return ""
	}
	inner := innerWidth(w)
	c.vp.Width = inner
	c.vp.Height = max(h-3, 1) // border + title line
	if c.dirty || c.builtForW != inner {
		c.vp.SetContent(c.renderLines(inner))
		c.dirty, c.builtForW = false, inner
	}

	title := fmt.Sprintf("%s (%d)", c.kind.FileName(), len(c.entries))
	if c.vp.TotalLineCount() > c.vp.Height {
		title += fmt.Sprintf("  %3.f%%", c.vp.ScrollPercent()*100)
	}
	return box(FormatTitle(title, inner)+"\n"+c.vp.View(), w, h)
}

func (c *LogPane) renderLines(width int) string {
	dim := lipgloss.NewStyle().Foreground(dimColor)
	if c.err != nil {
		return lipgloss.NewStyle().Foreground(errColor).Render(truncate(c.err.Error(), width))
	}
	if len(c.entries) == 0 {
		return dim.Render("(empty)")
	}
	lines := make([]string, len(c.entries))
	for i, e := range c.entries {
		ts := e.Timestamp
		if ts == logs.UnknownTimestamp {
			ts = "-"
		}
		ts = truncate(ts, 26)
		body := truncate(e.Content, width-len([]rune(ts))-2)
		lines[i] = dim.Render(ts) + "  " + c.colors.LogLine(body)
	}
	return strings.Join(lines, "\n")
}
