package dashboard

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Header shows the title, the last action outcome and fetch errors.
type Header struct {
	BaseComponent
	data  Snapshot
	icons Icons
}

func NewHeader(noEmoji bool) *Header {
	return &Header{
		BaseComponent: BaseComponent{id: "header", title: "quicknginx", minW: 30, minH: 4},
		icons:         NewIcons(noEmoji),
	}
}

func (c *Header) Update(msg tea.Msg, data Snapshot) (Component, tea.Cmd) {
	c.data = data
	return c, nil
}

func (c *Header) View(w, h int) string {
	if w <= 0 || h <= 0 {
		return ""
	}
	inner := innerWidth(w)
	title := FormatTitle(c.Title(), 0)
	if c.data.CLIVersion != "" {
		title += " " + lipgloss.NewStyle().Foreground(dimColor).Render("v"+strings.TrimPrefix(c.data.CLIVersion, "v"))
	}

	var status string
	switch {
	case c.data.Busy != "":
		status = lipgloss.NewStyle().Foreground(warnColor).Render(c.data.Busy + "…")
	case c.data.Notice != "" && c.data.NoticeErr:
		status = lipgloss.NewStyle().Foreground(errColor).Render(c.icons.Err + " " + truncate(c.data.Notice, inner-2))
	case c.data.Notice != "":
		status = lipgloss.NewStyle().Foreground(okColor).Render(c.icons.OK + " " + truncate(c.data.Notice, inner-2))
	case c.data.Err != nil:
		status = lipgloss.NewStyle().Foreground(errColor).Render(fmt.Sprintf("%s %s", c.icons.Warn, truncate(c.data.Err.Error(), inner-2)))
	default:
		status = lipgloss.NewStyle().Foreground(dimColor).Render(c.data.Paths.ConfPath)
	}

	content := lipgloss.NewStyle().Width(inner).Align(lipgloss.Center).Render(title + "\n" + status)
	if out, ok := c.cachedFor(content, w, h); ok {
		return out
	}
	return c.store(box(content, w, h))
}
