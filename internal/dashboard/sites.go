package dashboard

import (
	"fmt"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/quicknginx/quicknginx/internal/files"
)

// SitesPanel lists the site includes with their switch keys.
type SitesPanel struct {
	BaseComponent
	data  Snapshot
	icons Icons
}

func NewSitesPanel(noEmoji bool) *SitesPanel {
	return &SitesPanel{
		BaseComponent: BaseComponent{id: "sites", title: "Sites", minW: 28, minH: 8},
		icons:         NewIcons(noEmoji),
	}
}

func (c *SitesPanel) Update(msg tea.Msg, data Snapshot) (Component, tea.Cmd) {
	c.data = data
	return c, nil
}

func (c *SitesPanel) View(w, h int) string {
	content := c.renderContent(w)
	if out, ok := c.cachedFor(content, w, h); ok {
		return out
	}
	return c.store(box(content, w, h))
}

func (c *SitesPanel) renderContent(w int) string {
	inner := innerWidth(w)
	keyStyle := lipgloss.NewStyle().Foreground(titleColor).Bold(true)
	activeStyle := lipgloss.NewStyle().Foreground(siteColor).Bold(true)
	dim := lipgloss.NewStyle().Foreground(dimColor)
	warn := lipgloss.NewStyle().Foreground(warnColor)

	var lines []string
	if c.data.SitesErr != nil {
		lines = append(lines, warn.Render(truncate(c.icons.Warn+" "+c.data.SitesErr.Error(), inner)))
	}
	for i, v := range files.Variants {
		name := v.String()
		mark := c.icons.Idle
		if slices.Contains(c.data.Active, v) {
			mark = c.icons.Active
			name = activeStyle.Render(name)
		} else {
			name = dim.Render(name)
		}
		lines = append(lines, fmt.Sprintf("%s %s %s", keyStyle.Render(fmt.Sprint(i+1)), mark, name))
	}
	lines = append(lines, fmt.Sprintf("%s %s", keyStyle.Render("0"), dim.Render("clear all")))
	if len(c.data.Active) > 1 {
		lines = append(lines, warn.Render(c.icons.Warn+" several includes active"))
	}
	if c.data.SitesErr == nil && !c.data.HasMarker {
		lines = append(lines, warn.Render(truncate(c.icons.Warn+" include marker missing", inner)))
	}
	return FormatTitle(c.Title(), inner) + "\n" + strings.Join(lines, "\n")
}
