package dashboard

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/quicknginx/quicknginx/internal/ui"
)

// StatusPanel shows nginx liveness, PIDs, uptime and version.
type StatusPanel struct {
	BaseComponent
	data  Snapshot
	icons Icons
}

func NewStatusPanel(noEmoji bool) *StatusPanel {
	return &StatusPanel{
		BaseComponent: BaseComponent{id: "status", title: "nginx", minW: 28, minH: 8},
		icons:         NewIcons(noEmoji),
	}
}

func (c *StatusPanel) Update(msg tea.Msg, data Snapshot) (Component, tea.Cmd) {
	c.data = data
	return c, nil
}

func (c *StatusPanel) View(w, h int) string {
	content := c.renderContent(w)
	if out, ok := c.cachedFor(content, w, h); ok {
		return out
	}
	return c.store(box(content, w, h))
}

func (c *StatusPanel) renderContent(w int) string {
	inner := innerWidth(w)
	ok := lipgloss.NewStyle().Foreground(okColor)
	bad := lipgloss.NewStyle().Foreground(errColor)
	warn := lipgloss.NewStyle().Foreground(warnColor)

	var lines []string
	switch {
	case c.data.StatusErr != nil:
		lines = append(lines, warn.Render(c.icons.Unknown+" Unknown"),
			truncate(c.data.StatusErr.Error(), inner))
	case c.data.Running:
		lines = append(lines, ok.Render(c.icons.OK+" Running"))
		if len(c.data.PIDs) > 0 {
			pids := make([]string, len(c.data.PIDs))
			for i, p := range c.data.PIDs {
				pids[i] = fmt.Sprint(p)
			}
			lines = append(lines, truncate("PIDs:    "+strings.Join(pids, ", "), inner))
		}
		if c.data.Uptime > 0 {
			lines = append(lines, "Uptime:  "+ui.FormatDuration(c.data.Uptime))
		}
	default:
		lines = append(lines, bad.Render(c.icons.Err+" Stopped"))
	}
	if c.data.Version != "" {
		lines = append(lines, "Version: "+c.data.Version)
	}
	if c.data.HasResources {
		r := c.data.Resources
		if c.data.Running {
			lines = append(lines, truncate(fmt.Sprintf("RSS:     %s (%d procs)", ui.FormatBytes(r.Nginx.RSS), r.Nginx.Processes), inner))
		}
		lines = append(lines, truncate(fmt.Sprintf("Host:    cpu %.0f%%  mem %s/%s", r.System.CPUPercent,
			ui.FormatBytes(r.System.MemUsed), ui.FormatBytes(r.System.MemTotal)), inner))
	}
	lines = append(lines, truncate("Binary:  "+c.data.Paths.BinPath, inner))
	return FormatTitle(c.Title(), inner) + "\n" + strings.Join(lines, "\n")
}
