package dashboard

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/quicknginx/quicknginx/internal/files"
	"github.com/quicknginx/quicknginx/internal/logs"
	"github.com/quicknginx/quicknginx/internal/ui"
)

type keyMap struct {
	Quit     key.Binding
	Refresh  key.Binding
	Help     key.Binding
	Start    key.Binding
	Stop     key.Binding
	Reload   key.Binding
	Restart  key.Binding
	Site     key.Binding
	ClearAll key.Binding
	LogKind  key.Binding
	ClearLog key.Binding
	Scroll   key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Start, k.Stop, k.Reload, k.Site, k.LogKind, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Start, k.Stop, k.Reload, k.Restart},
		{k.Site, k.ClearAll},
		{k.LogKind, k.ClearLog, k.Scroll},
		{k.Refresh, k.Help, k.Quit},
	}
}

func newKeyMap() keyMap {
	return keyMap{
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Refresh:  key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "refresh now")),
		Help:     key.NewBinding(key.WithKeys("h", "?"), key.WithHelp("h", "toggle help")),
		Start:    key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "start")),
		Stop:     key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "stop")),
		Reload:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		Restart:  key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "restart")),
		Site:     key.NewBinding(key.WithKeys("1", "2", "3", "4"), key.WithHelp("1-4", "switch site")),
		ClearAll: key.NewBinding(key.WithKeys("0"), key.WithHelp("0", "stop and clear site")),
		LogKind:  key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "access/error log")),
		ClearLog: key.NewBinding(key.WithKeys("C"), key.WithHelp("C", "clear shown log")),
		Scroll:   key.NewBinding(key.WithKeys("up", "down", "pgup", "pgdown"), key.WithHelp("↑/↓", "scroll log")),
	}
}

func tickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Dashboard is the Bubble Tea model.
type Dashboard struct {
	opts     Options
	data     Snapshot
	lastOK   time.Time
	registry *Registry
	layout   *Layout
	keys     keyMap
	help     help.Model
	spinner  spinner.Model
	width    int
	height   int
	showHelp bool
	loading  bool

	logKind     logs.Kind
	busy        string
	notice      string
	noticeErr   bool
	fetchCancel context.CancelFunc
	fetchSeq    uint64
}

func New(opts Options) *Dashboard {
	if opts.RefreshInterval <= 0 {
		opts.RefreshInterval = 2 * time.Second
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = 5 * time.Second
	}

	registry := NewRegistry()
	registry.Register(NewHeader(opts.NoEmoji))
	registry.Register(NewStatusPanel(opts.NoEmoji))
	registry.Register(NewSitesPanel(opts.NoEmoji))
	registry.Register(NewLogPane(false))

	layout := NewLayout([]Row{
		{Components: []string{"header"}, MinHeight: 4},
		{Components: []string{"status", "sites"}, Weights: []int{50, 50}, MinHeight: 11},
		{Components: []string{"logs"}, MinHeight: 8, Grow: true},
	}, registry)

	s := spinner.New()
	s.Spinner = spinner.Dot

	return &Dashboard{
		opts:     opts,
		registry: registry,
		layout:   layout,
		keys:     newKeyMap(),
		help:     help.New(),
		spinner:  s,
		loading:  true,
		logKind:  logs.KindAccess,
	}
}

// Init sets styles only after the alt screen is up so lipgloss does not
// query the terminal early.
func (m *Dashboard) Init() tea.Cmd {
	m.spinner.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	return tea.Batch(m.spinner.Tick, m.fetchCmd(), tickCmd(m.opts.RefreshInterval))
}

func (m *Dashboard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case fetchStartedMsg:
		if msg.seq != m.fetchSeq {
			msg.cancel()
			return m, nil
		}
		if m.fetchCancel != nil {
			m.fetchCancel()
		}
		m.fetchCancel = msg.cancel
		return m, nil

	case fetchDoneMsg:
		// a newer fetch (tab toggle, action) superseded this one
		if msg.seq != m.fetchSeq {
			return m, nil
		}
		if msg.err != nil {
			return m.Update(dataErrMsg{err: msg.err})
		}
		return m.Update(dataMsg(msg.data))

	case tickMsg:
		// only tickMsg reschedules, so there is a single ticker
		cmds := []tea.Cmd{tickCmd(m.opts.RefreshInterval)}
		if m.fetchCancel == nil && m.busy == "" {
			cmds = append(cmds, m.fetchCmd())
		}
		return m, tea.Batch(cmds...)

	case dataMsg:
		m.data = m.decorate(Snapshot(msg))
		m.lastOK = time.Now()
		m.loading = false
		m.fetchCancel = nil
		return m, tea.Batch(m.registry.UpdateAll(dataMsg(m.data), m.data)...)

	case dataErrMsg:
		m.data.Err = msg.err
		m.data = m.decorate(m.data)
		m.loading = false
		m.fetchCancel = nil
		return m, tea.Batch(m.registry.UpdateAll(msg, m.data)...)

	case actionDoneMsg:
		m.busy = ""
		if msg.err != nil {
			m.notice, m.noticeErr = fmt.Sprintf("%s: %s", msg.label, msg.err), true
		} else {
			m.notice, m.noticeErr = fmt.Sprintf("%s: %s", msg.label, msg.out), false
		}
		m.data = m.decorate(m.data)
		cmds := m.registry.UpdateAll(msg, m.data)
		return m, tea.Batch(append(cmds, m.fetchCmd())...)

	case forceRefreshMsg:
		return m, m.fetchCmd()

	case toggleHelpMsg:
		m.showHelp = !m.showHelp
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// decorate copies model-owned state into the snapshot handed to panels.
func (m *Dashboard) decorate(s Snapshot) Snapshot {
	s.Busy, s.Notice, s.NoticeErr = m.busy, m.notice, m.noticeErr
	s.CLIVersion = m.opts.CLIVersion
	s.Paths = m.opts.Paths
	return s
}

func (m *Dashboard) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		switch msg.String() {
		case "q", "h", "?", "esc":
			return m, func() tea.Msg { return toggleHelpMsg{} }
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		if m.fetchCancel != nil {
			m.fetchCancel()
		}
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		return m, func() tea.Msg { return toggleHelpMsg{} }
	case key.Matches(msg, m.keys.Refresh):
		return m, func() tea.Msg { return forceRefreshMsg{} }
	case key.Matches(msg, m.keys.Scroll):
		return m, tea.Batch(m.registry.UpdateAll(msg, m.data)...)
	case key.Matches(msg, m.keys.LogKind):
		if m.logKind == logs.KindAccess {
			m.logKind = logs.KindError
		} else {
			m.logKind = logs.KindAccess
		}
		return m, m.fetchCmd()
	}

	// actions are serialized; ignore keys while one is in flight
	if m.busy != "" {
		return m, nil
	}
	p := m.opts.Panel
	switch {
	case key.Matches(msg, m.keys.Start):
		return m.run("start", func(ctx context.Context) (string, error) { return p.RunCommand(ctx, "start") })
	case key.Matches(msg, m.keys.Stop):
		return m.run("stop", func(ctx context.Context) (string, error) { return p.RunCommand(ctx, "stop") })
	case key.Matches(msg, m.keys.Reload):
		return m.run("reload", func(ctx context.Context) (string, error) { return p.RunCommand(ctx, "reload") })
	case key.Matches(msg, m.keys.Restart):
		return m.run("restart", func(ctx context.Context) (string, error) { return p.Proc.Restart(ctx) })
	case key.Matches(msg, m.keys.ClearAll):
		return m.run("stop and clear", p.StopAndClear)
	case key.Matches(msg, m.keys.ClearLog):
		kind := m.logKind
		return m.run("clear "+kind.FileName(), func(context.Context) (string, error) {
			if err := p.ClearLog(kind.String()); err != nil {
				return "", err
			}
			return "cleared", nil
		})
	case key.Matches(msg, m.keys.Site) && len(msg.Runes) == 1:
		v := files.Variants[int(msg.Runes[0]-'1')]
		return m.run("switch to "+v.String(), func(ctx context.Context) (string, error) {
			return p.SwitchSite(ctx, v.String())
		})
	}
	return m, nil
}

// run executes an action off the UI goroutine. No timeout is applied:
// nginx and the escalator may legitimately block (e.g. a sudo prompt).
func (m *Dashboard) run(label string, fn func(context.Context) (string, error)) (tea.Model, tea.Cmd) {
	if m.opts.Panel == nil {
		return m, nil
	}
	m.busy = label
	m.data = m.decorate(m.data)
	m.registry.UpdateAll(actionDoneMsg{}, m.data)
	return m, func() tea.Msg {
		out, err := fn(context.Background())
		return actionDoneMsg{label: label, out: out, err: err}
	}
}

func (m *Dashboard) fetchCmd() tea.Cmd {
	ctx, cancel := context.WithTimeout(context.Background(), m.opts.FetchTimeout)
	kind := m.logKind
	m.fetchSeq++
	seq := m.fetchSeq
	return tea.Sequence(
		func() tea.Msg { return fetchStartedMsg{seq: seq, cancel: cancel} },
		func() tea.Msg {
			defer cancel()
			data, err := m.fetchData(ctx, kind)
			return fetchDoneMsg{seq: seq, data: data, err: err}
		},
	)
}

// fetchData collects one Snapshot. Per-part failures are recorded on the
// snapshot; only a missing panel is a fetch error.
func (m *Dashboard) fetchData(ctx context.Context, kind logs.Kind) (Snapshot, error) {
	p := m.opts.Panel
	if p == nil {
		return Snapshot{}, fmt.Errorf("dashboard has no panel")
	}
	s := Snapshot{LastUpdate: time.Now(), LogKind: kind}

	s.Running, s.StatusErr = p.CheckStatus(ctx)
	if s.Running {
		s.PIDs, _ = p.Proc.PIDs(ctx)
		s.Uptime, _ = p.Proc.Uptime(ctx)
	}
	if v, err := p.Proc.Version(ctx); err == nil {
		s.Version = v
	}

	s.Active, s.SitesErr = p.Sites.Active()
	if s.SitesErr == nil {
		s.HasMarker, _ = p.Sites.HasMarker()
	}

	if m.opts.Metrics != nil {
		s.Resources = m.opts.Metrics.Collect(ctx, s.PIDs)
		s.HasResources = true
	}

	s.Logs, s.LogErr = p.GetLogs(kind.String())
	return s, nil
}

// FetchOnce performs a single blocking fetch for non-TTY output.
func (m *Dashboard) FetchOnce(ctx context.Context) (Snapshot, error) {
	s, err := m.fetchData(ctx, m.logKind)
	return m.decorate(s), err
}

func (m *Dashboard) View() string {
	if m.width <= 0 || m.height <= 1 {
		return ""
	}

	if m.loading {
		content := lipgloss.JoinVertical(lipgloss.Center,
			lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true).Render(m.spinner.View()),
			lipgloss.NewStyle().Foreground(titleColor).Bold(true).Render("READING NGINX STATE"),
		)
		b := lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("205")).
			Padding(1, 4).
			Render(content)
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, b)
	}

	if m.showHelp {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
			lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(borderColor).
				Padding(1, 2).
				Render(m.helpText()))
	}

	footer := m.help.ShortHelpView(m.keys.ShortHelp())
	res := m.layout.Compute(m.width, m.height-lipgloss.Height(footer))

	byRow := make(map[int][]Cell)
	for _, c := range res.Cells {
		byRow[c.Y] = append(byRow[c.Y], c)
	}
	ys := make([]int, 0, len(byRow))
	for y := range byRow {
		ys = append(ys, y)
	}
	sort.Ints(ys)

	var rows []string
	for _, y := range ys {
		cells := byRow[y]
		sort.Slice(cells, func(i, j int) bool { return cells[i].X < cells[j].X })
		var parts []string
		for _, c := range cells {
			if comp := m.registry.Get(c.ID); comp != nil {
				parts = append(parts, comp.View(c.W, c.H))
			}
		}
		if len(parts) > 0 {
			rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, parts...))
		}
	}
	out := lipgloss.JoinVertical(lipgloss.Left, rows...)
	if res.Warning != "" {
		out += "\n⚠ " + res.Warning
	}
	return lipgloss.JoinVertical(lipgloss.Left, out, footer)
}

func (m *Dashboard) helpText() string {
	title := lipgloss.NewStyle().Foreground(titleColor).Bold(true)
	var b strings.Builder
	b.WriteString(title.Render("quicknginx dashboard") + "\n\n")
	h := help.New()
	h.ShowAll = true
	b.WriteString(h.View(m.keys))
	b.WriteString("\n\n")
	b.WriteString(lipgloss.NewStyle().Foreground(warnColor).Bold(true).Render("Press 'q', 'h' or 'esc' to close help"))
	return b.String()
}

// RenderStatic renders a plain snapshot for non-TTY output.
func RenderStatic(s Snapshot) string {
	var b strings.Builder
	b.WriteString("=== NGINX STATUS ===\n\n")
	switch {
	case s.StatusErr != nil:
		fmt.Fprintf(&b, "Status:  Unknown (%v)\n", s.StatusErr)
	case s.Running:
		pids := make([]string, len(s.PIDs))
		for i, p := range s.PIDs {
			pids[i] = fmt.Sprint(p)
		}
		fmt.Fprintf(&b, "Status:  Running (PIDs: %s)\n", strings.Join(pids, ", "))
		if s.Uptime > 0 {
			fmt.Fprintf(&b, "Uptime:  %s\n", s.Uptime.Truncate(time.Second))
		}
	default:
		b.WriteString("Status:  Stopped\n")
	}
	if s.Version != "" {
		fmt.Fprintf(&b, "Version: %s\n", s.Version)
	}
	if s.SitesErr != nil {
		fmt.Fprintf(&b, "Site:    unreadable (%v)\n", s.SitesErr)
	} else {
		fmt.Fprintf(&b, "Site:    %s\n", s.ActiveName())
	}
	if s.HasResources {
		r := s.Resources
		fmt.Fprintf(&b, "Memory:  nginx %s, host %s / %s\n", ui.FormatBytes(r.Nginx.RSS), ui.FormatBytes(r.System.MemUsed), ui.FormatBytes(r.System.MemTotal))
		fmt.Fprintf(&b, "CPU:     host %.1f%%\n", r.System.CPUPercent)
	}
	fmt.Fprintf(&b, "Config:  %s\n", s.Paths.ConfPath)
	fmt.Fprintf(&b, "Logs:    %s\n\n", s.Paths.LogDir)

	fmt.Fprintf(&b, "Latest %s entries:\n", s.LogKind.FileName())
	switch {
	case s.LogErr != nil:
		fmt.Fprintf(&b, "  (%v)\n", s.LogErr)
	case len(s.Logs) == 0:
		b.WriteString("  (empty)\n")
	default:
		for _, e := range s.Logs[:min(len(s.Logs), 10)] {
			fmt.Fprintf(&b, "  %s\n", e.Content)
		}
	}
	if !s.LastUpdate.IsZero() {
		fmt.Fprintf(&b, "\nLast Update: %s\n", s.LastUpdate.Format("2006-01-02 15:04:05 MST"))
	}
	return b.String()
}

