package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/quicknginx/quicknginx/internal/dashboard"
	"github.com/quicknginx/quicknginx/internal/metrics"
	ui "github.com/quicknginx/quicknginx/internal/ui"
)

// dashboardCoreDeps holds injectable dependencies for runDashboardCmdCore.
type dashboardCoreDeps struct {
	isTTY          func() bool
	warmSudo       func() error
	runStatic      func(ctx context.Context, opts dashboard.Options) error
	runInteractive func(opts dashboard.Options) error
}

// runDashboardCmdCore contains the testable logic for the dashboard RunE handler.
func runDashboardCmdCore(ctx context.Context, opts dashboard.Options, deps dashboardCoreDeps) error {
	if !deps.isTTY() {
		if opts.Debug {
			fmt.Fprintln(os.Stderr, "Debug: Non-TTY detected, using static mode")
		}
		return deps.runStatic(ctx, opts)
	}

	// The TUI owns the terminal, so a sudo password prompt from an action
	// would be unreadable. Ask once up front.
	if deps.warmSudo != nil {
		if err := deps.warmSudo(); err != nil {
			return fmt.Errorf("sudo authentication failed: %w", err)
		}
	}
	if opts.Debug {
		fmt.Fprintln(os.Stderr, "Debug: TTY detected, using interactive mode")
	}
	return deps.runInteractive(opts)
}

func createDashboardCmd() *cobra.Command {
	var (
		refreshInterval time.Duration
		fetchTimeout    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Interactive control panel for nginx",
		Long: `Launch a terminal control panel showing:

  • nginx process status (running/stopped, PIDs, uptime, version)
  • the active site, switchable with keys 1-4
  • the newest access or error log entries

Press 's' start, 'x' stop, 'r' reload, 'R' restart, '0' stop and clear the
site, 'tab' switch log, 'C' clear it. Press '?' for help.

Without a TTY a static text snapshot is printed instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d := newDeps()
			cfg := d.Cfg
			opts := dashboard.Options{
				Panel:           d.Panel,
				Paths:           cfg.Paths,
				RefreshInterval: refreshInterval,
				FetchTimeout:    fetchTimeout,
				NoEmoji:         flagNoEmoji,
				Debug:           flagDebug,
				CLIVersion:      Version,
				Metrics:         metrics.NewWithoutCPU(cfg.LogDir),
			}

			var warm func() error
			if cfg.Escalator == "sudo" && !flagNonInteractive {
				warm = warmSudo
			}
			return runDashboardCmdCore(cmd.Context(), opts, dashboardCoreDeps{
				isTTY:          func() bool { return term.IsTerminal(int(os.Stdout.Fd())) },
				warmSudo:       warm,
				runStatic:      runDashboardStatic,
				runInteractive: runDashboardInteractive,
			})
		},
	}

	cmd.Flags().DurationVar(&refreshInterval, "refresh-interval", 2*time.Second, "Dashboard refresh interval")
	cmd.Flags().DurationVar(&fetchTimeout, "fetch-timeout", 5*time.Second, "Timeout for one status refresh")
	return cmd
}

// warmSudo caches sudo credentials with the terminal still in cooked mode.
func warmSudo() error {
	c := exec.Command("sudo", "-v")
	c.Stdin, c.Stdout, c.Stderr = os.Stdin, os.Stdout, os.Stderr
	return c.Run()
}

// runDashboardStatic performs a single fetch and prints static output for non-TTY
func runDashboardStatic(ctx context.Context, opts dashboard.Options) error {
	d := dashboard.New(opts)

	timeout := opts.FetchTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	data, err := d.FetchOnce(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch dashboard data: %w", err)
	}
	fmt.Print(dashboard.RenderStatic(data))
	return nil
}

// runDashboardInteractive launches the Bubble Tea program.
func runDashboardInteractive(opts dashboard.Options) error {
	if opts.Metrics != nil {
		opts.Metrics.Start()
		defer opts.Metrics.Stop()
	}
	p := tea.NewProgram(
		dashboard.New(opts),
		tea.WithAltScreen(),
		tea.WithInput(os.Stdin),
		tea.WithOutput(os.Stdout),
	)

	if _, err := p.Run(); err != nil {
		if strings.Contains(err.Error(), "tty") || strings.Contains(err.Error(), "device not configured") {
			if opts.Debug {
				fmt.Fprintf(os.Stderr, "Debug: TTY error, falling back to static mode: %v\n", err)
			}
			return runDashboardStatic(context.Background(), opts)
		}
		return fmt.Errorf("dashboard error: %w", err)
	}

	ui.ResetTerminalAfterTUI()
	return nil
}

func init() {
	rootCmd.AddCommand(createDashboardCmd())
}
