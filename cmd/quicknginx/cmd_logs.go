package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/quicknginx/quicknginx/internal/exitcodes"
	"github.com/quicknginx/quicknginx/internal/logs"
	ui "github.com/quicknginx/quicknginx/internal/ui"
)

// logView is swapped in tests so follow does not block on a real file.
var logView = ui.RunLogView

func handleLogsShow(d *Deps, kind string, limit int) error {
	p := d.printer()
	entries, err := d.Panel.GetLogs(kind)
	if err != nil {
		return emitFailure(p, "logs show", err)
	}
	total := len(entries)
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	if p.Emit(entries) {
		return nil
	}
	if len(entries) == 0 {
		p.Info(fmt.Sprintf("%s.log is empty", kind))
		return nil
	}
	for _, e := range entries {
		p.Textf("%s  %s\n", p.Colors.Timestamp(fmt.Sprintf("%-26s", e.Timestamp)), p.Colors.LogLine(e.Content))
	}
	if !flagQuiet {
		p.Println(p.Colors.Description(fmt.Sprintf("Showing %s of %s entries, newest first",
			ui.FormatNumber(int64(len(entries))), ui.FormatNumber(int64(total)))))
	}
	return nil
}

func handleLogsClear(d *Deps, kind string) error {
	p := d.printer()
	k, err := logs.ParseKind(kind)
	if err != nil {
		return err
	}
	ok, err := confirm(d, fmt.Sprintf("Truncate %s", d.Panel.Logs.Path(k)))
	if err != nil {
		return emitFailure(p, "logs clear", err)
	}
	if !ok {
		p.Info("Aborted")
		return nil
	}
	if err := d.Panel.ClearLog(kind); err != nil {
		return emitFailure(p, "logs clear", err)
	}
	if p.Emit(map[string]any{"ok": true, "cleared": k.FileName()}) {
		return nil
	}
	p.Success(k.FileName() + " cleared")
	return nil
}

// handleLogsFollow prints the last backlog entries oldest first and then
// streams new lines until ctx is cancelled.
func handleLogsFollow(ctx context.Context, d *Deps, kind string, backlog int, poll bool) error {
	k, err := logs.ParseKind(kind)
	if err != nil {
		return err
	}
	path := d.Panel.Logs.Path(k)
	if _, err := os.Stat(path); err != nil {
		return exitcodes.IOErr(err)
	}

	var lines []string
	if backlog > 0 {
		entries, err := d.Panel.Logs.Read(k)
		if err != nil {
			return err
		}
		entries = entries[:min(backlog, len(entries))]
		lines = make([]string, len(entries))
		for i, e := range entries {
			lines[len(entries)-1-i] = e.Content
		}
	}

	p := d.printer()
	opts := ui.LogViewOptions{
		Path:       path,
		Backlog:    lines,
		ShowFooter: !flagQuiet && term.IsTerminal(int(os.Stdout.Fd())),
		Poll:       poll,
		Colors:     p.Colors,
		Out:        d.Output,
	}
	return logView(ctx, opts)
}

func init() {
	logsCmd := &cobra.Command{
		Use:   "logs",
		Short: "Show, follow or clear the nginx logs",
	}

	var limit int
	showCmd := &cobra.Command{
		Use:       "show <access|error>",
		Short:     "Print log entries, newest first",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"access", "error"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return handleLogsShow(newDeps(), args[0], limit)
		},
	}
	showCmd.Flags().IntVarP(&limit, "limit", "n", 50, fmt.Sprintf("Number of entries to print (0 = all, at most %d)", logs.MaxEntries))
	logsCmd.AddCommand(showCmd)

	logsCmd.AddCommand(&cobra.Command{
		Use:       "clear <access|error>",
		Short:     "Truncate a log file",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"access", "error"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return handleLogsClear(newDeps(), args[0])
		},
	})

	var backlog int
	var poll bool
	followCmd := &cobra.Command{
		Use:       "follow <access|error>",
		Short:     "Stream new log lines until interrupted",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"access", "error"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return handleLogsFollow(cmd.Context(), newDeps(), args[0], backlog, poll)
		},
	}
	followCmd.Flags().IntVar(&backlog, "lines", 20, "Existing lines to print before following")
	followCmd.Flags().BoolVar(&poll, "poll", false, "Poll the file instead of using inotify")
	logsCmd.AddCommand(followCmd)

	rootCmd.AddCommand(logsCmd)
}
