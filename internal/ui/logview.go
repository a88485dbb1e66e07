package ui

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"golang.org/x/term"

	"github.com/quicknginx/quicknginx/internal/logs"
)

// LogViewOptions configures the follow viewer.
type LogViewOptions struct {
	Path       string       // log file to follow
	Backlog    []string     // lines printed before following, oldest first
	ShowFooter bool         // sticky controls footer on a TTY
	Poll       bool         // poll the file instead of using inotify
	Colors     *ColorConfig // nil disables coloring
	Out        io.Writer    // defaults to stdout
}

// RunLogView prints the backlog and then streams new lines until ctx is
// cancelled or Ctrl+C is pressed. Without a TTY it degrades to a plain
// line-per-line follow.
func RunLogView(ctx context.Context, opts LogViewOptions) error {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	colors := opts.Colors
	if colors == nil {
		colors = &ColorConfig{Theme: DefaultTheme()}
	}
	follow := logs.FollowOptions{Poll: opts.Poll}

	stdin := int(os.Stdin.Fd())
	stdout := int(os.Stdout.Fd())
	if out != os.Stdout || !opts.ShowFooter || !term.IsTerminal(stdin) || !term.IsTerminal(stdout) {
		for _, l := range opts.Backlog {
			fmt.Fprintln(out, colors.LogLine(l))
		}
		return logs.Follow(ctx, opts.Path, follow, func(l string) {
			fmt.Fprintln(out, colors.LogLine(l))
		})
	}

	rows, cols, err := term.GetSize(stdout)
	if err != nil {
		rows = 0
	}
	oldState, err := term.MakeRaw(stdin)
	if err != nil {
		return logs.Follow(ctx, opts.Path, follow, func(l string) {
			fmt.Fprintln(out, colors.LogLine(l))
		})
	}
	defer func() { _ = term.Restore(stdin, oldState) }()
	time.Sleep(10 * time.Millisecond)

	footer := "Following " + opts.Path + "  (Ctrl+C or q to exit)"
	if cols > 0 {
		footer = Truncate(footer, cols)
	}
	footer = colors.Apply(Bold, footer)

	renderFooter := func() {}
	if rows > 2 {
		renderFooter = func() {
			fmt.Fprint(out, "\x1b7")
			fmt.Fprintf(out, "\x1b[%d;1H\x1b[2K", rows-1)
			fmt.Fprintf(out, "\x1b[%d;1H\x1b[2K%s", rows, footer)
			fmt.Fprint(out, "\x1b8")
		}
	}
	// raw mode needs explicit carriage returns
	emit := func(l string) {
		fmt.Fprint(out, colors.LogLine(l)+"\r\n")
		renderFooter()
	}
	for _, l := range opts.Backlog {
		emit(l)
	}
	renderFooter()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	logDone := make(chan error, 1)
	go func() { logDone <- logs.Follow(ctx, opts.Path, follow, emit) }()

	keys := make(chan byte, 1)
	go func() {
		buf := make([]byte, 1)
		for {
			n, err := os.Stdin.Read(buf)
			if err != nil || n == 0 {
				return
			}
			keys <- buf[0]
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-logDone:
			return err
		case k := <-keys:
			if k == 3 || k == 'q' { // Ctrl+C
				return nil
			}
		}
	}
}
