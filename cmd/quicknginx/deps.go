package main

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/quicknginx/quicknginx/internal/config"
	"github.com/quicknginx/quicknginx/internal/metrics"
	"github.com/quicknginx/quicknginx/internal/panel"
	"github.com/quicknginx/quicknginx/internal/process"
	ui "github.com/quicknginx/quicknginx/internal/ui"
)

// Prompter abstracts interactive terminal I/O for testability.
type Prompter interface {
	// ReadLine displays the prompt and reads a line of input.
	ReadLine(prompt string) (string, error)
	// IsInteractive returns whether the terminal supports interactive input.
	IsInteractive() bool
}

// Deps holds all injectable dependencies for command handlers.
type Deps struct {
	Cfg         config.Config
	Panel       *panel.Panel
	Printer     ui.Printer
	Runner      process.Runner
	Prompter    Prompter
	Output      io.Writer
	Logger      *slog.Logger
	Metrics     *metrics.Collector // nil skips resource sampling
	ListenCheck func(hostport string, timeout time.Duration) bool
}

// ttyPrompter is the production implementation of Prompter.
// It uses /dev/tty when stdin is not a terminal (e.g., piped input).
type ttyPrompter struct{}

func (p *ttyPrompter) ReadLine(prompt string) (string, error) {
	fmt.Print(prompt)

	var reader *bufio.Reader
	if term.IsTerminal(int(os.Stdin.Fd())) {
		reader = bufio.NewReader(os.Stdin)
	} else {
		tty, err := os.OpenFile("/dev/tty", os.O_RDONLY, 0)
		if err != nil {
			return "", fmt.Errorf("no interactive terminal available: %w", err)
		}
		defer tty.Close()
		reader = bufio.NewReader(tty)
	}

	line, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (p *ttyPrompter) IsInteractive() bool {
	if flagNonInteractive {
		return false
	}
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// newDeps creates production dependencies from the current flags and config.
func newDeps() *Deps {
	cfg := loadCfg()
	logger := newLogger()
	return &Deps{
		Cfg:         cfg,
		Panel:       panel.New(cfg, logger),
		Printer:     getPrinter(),
		Runner:      process.ExecRunner{},
		Prompter:    &ttyPrompter{},
		Output:      os.Stdout,
		Logger:      logger,
		ListenCheck: process.IsListening,
	}
}
