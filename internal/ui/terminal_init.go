package ui

import (
	"fmt"
	"os"
	"syscall"
	"time"

	"golang.org/x/term"
)

var terminalInitialized bool

// InitTerminal must run before the dashboard touches lipgloss. termenv
// probes the background color with OSC 11 and the reply would otherwise
// leak into the rendered frame; a preset COLORFGBG skips the probe.
func InitTerminal() {
	if terminalInitialized {
		return
	}
	terminalInitialized = true

	if os.Getenv("COLORFGBG") == "" {
		_ = os.Setenv("COLORFGBG", "0;15")
	}
	if term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Fprint(os.Stdout, "\033[?1004l") // focus reporting off
		time.Sleep(20 * time.Millisecond)
		FlushStdinWithTimeout(150 * time.Millisecond)
	}
}

// ResetTerminalAfterTUI restores terminal modes after the dashboard exits
// and swallows late replies (cursor reports, focus events) so they do not
// show up at the shell prompt.
func ResetTerminalAfterTUI() {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return
	}
	for _, seq := range []string{
		"\033[?1004l", // focus reporting
		"\033[?1003l", // any-event mouse
		"\033[?1000l", // X10 mouse
		"\033[?1006l", // SGR mouse
		"\033[?25h",   // show cursor
		"\r",
	} {
		fmt.Fprint(os.Stdout, seq)
	}
	time.Sleep(30 * time.Millisecond)
	FlushStdinWithTimeout(150 * time.Millisecond)
}

// FlushStdinWithTimeout discards pending terminal input for the given
// duration. Piped stdin is never read.
func FlushStdinWithTimeout(timeout time.Duration) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return
	}
	if err := syscall.SetNonblock(fd, true); err != nil {
		return
	}
	defer func() { _ = syscall.SetNonblock(fd, false) }()

	buf := make([]byte, 256)
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if n, _ := os.Stdin.Read(buf); n <= 0 {
			time.Sleep(5 * time.Millisecond)
		}
	}
}
