package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/quicknginx/quicknginx/internal/exitcodes"
	ui "github.com/quicknginx/quicknginx/internal/ui"
)

// silentErr carries an exit code for failures the command already reported,
// so Execute does not print them a second time.
type silentErr struct{ error }

func (e silentErr) Unwrap() error { return e.error }

// getPrinter returns a UI printer bound to the current --output flag.
func getPrinter() ui.Printer { return ui.NewPrinterFromGlobal(flagOutput) }

// printer returns d.Printer writing to d.Output.
func (d *Deps) printer() ui.Printer {
	if d.Output == nil {
		return d.Printer
	}
	return d.Printer.WithWriter(d.Output)
}

// confirm asks a yes/no question. --yes answers for the user; without a
// terminal the action is refused rather than assumed.
func confirm(d *Deps, question string) (bool, error) {
	if flagYes {
		return true, nil
	}
	if d.Prompter == nil || !d.Prompter.IsInteractive() {
		return false, exitcodes.PreconditionErrorf("%s: confirmation required (use --yes)", question)
	}
	answer, err := d.Prompter.ReadLine(question + " [y/N]: ")
	if err != nil {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// reportFailure prints err in the current output format and marks it silent.
func reportFailure(p ui.Printer, action string, err error) error {
	if p.Emit(map[string]any{"ok": false, "action": action, "error": err.Error()}) {
		return silentErr{err}
	}
	p.Error(action + " failed: " + err.Error())
	return silentErr{err}
}

// emitFailure reports err as {ok:false} in json/yaml mode and marks it
// silent. Text mode and usage errors return err unchanged so Execute prints
// the full error report.
func emitFailure(p ui.Printer, action string, err error) error {
	if exitcodes.HasCode(err, exitcodes.InvalidArgs) {
		return err
	}
	if p.Emit(map[string]any{"ok": false, "action": action, "error": err.Error()}) {
		return silentErr{err}
	}
	return err
}

// errorMessageFor turns a command error into the structured stderr report.
func errorMessageFor(err error) ui.ErrorMessage {
	msg := ui.ErrorMessage{Problem: err.Error()}
	switch exitcodes.CodeForError(err) {
	case exitcodes.InvalidArgs:
		msg.Hints = []string{"quicknginx --help"}
	case exitcodes.PreconditionFailed:
		msg.Actions = []string{"Run 'quicknginx doctor' to see what is missing"}
	case exitcodes.ProcessError:
		msg.Causes = []string{"nginx rejected the command or the config has errors", "sudo could not authenticate"}
		msg.Actions = []string{"Check the error log: quicknginx logs show error", "Validate the config: sudo nginx -t"}
	case exitcodes.IOError:
		msg.Causes = []string{"The file does not exist or is not writable by you"}
		msg.Actions = []string{"Run 'quicknginx setup-permissions'"}
	case exitcodes.Undeterminable:
		msg.Causes = []string{"The process table could not be read"}
	}
	return msg
}
