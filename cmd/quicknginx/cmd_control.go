package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/quicknginx/quicknginx/internal/process"
)

// controlResult is the structured outcome of start/stop/reload/restart.
type controlResult struct {
	OK      bool   `json:"ok" yaml:"ok"`
	Action  string `json:"action" yaml:"action"`
	Message string `json:"message" yaml:"message"`
	Cleared bool   `json:"cleared_site,omitempty" yaml:"cleared_site,omitempty"`
}

// handleControl runs a single nginx action through the panel.
func handleControl(ctx context.Context, d *Deps, action string) error {
	p := d.printer()
	msg, err := d.Panel.RunCommand(ctx, action)
	if err != nil {
		return reportFailure(p, action, err)
	}
	printControl(d, controlResult{OK: true, Action: action, Message: msg})
	return nil
}

func handleRestart(ctx context.Context, d *Deps) error {
	p := d.printer()
	msg, err := d.Panel.Proc.Restart(ctx)
	if err != nil {
		return reportFailure(p, "restart", err)
	}
	printControl(d, controlResult{OK: true, Action: "restart", Message: msg})
	return nil
}

func handleStopAndClear(ctx context.Context, d *Deps) error {
	p := d.printer()
	msg, err := d.Panel.StopAndClear(ctx)
	if err != nil {
		return reportFailure(p, "stop", err)
	}
	printControl(d, controlResult{OK: true, Action: "stop", Message: msg, Cleared: true})
	return nil
}

func printControl(d *Deps, res controlResult) {
	p := d.printer()
	if p.Emit(res) {
		return
	}
	p.Success(res.Message)
	if res.Cleared {
		p.Info("All site includes removed")
	}
	if flagQuiet {
		return
	}
	switch res.Action {
	case "stop":
		p.Println()
		p.Println(p.Colors.Info("Next steps:"))
		p.Println(p.Colors.Command("  quicknginx start"))
	case "start", "restart":
		p.Println(p.Colors.Description("  check with: quicknginx status"))
	}
}

func init() {
	for _, a := range process.Actions {
		action := a.String()
		if action == "stop" {
			continue
		}
		rootCmd.AddCommand(&cobra.Command{
			Use:   action,
			Short: actionShort[action],
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return handleControl(cmd.Context(), newDeps(), action)
			},
		})
	}

	var clearSite bool
	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: actionShort["stop"],
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d := newDeps()
			if clearSite {
				return handleStopAndClear(cmd.Context(), d)
			}
			return handleControl(cmd.Context(), d, "stop")
		},
	}
	stopCmd.Flags().BoolVar(&clearSite, "clear-site", false, "Also remove every site include after stopping")
	rootCmd.AddCommand(stopCmd)

	rootCmd.AddCommand(&cobra.Command{
		Use:   "restart",
		Short: "Stop then start nginx",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return handleRestart(cmd.Context(), newDeps())
		},
	})
}

var actionShort = map[string]string{
	"start":  "Start nginx",
	"stop":   "Stop nginx (nginx -s stop)",
	"reload": "Reload the nginx config (nginx -s reload)",
}
