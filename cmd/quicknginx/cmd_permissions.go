package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/quicknginx/quicknginx/internal/system"
)

func handleSetupPermissions(ctx context.Context, d *Deps, owner string, dryRun bool) error {
	p := d.printer()
	opts := system.PermissionOptions{
		Paths:     d.Cfg.Paths,
		User:      owner,
		Escalator: d.Cfg.Escalator,
		Runner:    d.Runner,
	}
	script := system.Describe(opts)
	if dryRun {
		if p.Emit(map[string]any{"ok": true, "dry_run": true, "command": script}) {
			return nil
		}
		p.Println(script)
		return nil
	}

	if !p.Structured() && !flagQuiet {
		p.Info("Will run: " + script)
	}
	ok, err := confirm(d, "Change ownership of nginx.conf and the nginx binary")
	if err != nil {
		return err
	}
	if !ok {
		p.Info("Aborted")
		return nil
	}
	if err := system.SetupPermissions(ctx, opts); err != nil {
		return reportFailure(p, "setup-permissions", err)
	}
	if p.Emit(map[string]any{"ok": true, "command": script}) {
		return nil
	}
	p.Success("Permissions updated; site changes no longer need sudo")
	return nil
}

func init() {
	var owner string
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "setup-permissions",
		Short: "Hand nginx.conf and the nginx binary to the current user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return handleSetupPermissions(cmd.Context(), newDeps(), owner, dryRun)
		},
	}
	cmd.Flags().StringVar(&owner, "user", "", "Owner to assign (default: invoking user)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the command without running it")
	rootCmd.AddCommand(cmd)
}
