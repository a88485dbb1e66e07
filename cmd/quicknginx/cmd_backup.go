package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/quicknginx/quicknginx/internal/admin"
	"github.com/quicknginx/quicknginx/internal/exitcodes"
)

// handleBackup archives the conf directory and prints the archive path.
func handleBackup(d *Deps, outDir string) error {
	p := d.printer()
	path, err := admin.Backup(admin.BackupOptions{ConfDir: d.Cfg.ConfDir, OutDir: outDir})
	if err != nil {
		return reportFailure(p, "backup", exitcodes.IOErr(err))
	}
	if p.Emit(map[string]any{"ok": true, "backup_path": path}) {
		return nil
	}
	p.Success(fmt.Sprintf("backup created: %s", path))
	return nil
}

// handleRestore unpacks archive over the conf directory after confirmation.
func handleRestore(d *Deps, archive string) error {
	p := d.printer()
	if _, err := os.Stat(archive); err != nil {
		return exitcodes.IOErr(err)
	}
	ok, err := confirm(d, fmt.Sprintf("Overwrite files in %s from %s", d.Cfg.ConfDir, archive))
	if err != nil {
		return err
	}
	if !ok {
		p.Info("Aborted")
		return nil
	}
	n, err := admin.Restore(admin.RestoreOptions{Archive: archive, DestDir: d.Cfg.ConfDir})
	if err != nil {
		return reportFailure(p, "restore", err)
	}
	if p.Emit(map[string]any{"ok": true, "restored": n, "dest": d.Cfg.ConfDir}) {
		return nil
	}
	p.Success(fmt.Sprintf("restored %d files into %s", n, d.Cfg.ConfDir))
	if !flagQuiet {
		p.Println(p.Colors.Description("  apply with: quicknginx reload"))
	}
	return nil
}

func init() {
	var outDir string
	backupCmd := &cobra.Command{
		Use:   "backup",
		Short: "Archive the nginx conf directory (tar.lz4)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return handleBackup(newDeps(), outDir)
		},
	}
	backupCmd.Flags().StringVar(&outDir, "out", "", "Directory for the archive (default <nginx>/backups)")

	backupCmd.AddCommand(&cobra.Command{
		Use:   "restore <archive>",
		Short: "Restore conf files from a backup archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handleRestore(newDeps(), args[0])
		},
	})
	rootCmd.AddCommand(backupCmd)
}
