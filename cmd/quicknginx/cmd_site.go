package main

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/quicknginx/quicknginx/internal/exitcodes"
	"github.com/quicknginx/quicknginx/internal/files"
	"github.com/quicknginx/quicknginx/internal/process"
	ui "github.com/quicknginx/quicknginx/internal/ui"
)

type siteRow struct {
	Name    string `json:"name" yaml:"name"`
	Include string `json:"include" yaml:"include"`
	Active  bool   `json:"active" yaml:"active"`
}

type siteSetResult struct {
	OK       bool   `json:"ok" yaml:"ok"`
	Site     string `json:"site,omitempty" yaml:"site,omitempty"`
	Changed  bool   `json:"changed" yaml:"changed"`
	Inserted bool   `json:"inserted" yaml:"inserted"`
	Backup   string `json:"backup,omitempty" yaml:"backup,omitempty"`
	Reloaded bool   `json:"reloaded,omitempty" yaml:"reloaded,omitempty"`
}

// siteNames renders variants by name.
func siteNames(vs []files.Variant) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = v.String()
	}
	return out
}

func handleSiteList(d *Deps) error {
	p := d.printer()
	active, err := d.Panel.Sites.Active()
	if err != nil {
		return emitFailure(p, "site list", err)
	}
	rows := make([]siteRow, 0, len(files.Variants))
	for _, v := range files.Variants {
		rows = append(rows, siteRow{Name: v.String(), Include: v.Include(), Active: slices.Contains(active, v)})
	}
	if p.Emit(rows) {
		return nil
	}

	table := make([][]string, len(rows))
	for i, r := range rows {
		mark := ""
		if r.Active {
			mark = "active"
		}
		table[i] = []string{r.Name, r.Include, mark}
	}
	p.Textf("%s", ui.Table(p.Colors, []string{"SITE", "INCLUDE", "STATE"}, table, nil))
	if len(active) > 1 {
		p.Warn(fmt.Sprintf("%d includes are active; run 'quicknginx site set <site>' to keep one", len(active)))
	}
	return nil
}

func handleSiteShow(d *Deps) error {
	p := d.printer()
	active, err := d.Panel.Sites.Active()
	if err != nil {
		return emitFailure(p, "site show", err)
	}
	marker, err := d.Panel.Sites.HasMarker()
	if err != nil {
		return emitFailure(p, "site show", err)
	}
	names := siteNames(active)
	if p.Emit(map[string]any{"active": names, "has_marker": marker, "conf": d.Panel.Sites.Path()}) {
		return nil
	}
	p.KeyValueLine("Site", activeLabel(names), "magenta")
	p.KeyValueLine("Config", d.Panel.Sites.Path(), "dim")
	if !marker {
		p.Warn("include marker not found; 'site set' will only remove includes")
	}
	return nil
}

// handleSiteSet rewrites the include for name (empty clears). nginx is
// reloaded only when reload is set.
func handleSiteSet(ctx context.Context, d *Deps, name string, backup, reload bool) error {
	p := d.printer()
	action := "site set"
	if name == "" {
		action = "site clear"
	}
	var target *files.Variant
	if name != "" {
		v, err := files.ParseVariant(name)
		if err != nil {
			return err
		}
		target = &v
	}

	res := siteSetResult{OK: true}
	if target != nil {
		res.Site = target.String()
	}
	if backup {
		path, err := d.Panel.Sites.Backup()
		if err != nil {
			return emitFailure(p, action, err)
		}
		res.Backup = path
	}

	r, err := d.Panel.Sites.SetActive(target)
	if err != nil {
		return emitFailure(p, action, err)
	}
	res.Changed, res.Inserted = r.Changed, r.Inserted

	if reload && res.Changed {
		if _, err := d.Panel.Proc.Execute(ctx, process.ActionReload); err != nil {
			return reportFailure(p, "reload", err)
		}
		res.Reloaded = true
	}

	if p.Emit(res) {
		return nil
	}
	if res.Backup != "" {
		p.Info("Backup written to " + res.Backup)
	}
	switch {
	case target == nil:
		p.Success("All site includes removed")
	case !res.Inserted:
		p.Warn(fmt.Sprintf("include marker not found in %s; %s was not activated", d.Panel.Sites.Path(), res.Site))
	case !res.Changed:
		p.Info(res.Site + " is already the active site")
	default:
		p.Success("Active site set to " + res.Site)
	}
	if res.Reloaded {
		p.Success("nginx reloaded")
	} else if res.Changed && !flagQuiet {
		p.Println(p.Colors.Description("  apply with: quicknginx reload"))
	}
	return nil
}

func handleSiteSwitch(ctx context.Context, d *Deps, name string) error {
	p := d.printer()
	msg, err := d.Panel.SwitchSite(ctx, name)
	if err != nil {
		if exitcodes.HasCode(err, exitcodes.InvalidArgs) {
			return err
		}
		return reportFailure(p, "switch", err)
	}
	v, _ := files.LookupVariant(name)
	if p.Emit(map[string]any{"ok": true, "site": v.String(), "message": msg}) {
		return nil
	}
	p.Success(fmt.Sprintf("Switched to %s and started nginx", v.String()))
	return nil
}

// handleSiteWatch prints the active site every time the include changes.
func handleSiteWatch(ctx context.Context, d *Deps) error {
	p := d.printer()
	return files.Watch(ctx, d.Panel.Sites, func(active []files.Variant, err error) {
		ts := time.Now().Format("15:04:05")
		if err != nil {
			p.Warn(fmt.Sprintf("%s %v", ts, err))
			return
		}
		names := siteNames(active)
		if p.Emit(map[string]any{"time": ts, "active": names}) {
			return
		}
		p.Textf("%s %s %s\n", p.Colors.Timestamp(ts), p.Colors.Label("active:"), p.Colors.Site(activeLabel(names)))
	})
}

func init() {
	siteCmd := &cobra.Command{
		Use:   "site",
		Short: "Inspect and change the active site include",
	}

	siteCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List sites and mark the active one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return handleSiteList(newDeps())
		},
	})

	siteCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the active site",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return handleSiteShow(newDeps())
		},
	})

	var setBackup, setReload bool
	setCmd := &cobra.Command{
		Use:       "set <site>",
		Short:     "Make <site> the only active include",
		Args:      cobra.ExactArgs(1),
		ValidArgs: files.VariantNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handleSiteSet(cmd.Context(), newDeps(), args[0], setBackup, setReload)
		},
	}
	setCmd.Flags().BoolVar(&setBackup, "backup", false, "Copy nginx.conf aside before rewriting it")
	setCmd.Flags().BoolVar(&setReload, "reload", false, "Reload nginx when the include changed")
	siteCmd.AddCommand(setCmd)

	var clearBackup bool
	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every site include",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return handleSiteSet(cmd.Context(), newDeps(), "", clearBackup, false)
		},
	}
	clearCmd.Flags().BoolVar(&clearBackup, "backup", false, "Copy nginx.conf aside before rewriting it")
	siteCmd.AddCommand(clearCmd)

	siteCmd.AddCommand(&cobra.Command{
		Use:       "switch <site>",
		Short:     "Stop nginx, activate <site> and start nginx",
		Args:      cobra.ExactArgs(1),
		ValidArgs: files.VariantNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handleSiteSwitch(cmd.Context(), newDeps(), args[0])
		},
	})

	siteCmd.AddCommand(&cobra.Command{
		Use:   "watch",
		Short: "Report include changes until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return handleSiteWatch(cmd.Context(), newDeps())
		},
	})

	rootCmd.AddCommand(siteCmd)
}
