package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/quicknginx/quicknginx/internal/exitcodes"
	"github.com/quicknginx/quicknginx/internal/metrics"
	ui "github.com/quicknginx/quicknginx/internal/ui"
)

type statusResult struct {
	Running       bool              `json:"running" yaml:"running"`
	PIDs          []int32           `json:"pids,omitempty" yaml:"pids,omitempty"`
	Uptime        string            `json:"uptime,omitempty" yaml:"uptime,omitempty"`
	UptimeSeconds int64             `json:"uptime_seconds,omitempty" yaml:"uptime_seconds,omitempty"`
	Version       string            `json:"version,omitempty" yaml:"version,omitempty"`
	ActiveSites   []string          `json:"active_sites" yaml:"active_sites"`
	HasMarker     bool              `json:"has_marker" yaml:"has_marker"`
	Bin           string            `json:"bin" yaml:"bin"`
	Conf          string            `json:"conf" yaml:"conf"`
	LogDir        string            `json:"log_dir" yaml:"log_dir"`
	Resources     *metrics.Snapshot `json:"resources,omitempty" yaml:"resources,omitempty"`
	Error         string            `json:"error,omitempty" yaml:"error,omitempty"`
}

// computeStatus gathers the status fields. Only a failed liveness query is
// returned as an error; the other parts degrade to empty values.
func computeStatus(ctx context.Context, d *Deps) (statusResult, error) {
	res := statusResult{
		Bin:         d.Cfg.BinPath,
		Conf:        d.Cfg.ConfPath,
		LogDir:      d.Cfg.LogDir,
		ActiveSites: []string{},
	}
	proc := d.Panel.Proc

	running, err := d.Panel.CheckStatus(ctx)
	if err != nil {
		res.Error = err.Error()
	}
	res.Running = running
	if running {
		if pids, perr := proc.PIDs(ctx); perr == nil {
			res.PIDs = pids
		}
		if up, ok := proc.Uptime(ctx); ok {
			res.Uptime = ui.FormatDuration(up)
			res.UptimeSeconds = int64(up.Seconds())
		}
	}
	if v, verr := proc.Version(ctx); verr == nil {
		res.Version = v
	} else {
		d.Logger.Debug("version probe failed", "err", verr)
	}

	if active, aerr := d.Panel.Sites.Active(); aerr == nil {
		res.ActiveSites = siteNames(active)
	} else if res.Error == "" {
		res.Error = aerr.Error()
	}
	res.HasMarker, _ = d.Panel.Sites.HasMarker()

	if d.Metrics != nil {
		snap := d.Metrics.Collect(ctx, res.PIDs)
		res.Resources = &snap
	}
	return res, err
}

func handleStatus(ctx context.Context, d *Deps, strict bool) error {
	p := d.printer()
	res, err := computeStatus(ctx, d)

	if !p.Emit(res) {
		if flagQuiet {
			p.Textf("running=%v site=%s\n", res.Running, activeLabel(res.ActiveSites))
		} else {
			printStatusText(p, res)
		}
	}

	if err != nil {
		return silentErr{err}
	}
	if strict && !res.Running {
		return silentErr{exitcodes.ValidationErr("nginx is not running")}
	}
	if strict && len(res.ActiveSites) != 1 {
		return silentErr{exitcodes.ValidationErrf("expected one active site, found %d", len(res.ActiveSites))}
	}
	return nil
}

func activeLabel(sites []string) string {
	switch len(sites) {
	case 0:
		return "none"
	case 1:
		return sites[0]
	default:
		return strings.Join(sites, ",")
	}
}

func printStatusText(p ui.Printer, res statusResult) {
	p.Header("nginx")
	switch {
	case res.Error != "" && !res.Running:
		p.KeyValueLine("Status", "Unknown", "yellow")
		p.KeyValueLine("Error", res.Error, "red")
	case res.Running:
		p.KeyValueLine("Status", "Running", "green")
		if len(res.PIDs) > 0 {
			pids := make([]string, len(res.PIDs))
			for i, pid := range res.PIDs {
				pids[i] = fmt.Sprint(pid)
			}
			p.KeyValueLine("PIDs", strings.Join(pids, ", "), "")
		}
		if res.Uptime != "" {
			p.KeyValueLine("Uptime", res.Uptime, "")
		}
	default:
		p.KeyValueLine("Status", "Stopped", "red")
	}
	if res.Version != "" {
		p.KeyValueLine("Version", res.Version, "")
	}

	site := activeLabel(res.ActiveSites)
	color := "magenta"
	if len(res.ActiveSites) != 1 {
		color = "yellow"
	}
	p.KeyValueLine("Site", site, color)
	if !res.HasMarker {
		p.KeyValueLine("Marker", "missing from "+res.Conf, "yellow")
	}

	if r := res.Resources; r != nil {
		p.Section("Resources")
		if res.Running {
			p.KeyValueLine("nginx RSS", fmt.Sprintf("%s (%d processes)", ui.FormatBytes(r.Nginx.RSS), r.Nginx.Processes), "")
			p.KeyValueLine("nginx CPU", fmt.Sprintf("%.1f%%", r.Nginx.CPUPercent), "")
		}
		p.KeyValueLine("Host CPU", fmt.Sprintf("%.1f%%", r.System.CPUPercent), "")
		p.KeyValueLine("Host mem", ui.FormatBytes(r.System.MemUsed)+" / "+ui.FormatBytes(r.System.MemTotal), "")
		if r.System.DiskTotal > 0 {
			p.KeyValueLine("Log disk", ui.FormatBytes(r.System.DiskUsed)+" / "+ui.FormatBytes(r.System.DiskTotal), "")
		}
	}

	p.Section("Paths")
	p.KeyValueLine("Binary", res.Bin, "dim")
	p.KeyValueLine("Config", res.Conf, "dim")
	p.KeyValueLine("Logs", res.LogDir, "dim")
}

func init() {
	var strict, resources bool
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show nginx status and the active site",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d := newDeps()
			if resources {
				d.Metrics = metrics.NewWithoutCPU(d.Cfg.LogDir)
			}
			return handleStatus(cmd.Context(), d, strict)
		},
	}
	statusCmd.Flags().BoolVar(&strict, "strict", false, "Exit non-zero unless nginx is running with exactly one active site")
	statusCmd.Flags().BoolVar(&resources, "resources", false, "Include CPU and memory usage")
	rootCmd.AddCommand(statusCmd)
}
