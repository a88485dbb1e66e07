package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/mod/semver"

	"github.com/quicknginx/quicknginx/internal/exitcodes"
	"github.com/quicknginx/quicknginx/internal/logs"
	ui "github.com/quicknginx/quicknginx/internal/ui"
)

// minNginxVersion is the oldest nginx the include layout was tested with.
const minNginxVersion = "v1.18.0"

type checkResult struct {
	Name    string   `json:"name" yaml:"name"`
	Status  string   `json:"status" yaml:"status"` // "pass", "warn", "fail"
	Message string   `json:"message" yaml:"message"`
	Details []string `json:"details,omitempty" yaml:"details,omitempty"`
}

type doctorReport struct {
	Checks []checkResult `json:"checks" yaml:"checks"`
	Passed int           `json:"passed" yaml:"passed"`
	Warned int           `json:"warned" yaml:"warned"`
	Failed int           `json:"failed" yaml:"failed"`
}

func handleDoctor(ctx context.Context, d *Deps) error {
	p := d.printer()
	checks := []func(context.Context, *Deps) checkResult{
		checkBinary,
		checkVersion,
		checkMarker,
		checkActiveSite,
		checkConfWritable,
		checkLogs,
		checkRunning,
		checkListening,
	}

	if !p.Structured() {
		p.Header("NGINX HEALTH CHECK")
		p.Println()
	}
	var report doctorReport
	for _, check := range checks {
		r := check(ctx, d)
		report.Checks = append(report.Checks, r)
		switch r.Status {
		case "pass":
			report.Passed++
		case "warn":
			report.Warned++
		case "fail":
			report.Failed++
		}
		if !p.Structured() {
			printCheck(p, r)
		}
	}

	if !p.Emit(report) {
		c := p.Colors
		p.Println()
		p.Println(c.Separator(60))
		summary := fmt.Sprintf("Checks: %d passed, %d warnings, %d failed", report.Passed, report.Warned, report.Failed)
		switch {
		case report.Failed > 0:
			p.Println(c.Error("✗ " + summary))
		case report.Warned > 0:
			p.Println(c.Warning("⚠ " + summary))
		default:
			p.Println(c.Success("✓ " + summary))
		}
	}
	if report.Failed > 0 {
		return silentErr{exitcodes.ValidationErrf("%d doctor checks failed", report.Failed)}
	}
	return nil
}

func checkBinary(_ context.Context, d *Deps) checkResult {
	r := checkResult{Name: "nginx Binary"}
	info, err := os.Stat(d.Cfg.BinPath)
	switch {
	case err != nil:
		r.Status = "fail"
		r.Message = "nginx not found at " + d.Cfg.BinPath
		r.Details = []string{"Install nginx or pass --bin"}
	case info.Mode()&0o111 == 0:
		r.Status = "fail"
		r.Message = fmt.Sprintf("%s is not executable (mode %o)", d.Cfg.BinPath, info.Mode().Perm())
		r.Details = []string{"Run 'quicknginx setup-permissions'"}
	default:
		r.Status = "pass"
		r.Message = d.Cfg.BinPath
	}
	return r
}

func checkVersion(ctx context.Context, d *Deps) checkResult {
	r := checkResult{Name: "nginx Version"}
	v, err := d.Panel.Proc.Version(ctx)
	if err != nil {
		r.Status = "warn"
		r.Message = "Could not determine nginx version"
		r.Details = []string{fmt.Sprintf("Error: %v", err)}
		return r
	}
	sv := "v" + v
	if !semver.IsValid(sv) {
		r.Status = "warn"
		r.Message = fmt.Sprintf("Unrecognized version %q", v)
		return r
	}
	if semver.Compare(sv, minNginxVersion) < 0 {
		r.Status = "warn"
		r.Message = fmt.Sprintf("nginx %s is older than %s", v, minNginxVersion[1:])
		return r
	}
	r.Status = "pass"
	r.Message = "nginx " + v
	return r
}

func checkMarker(_ context.Context, d *Deps) checkResult {
	r := checkResult{Name: "Include Marker"}
	ok, err := d.Panel.Sites.HasMarker()
	switch {
	case err != nil:
		r.Status = "fail"
		r.Message = "Cannot read " + d.Panel.Sites.Path()
		r.Details = []string{fmt.Sprintf("Error: %v", err)}
	case !ok:
		r.Status = "fail"
		r.Message = "Marker comment missing from " + d.Panel.Sites.Path()
		r.Details = []string{"Site switching only removes includes until the marker is restored"}
	default:
		r.Status = "pass"
		r.Message = "Marker present"
	}
	return r
}

func checkActiveSite(_ context.Context, d *Deps) checkResult {
	r := checkResult{Name: "Active Site"}
	active, err := d.Panel.Sites.Active()
	if err != nil {
		r.Status = "fail"
		r.Message = "Cannot read includes"
		r.Details = []string{fmt.Sprintf("Error: %v", err)}
		return r
	}
	switch len(active) {
	case 0:
		r.Status = "warn"
		r.Message = "No site include is active"
		r.Details = []string{"Run 'quicknginx site set <site>'"}
	case 1:
		inc := filepath.Join(d.Cfg.ConfDir, "yx_conf", active[0].String()+".conf")
		if _, err := os.Stat(inc); err != nil {
			r.Status = "fail"
			r.Message = fmt.Sprintf("%s is active but %s is missing", active[0], inc)
			return r
		}
		r.Status = "pass"
		r.Message = active[0].String()
	default:
		r.Status = "fail"
		r.Message = fmt.Sprintf("%d includes active: %v", len(active), siteNames(active))
		r.Details = []string{"Run 'quicknginx site set <site>' to keep exactly one"}
	}
	return r
}

func checkConfWritable(_ context.Context, d *Deps) checkResult {
	r := checkResult{Name: "Config Permissions"}
	f, err := os.OpenFile(d.Cfg.ConfPath, os.O_WRONLY, 0)
	if err != nil {
		r.Status = "warn"
		r.Message = "nginx.conf is not writable by the current user"
		r.Details = []string{fmt.Sprintf("Error: %v", err), "Run 'quicknginx setup-permissions'"}
		return r
	}
	_ = f.Close()
	r.Status = "pass"
	r.Message = "nginx.conf is writable"
	return r
}

func checkLogs(_ context.Context, d *Deps) checkResult {
	r := checkResult{Name: "Log Files"}
	var missing []string
	for _, k := range logs.Kinds {
		path := d.Panel.Logs.Path(k)
		if _, err := os.Stat(path); err != nil {
			missing = append(missing, path)
		}
	}
	if len(missing) > 0 {
		r.Status = "warn"
		r.Message = fmt.Sprintf("%d log files missing", len(missing))
		r.Details = missing
		return r
	}
	r.Status = "pass"
	r.Message = "access.log and error.log present in " + d.Cfg.LogDir
	return r
}

func checkRunning(ctx context.Context, d *Deps) checkResult {
	r := checkResult{Name: "Process Status"}
	running, err := d.Panel.CheckStatus(ctx)
	switch {
	case err != nil:
		r.Status = "fail"
		r.Message = "Cannot determine whether nginx is running"
		r.Details = []string{fmt.Sprintf("Error: %v", err)}
	case !running:
		r.Status = "warn"
		r.Message = "nginx is not running"
		r.Details = []string{"Run 'quicknginx start'"}
	default:
		r.Status = "pass"
		r.Message = "nginx is running"
		if pids, err := d.Panel.Proc.PIDs(ctx); err == nil && len(pids) > 0 {
			r.Message = fmt.Sprintf("nginx is running (%d processes)", len(pids))
		}
	}
	return r
}

func checkListening(_ context.Context, d *Deps) checkResult {
	r := checkResult{Name: "HTTP Port"}
	const addr = "127.0.0.1:80"
	if d.ListenCheck != nil && d.ListenCheck(addr, 500*time.Millisecond) {
		r.Status = "pass"
		r.Message = "Listening on " + addr
		return r
	}
	r.Status = "warn"
	r.Message = "Nothing accepts connections on " + addr
	return r
}

func printCheck(p ui.Printer, r checkResult) {
	c := p.Colors
	msg := r.Message
	switch r.Status {
	case "pass":
		msg = c.Success(msg)
	case "warn":
		msg = c.Warning(msg)
	case "fail":
		msg = c.Error(msg)
	}
	p.Textf("%s %s: %s\n", c.StatusIcon(r.Status), c.Header(r.Name), msg)
	for _, detail := range r.Details {
		p.Textf("  %s %s\n", c.Apply(c.Theme.Pending, "→"), detail)
	}
}

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "doctor",
		Short: "Run diagnostic checks on the nginx setup",
		Long: `Checks the nginx installation and the panel's assumptions:
- binary present and recent enough
- include marker present and exactly one site active
- nginx.conf writable and log files present
- process running and port 80 accepting connections`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return handleDoctor(cmd.Context(), newDeps())
		},
	})
}
