package system

import (
	"context"
	"fmt"
	"os"
	"os/user"
	"strings"

	"github.com/quicknginx/quicknginx/internal/config"
	"github.com/quicknginx/quicknginx/internal/exitcodes"
	"github.com/quicknginx/quicknginx/internal/process"
)

// PermissionOptions configures SetupPermissions.
type PermissionOptions struct {
	Paths     config.Paths
	User      string // owner to hand the files to; defaults to the invoking user
	Escalator string // "sudo" by default; empty runs the shell directly
	Runner    process.Runner
}

// PermissionCommands returns the shell steps that make nginx.conf writable
// and the nginx binary executable by owner without further escalation.
func PermissionCommands(p config.Paths, owner string) []string {
	conf := shellQuote(p.ConfPath)
	bin := shellQuote(p.BinPath)
	o := shellQuote(owner)
	return []string{
		"touch " + conf,
		"chmod 644 " + conf,
		"chown " + o + " " + conf,
		"chmod 755 " + bin,
		"chown " + o + " " + bin,
	}
}

// SetupPermissions runs PermissionCommands as one escalated shell
// invocation so the user is prompted at most once. The nginx binary must
// already be installed.
func SetupPermissions(ctx context.Context, opts PermissionOptions) error {
	if _, err := os.Stat(opts.Paths.BinPath); err != nil {
		return exitcodes.PreconditionErrorf("nginx is not installed at %s", opts.Paths.BinPath)
	}
	owner := opts.User
	if owner == "" {
		owner = currentUser()
	}
	if owner == "" {
		return exitcodes.PreconditionError("cannot determine the current user")
	}
	runner := opts.Runner
	if runner == nil {
		runner = process.ExecRunner{}
	}

	script := strings.Join(PermissionCommands(opts.Paths, owner), " && ")
	name, args := "sh", []string{"-c", script}
	if opts.Escalator != "" {
		name, args = opts.Escalator, append([]string{"sh"}, args...)
	}
	_, stderr, err := runner.Run(ctx, name, args...)
	if err != nil {
		if msg := strings.TrimSpace(string(stderr)); msg != "" {
			return exitcodes.ProcessErrf("permission setup failed: %s", msg)
		}
		return exitcodes.WrapError(exitcodes.ProcessError, "permission setup failed", err)
	}
	return nil
}

func currentUser() string {
	// under sudo, hand ownership back to the real user
	for _, k := range []string{"SUDO_USER", "USER"} {
		if v := os.Getenv(k); v != "" && v != "root" {
			return v
		}
	}
	if u, err := user.Current(); err == nil {
		return u.Username
	}
	return os.Getenv("USER")
}

func shellQuote(s string) string {
	if s != "" && strings.IndexFunc(s, func(r rune) bool {
		return !(r == '/' || r == '.' || r == '_' || r == '-' ||
			(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'))
	}) < 0 {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// Describe renders the script for --dry-run style output.
func Describe(opts PermissionOptions) string {
	owner := opts.User
	if owner == "" {
		owner = currentUser()
	}
	script := strings.Join(PermissionCommands(opts.Paths, owner), " && ")
	if opts.Escalator == "" {
		return fmt.Sprintf("sh -c %s", shellQuote(script))
	}
	return fmt.Sprintf("%s sh -c %s", opts.Escalator, shellQuote(script))
}
