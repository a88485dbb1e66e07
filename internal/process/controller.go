package process

import (
	"context"
	"io"
	"log/slog"
	"net"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/quicknginx/quicknginx/internal/exitcodes"
)

// SuccessMessage is returned by Execute when the command exits 0.
const SuccessMessage = "Command executed successfully"

// Controller drives the nginx binary: start/stop/reload and a liveness probe.
// Calls are one-shot and hold no state between invocations.
type Controller interface {
	Execute(ctx context.Context, a Action) (string, error)
	Restart(ctx context.Context) (string, error)
	IsRunning(ctx context.Context) (bool, error)
	PIDs(ctx context.Context) ([]int32, error)
	Uptime(ctx context.Context) (time.Duration, bool)
	Version(ctx context.Context) (string, error)
}

// Options configures a Controller.
type Options struct {
	BinPath     string        // path to nginx
	Escalator   string        // privilege wrapper (e.g. sudo); empty runs the binary directly
	SettleDelay time.Duration // pause between stop and start on Restart (default 1s)
	Runner      Runner
	Lister      Lister
	Logger      *slog.Logger
	Now         func() time.Time
}

type controller struct {
	opts Options
	name string
	log  *slog.Logger
}

// New returns a Controller bound to the given nginx binary.
func New(opts Options) Controller {
	if opts.BinPath == "" {
		opts.BinPath = "nginx"
	}
	if opts.SettleDelay <= 0 {
		opts.SettleDelay = time.Second
	}
	if opts.Runner == nil {
		opts.Runner = ExecRunner{}
	}
	if opts.Lister == nil {
		opts.Lister = TableLister{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &controller{opts: opts, name: filepath.Base(opts.BinPath), log: logger}
}

// commandLine builds the escalated invocation for a.
func (c *controller) commandLine(a Action) (string, []string) {
	args := append([]string{c.opts.BinPath}, a.Args()...)
	if c.opts.Escalator == "" {
		return args[0], args[1:]
	}
	return c.opts.Escalator, args
}

func (c *controller) Execute(ctx context.Context, a Action) (string, error) {
	name, args := c.commandLine(a)
	c.log.Debug("running nginx command", "action", a.String(), "cmd", name, "args", args)

	_, stderr, err := c.opts.Runner.Run(ctx, name, args...)
	if err != nil {
		msg := strings.TrimSpace(string(stderr))
		c.log.Debug("nginx command failed", "action", a.String(), "err", err, "stderr", msg)
		if msg == "" {
			return "", exitcodes.WrapError(exitcodes.ProcessError, "nginx "+a.String(), err)
		}
		return "", exitcodes.ProcessErr(msg)
	}
	return SuccessMessage, nil
}

func (c *controller) Restart(ctx context.Context) (string, error) {
	if _, err := c.Execute(ctx, ActionStop); err != nil {
		// nginx may simply not be running
		c.log.Info("stop before restart failed", "err", err)
	}
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-time.After(c.opts.SettleDelay):
	}
	return c.Execute(ctx, ActionStart)
}

func (c *controller) matches(ctx context.Context) ([]Info, error) {
	procs, err := c.opts.Lister.List(ctx)
	if err != nil {
		return nil, exitcodes.UndeterminableErr(err)
	}
	var out []Info
	for _, p := range procs {
		if p.Name == c.name {
			out = append(out, p)
		}
	}
	return out, nil
}

func (c *controller) IsRunning(ctx context.Context) (bool, error) {
	m, err := c.matches(ctx)
	if err != nil {
		return false, err
	}
	return len(m) > 0, nil
}

func (c *controller) PIDs(ctx context.Context) ([]int32, error) {
	m, err := c.matches(ctx)
	if err != nil {
		return nil, err
	}
	pids := make([]int32, 0, len(m))
	for _, p := range m {
		pids = append(pids, p.PID)
	}
	slices.Sort(pids)
	return pids, nil
}

// Uptime reports the age of the oldest matching process (the master).
func (c *controller) Uptime(ctx context.Context) (time.Duration, bool) {
	m, err := c.matches(ctx)
	if err != nil || len(m) == 0 {
		return 0, false
	}
	oldest := int64(0)
	for _, p := range m {
		if p.CreateTime > 0 && (oldest == 0 || p.CreateTime < oldest) {
			oldest = p.CreateTime
		}
	}
	if oldest == 0 {
		return 0, false
	}
	d := c.opts.Now().Sub(time.UnixMilli(oldest))
	if d < 0 {
		d = 0
	}
	return d.Truncate(time.Second), true
}

var versionRE = regexp.MustCompile(`nginx/(\d+(?:\.\d+)*)`)

// Version runs `nginx -v` without escalation and returns e.g. "1.25.3".
func (c *controller) Version(ctx context.Context) (string, error) {
	stdout, stderr, err := c.opts.Runner.Run(ctx, c.opts.BinPath, "-v")
	if err != nil {
		return "", exitcodes.WrapError(exitcodes.ProcessError, "nginx -v", err)
	}
	// nginx prints its version banner on stderr
	m := versionRE.FindStringSubmatch(string(stderr) + string(stdout))
	if m == nil {
		return "", exitcodes.ProcessErrf("unrecognized version output: %q", strings.TrimSpace(string(stderr)))
	}
	return m[1], nil
}

// IsListening returns true if a TCP connection to hostport succeeds.
func IsListening(hostport string, timeout time.Duration) bool {
	if hostport == "" {
		hostport = "127.0.0.1:80"
	}
	d := net.Dialer{Timeout: timeout}
	conn, err := d.Dial("tcp", hostport)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}
