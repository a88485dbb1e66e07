package dashboard

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/quicknginx/quicknginx/internal/config"
	"github.com/quicknginx/quicknginx/internal/panel"
	"github.com/quicknginx/quicknginx/internal/process"
)

type fakeController struct {
	mu      sync.Mutex
	running bool
	calls   []string
	err     error
}

func (f *fakeController) record(s string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, s)
}

func (f *fakeController) Execute(ctx context.Context, a process.Action) (string, error) {
	f.record(a.String())
	if f.err != nil {
		return "", f.err
	}
	return process.SuccessMessage, nil
}

func (f *fakeController) Restart(ctx context.Context) (string, error) {
	f.record("restart")
	return process.SuccessMessage, f.err
}

func (f *fakeController) IsRunning(ctx context.Context) (bool, error) { return f.running, nil }

func (f *fakeController) PIDs(ctx context.Context) ([]int32, error) {
	if !f.running {
		return nil, nil
	}
	return []int32{4242, 4243}, nil
}

func (f *fakeController) Uptime(ctx context.Context) (time.Duration, bool) {
	return 90 * time.Second, f.running
}

func (f *fakeController) Version(ctx context.Context) (string, error) { return "1.25.3", nil }

const testConf = "http {\n    server {\n        # 这里写对应include的文件\n        include ./yx_conf/yx_main.conf;\n    }\n}\n"

func newTestPanel(t *testing.T) (*panel.Panel, config.Paths, *fakeController) {
	t.Helper()
	root := t.TempDir()
	paths := config.FromConf(filepath.Join(root, "sbin", "nginx"), filepath.Join(root, "conf", "nginx.conf"))
	for _, d := range []string{paths.ConfDir, paths.LogDir} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(paths.ConfPath, []byte(testConf), 0o644); err != nil {
		t.Fatal(err)
	}
	access := "1.1.1.1 - - [01/Jan/2024:00:00:01 +0000] \"GET / HTTP/1.1\" 200 1\n" +
		"1.1.1.1 - - [01/Jan/2024:00:00:02 +0000] \"GET /missing HTTP/1.1\" 404 1\n"
	if err := os.WriteFile(paths.LogFile("access.log"), []byte(access), 0o644); err != nil {
		t.Fatal(err)
	}
	p := panel.New(config.Config{Paths: paths, Escalator: "sudo"}, nil)
	fc := &fakeController{running: true}
	p.Proc = fc
	return p, paths, fc
}

func newTestDashboard(t *testing.T) (*Dashboard, *fakeController, config.Paths) {
	t.Helper()
	p, paths, fc := newTestPanel(t)
	d := New(Options{Panel: p, Paths: paths, NoEmoji: true, CLIVersion: "1.0.0"})
	return d, fc, paths
}
