package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/quicknginx/quicknginx/internal/config"
	"github.com/quicknginx/quicknginx/internal/exitcodes"
	"github.com/quicknginx/quicknginx/internal/panel"
	"github.com/quicknginx/quicknginx/internal/process"
	ui "github.com/quicknginx/quicknginx/internal/ui"
)

// errMock is a generic error for test assertions.
var errMock = errors.New("mock error")

const testMarker = "# 这里写对应include的文件"

const testConf = "http {\n    server {\n        listen 80;\n        " + testMarker + "\n        include ./yx_conf/yx_main.conf;\n    }\n}\n"

// mockController implements process.Controller for testing.
type mockController struct {
	mu         sync.Mutex
	running    bool
	runningErr error
	execErr    error
	version    string
	versionErr error
	calls      []string
}

func (m *mockController) Execute(ctx context.Context, a process.Action) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, a.String())
	if m.execErr != nil {
		return "", m.execErr
	}
	switch a {
	case process.ActionStart:
		m.running = true
	case process.ActionStop:
		m.running = false
	}
	return process.SuccessMessage, nil
}

func (m *mockController) Restart(ctx context.Context) (string, error) {
	if _, err := m.Execute(ctx, process.ActionStop); err != nil {
		return "", err
	}
	return m.Execute(ctx, process.ActionStart)
}

func (m *mockController) IsRunning(ctx context.Context) (bool, error) {
	if m.runningErr != nil {
		return false, m.runningErr
	}
	return m.running, nil
}

func (m *mockController) PIDs(ctx context.Context) ([]int32, error) {
	if !m.running {
		return nil, nil
	}
	return []int32{101, 102}, nil
}

func (m *mockController) Uptime(ctx context.Context) (time.Duration, bool) {
	return 3*time.Hour + 5*time.Minute, m.running
}

func (m *mockController) Version(ctx context.Context) (string, error) {
	if m.versionErr != nil {
		return "", m.versionErr
	}
	if m.version == "" {
		return "1.25.3", nil
	}
	return m.version, nil
}

func (m *mockController) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// mockPrompter implements Prompter for testing.
type mockPrompter struct {
	interactive bool
	answer      string
	asked       []string
}

func (m *mockPrompter) ReadLine(prompt string) (string, error) {
	m.asked = append(m.asked, prompt)
	return m.answer, nil
}

func (m *mockPrompter) IsInteractive() bool { return m.interactive }

// recordRunner implements process.Runner and records invocations.
type recordRunner struct {
	calls  [][]string
	stderr string
	err    error
}

func (r *recordRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	r.calls = append(r.calls, append([]string{name}, args...))
	return nil, []byte(r.stderr), r.err
}

type testEnv struct {
	deps  *Deps
	out   *bytes.Buffer
	ctrl  *mockController
	paths config.Paths
}

// newTestEnv builds an nginx tree under t.TempDir() with yx_main active,
// two access log lines and an executable nginx stand-in.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	root := t.TempDir()
	paths := config.FromConf(filepath.Join(root, "sbin", "nginx"), filepath.Join(root, "conf", "nginx.conf"))
	for _, d := range []string{filepath.Dir(paths.BinPath), filepath.Join(paths.ConfDir, "yx_conf"), paths.LogDir} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			t.Fatal(err)
		}
	}
	writeFile(t, paths.BinPath, "#!/bin/sh\n", 0o755)
	writeFile(t, paths.ConfPath, testConf, 0o644)
	for _, name := range []string{"yx_main", "yx_h5", "yx_tob", "yx_tob_admin"} {
		writeFile(t, filepath.Join(paths.ConfDir, "yx_conf", name+".conf"), "location / {}\n", 0o644)
	}
	writeFile(t, paths.LogFile("access.log"),
		"1.1.1.1 - - [01/Jan/2024:00:00:01 +0000] \"GET /first HTTP/1.1\" 200 1\n"+
			"1.1.1.1 - - [01/Jan/2024:00:00:02 +0000] \"GET /second HTTP/1.1\" 404 1\n", 0o644)
	writeFile(t, paths.LogFile("error.log"), "2024/01/01 00:00:03 [error] 1#1: boom\n", 0o644)

	cfg := config.Config{Paths: paths, Escalator: "sudo"}
	p := panel.New(cfg, nil)
	ctrl := &mockController{running: true}
	p.Proc = ctrl

	printer := ui.NewPrinter(flagOutput)
	printer.Colors.Enabled = false
	printer.Colors.EmojiEnabled = false

	out := &bytes.Buffer{}
	return &testEnv{
		deps: &Deps{
			Cfg:         cfg,
			Panel:       p,
			Printer:     printer,
			Runner:      &recordRunner{},
			Prompter:    &mockPrompter{},
			Output:      out,
			Logger:      newLogger(),
			ListenCheck: func(string, time.Duration) bool { return true },
		},
		out:   out,
		ctrl:  ctrl,
		paths: paths,
	}
}

func writeFile(t *testing.T, path, content string, mode os.FileMode) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), mode); err != nil {
		t.Fatal(err)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}

// setOutput switches --output for one test. Call before newTestEnv.
func setOutput(t *testing.T, format string) {
	t.Helper()
	orig := flagOutput
	flagOutput = format
	t.Cleanup(func() { flagOutput = orig })
}

func setYes(t *testing.T) {
	t.Helper()
	orig := flagYes
	flagYes = true
	t.Cleanup(func() { flagYes = orig })
}

func assertCode(t *testing.T, err error, want int) {
	t.Helper()
	if got := exitcodes.CodeForError(err); got != want {
		t.Fatalf("exit code = %d, want %d (err: %v)", got, want, err)
	}
}

func assertContains(t *testing.T, got string, wants ...string) {
	t.Helper()
	for _, w := range wants {
		if !strings.Contains(got, w) {
			t.Errorf("output missing %q:\n%s", w, got)
		}
	}
}

// assertFailureJSON checks that out holds a single {ok:false} report for action.
func assertFailureJSON(t *testing.T, out []byte, action string) {
	t.Helper()
	var got struct {
		OK     bool   `json:"ok"`
		Action string `json:"action"`
		Error  string `json:"error"`
	}
	if err := json.Unmarshal(out, &got); err != nil {
		t.Fatalf("stdout is not a json failure report: %v\n%s", err, out)
	}
	if got.OK || got.Action != action || got.Error == "" {
		t.Errorf("failure report = %+v, want ok=false action=%q", got, action)
	}
}

// syncBuffer is a bytes.Buffer safe for a writer goroutine and a polling reader.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
