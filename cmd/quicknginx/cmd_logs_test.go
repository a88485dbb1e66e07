package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/quicknginx/quicknginx/internal/exitcodes"
	"github.com/quicknginx/quicknginx/internal/logs"
	ui "github.com/quicknginx/quicknginx/internal/ui"
)

func TestHandleLogsShow_NewestFirst(t *testing.T) {
	env := newTestEnv(t)
	if err := handleLogsShow(env.deps, "access", 0); err != nil {
		t.Fatal(err)
	}
	out := env.out.String()
	first, second := strings.Index(out, "/second"), strings.Index(out, "/first")
	if first < 0 || second < 0 || first > second {
		t.Errorf("entries not newest first:\n%s", out)
	}
	assertContains(t, out, "01/Jan/2024:00:00:02 +0000")
}

func TestHandleLogsShow_LimitAndJSON(t *testing.T) {
	setOutput(t, "json")
	env := newTestEnv(t)
	if err := handleLogsShow(env.deps, "access", 1); err != nil {
		t.Fatal(err)
	}
	var entries []logs.Entry
	if err := json.Unmarshal(env.out.Bytes(), &entries); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(entries) != 1 || !strings.Contains(entries[0].Content, "/second") {
		t.Errorf("entries = %+v", entries)
	}
}

func TestHandleLogsShow_ErrorLogTimestamp(t *testing.T) {
	setOutput(t, "json")
	env := newTestEnv(t)
	if err := handleLogsShow(env.deps, "error", 0); err != nil {
		t.Fatal(err)
	}
	var entries []logs.Entry
	if err := json.Unmarshal(env.out.Bytes(), &entries); err != nil {
		t.Fatal(err)
	}
	// "[error]" is the first bracketed token in nginx error lines
	if len(entries) != 1 || entries[0].Timestamp != "error" {
		t.Errorf("entries = %+v", entries)
	}
}

func TestHandleLogsShow_Empty(t *testing.T) {
	env := newTestEnv(t)
	writeFile(t, env.paths.LogFile("error.log"), "", 0o644)
	if err := handleLogsShow(env.deps, "error", 0); err != nil {
		t.Fatal(err)
	}
	assertContains(t, env.out.String(), "error.log is empty")
}

func TestHandleLogsShow_Errors(t *testing.T) {
	env := newTestEnv(t)
	assertCode(t, handleLogsShow(env.deps, "debug", 0), exitcodes.InvalidArgs)

	if err := os.Remove(env.paths.LogFile("access.log")); err != nil {
		t.Fatal(err)
	}
	assertCode(t, handleLogsShow(env.deps, "access", 0), exitcodes.IOError)
}

func TestHandleLogs_JSONFailures(t *testing.T) {
	setOutput(t, "json")
	setYes(t)

	t.Run("show", func(t *testing.T) {
		env := newTestEnv(t)
		if err := os.RemoveAll(env.paths.LogDir); err != nil {
			t.Fatal(err)
		}
		err := handleLogsShow(env.deps, "access", 0)
		assertCode(t, err, exitcodes.IOError)
		var se silentErr
		if !errors.As(err, &se) {
			t.Errorf("error already reported on stdout should be silent, got %T", err)
		}
		assertFailureJSON(t, env.out.Bytes(), "logs show")
	})

	t.Run("clear", func(t *testing.T) {
		env := newTestEnv(t)
		if err := os.RemoveAll(env.paths.LogDir); err != nil {
			t.Fatal(err)
		}
		assertCode(t, handleLogsClear(env.deps, "access"), exitcodes.IOError)
		assertFailureJSON(t, env.out.Bytes(), "logs clear")
	})

	t.Run("invalid kind stays a usage error", func(t *testing.T) {
		env := newTestEnv(t)
		assertCode(t, handleLogsShow(env.deps, "debug", 0), exitcodes.InvalidArgs)
		if env.out.Len() != 0 {
			t.Errorf("unexpected stdout: %s", env.out.String())
		}
	})
}

func TestHandleLogsClear(t *testing.T) {
	t.Run("needs confirmation", func(t *testing.T) {
		env := newTestEnv(t)
		err := handleLogsClear(env.deps, "access")
		assertCode(t, err, exitcodes.PreconditionFailed)
		if readFile(t, env.paths.LogFile("access.log")) == "" {
			t.Error("log truncated without confirmation")
		}
	})

	t.Run("declined", func(t *testing.T) {
		env := newTestEnv(t)
		env.deps.Prompter = &mockPrompter{interactive: true, answer: "n"}
		if err := handleLogsClear(env.deps, "access"); err != nil {
			t.Fatal(err)
		}
		assertContains(t, env.out.String(), "Aborted")
	})

	t.Run("confirmed", func(t *testing.T) {
		env := newTestEnv(t)
		pr := &mockPrompter{interactive: true, answer: "yes"}
		env.deps.Prompter = pr
		if err := handleLogsClear(env.deps, "access"); err != nil {
			t.Fatal(err)
		}
		if readFile(t, env.paths.LogFile("access.log")) != "" {
			t.Error("access.log not truncated")
		}
		if len(pr.asked) != 1 || !strings.Contains(pr.asked[0], "access.log") {
			t.Errorf("prompts = %v", pr.asked)
		}
	})

	t.Run("yes flag", func(t *testing.T) {
		setYes(t)
		env := newTestEnv(t)
		if err := handleLogsClear(env.deps, "error"); err != nil {
			t.Fatal(err)
		}
		if readFile(t, env.paths.LogFile("error.log")) != "" {
			t.Error("error.log not truncated")
		}
		assertContains(t, env.out.String(), "error.log cleared")
	})
}

func TestHandleLogsFollow_Backlog(t *testing.T) {
	env := newTestEnv(t)
	var got ui.LogViewOptions
	orig := logView
	logView = func(ctx context.Context, opts ui.LogViewOptions) error {
		got = opts
		return nil
	}
	t.Cleanup(func() { logView = orig })

	if err := handleLogsFollow(context.Background(), env.deps, "access", 5, true); err != nil {
		t.Fatal(err)
	}
	if got.Path != env.paths.LogFile("access.log") || !got.Poll {
		t.Errorf("opts = %+v", got)
	}
	if len(got.Backlog) != 2 || !strings.Contains(got.Backlog[0], "/first") || !strings.Contains(got.Backlog[1], "/second") {
		t.Errorf("backlog should be oldest first: %v", got.Backlog)
	}
}

func TestHandleLogsFollow_MissingFile(t *testing.T) {
	env := newTestEnv(t)
	if err := os.Remove(env.paths.LogFile("error.log")); err != nil {
		t.Fatal(err)
	}
	assertCode(t, handleLogsFollow(context.Background(), env.deps, "error", 0, false), exitcodes.IOError)
}

func TestHandleLogsShow_Footer(t *testing.T) {
	env := newTestEnv(t)
	if err := handleLogsShow(env.deps, "access", 1); err != nil {
		t.Fatal(err)
	}
	assertContains(t, env.out.String(), "Showing 1 of 2 entries")
}
