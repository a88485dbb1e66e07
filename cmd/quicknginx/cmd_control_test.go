package main

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/quicknginx/quicknginx/internal/exitcodes"
	"github.com/quicknginx/quicknginx/internal/process"
)

func TestHandleControl_Actions(t *testing.T) {
	tests := []struct {
		action string
		want   string
	}{
		{"start", "Command executed successfully"},
		{"stop", "quicknginx start"},
		{"reload", "Command executed successfully"},
	}
	for _, tt := range tests {
		t.Run(tt.action, func(t *testing.T) {
			env := newTestEnv(t)
			if err := handleControl(context.Background(), env.deps, tt.action); err != nil {
				t.Fatalf("handleControl() error = %v", err)
			}
			assertContains(t, env.out.String(), "[OK]", tt.want)
			if calls := env.ctrl.Calls(); len(calls) != 1 || calls[0] != tt.action {
				t.Errorf("calls = %v, want [%s]", calls, tt.action)
			}
		})
	}
}

func TestHandleControl_InvalidAction(t *testing.T) {
	env := newTestEnv(t)
	err := handleControl(context.Background(), env.deps, "explode")
	assertCode(t, err, exitcodes.InvalidArgs)
	if len(env.ctrl.Calls()) != 0 {
		t.Error("controller must not be called for an invalid action")
	}
}

func TestHandleControl_FailureIsReportedOnce(t *testing.T) {
	env := newTestEnv(t)
	env.ctrl.execErr = exitcodes.ProcessErr("nginx: [emerg] bind() to 0.0.0.0:80 failed")

	err := handleControl(context.Background(), env.deps, "start")
	assertCode(t, err, exitcodes.ProcessError)
	var se silentErr
	if !errors.As(err, &se) {
		t.Fatalf("error should be silent after being printed, got %T", err)
	}
	assertContains(t, env.out.String(), "[ERR]", "start failed", "bind()")
}

func TestHandleControl_JSON(t *testing.T) {
	setOutput(t, "json")
	env := newTestEnv(t)
	if err := handleControl(context.Background(), env.deps, "reload"); err != nil {
		t.Fatal(err)
	}
	var res controlResult
	if err := json.Unmarshal(env.out.Bytes(), &res); err != nil {
		t.Fatalf("invalid json %q: %v", env.out.String(), err)
	}
	if !res.OK || res.Action != "reload" || res.Message != process.SuccessMessage {
		t.Errorf("result = %+v", res)
	}
}

func TestHandleRestart(t *testing.T) {
	env := newTestEnv(t)
	if err := handleRestart(context.Background(), env.deps); err != nil {
		t.Fatal(err)
	}
	if got := strings.Join(env.ctrl.Calls(), ","); got != "stop,start" {
		t.Errorf("calls = %s, want stop,start", got)
	}
}

func TestHandleStopAndClear(t *testing.T) {
	env := newTestEnv(t)
	if err := handleStopAndClear(context.Background(), env.deps); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(readFile(t, env.paths.ConfPath), "include ./yx_conf/") {
		t.Error("includes should be removed after stop --clear-site")
	}
	assertContains(t, env.out.String(), "All site includes removed")
}

func TestHandleStopAndClear_StopFailsKeepsConfig(t *testing.T) {
	env := newTestEnv(t)
	env.ctrl.execErr = exitcodes.ProcessErr("no such process")
	err := handleStopAndClear(context.Background(), env.deps)
	assertCode(t, err, exitcodes.ProcessError)
	if readFile(t, env.paths.ConfPath) != testConf {
		t.Error("config must not change when stop fails")
	}
}
