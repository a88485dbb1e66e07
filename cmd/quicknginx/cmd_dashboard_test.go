package main

import (
	"context"
	"errors"
	"testing"

	"github.com/quicknginx/quicknginx/internal/dashboard"
)

type dashboardCalls struct {
	static, interactive, warm int
}

func fakeDashboardDeps(tty bool, warmErr error, c *dashboardCalls) dashboardCoreDeps {
	return dashboardCoreDeps{
		isTTY: func() bool { return tty },
		warmSudo: func() error {
			c.warm++
			return warmErr
		},
		runStatic: func(ctx context.Context, opts dashboard.Options) error {
			c.static++
			return nil
		},
		runInteractive: func(opts dashboard.Options) error {
			c.interactive++
			return nil
		},
	}
}

func TestRunDashboardCmdCore_NonTTY(t *testing.T) {
	var c dashboardCalls
	if err := runDashboardCmdCore(context.Background(), dashboard.Options{}, fakeDashboardDeps(false, nil, &c)); err != nil {
		t.Fatal(err)
	}
	if c.static != 1 || c.interactive != 0 || c.warm != 0 {
		t.Errorf("calls = %+v, want static only", c)
	}
}

func TestRunDashboardCmdCore_TTY(t *testing.T) {
	var c dashboardCalls
	if err := runDashboardCmdCore(context.Background(), dashboard.Options{}, fakeDashboardDeps(true, nil, &c)); err != nil {
		t.Fatal(err)
	}
	if c.warm != 1 || c.interactive != 1 || c.static != 0 {
		t.Errorf("calls = %+v, want warm then interactive", c)
	}
}

func TestRunDashboardCmdCore_SudoRefused(t *testing.T) {
	var c dashboardCalls
	err := runDashboardCmdCore(context.Background(), dashboard.Options{}, fakeDashboardDeps(true, errors.New("exit status 1"), &c))
	if err == nil {
		t.Fatal("expected error when sudo authentication fails")
	}
	if c.interactive != 0 {
		t.Error("dashboard must not start without sudo credentials")
	}
}

func TestRunDashboardCmdCore_NoEscalator(t *testing.T) {
	var c dashboardCalls
	deps := fakeDashboardDeps(true, nil, &c)
	deps.warmSudo = nil
	if err := runDashboardCmdCore(context.Background(), dashboard.Options{}, deps); err != nil {
		t.Fatal(err)
	}
	if c.interactive != 1 {
		t.Errorf("calls = %+v", c)
	}
}
