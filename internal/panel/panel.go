// Package panel is the string-typed entry point used by the presentation
// layer. It decodes raw action, site and log-kind names into the typed
// operations of the process, files and logs packages.
package panel

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/quicknginx/quicknginx/internal/config"
	"github.com/quicknginx/quicknginx/internal/files"
	"github.com/quicknginx/quicknginx/internal/logs"
	"github.com/quicknginx/quicknginx/internal/process"
)

// Panel bundles the core components for one set of paths.
type Panel struct {
	Proc  process.Controller
	Sites files.SiteStore
	Logs  logs.Reader
	log   *slog.Logger
}

// New wires the production components for cfg.
func New(cfg config.Config, logger *slog.Logger) *Panel {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Panel{
		Proc: process.New(process.Options{
			BinPath:   cfg.BinPath,
			Escalator: cfg.Escalator,
			Logger:    logger,
		}),
		Sites: files.New(cfg.ConfPath, logger),
		Logs:  logs.NewReader(cfg.Paths),
		log:   logger,
	}
}

// CheckStatus reports whether nginx is running.
func (p *Panel) CheckStatus(ctx context.Context) (bool, error) {
	return p.Proc.IsRunning(ctx)
}

// RunCommand executes start, stop or reload.
func (p *Panel) RunCommand(ctx context.Context, action string) (string, error) {
	a, err := process.ParseAction(action)
	if err != nil {
		return "", err
	}
	return p.Proc.Execute(ctx, a)
}

// SetConfig activates the site with exactly the given canonical name.
// Any other name, including empty or differently cased ones, removes
// every include without inserting one.
func (p *Panel) SetConfig(variantName string) error {
	var target *files.Variant
	if v, ok := files.VariantByName(variantName); ok {
		target = &v
	} else if strings.TrimSpace(variantName) != "" {
		p.log.Warn("unknown site; clearing all includes", "site", variantName)
	}
	_, err := p.Sites.SetActive(target)
	return err
}

// SwitchSite makes name the only active site: nginx is stopped if it is
// running, the include is rewritten and nginx is started again.
func (p *Panel) SwitchSite(ctx context.Context, name string) (string, error) {
	v, err := files.ParseVariant(name)
	if err != nil {
		return "", err
	}
	running, err := p.Proc.IsRunning(ctx)
	if err != nil {
		return "", err
	}
	if running {
		if _, err := p.Proc.Execute(ctx, process.ActionStop); err != nil {
			return "", err
		}
	}
	if _, err := p.Sites.SetActive(&v); err != nil {
		return "", err
	}
	p.log.Info("site switched", "site", v.String(), "was_running", running)
	return p.Proc.Execute(ctx, process.ActionStart)
}

// StopAndClear stops nginx and then removes every site include.
// The config is left untouched when stop fails.
func (p *Panel) StopAndClear(ctx context.Context) (string, error) {
	out, err := p.Proc.Execute(ctx, process.ActionStop)
	if err != nil {
		return "", err
	}
	if _, err := p.Sites.SetActive(nil); err != nil {
		return "", err
	}
	return out, nil
}

// GetLogs returns the newest entries of the access or error log.
func (p *Panel) GetLogs(kind string) ([]logs.Entry, error) {
	k, err := logs.ParseKind(kind)
	if err != nil {
		return nil, err
	}
	return p.Logs.Read(k)
}

// ClearLog truncates the access or error log.
func (p *Panel) ClearLog(kind string) error {
	k, err := logs.ParseKind(kind)
	if err != nil {
		return err
	}
	return p.Logs.Clear(k)
}
