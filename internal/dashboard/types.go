package dashboard

import (
	"context"
	"time"

	"github.com/quicknginx/quicknginx/internal/config"
	"github.com/quicknginx/quicknginx/internal/files"
	"github.com/quicknginx/quicknginx/internal/logs"
	"github.com/quicknginx/quicknginx/internal/metrics"
	"github.com/quicknginx/quicknginx/internal/panel"
)

type tickMsg time.Time

type dataMsg Snapshot

type dataErrMsg struct{ err error }

// fetchStartedMsg hands the fetch cancel func to the UI goroutine.
type fetchStartedMsg struct {
	seq    uint64
	cancel context.CancelFunc
}

// fetchDoneMsg carries one fetch result; only the latest seq is applied.
type fetchDoneMsg struct {
	seq  uint64
	data Snapshot
	err  error
}

type forceRefreshMsg struct{}

type toggleHelpMsg struct{}

// actionDoneMsg reports the outcome of a start/stop/reload/site action.
type actionDoneMsg struct {
	label string
	out   string
	err   error
}

// Snapshot is everything one refresh collects.
type Snapshot struct {
	Running   bool
	StatusErr error // liveness could not be determined
	PIDs      []int32
	Uptime    time.Duration
	Version   string

	Active    []files.Variant
	HasMarker bool
	SitesErr  error

	LogKind logs.Kind
	Logs    []logs.Entry
	LogErr  error

	Resources    metrics.Snapshot
	HasResources bool

	Paths      config.Paths
	CLIVersion string

	// set by the model, not by fetch
	Busy      string
	Notice    string
	NoticeErr bool

	LastUpdate time.Time
	Err        error
}

// ActiveName returns the single active site, "none", or "mixed".
func (s Snapshot) ActiveName() string {
	switch len(s.Active) {
	case 0:
		return "none"
	case 1:
		return s.Active[0].String()
	default:
		return "mixed"
	}
}

// Options configures the dashboard.
type Options struct {
	Panel           *panel.Panel
	Metrics         *metrics.Collector // optional host/nginx usage
	Paths           config.Paths
	RefreshInterval time.Duration
	FetchTimeout    time.Duration
	NoEmoji         bool
	Debug           bool
	CLIVersion      string
}
