// Package metrics samples host resource usage and the footprint of the
// nginx worker processes for the status views.
package metrics

import (
	"context"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

type System struct {
	CPUPercent float64 `json:"cpu_percent" yaml:"cpu_percent"`
	MemUsed    uint64  `json:"mem_used" yaml:"mem_used"`
	MemTotal   uint64  `json:"mem_total" yaml:"mem_total"`
	DiskUsed   uint64  `json:"disk_used" yaml:"disk_used"`
	DiskTotal  uint64  `json:"disk_total" yaml:"disk_total"`
}

// Nginx sums the master and worker processes.
type Nginx struct {
	Processes  int     `json:"processes" yaml:"processes"`
	RSS        uint64  `json:"rss" yaml:"rss"`
	CPUPercent float64 `json:"cpu_percent" yaml:"cpu_percent"`
}

type Snapshot struct {
	System System `json:"system" yaml:"system"`
	Nginx  Nginx  `json:"nginx" yaml:"nginx"`
}

// Probe reads raw usage figures. The gopsutil implementation is the default.
type Probe interface {
	CPU(ctx context.Context, interval time.Duration) (float64, error)
	Memory(ctx context.Context) (used, total uint64, err error)
	Disk(ctx context.Context, path string) (used, total uint64, err error)
	Process(ctx context.Context, pid int32) (rss uint64, cpuPercent float64, err error)
}

type hostProbe struct{}

func (hostProbe) CPU(ctx context.Context, interval time.Duration) (float64, error) {
	percent, err := cpu.PercentWithContext(ctx, interval, false)
	if err != nil || len(percent) == 0 {
		return 0, err
	}
	return percent[0], nil
}

func (hostProbe) Memory(ctx context.Context) (uint64, uint64, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return 0, 0, err
	}
	return vm.Used, vm.Total, nil
}

func (hostProbe) Disk(ctx context.Context, path string) (uint64, uint64, error) {
	st, err := disk.UsageWithContext(ctx, path)
	if err != nil {
		return 0, 0, err
	}
	return st.Used, st.Total, nil
}

func (hostProbe) Process(ctx context.Context, pid int32) (uint64, float64, error) {
	p, err := process.NewProcessWithContext(ctx, pid)
	if err != nil {
		return 0, 0, err
	}
	mi, err := p.MemoryInfoWithContext(ctx)
	if err != nil {
		return 0, 0, err
	}
	// lifetime average; a live rate would need two samples per refresh
	pct, _ := p.CPUPercentWithContext(ctx)
	return mi.RSS, pct, nil
}

// Collector caches a background CPU sample so Collect never blocks on the
// sampling interval.
type Collector struct {
	mu         sync.RWMutex
	lastCPU    float64
	cpuRunning bool
	cancel     context.CancelFunc

	diskPath string
	probe    Probe
	interval time.Duration
}

// New creates a Collector with background CPU monitoring started immediately.
// Use this for long-running views like the dashboard.
func New(diskPath string) *Collector {
	c := NewWithProbe(diskPath, nil)
	c.Start()
	return c
}

// NewWithoutCPU creates a Collector for one-shot commands; Collect then
// takes a short CPU sample itself.
func NewWithoutCPU(diskPath string) *Collector { return NewWithProbe(diskPath, nil) }

// NewWithProbe is NewWithoutCPU with an explicit probe.
func NewWithProbe(diskPath string, p Probe) *Collector {
	if p == nil {
		p = hostProbe{}
	}
	if diskPath == "" {
		diskPath = "/"
	}
	return &Collector{diskPath: diskPath, probe: p, interval: time.Second}
}

// Start begins background CPU collection (safe to call on any collector)
func (c *Collector) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cpuRunning {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.cpuRunning = true
	c.cancel = cancel
	go c.updateCPU(ctx)
}

// Stop halts background CPU collection
func (c *Collector) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.cpuRunning {
		return
	}
	c.cpuRunning = false
	c.cancel()
}

// Running reports whether the background sampler is active.
func (c *Collector) Running() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cpuRunning
}

func (c *Collector) updateCPU(ctx context.Context) {
	for {
		if pct, err := c.probe.CPU(ctx, c.interval); err == nil {
			c.mu.Lock()
			c.lastCPU = pct
			c.mu.Unlock()
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(100 * time.Millisecond):
		}
	}
}

// Collect samples memory, disk and the given nginx pids. Failed reads leave
// the corresponding fields at zero; pids that exited are skipped.
func (c *Collector) Collect(ctx context.Context, pids []int32) Snapshot {
	var snap Snapshot

	if c.Running() {
		c.mu.RLock()
		snap.System.CPUPercent = c.lastCPU
		c.mu.RUnlock()
	} else if pct, err := c.probe.CPU(ctx, 200*time.Millisecond); err == nil {
		snap.System.CPUPercent = pct
	}

	if used, total, err := c.probe.Memory(ctx); err == nil {
		snap.System.MemUsed, snap.System.MemTotal = used, total
	}
	if used, total, err := c.probe.Disk(ctx, c.diskPath); err == nil {
		snap.System.DiskUsed, snap.System.DiskTotal = used, total
	}

	for _, pid := range pids {
		rss, pct, err := c.probe.Process(ctx, pid)
		if err != nil {
			continue
		}
		snap.Nginx.Processes++
		snap.Nginx.RSS += rss
		snap.Nginx.CPUPercent += pct
	}
	return snap
}
