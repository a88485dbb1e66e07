package process

import (
	"bytes"
	"context"
	"os/exec"

	"github.com/shirou/gopsutil/v3/process"
)

// Runner abstracts exec.Command calls for testability.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

// ExecRunner is the production Runner. It waits for the command without a
// timeout unless ctx carries one.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// Info is a snapshot of one entry in the OS process table.
type Info struct {
	PID        int32
	Name       string
	CreateTime int64 // unix milliseconds
}

// Lister abstracts the OS process table.
type Lister interface {
	List(ctx context.Context) ([]Info, error)
}

// TableLister reads the process table through gopsutil.
type TableLister struct{}

func (TableLister) List(ctx context.Context) ([]Info, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Info, 0, len(procs))
	for _, p := range procs {
		name, err := p.NameWithContext(ctx)
		if err != nil {
			// exited between listing and inspection
			continue
		}
		ct, _ := p.CreateTimeWithContext(ctx)
		out = append(out, Info{PID: p.Pid, Name: name, CreateTime: ct})
	}
	return out, nil
}
