package logs

import (
	"context"
	"fmt"
	"io"

	"github.com/nxadm/tail"
)

// FollowOptions configures Follow.
type FollowOptions struct {
	FromStart bool // replay the existing file before following
	Poll      bool // poll instead of inotify/kqueue (network filesystems)
}

// Follow streams lines appended to path until ctx is cancelled, calling
// emit for each. Truncation by Clear and rotation are picked up by reopening.
func Follow(ctx context.Context, path string, opts FollowOptions, emit func(string)) error {
	cfg := tail.Config{
		Follow:    true, // keep following
		ReOpen:    true, // handle rotation
		MustExist: true,
		Poll:      opts.Poll,
		Logger:    tail.DiscardingLogger,
	}
	if !opts.FromStart {
		cfg.Location = &tail.SeekInfo{Offset: 0, Whence: io.SeekEnd}
	}

	t, err := tail.TailFile(path, cfg)
	if err != nil {
		return fmt.Errorf("failed to tail log: %w", err)
	}
	defer t.Cleanup()
	defer func() { _ = t.Stop() }()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-t.Lines:
			if !ok || line == nil {
				return t.Err()
			}
			if line.Err != nil {
				return line.Err
			}
			emit(line.Text)
		}
	}
}
