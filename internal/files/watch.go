package files

import (
	"context"
	"slices"

	"github.com/fsnotify/fsnotify"
)

// Watch monitors the store's config file and calls onChange with the
// includes present after each write that changes them. The current state is
// reported once on start. It runs until ctx is cancelled.
//
// Read errors during a reload are passed to onChange with a nil slice; the
// watch keeps running.
func Watch(ctx context.Context, s SiteStore, onChange func([]Variant, error)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(s.Path()); err != nil {
		return err
	}

	last, err := s.Active()
	onChange(last, err)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			// Editors often save via rename, so Create counts as a write.
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
					_ = watcher.Add(s.Path())
				}
				continue
			}

			cur, err := s.Active()
			if err != nil {
				onChange(nil, err)
				continue
			}
			if !slices.Equal(cur, last) {
				last = cur
				onChange(cur, nil)
			}

			// Re-add the file in case an atomic save replaced the inode.
			_ = watcher.Add(s.Path())

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			onChange(nil, err)
		}
	}
}
