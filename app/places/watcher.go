package places

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const reloadDebounce = 500 * time.Millisecond

// Watch reloads the catalog whenever its file changes, until ctx is done.
// The built-in catalog has nothing to watch and Watch returns immediately.
func (c *Catalog) Watch(ctx context.Context) error {
	if c.path == "" {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}

	// Editors often replace the file, so watch the directory and filter by name.
	dir := filepath.Dir(c.path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	go func() {
		defer watcher.Close()

		var debounce *time.Timer
		target := filepath.Clean(c.path)

		for {
			select {
			case <-ctx.Done():
				if debounce != nil {
					debounce.Stop()
				}
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
					continue
				}

				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.AfterFunc(reloadDebounce, func() {
					if err := c.Reload(); err != nil {
						slog.Error("Place catalog reload failed, keeping previous catalog", "path", c.path, "error", err)
						return
					}
					slog.Info("Place catalog reloaded", "path", c.path, "tracked", c.Count())
				})

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				slog.Warn("Place catalog watcher error", "path", c.path, "error", err)
			}
		}
	}()

	return nil
}
