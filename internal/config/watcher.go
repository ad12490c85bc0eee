package config

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const reloadDebounce = 500 * time.Millisecond

// Watch emits on the returned channel when path changes, debounced. The
// parent directory is watched so editors that replace the file on save are
// still seen. The channel closes when ctx is done.
func Watch(ctx context.Context, path string, logger *slog.Logger) (<-chan struct{}, error) {
	if logger == nil {
		logger = slog.Default()
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(filepath.Dir(absPath)); err != nil {
		watcher.Close()
		return nil, err
	}
	logger.Debug("watching configuration file", "file", absPath)

	reloadCh := make(chan struct{}, 1)

	go func() {
		defer watcher.Close()
		defer close(reloadCh)

		// nil until an event arms the debounce
		var fire <-chan time.Time

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != absPath {
					continue
				}
				if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Rename) {
					continue
				}
				fire = time.After(reloadDebounce)
			case <-fire:
				fire = nil
				logger.Info("configuration change detected", "file", absPath)
				select {
				case reloadCh <- struct{}{}:
				default:
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Error("configuration watcher error", "error", err)
			}
		}
	}()

	return reloadCh, nil
}
