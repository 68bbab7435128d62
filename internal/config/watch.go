package config

import (
	"context"
	"log/slog"

	"github.com/fsnotify/fsnotify"
)

// Watch monitors path and calls onChange with the reloaded file each time it
// is written. It blocks until ctx is cancelled.
//
// A reload that fails to parse is logged and skipped; onChange is not called
// and the previous settings remain in effect.
func Watch(ctx context.Context, logger *slog.Logger, path string, onChange func(*File)) error {
	if logger == nil {
		logger = slog.Default()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		return err
	}
	logger.Info("watching config file", "path", path)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			// Editors that save atomically produce Create rather than Write.
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			f, err := LoadConfigFile(path)
			if err != nil {
				logger.Warn("config reload failed, keeping previous settings", "path", path, "error", err)
				continue
			}
			logger.Info("config reloaded", "path", path)
			onChange(f)

			// The inode may have been replaced by an atomic save.
			_ = watcher.Add(path)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("config watcher error", "error", err)
		}
	}
}
