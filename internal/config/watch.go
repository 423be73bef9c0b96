package config

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// WatchProfile reloads the profile at path whenever it changes and passes
// each valid result to onChange. Edits that fail to load are logged and
// skipped. It blocks until ctx is done.
func WatchProfile(ctx context.Context, path string, logger zerolog.Logger, onChange func(Profile)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() {
		_ = watcher.Close()
	}()

	// Editors often replace the file, so watch its directory.
	target := filepath.Clean(path)
	dir := filepath.Dir(target)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch dir %s: %w", dir, err)
	}
	logger.Info().Str("path", target).Msg("config.WatchProfile watching")

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			p, err := LoadProfile(target)
			if err != nil {
				logger.Warn().Err(err).Str("path", target).Msg("config.WatchProfile reload failed")
				continue
			}
			logger.Info().Str("path", target).Str("profile", p.Name).Msg("config.WatchProfile reloaded")
			onChange(p)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn().Err(err).Msg("config.WatchProfile watcher error")
		}
	}
}
