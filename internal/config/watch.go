package config

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// reloadDelay coalesces the burst of events a single editor save produces.
const reloadDelay = 50 * time.Millisecond

// Watch calls onChange with the re-parsed Config whenever the file at path
// changes content. It runs until ctx is cancelled.
//
// The parent directory is watched, so atomic saves (write temp, rename over)
// are seen as well as in-place writes. Saves that leave the bytes unchanged
// are ignored. A file that fails to parse or validate is logged and skipped;
// the previous config stays in effect.
func Watch(ctx context.Context, path string, onChange func(*Config)) error {
	path = filepath.Clean(path)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("config: watch: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("config: watch %q: %w", dir, err)
	}
	slog.Info("config: watching for changes", "path", path)

	applied, _ := os.ReadFile(path)

	pending := time.NewTimer(reloadDelay)
	if !pending.Stop() {
		<-pending.C
	}
	defer pending.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			pending.Reset(reloadDelay)

		case <-pending.C:
			data, err := os.ReadFile(path)
			if err != nil {
				slog.Error("config: reload read failed", "path", path, "err", err)
				continue
			}
			if bytes.Equal(data, applied) {
				slog.Debug("config: content unchanged, nothing to apply", "path", path)
				continue
			}
			cfg, err := Parse(data)
			if err != nil {
				slog.Error("config: reload rejected, keeping previous config", "path", path, "err", err)
				continue
			}
			applied = data

			slog.Info("config: reloaded", "path", path,
				"refresh_interval", cfg.Source.RefreshInterval,
				"alert_rules", len(cfg.Alerts.Rules),
			)
			onChange(cfg)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("config: watcher error", "err", err)
		}
	}
}
