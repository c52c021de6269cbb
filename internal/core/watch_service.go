package core

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultWatchDebounce collapses the burst of events an editor save produces.
const DefaultWatchDebounce = 1 * time.Second

// WatchService re-runs a callback whenever fleet.yml or the policy file changes.
type WatchService struct {
	paths    []string
	debounce time.Duration
	ui       UICallback
	logger   *slog.Logger
}

// NewWatchService creates a watcher for paths. Empty paths are ignored.
func NewWatchService(paths []string, debounce time.Duration, ui UICallback, logger *slog.Logger) *WatchService {
	if debounce <= 0 {
		debounce = DefaultWatchDebounce
	}
	if ui == nil {
		ui = &SilentUICallback{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	var clean []string
	for _, p := range paths {
		if p != "" {
			clean = append(clean, filepath.Clean(p))
		}
	}
	return &WatchService{paths: clean, debounce: debounce, ui: ui, logger: logger}
}

// Watch blocks until ctx is cancelled, calling callback once per debounced
// burst of writes to a watched file. Callbacks never overlap.
func (w *WatchService) Watch(ctx context.Context, callback func(context.Context) error) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	// Directories are watched so a file replaced by rename (editors, git
	// checkout) keeps being seen.
	watched := make(map[string]bool, len(w.paths))
	dirs := make(map[string]bool)
	for _, p := range w.paths {
		watched[p] = true
		dir := filepath.Dir(p)
		if dirs[dir] {
			continue
		}
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch directory %s: %w", dir, err)
		}
		dirs[dir] = true
	}

	w.ui.ShowInfo(fmt.Sprintf("Watching %d file(s) for changes. Press Ctrl+C to stop", len(w.paths)))

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	var changed string

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !watched[filepath.Clean(event.Name)] {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			changed = event.Name
			timer.Reset(w.debounce)

		case <-timer.C:
			w.logger.Info("change detected", "file", changed)
			if _, err := os.Stat(changed); err != nil {
				w.ui.ShowWarning("File Not Found", fmt.Sprintf("%s was deleted or is inaccessible", filepath.Base(changed)))
				continue
			}
			if err := callback(ctx); err != nil {
				w.ui.ShowError("Audit Failed", err.Error())
			} else {
				w.ui.ShowSuccess("Audit completed")
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "error", err)
		}
	}
}
