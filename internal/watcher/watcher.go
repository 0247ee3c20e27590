// Package watcher follows filesystem events under the scan root and feeds
// changed paths into the pipeline after a debounce window.
package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"mediascan/internal/config"
	"mediascan/internal/logging"
	"mediascan/internal/pipeline"
)

// Watcher wires fsnotify events to the pipeline.
type Watcher struct {
	cfg      *config.Config
	pipe     *pipeline.Pipeline
	notifier *fsnotify.Watcher
	debounce time.Duration
	log      *slog.Logger

	mu      sync.Mutex
	pending map[string]pendingEvent
}

type pendingEvent struct {
	at      time.Time
	removed bool
}

// New constructs a watcher over the configured scan root.
func New(cfg *config.Config, pipe *pipeline.Pipeline, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	notifier, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fs watcher: %w", err)
	}
	return &Watcher{
		cfg:      cfg,
		pipe:     pipe,
		notifier: notifier,
		debounce: cfg.Debounce(),
		log:      logging.WithComponent(logger, "watcher"),
		pending:  make(map[string]pendingEvent),
	}, nil
}

// Run watches until the context is cancelled. The debounce window lets a burst
// of writes settle before any file is signed, and clustering re-runs once per
// quiet period rather than per event.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.notifier.Close()

	if err := w.addRecursive(w.cfg.Scan.Root); err != nil {
		return fmt.Errorf("watch %s: %w", w.cfg.Scan.Root, err)
	}
	w.log.Info("watching for changes", "root", w.cfg.Scan.Root, "debounce", w.debounce)

	ticker := time.NewTicker(w.tickInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.notifier.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-w.notifier.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error", "error", err)

		case <-ticker.C:
			w.flushSettled(ctx)
		}
	}
}

func (w *Watcher) tickInterval() time.Duration {
	interval := w.debounce / 4
	if interval < 50*time.Millisecond {
		interval = 50 * time.Millisecond
	}
	return interval
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) == 0 {
		return
	}

	removed := event.Op&(fsnotify.Remove|fsnotify.Rename) != 0
	if !removed {
		info, err := os.Stat(event.Name)
		if err != nil {
			// Created and deleted within the same burst.
			removed = true
		} else if info.IsDir() {
			if event.Op&fsnotify.Create != 0 {
				if err := w.addRecursive(event.Name); err != nil {
					w.log.Warn("failed to watch new directory", "path", event.Name, "error", err)
				}
			}
			return
		}
	}

	w.mu.Lock()
	w.pending[event.Name] = pendingEvent{at: time.Now(), removed: removed}
	w.mu.Unlock()
}

// flushSettled processes every pending path whose debounce window has passed.
func (w *Watcher) flushSettled(ctx context.Context) {
	now := time.Now()

	w.mu.Lock()
	var upserts, removals []string
	for path, event := range w.pending {
		if now.Sub(event.at) < w.debounce {
			continue
		}
		delete(w.pending, path)
		if event.removed {
			removals = append(removals, path)
		} else {
			upserts = append(upserts, path)
		}
	}
	w.mu.Unlock()

	if len(upserts) == 0 && len(removals) == 0 {
		return
	}

	if len(upserts) > 0 {
		w.pipe.ProcessPaths(ctx, upserts)
	}
	if len(removals) > 0 {
		if err := w.pipe.TombstoneTrees(ctx, removals); err != nil {
			w.log.Error("failed to tombstone removed paths", "error", err)
		}
	}
	if _, _, err := w.pipe.Recluster(ctx); err != nil {
		w.log.Error("failed to recluster after changes", "error", err)
	}
	w.log.Info("processed filesystem changes", "updated", len(upserts), "removed", len(removals))
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if !w.cfg.Scan.FollowHidden && path != root && len(d.Name()) > 0 && d.Name()[0] == '.' {
			return fs.SkipDir
		}
		if err := w.notifier.Add(path); err != nil {
			return fmt.Errorf("add watch for %s: %w", path, err)
		}
		return nil
	})
}
