package ingest

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

type WatchConfig struct {
	Roots       []string // directories to watch (recursive)
	InitialScan bool     // if true, walk roots and emit existing files
	// Debounce is how long a path must stay quiet before it is emitted, so
	// half-written files are not picked up mid-copy.
	Debounce time.Duration
}

// StartWatcher watches cfg.Roots and emits settled image paths until ctx is done.
// Both channels are closed when the watcher stops.
func StartWatcher(ctx context.Context, cfg WatchConfig, logger *slog.Logger) (<-chan string, <-chan error, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if len(cfg.Roots) == 0 {
		return nil, nil, errors.New("no roots provided")
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Error("watch.start.failed", "error", err)
		return nil, nil, err
	}

	var initial []string
	addDir := func(root string) error {
		return filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if d.IsDir() {
				if path != root && IsHidden(path) {
					return filepath.SkipDir
				}
				return w.Add(path)
			}
			if cfg.InitialScan && watchable(path) {
				initial = append(initial, path)
			}
			return nil
		})
	}
	for _, r := range cfg.Roots {
		if err := addDir(r); err != nil {
			logger.Error("watch.add_root.failed", "root", r, "error", err)
			_ = w.Close()
			return nil, nil, err
		}
	}
	logger.Info("watch.start.ok", "roots", cfg.Roots, "debounce_ms", cfg.Debounce.Milliseconds())

	evCh := make(chan string)
	errCh := make(chan error, 1)

	go func() {
		defer close(evCh)
		defer close(errCh)
		defer func() { _ = w.Close() }()

		emit := func(p string) bool {
			select {
			case evCh <- p:
				return true
			case <-ctx.Done():
				return false
			}
		}
		for _, p := range initial {
			if !emit(p) {
				return
			}
		}

		// path -> time of its latest event
		pending := map[string]time.Time{}
		timer := time.NewTimer(time.Hour)
		timer.Stop()
		defer timer.Stop()

		flush := func(now time.Time) bool {
			var next time.Duration
			for p, last := range pending {
				if wait := cfg.Debounce - now.Sub(last); wait > 0 {
					if next == 0 || wait < next {
						next = wait
					}
					continue
				}
				delete(pending, p)
				if !emit(p) {
					return false
				}
			}
			if next > 0 {
				timer.Reset(next)
			}
			return true
		}

		for {
			select {
			case <-ctx.Done():
				return
			case e, ok := <-w.Events:
				if !ok {
					return
				}
				if e.Has(fsnotify.Create) {
					if fi, err := os.Stat(e.Name); err == nil && fi.IsDir() && !IsHidden(e.Name) {
						if err := w.Add(e.Name); err != nil {
							logger.Warn("watch.add_dir.failed", "path", e.Name, "error", err)
						}
						continue
					}
				}
				if !watchable(e.Name) || !(e.Has(fsnotify.Create) || e.Has(fsnotify.Write)) {
					continue
				}
				pending[e.Name] = time.Now()
				if cfg.Debounce <= 0 {
					if !flush(time.Now()) {
						return
					}
					continue
				}
				timer.Reset(cfg.Debounce)
			case <-timer.C:
				if !flush(time.Now()) {
					return
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Error("watch.error", "error", err)
				select {
				case errCh <- err:
				default:
				}
			}
		}
	}()

	return evCh, errCh, nil
}

func watchable(path string) bool {
	return !IsHidden(path) && IsReceiptImage(path)
}
