// Package watcher hands settled files in a drop directory to a handler.
package watcher

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// minTick bounds how often pending files are checked, whatever the debounce.
const minTick = 10 * time.Millisecond

type Handler func(ctx context.Context, path string)

type DirWatcher struct {
	watcher  *fsnotify.Watcher
	dir      string
	debounce time.Duration
	skip     func(path string) bool
	handler  Handler
	logger   *zap.Logger
}

// New starts watching dir. Paths for which skip returns true are ignored.
func New(dir string, debounce time.Duration, skip func(path string) bool, handler Handler, logger *zap.Logger) (*DirWatcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}
	if debounce <= 0 {
		debounce = time.Second
	}
	return &DirWatcher{
		watcher:  fw,
		dir:      dir,
		debounce: debounce,
		skip:     skip,
		handler:  handler,
		logger:   logger,
	}, nil
}

// Run blocks until ctx is done. A file reaches the handler once no event has
// touched it for the debounce interval, so a copy in progress is not picked
// up half written. Handlers run one at a time.
func (w *DirWatcher) Run(ctx context.Context) error {
	w.logger.Info("watching directory", zap.String("dir", w.dir), zap.Duration("debounce", w.debounce))

	pending := make(map[string]time.Time)
	ticker := time.NewTicker(tickInterval(w.debounce))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if w.skip != nil && w.skip(event.Name) {
				continue
			}
			pending[event.Name] = time.Now()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("file watcher error", zap.Error(err))

		case now := <-ticker.C:
			for path, seen := range pending {
				if now.Sub(seen) < w.debounce {
					continue
				}
				delete(pending, path)
				info, err := os.Stat(path)
				if err != nil || info.IsDir() {
					continue
				}
				w.handler(ctx, path)
			}
		}
	}
}

func tickInterval(debounce time.Duration) time.Duration {
	return max(debounce/4, minTick)
}

func (w *DirWatcher) Close() error {
	return w.watcher.Close()
}
