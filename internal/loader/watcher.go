package loader

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher observes a sales export file and invokes a handler whenever the
// file is rewritten. Exports are replaced wholesale by the upstream tool, so
// a write event means the cached dataset is stale.
type Watcher struct {
	path    string
	watcher *fsnotify.Watcher
	logger  *slog.Logger

	mu      sync.Mutex
	lastMod time.Time
}

// NewWatcher creates a watcher for the given file. The containing directory
// is watched rather than the file itself so that atomic rename-replace
// writes are still observed.
func NewWatcher(path string, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if err := w.Add(filepath.Dir(path)); err != nil {
		w.Close()
		return nil, err
	}

	return &Watcher{
		path:    filepath.Clean(path),
		watcher: w,
		logger:  logger.With(slog.String("component", "watcher")),
	}, nil
}

// Watch blocks until ctx is cancelled or the underlying watcher fails,
// calling handler after each observed rewrite of the file. Repeated events
// for the same modification time are collapsed.
func (w *Watcher) Watch(ctx context.Context, handler func(string)) error {
	defer w.watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if event.Name != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			info, err := os.Stat(event.Name)
			if err != nil {
				continue
			}

			w.mu.Lock()
			stale := info.ModTime().After(w.lastMod)
			if stale {
				w.lastMod = info.ModTime()
			}
			w.mu.Unlock()

			if stale {
				w.logger.InfoContext(ctx, "input file changed",
					slog.String("path", event.Name))
				handler(event.Name)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			return err
		}
	}
}
