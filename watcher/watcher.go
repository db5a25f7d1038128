package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"iconresizer/contracts"
	"iconresizer/files_manager"
)

const DefaultSettle = 300 * time.Millisecond

// Handler processes one dropped file. Errors are logged and do not stop the
// watcher.
type Handler func(ctx context.Context, path string) error

// Watcher runs Handler once for every source file that appears in a
// directory, after writes to it have settled.
type Watcher struct {
	dir     string
	handle  Handler
	logger  *zap.Logger
	settle  time.Duration
	watcher *fsnotify.Watcher
	pending map[string]time.Time
}

func New(dir string, handle Handler, logger *zap.Logger) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	if err := fsWatcher.Add(dir); err != nil {
		fsWatcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	return &Watcher{
		dir:     dir,
		handle:  handle,
		logger:  logger.Named("watcher"),
		settle:  DefaultSettle,
		watcher: fsWatcher,
		pending: make(map[string]time.Time),
	}, nil
}

// SetSettle changes how long a file must stay quiet before it is handled.
func (w *Watcher) SetSettle(d time.Duration) {
	w.settle = d
}

// Run blocks until ctx is done or the underlying watcher fails.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	ticker := time.NewTicker(max(w.settle/2, 10*time.Millisecond))
	defer ticker.Stop()

	w.logger.Info("watching for sources", zap.String("dir", w.dir))
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.track(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watcher error: %w", err)
		case now := <-ticker.C:
			w.flush(ctx, now)
		}
	}
}

func (w *Watcher) track(event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}
	if !files_manager.IsCandidate(event.Name) || isGenerated(event.Name) {
		return
	}
	w.pending[event.Name] = time.Now()
}

func (w *Watcher) flush(ctx context.Context, now time.Time) {
	for path, last := range w.pending {
		if now.Sub(last) < w.settle {
			continue
		}
		delete(w.pending, path)
		w.logger.Debug("source dropped", zap.String("path", path))
		if err := w.handle(ctx, path); err != nil {
			w.logger.Error("failed to process source",
				zap.String("path", path),
				zap.String("kind", string(contracts.KindOf(err))),
				zap.Error(err),
			)
		}
	}
}

// isGenerated skips our own output when it lands in the watched directory.
func isGenerated(path string) bool {
	name := filepath.Base(path)
	return strings.HasPrefix(name, "resized_") || name == contracts.OriginalFileName
}
