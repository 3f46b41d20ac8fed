package loader

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce is the quiet period before a changed file is reloaded.
const DefaultDebounce = 100 * time.Millisecond

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounce sets the quiet period applied per dataset key.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithWatcherLogger sets the watcher logger.
func WithWatcherLogger(logger *zap.Logger) WatcherOption {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// Watcher force-reloads datasets through a Memo whenever their file in the
// source directory changes, so the memo publishes load-success for the new
// data. Removed files are invalidated.
type Watcher struct {
	source   *FileSource
	memo     *Memo
	watcher  *fsnotify.Watcher
	debounce time.Duration
	logger   *zap.Logger

	mu       sync.Mutex
	watching bool
	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewWatcher creates a watcher for source feeding memo. Call Start to begin
// watching and Stop to release resources.
func NewWatcher(source *FileSource, memo *Memo, opts ...WatcherOption) (*Watcher, error) {
	if source == nil || memo == nil {
		return nil, fmt.Errorf("loader: watcher requires a source and a memo")
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("loader: create watcher: %w", err)
	}
	w := &Watcher{
		source:   source,
		memo:     memo,
		watcher:  fsw,
		debounce: DefaultDebounce,
		logger:   zap.NewNop(),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(w)
		}
	}
	return w, nil
}

// Start begins watching the source directory. The event loop exits when ctx
// is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.watching {
		w.mu.Unlock()
		return nil
	}
	w.watching = true
	w.mu.Unlock()

	if err := w.watcher.Add(w.source.Dir()); err != nil {
		return fmt.Errorf("loader: watch %s: %w", w.source.Dir(), err)
	}

	w.wg.Add(1)
	go w.loop(ctx)
	return nil
}

// Stop stops the watcher and waits for the event loop to exit.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		w.watcher.Close()
		w.wg.Wait()

		w.mu.Lock()
		w.watching = false
		w.mu.Unlock()
	})
}

func (w *Watcher) loop(ctx context.Context) {
	defer w.wg.Done()

	pending := map[string]time.Time{}
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			key, known := w.source.KeyForPath(event.Name)
			if !known {
				continue
			}
			if event.Has(fsnotify.Remove) {
				delete(pending, key)
				w.memo.Invalidate(key)
				w.logger.Info("dataset file removed", zap.String("key", key))
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				pending[key] = time.Now().Add(w.debounce)
				timer.Reset(w.debounce)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("dataset watcher error", zap.Error(err))
		case <-timer.C:
			now := time.Now()
			var next time.Duration
			for key, due := range pending {
				if wait := due.Sub(now); wait > 0 {
					if next == 0 || wait < next {
						next = wait
					}
					continue
				}
				delete(pending, key)
				w.reload(ctx, key)
			}
			if next > 0 {
				timer.Reset(next)
			}
		}
	}
}

func (w *Watcher) reload(ctx context.Context, key string) {
	if _, err := w.memo.Load(ctx, key, w.source.Fetch, WithForceRefresh()); err != nil {
		w.logger.Warn("dataset reload failed", zap.String("key", key), zap.Error(err))
		return
	}
	w.logger.Info("dataset reloaded", zap.String("key", key))
}
