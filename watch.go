// FILE: lixenwraith/settings/watch.go
package settings

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// WatchOptions configures dotenv watching behavior
type WatchOptions struct {
	// PollInterval for file stat checks (minimum 100ms)
	PollInterval time.Duration

	// Debounce duration to avoid rapid reloads
	Debounce time.Duration

	// ReloadTimeout bounds each re-initialization
	ReloadTimeout time.Duration
}

// DefaultWatchOptions returns sensible defaults for dotenv watching
func DefaultWatchOptions() WatchOptions {
	return WatchOptions{
		PollInterval:  DefaultPollInterval,
		Debounce:      DefaultDebounce,
		ReloadTimeout: DefaultReloadTimeout,
	}
}

// dotenvWatcher re-initializes a registry when a dotenv file changes
type dotenvWatcher struct {
	registry *Registry
	path     string
	loaders  map[string]Loader
	opts     WatchOptions

	lastModTime time.Time
	lastSize    int64
	reloading   atomic.Bool

	mu     sync.Mutex
	timer  *time.Timer
	closed bool
	events chan error
}

// WatchDotenv polls the dotenv file at path and re-runs Initialize with
// loaders after each change settles. Every reload outcome is sent on the
// returned channel, nil meaning success; outcomes are dropped while the
// channel is full. The channel is closed when ctx is done.
// Loaders only observe the new file contents if they read the dotenv file.
func (r *Registry) WatchDotenv(ctx context.Context, path string, loaders map[string]Loader, opts WatchOptions) <-chan error {
	if opts.PollInterval < MinPollInterval {
		opts.PollInterval = MinPollInterval
	}
	if opts.Debounce < 0 {
		opts.Debounce = 0
	}
	if opts.ReloadTimeout <= 0 {
		opts.ReloadTimeout = DefaultReloadTimeout
	}

	w := &dotenvWatcher{
		registry: r,
		path:     path,
		loaders:  loaders,
		opts:     opts,
		lastSize: -1,
		events:   make(chan error, 1),
	}
	if info, err := os.Stat(path); err == nil {
		w.lastModTime = info.ModTime()
		w.lastSize = info.Size()
	}

	go w.watchLoop(ctx)
	return w.events
}

// watchLoop is the main file polling loop
func (w *dotenvWatcher) watchLoop(ctx context.Context) {
	ticker := time.NewTicker(w.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.stop()
			return
		case <-ticker.C:
			w.checkAndReload(ctx)
		}
	}
}

// checkAndReload schedules a debounced reload when the file changed
func (w *dotenvWatcher) checkAndReload(ctx context.Context) {
	var modTime time.Time
	size := int64(-1)

	info, err := os.Stat(w.path)
	switch {
	case err == nil:
		modTime, size = info.ModTime(), info.Size()
	case !errors.Is(err, fs.ErrNotExist):
		return
	}

	if modTime.Equal(w.lastModTime) && size == w.lastSize {
		return
	}
	w.lastModTime = modTime
	w.lastSize = size

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.opts.Debounce, func() {
		w.performReload(ctx)
	})
}

// performReload re-initializes the registry under the reload timeout
func (w *dotenvWatcher) performReload(ctx context.Context) {
	if !w.reloading.CompareAndSwap(false, true) {
		return
	}
	defer w.reloading.Store(false)

	reloadCtx, cancel := context.WithTimeout(ctx, w.opts.ReloadTimeout)
	defer cancel()

	w.publish(w.registry.Initialize(reloadCtx, w.loaders))
}

func (w *dotenvWatcher) publish(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	select {
	case w.events <- err:
	default:
	}
}

// stop terminates the watcher and closes the event channel
func (w *dotenvWatcher) stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	if w.timer != nil {
		w.timer.Stop()
	}
	close(w.events)
}
