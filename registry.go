// FILE: lixenwraith/settings/registry.go
package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// LoaderFunc produces a settings instance, possibly after blocking I/O
type LoaderFunc func(ctx context.Context) (any, error)

// Loader is a named registry slot's producer, synchronous or asynchronous.
// Serialization refuses to call asynchronous loaders.
type Loader struct {
	fn    LoaderFunc
	async bool
}

// Sync wraps a loader that computes its value without blocking I/O.
func Sync(fn func() (any, error)) Loader {
	if fn == nil {
		return Loader{}
	}
	return Loader{fn: func(context.Context) (any, error) { return fn() }}
}

// Async wraps a loader that may block, such as a secret fetch.
func Async(fn LoaderFunc) Loader {
	return Loader{fn: fn, async: true}
}

// From returns a synchronous loader calling Load[T] with opts.
func From[T any](opts ...LoadOption) Loader {
	return Sync(func() (any, error) {
		return Load[T](opts...)
	})
}

// IsAsync reports whether the loader was built with Async
func (l Loader) IsAsync() bool {
	return l.async
}

func (l Loader) call(ctx context.Context) (any, error) {
	if l.fn == nil {
		return nil, errors.New("settings: loader has no function")
	}
	return l.fn(ctx)
}

// Registry is a named namespace of settings instances. Before Initialize,
// each access calls the key's local loader afresh. After Initialize, keys
// resolved by it are served from cache and their loaders never run again.
// A Registry is safe for concurrent use.
type Registry struct {
	mu          sync.RWMutex
	local       map[string]Loader
	resolved    map[string]any
	initialized bool
	ready       chan struct{}
	callbacks   []func()
	draining    bool
	logger      *zap.Logger
}

// RegistryOption configures a Registry
type RegistryOption func(*Registry)

// WithLogger sets the logger for initialization events
func WithLogger(logger *zap.Logger) RegistryOption {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRegistry creates a registry with optional local loaders
func NewRegistry(loaders map[string]Loader, opts ...RegistryOption) *Registry {
	r := &Registry{
		local:    make(map[string]Loader, len(loaders)),
		resolved: make(map[string]any),
		ready:    make(chan struct{}),
		logger:   zap.NewNop(),
	}
	for key, loader := range loaders {
		r.local[key] = loader
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Get returns the settings instance for key.
func (r *Registry) Get(ctx context.Context, key string) (any, error) {
	r.mu.RLock()
	if r.initialized {
		if v, ok := r.resolved[key]; ok {
			r.mu.RUnlock()
			return v, nil
		}
	}
	loader, hasLocal := r.local[key]
	initialized := r.initialized
	r.mu.RUnlock()

	if hasLocal {
		return loader.call(ctx)
	}
	if initialized {
		return nil, &AccessError{Key: key, Err: ErrNotInitialized}
	}
	return nil, &AccessError{Key: key, Err: ErrBeforeInit}
}

// Initialize runs every loader concurrently, waits for all of them and then
// publishes the results atomically. Any failure publishes nothing.
// Local loaders for keys outside this batch stay available.
func (r *Registry) Initialize(ctx context.Context, loaders map[string]Loader) error {
	keys := make([]string, 0, len(loaders))
	for key, loader := range loaders {
		if loader.fn == nil {
			return fmt.Errorf("settings: loader for key %q has no function", key)
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	r.logger.Debug("Initializing settings", zap.Strings("keys", keys))
	start := time.Now()

	results := make([]any, len(keys))
	g, gctx := errgroup.WithContext(ctx)
	for i, key := range keys {
		loader := loaders[key]
		g.Go(func() error {
			v, err := loader.call(gctx)
			if err != nil {
				return fmt.Errorf("settings: loading %q: %w", key, err)
			}
			results[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		r.logger.Debug("Settings initialization failed", zap.Error(err))
		return err
	}

	r.mu.Lock()
	for i, key := range keys {
		r.resolved[key] = results[i]
	}
	if !r.initialized {
		r.initialized = true
		close(r.ready)
	}
	drain := r.claimDrain()
	r.mu.Unlock()

	r.logger.Debug("Settings initialized",
		zap.Int("count", len(keys)),
		zap.Duration("elapsed", time.Since(start)))

	if drain {
		r.drain()
	}
	return nil
}

// Override re-initializes the given keys; other published entries are kept.
func (r *Registry) Override(ctx context.Context, loaders map[string]Loader) error {
	return r.Initialize(ctx, loaders)
}

// IsInitialized reports whether Initialize has succeeded at least once
func (r *Registry) IsInitialized() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.initialized
}

// Ready returns a channel closed once the registry is initialized
func (r *Registry) Ready() <-chan struct{} {
	return r.ready
}

// WaitReady blocks until the registry is initialized or ctx is done.
// Cancelling ctx abandons the wait only.
func (r *Registry) WaitReady(ctx context.Context) error {
	select {
	case <-r.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// OnReady queues fn to run once initialization completes, in registration
// order. If the registry is already initialized fn runs immediately, unless
// earlier callbacks are still being delivered, in which case it runs after
// them on the delivering goroutine.
// A panicking callback does not prevent the others from running.
func (r *Registry) OnReady(fn func()) {
	if fn == nil {
		return
	}
	r.mu.Lock()
	r.callbacks = append(r.callbacks, fn)
	drain := r.claimDrain()
	r.mu.Unlock()

	if drain {
		r.drain()
	}
}

// claimDrain reports whether the caller must deliver the queued callbacks.
// r.mu must be held.
func (r *Registry) claimDrain() bool {
	if !r.initialized || r.draining || len(r.callbacks) == 0 {
		return false
	}
	r.draining = true
	return true
}

// drain runs queued callbacks one at a time until the queue is empty.
// Callbacks queued meanwhile join the same FIFO.
func (r *Registry) drain() {
	for {
		r.mu.Lock()
		if len(r.callbacks) == 0 {
			r.draining = false
			r.mu.Unlock()
			return
		}
		fn := r.callbacks[0]
		r.callbacks = r.callbacks[1:]
		r.mu.Unlock()

		r.notify(fn)
	}
}

func (r *Registry) notify(fn func()) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Warn("Ready callback panicked", zap.Any("panic", rec))
		}
	}()
	fn()
}

// Keys lists the local loader names, plus resolved names once initialized
func (r *Registry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool, len(r.local)+len(r.resolved))
	for key := range r.local {
		seen[key] = true
	}
	if r.initialized {
		for key := range r.resolved {
			seen[key] = true
		}
	}

	keys := make([]string, 0, len(seen))
	for key := range seen {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Snapshot returns the value of every key. Resolved values are used as-is
// and synchronous local loaders are called; an asynchronous loader that
// Initialize has not resolved fails with ErrUnresolved.
func (r *Registry) Snapshot() (map[string]any, error) {
	out := make(map[string]any)
	for _, key := range r.Keys() {
		r.mu.RLock()
		v, ok := r.resolved[key]
		loader := r.local[key]
		r.mu.RUnlock()

		if !ok {
			if loader.async {
				return nil, unresolvedError(key)
			}
			var err error
			if v, err = loader.call(context.Background()); err != nil {
				return nil, fmt.Errorf("settings: loading %q: %w", key, err)
			}
		}
		out[key] = v
	}
	return out, nil
}

// MarshalJSON serializes all keys with secrets redacted
func (r *Registry) MarshalJSON() ([]byte, error) {
	snapshot, err := r.Snapshot()
	if err != nil {
		return nil, err
	}

	out := make(map[string]any, len(snapshot))
	for key, v := range snapshot {
		serialized, err := serializeValue(v)
		if err != nil {
			return nil, fmt.Errorf("settings: serializing %q: %w", key, err)
		}
		out[key] = serialized
	}
	return json.Marshal(out)
}

// serializeValue prefers a value's own marshaler, then secret redaction
func serializeValue(v any) (any, error) {
	if m, ok := v.(json.Marshaler); ok {
		data, err := m.MarshalJSON()
		if err != nil {
			return nil, err
		}
		return json.RawMessage(data), nil
	}
	if redacted, err := Redact(v); err == nil {
		return redacted, nil
	}
	return v, nil
}
