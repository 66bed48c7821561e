// FILE: lixenwraith/settings/registry_test.go
package settings

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func smtpLoader(calls *atomic.Int32) Loader {
	return Sync(func() (any, error) {
		calls.Add(1)
		return Load[SmtpSettings](
			WithValues(map[string]any{"fromEmail": "ops@example.com", "password": "hunter2"}),
			WithoutDotenv(),
		)
	})
}

// TestRegistryLazyAccess tests access before initialization
func TestRegistryLazyAccess(t *testing.T) {
	ctx := context.Background()

	t.Run("LocalLoaderCalledOnEveryAccess", func(t *testing.T) {
		var calls atomic.Int32
		r := NewRegistry(map[string]Loader{"smtp": smtpLoader(&calls)})

		first, err := Lookup[SmtpSettings](ctx, r, "smtp")
		require.NoError(t, err)
		second, err := Lookup[SmtpSettings](ctx, r, "smtp")
		require.NoError(t, err)

		assert.Equal(t, int32(2), calls.Load())
		assert.Equal(t, first, second)
		assert.NotSame(t, first, second)
		assert.Equal(t, "ops@example.com", first.FromEmail)
	})

	t.Run("UnknownKeyBeforeInit", func(t *testing.T) {
		r := NewRegistry(nil)

		_, err := r.Get(ctx, "missing")
		require.ErrorIs(t, err, ErrBeforeInit)

		var ae *AccessError
		require.ErrorAs(t, err, &ae)
		assert.Equal(t, "missing", ae.Key)
		assert.Contains(t, err.Error(), "call Registry.Initialize")
	})

	t.Run("UnknownKeyAfterInit", func(t *testing.T) {
		r := NewRegistry(nil)
		require.NoError(t, r.Initialize(ctx, map[string]Loader{
			"api": Sync(func() (any, error) { return &ApiSettings{Host: "h"}, nil }),
		}))

		_, err := r.Get(ctx, "missing")
		require.ErrorIs(t, err, ErrNotInitialized)
		assert.Contains(t, err.Error(), "never registered with a loader")
	})

	t.Run("LookupTypeMismatch", func(t *testing.T) {
		r := NewRegistry(map[string]Loader{
			"api": Sync(func() (any, error) { return ApiSettings{Host: "h"}, nil }),
		})

		api, err := Lookup[ApiSettings](ctx, r, "api")
		require.NoError(t, err)
		assert.Equal(t, "h", api.Host)

		_, err = Lookup[SmtpSettings](ctx, r, "api")
		assert.ErrorContains(t, err, "holds settings.ApiSettings")

		assert.Panics(t, func() { MustLookup[SmtpSettings](r, "api") })
	})
}

// TestRegistryInitialize tests batch resolution and publication
func TestRegistryInitialize(t *testing.T) {
	ctx := context.Background()

	t.Run("ResolvesOnceAndCaches", func(t *testing.T) {
		var calls atomic.Int32
		r := NewRegistry(nil)

		require.NoError(t, r.Initialize(ctx, map[string]Loader{"smtp": smtpLoader(&calls)}))
		assert.True(t, r.IsInitialized())

		for i := 0; i < 3; i++ {
			_, err := r.Get(ctx, "smtp")
			require.NoError(t, err)
		}
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("AsyncLoadersRunConcurrently", func(t *testing.T) {
		slow := func(v string) Loader {
			return Async(func(ctx context.Context) (any, error) {
				select {
				case <-time.After(50 * time.Millisecond):
					return &ApiSettings{Host: v}, nil
				case <-ctx.Done():
					return nil, ctx.Err()
				}
			})
		}

		r := NewRegistry(nil)
		start := time.Now()
		require.NoError(t, r.Initialize(ctx, map[string]Loader{
			"a": slow("a"), "b": slow("b"), "c": slow("c"),
		}))
		assert.Less(t, time.Since(start), 140*time.Millisecond)

		b := MustLookup[ApiSettings](r, "b")
		assert.Equal(t, "b", b.Host)
	})

	t.Run("FailurePublishesNothing", func(t *testing.T) {
		r := NewRegistry(nil)
		err := r.Initialize(ctx, map[string]Loader{
			"ok":  Sync(func() (any, error) { return &ApiSettings{Host: "ok"}, nil }),
			"bad": Sync(func() (any, error) { return nil, errors.New("vault unreachable") }),
		})

		require.Error(t, err)
		assert.Contains(t, err.Error(), `loading "bad"`)
		assert.Contains(t, err.Error(), "vault unreachable")
		assert.False(t, r.IsInitialized())

		_, err = r.Get(ctx, "ok")
		assert.ErrorIs(t, err, ErrBeforeInit)
	})

	t.Run("ValidationFailurePropagates", func(t *testing.T) {
		r := NewRegistry(nil)
		err := r.Initialize(ctx, map[string]Loader{
			"req": From[RequiredSettings](WithValues(map[string]any{}), WithoutDotenv()),
		})
		assert.True(t, IsValidationError(err))
	})

	t.Run("NilLoaderRejected", func(t *testing.T) {
		r := NewRegistry(nil)
		err := r.Initialize(ctx, map[string]Loader{"x": {}})
		assert.ErrorContains(t, err, "has no function")
	})

	t.Run("ResolvedBeatsLocal", func(t *testing.T) {
		var localCalls atomic.Int32
		r := NewRegistry(map[string]Loader{
			"api": Sync(func() (any, error) {
				localCalls.Add(1)
				return &ApiSettings{Host: "local"}, nil
			}),
		})

		require.NoError(t, r.Initialize(ctx, map[string]Loader{
			"api": Sync(func() (any, error) { return &ApiSettings{Host: "remote"}, nil }),
		}))

		api := MustLookup[ApiSettings](r, "api")
		assert.Equal(t, "remote", api.Host)
		assert.Equal(t, int32(0), localCalls.Load())
	})

	t.Run("OverrideKeepsOtherKeys", func(t *testing.T) {
		r := NewRegistry(nil)
		require.NoError(t, r.Initialize(ctx, map[string]Loader{
			"a": Sync(func() (any, error) { return &ApiSettings{Host: "a1"}, nil }),
			"b": Sync(func() (any, error) { return &ApiSettings{Host: "b1"}, nil }),
		}))
		require.NoError(t, r.Override(ctx, map[string]Loader{
			"a": Sync(func() (any, error) { return &ApiSettings{Host: "a2"}, nil }),
		}))

		assert.Equal(t, "a2", MustLookup[ApiSettings](r, "a").Host)
		assert.Equal(t, "b1", MustLookup[ApiSettings](r, "b").Host)
	})

	t.Run("CancelledContext", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		r := NewRegistry(nil)
		err := r.Initialize(cctx, map[string]Loader{
			"slow": Async(func(ctx context.Context) (any, error) {
				<-ctx.Done()
				return nil, ctx.Err()
			}),
		})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

// TestRegistryReady tests readiness signalling
func TestRegistryReady(t *testing.T) {
	ctx := context.Background()
	api := map[string]Loader{
		"api": Sync(func() (any, error) { return &ApiSettings{Host: "h"}, nil }),
	}

	t.Run("CallbacksRunInOrder", func(t *testing.T) {
		core, logs := observer.New(zapcore.WarnLevel)
		r := NewRegistry(nil, WithLogger(zap.New(core)))

		var mu sync.Mutex
		var order []int
		record := func(i int) func() {
			return func() {
				mu.Lock()
				defer mu.Unlock()
				order = append(order, i)
			}
		}

		r.OnReady(record(1))
		r.OnReady(func() { panic("boom") })
		r.OnReady(record(2))

		select {
		case <-r.Ready():
			t.Fatal("ready before Initialize")
		default:
		}

		require.NoError(t, r.Initialize(ctx, api))
		assert.Equal(t, []int{1, 2}, order)
		assert.Equal(t, 1, logs.FilterMessage("Ready callback panicked").Len())

		r.OnReady(record(3))
		assert.Equal(t, []int{1, 2, 3}, order)
	})

	t.Run("LateCallbackQueuedBehindDelivery", func(t *testing.T) {
		r := NewRegistry(nil)

		var mu sync.Mutex
		var order []string
		record := func(name string) {
			mu.Lock()
			defer mu.Unlock()
			order = append(order, name)
		}

		started := make(chan struct{})
		proceed := make(chan struct{})
		r.OnReady(func() {
			close(started)
			<-proceed
			record("first")
		})
		r.OnReady(func() { record("second") })

		go func() {
			<-started
			r.OnReady(func() { record("late") })
			close(proceed)
		}()

		require.NoError(t, r.Initialize(ctx, api))
		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, []string{"first", "second", "late"}, order)
	})

	t.Run("CallbacksRunOnce", func(t *testing.T) {
		r := NewRegistry(nil)
		var calls atomic.Int32
		r.OnReady(func() { calls.Add(1) })

		require.NoError(t, r.Initialize(ctx, api))
		require.NoError(t, r.Initialize(ctx, api))
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("WaitReady", func(t *testing.T) {
		r := NewRegistry(nil)

		done := make(chan error, 1)
		go func() { done <- r.WaitReady(ctx) }()

		require.NoError(t, r.Initialize(ctx, api))
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(time.Second):
			t.Fatal("WaitReady did not return")
		}
	})

	t.Run("WaitReadyCancelled", func(t *testing.T) {
		r := NewRegistry(nil)
		cctx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
		defer cancel()

		assert.ErrorIs(t, r.WaitReady(cctx), context.DeadlineExceeded)
		assert.False(t, r.IsInitialized())
	})
}

// TestRegistryKeys tests key enumeration
func TestRegistryKeys(t *testing.T) {
	r := NewRegistry(map[string]Loader{
		"smtp": From[SmtpSettings](),
		"api":  From[ApiSettings](),
	})
	assert.Equal(t, []string{"api", "smtp"}, r.Keys())

	require.NoError(t, r.Initialize(context.Background(), map[string]Loader{
		"db":  Sync(func() (any, error) { return &ApiSettings{}, nil }),
		"api": Sync(func() (any, error) { return &ApiSettings{}, nil }),
	}))
	assert.Equal(t, []string{"api", "db", "smtp"}, r.Keys())
}

// TestRegistrySerialization tests snapshotting and redacted JSON output
func TestRegistrySerialization(t *testing.T) {
	ctx := context.Background()

	t.Run("SecretsRedacted", func(t *testing.T) {
		var calls atomic.Int32
		r := NewRegistry(map[string]Loader{"smtp": smtpLoader(&calls)})

		data, err := json.Marshal(r)
		require.NoError(t, err)

		var out map[string]map[string]any
		require.NoError(t, json.Unmarshal(data, &out))
		assert.Equal(t, Mask, out["smtp"]["password"])
		assert.Equal(t, "ops@example.com", out["smtp"]["fromEmail"])
		assert.Equal(t, float64(25), out["smtp"]["port"])
		assert.Equal(t, "5s", out["smtp"]["timeout"])
		assert.NotContains(t, string(data), "hunter2")
	})

	t.Run("UnresolvedAsyncRefused", func(t *testing.T) {
		r := NewRegistry(map[string]Loader{
			"remote": Async(func(context.Context) (any, error) { return &ApiSettings{}, nil }),
		})

		_, err := json.Marshal(r)
		require.ErrorIs(t, err, ErrUnresolved)

		require.NoError(t, r.Initialize(ctx, map[string]Loader{
			"remote": Async(func(context.Context) (any, error) { return &ApiSettings{Host: "r"}, nil }),
		}))
		snapshot, err := r.Snapshot()
		require.NoError(t, err)
		assert.Equal(t, "r", snapshot["remote"].(*ApiSettings).Host)
	})

	t.Run("NonSettingsValuesPassThrough", func(t *testing.T) {
		r := NewRegistry(map[string]Loader{
			"flags": Sync(func() (any, error) { return map[string]bool{"beta": true}, nil }),
		})

		data, err := json.Marshal(r)
		require.NoError(t, err)
		assert.JSONEq(t, `{"flags":{"beta":true}}`, string(data))
	})
}
