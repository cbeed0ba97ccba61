package future

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestFuture(t *testing.T) {
	t.Parallel()

	t.Run("resolved", func(t *testing.T) {
		f := Resolved("x")
		assert.True(t, f.Done())
		v, err := f.Await(t.Context())
		require.NoError(t, err)
		assert.Equal(t, "x", v)
	})

	t.Run("failed", func(t *testing.T) {
		boom := errors.New("boom")
		_, err := Failed(boom).Await(t.Context())
		require.ErrorIs(t, err, boom)
	})

	t.Run("first completion wins", func(t *testing.T) {
		f, complete := New()
		assert.False(t, f.Done())
		complete(1, nil)
		complete(2, errors.New("ignored"))
		v, err := f.Await(t.Context())
		require.NoError(t, err)
		assert.Equal(t, 1, v)
	})

	t.Run("go", func(t *testing.T) {
		f := Go(func() (any, error) { return int64(3), nil })
		v, err := f.Await(t.Context())
		require.NoError(t, err)
		assert.Equal(t, int64(3), v)
	})

	t.Run("go recovers panics", func(t *testing.T) {
		f := Go(func() (any, error) { panic("bad") })
		_, err := f.Await(t.Context())
		require.ErrorIs(t, err, ErrPanicked)
		require.ErrorContains(t, err, "bad")
	})

	t.Run("await honours context", func(t *testing.T) {
		f, complete := New()
		ctx, cancel := context.WithTimeout(t.Context(), 10*time.Millisecond)
		defer cancel()
		_, err := f.Await(ctx)
		require.ErrorIs(t, err, context.DeadlineExceeded)
		complete(nil, nil)
	})

	t.Run("callbacks run once", func(t *testing.T) {
		f, complete := New()
		var mu sync.Mutex
		var calls []any
		record := func(v any, _ error) {
			mu.Lock()
			defer mu.Unlock()
			calls = append(calls, v)
		}
		f.OnComplete(record)
		complete("v", nil)
		f.OnComplete(record)
		assert.Equal(t, []any{"v", "v"}, calls)
	})
}

func TestHelpers(t *testing.T) {
	t.Parallel()

	assert.True(t, Is(Resolved(1)))
	assert.False(t, Is(1))

	v, err := Resolve(t.Context(), Resolved("a"))
	require.NoError(t, err)
	assert.Equal(t, "a", v)

	v, err = Resolve(t.Context(), "b")
	require.NoError(t, err)
	assert.Equal(t, "b", v)
}

func TestThen(t *testing.T) {
	t.Parallel()

	t.Run("applies continuation", func(t *testing.T) {
		f := Then(Go(func() (any, error) { return 2, nil }), func(v any) (any, error) {
			return v.(int) * 10, nil
		})
		v, err := f.Await(t.Context())
		require.NoError(t, err)
		assert.Equal(t, 20, v)
	})

	t.Run("error skips continuation", func(t *testing.T) {
		boom := errors.New("boom")
		called := false
		_, err := Then(Failed(boom), func(any) (any, error) {
			called = true
			return nil, nil
		}).Await(t.Context())
		require.ErrorIs(t, err, boom)
		assert.False(t, called)
	})

	t.Run("nil deferred", func(t *testing.T) {
		_, err := Then(nil, nil).Await(t.Context())
		require.ErrorIs(t, err, ErrNilDeferred)
	})

	t.Run("panicking continuation on a pending future", func(t *testing.T) {
		upstream := Go(func() (any, error) {
			time.Sleep(time.Millisecond)
			return 1, nil
		})
		f := Then(upstream, func(any) (any, error) { panic("bad") })

		ctx, cancel := context.WithTimeout(t.Context(), time.Second)
		defer cancel()
		_, err := f.Await(ctx)
		require.ErrorIs(t, err, ErrPanicked)
		require.ErrorContains(t, err, "bad")
	})

	t.Run("panicking continuation on a completed future", func(t *testing.T) {
		_, err := Then(Resolved(1), func(any) (any, error) { panic("bad") }).Await(t.Context())
		require.ErrorIs(t, err, ErrPanicked)
	})
}

func TestThenAwait(t *testing.T) {
	t.Parallel()

	t.Run("awaits the continuation result", func(t *testing.T) {
		f := ThenAwait(Resolved(1), func(v any) (Deferred, error) {
			return Go(func() (any, error) { return v.(int) + 1, nil }), nil
		})
		v, err := f.Await(t.Context())
		require.NoError(t, err)
		assert.Equal(t, 2, v)
	})

	t.Run("continuation error", func(t *testing.T) {
		boom := errors.New("boom")
		_, err := ThenAwait(Resolved(1), func(any) (Deferred, error) {
			return nil, boom
		}).Await(t.Context())
		require.ErrorIs(t, err, boom)
	})

	t.Run("continuation returns nil", func(t *testing.T) {
		_, err := ThenAwait(Resolved(1), func(any) (Deferred, error) {
			return nil, nil
		}).Await(t.Context())
		require.ErrorIs(t, err, ErrNilDeferred)
	})

	t.Run("panicking continuation", func(t *testing.T) {
		upstream := Go(func() (any, error) {
			time.Sleep(time.Millisecond)
			return 1, nil
		})
		f := ThenAwait(upstream, func(any) (Deferred, error) { panic("bad") })

		ctx, cancel := context.WithTimeout(t.Context(), time.Second)
		defer cancel()
		_, err := f.Await(ctx)
		require.ErrorIs(t, err, ErrPanicked)
	})
}

func TestCombine(t *testing.T) {
	t.Parallel()

	t.Run("pairs values in order", func(t *testing.T) {
		var mu sync.Mutex
		var log []string
		step := func(name string) *Future {
			return Go(func() (any, error) {
				mu.Lock()
				defer mu.Unlock()
				log = append(log, name)
				return name, nil
			})
		}

		f := Combine(step("a"), func() (Deferred, error) { return step("b"), nil })
		v, err := f.Await(t.Context())
		require.NoError(t, err)
		assert.Equal(t, Pair{First: "a", Second: "b"}, v)
		assert.Equal(t, []string{"a", "b"}, log)
	})

	t.Run("second not started when first fails", func(t *testing.T) {
		boom := errors.New("boom")
		started := false
		_, err := Combine(Failed(boom), func() (Deferred, error) {
			started = true
			return Resolved(1), nil
		}).Await(t.Context())
		require.ErrorIs(t, err, boom)
		assert.False(t, started)
	})

	t.Run("second error", func(t *testing.T) {
		boom := errors.New("boom")
		_, err := Combine(Resolved(1), func() (Deferred, error) {
			return Failed(boom), nil
		}).Await(t.Context())
		require.ErrorIs(t, err, boom)
	})
}
