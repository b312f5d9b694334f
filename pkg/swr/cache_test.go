package swr_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/corporategifts/giftsite/pkg/swr"
)

type clock struct {
	now time.Time
	mu  sync.Mutex
}

func newClock() *clock {
	return &clock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func counting[V any](calls *atomic.Int64, v V, err error) swr.Fetcher[V] {
	return func(context.Context) (V, error) {
		calls.Add(1)
		return v, err
	}
}

var categoryKey = swr.NewKey("products-category")

// --- Keys ---

func TestKey(t *testing.T) {
	t.Parallel()

	t.Run("static key", func(t *testing.T) {
		t.Parallel()
		k := swr.NewKey("categories")
		require.Equal(t, "categories", k.String())
		require.Equal(t, "categories", k.Family())
		require.False(t, k.IsZero())
	})

	t.Run("scoped key", func(t *testing.T) {
		t.Parallel()
		k := categoryKey.With("117")
		require.Equal(t, "products-category-117", k.String())
		require.Equal(t, "products-category", k.Family())
		require.Equal(t, "117", k.ID())
	})

	t.Run("empty id disables the query", func(t *testing.T) {
		t.Parallel()
		require.True(t, categoryKey.With("").IsZero())
		require.True(t, swr.Key{}.IsZero())
	})
}

// --- Get ---

func TestGet(t *testing.T) {
	t.Parallel()

	t.Run("zero key never fetches", func(t *testing.T) {
		t.Parallel()

		c := swr.New[string]()
		defer c.Close()

		var calls atomic.Int64
		res := c.Get(context.Background(), swr.Key{}, counting(&calls, "x", nil))

		require.Equal(t, swr.Result[string]{}, res)
		require.Zero(t, calls.Load())
	})

	t.Run("fetches on miss and serves fresh value from cache", func(t *testing.T) {
		t.Parallel()

		c := swr.New[string]()
		defer c.Close()

		ctx := context.Background()
		key := swr.NewKey("categories")
		var calls atomic.Int64

		res := c.Get(ctx, key, counting(&calls, "v1", nil))
		require.NoError(t, res.Err)
		require.True(t, res.HasData)
		require.Equal(t, "v1", res.Data)
		require.False(t, res.IsLoading)

		res = c.Get(ctx, key, counting(&calls, "v2", nil))
		require.Equal(t, "v1", res.Data)
		require.False(t, res.IsValidating)
		require.False(t, res.Stale)
		require.Equal(t, int64(1), calls.Load())
	})

	t.Run("deduplicates concurrent callers", func(t *testing.T) {
		t.Parallel()

		c := swr.New[int]()
		defer c.Close()

		key := swr.NewKey("random-products")
		release := make(chan struct{})
		var calls atomic.Int64
		fetch := func(ctx context.Context) (int, error) {
			calls.Add(1)
			<-release
			return 42, nil
		}

		var wg sync.WaitGroup
		results := make(chan swr.Result[int], 10)
		for range 10 {
			wg.Go(func() {
				results <- c.Get(context.Background(), key, fetch)
			})
		}

		require.Eventually(t, func() bool {
			return c.Peek(key).IsLoading
		}, time.Second, time.Millisecond)
		close(release)
		wg.Wait()
		close(results)

		for res := range results {
			require.NoError(t, res.Err)
			require.Equal(t, 42, res.Data)
		}
		require.Equal(t, int64(1), calls.Load())
	})

	t.Run("keys never share entries", func(t *testing.T) {
		t.Parallel()

		c := swr.New[string]()
		defer c.Close()

		ctx := context.Background()
		calls := map[string]*atomic.Int64{"117": {}, "112": {}}
		get := func(id string) swr.Result[string] {
			return c.Get(ctx, categoryKey.With(id), counting(calls[id], "products of "+id, nil))
		}

		require.Equal(t, "products of 117", get("117").Data)
		require.Equal(t, "products of 112", get("112").Data)
		require.Equal(t, "products of 117", get("117").Data)

		require.Equal(t, int64(1), calls["117"].Load())
		require.Equal(t, int64(1), calls["112"].Load())
	})

	t.Run("stale value is served while revalidating", func(t *testing.T) {
		t.Parallel()

		clk := newClock()
		c := swr.New[string](swr.WithClock(clk.Now), swr.WithStaleTime(time.Minute))
		defer c.Close()

		ctx := context.Background()
		key := swr.NewKey("categories")
		require.NoError(t, c.Set(ctx, key, "old"))

		clk.Advance(2 * time.Minute)

		release := make(chan struct{})
		res := c.Get(ctx, key, func(context.Context) (string, error) {
			<-release
			return "new", nil
		})
		require.Equal(t, "old", res.Data)
		require.True(t, res.Stale)
		require.True(t, res.IsValidating)
		require.False(t, res.IsLoading)

		close(release)
		require.Eventually(t, func() bool {
			return c.Peek(key).Data == "new"
		}, time.Second, time.Millisecond)
		require.False(t, c.Peek(key).Stale)
	})

	t.Run("stale value survives failed revalidation", func(t *testing.T) {
		t.Parallel()

		clk := newClock()
		c := swr.New[string](swr.WithClock(clk.Now), swr.WithStaleTime(time.Minute), swr.WithRetry(0, 0))
		defer c.Close()

		ctx := context.Background()
		key := swr.NewKey("categories")
		upstream := errors.New("upstream down")

		require.Equal(t, "v1", c.Get(ctx, key, counting(new(atomic.Int64), "v1", nil)).Data)

		clk.Advance(2 * time.Minute)
		c.Get(ctx, key, counting(new(atomic.Int64), "", upstream))

		require.Eventually(t, func() bool {
			return c.Peek(key).Err != nil
		}, time.Second, time.Millisecond)

		res := c.Get(ctx, key, counting(new(atomic.Int64), "", upstream))
		require.ErrorIs(t, res.Err, upstream)
		require.True(t, res.HasData)
		require.Equal(t, "v1", res.Data)
	})

	t.Run("failure without value surfaces error", func(t *testing.T) {
		t.Parallel()

		c := swr.New[string](swr.WithRetry(0, 0))
		defer c.Close()

		upstream := errors.New("boom")
		res := c.Get(context.Background(), swr.NewKey("categories"), counting(new(atomic.Int64), "", upstream))

		require.ErrorIs(t, res.Err, upstream)
		require.False(t, res.HasData)
		require.False(t, res.IsLoading)
	})

	t.Run("holds off refetching right after a failure", func(t *testing.T) {
		t.Parallel()

		clk := newClock()
		c := swr.New[string](swr.WithClock(clk.Now), swr.WithRetry(0, time.Minute))
		defer c.Close()

		ctx := context.Background()
		key := swr.NewKey("categories")
		var calls atomic.Int64
		fetch := counting(&calls, "", errors.New("boom"))

		c.Get(ctx, key, fetch)
		res := c.Get(ctx, key, fetch)
		require.Error(t, res.Err)
		require.Equal(t, int64(1), calls.Load())

		clk.Advance(time.Minute)
		c.Get(ctx, key, fetch)
		require.Equal(t, int64(2), calls.Load())
	})

	t.Run("retries a failed fetch exactly once", func(t *testing.T) {
		t.Parallel()

		c := swr.New[string](swr.WithRetry(5, 10*time.Millisecond))
		defer c.Close()

		var calls atomic.Int64
		c.Get(context.Background(), swr.NewKey("categories"), counting(&calls, "", errors.New("boom")))

		require.Eventually(t, func() bool {
			return calls.Load() == 2
		}, time.Second, time.Millisecond)

		time.Sleep(50 * time.Millisecond)
		require.Equal(t, int64(2), calls.Load())
	})

	t.Run("successful retry replaces the error", func(t *testing.T) {
		t.Parallel()

		c := swr.New[string](swr.WithRetry(1, 10*time.Millisecond))
		defer c.Close()

		key := swr.NewKey("categories")
		var calls atomic.Int64
		fetch := func(context.Context) (string, error) {
			if calls.Add(1) == 1 {
				return "", errors.New("flaky")
			}
			return "ok", nil
		}

		res := c.Get(context.Background(), key, fetch)
		require.Error(t, res.Err)

		require.Eventually(t, func() bool {
			p := c.Peek(key)
			return p.HasData && p.Err == nil
		}, time.Second, time.Millisecond)
		require.Equal(t, "ok", c.Peek(key).Data)
	})

	t.Run("fetch timeout reaches every waiter", func(t *testing.T) {
		t.Parallel()

		c := swr.New[string](swr.WithTimeout(20*time.Millisecond), swr.WithRetry(0, 0))
		defer c.Close()

		key := swr.NewKey("categories")
		fetch := func(ctx context.Context) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		}

		var wg sync.WaitGroup
		for range 3 {
			wg.Go(func() {
				res := c.Get(context.Background(), key, fetch)
				require.ErrorIs(t, res.Err, context.DeadlineExceeded)
			})
		}
		wg.Wait()
	})

	t.Run("fetch ignoring its context is bounded by the timeout", func(t *testing.T) {
		t.Parallel()

		c := swr.New[string](swr.WithTimeout(20*time.Millisecond), swr.WithRetry(0, 0))
		defer c.Close()

		block := make(chan struct{})
		defer close(block)

		res := c.Get(context.Background(), swr.NewKey("categories"), func(context.Context) (string, error) {
			<-block
			return "late", nil
		})
		require.ErrorIs(t, res.Err, context.DeadlineExceeded)
	})

	t.Run("panicking fetch becomes an error", func(t *testing.T) {
		t.Parallel()

		c := swr.New[string](swr.WithRetry(0, 0))
		defer c.Close()

		res := c.Get(context.Background(), swr.NewKey("categories"), func(context.Context) (string, error) {
			panic("bad payload")
		})
		require.ErrorIs(t, res.Err, swr.ErrFetchPanic)
	})

	t.Run("nil fetcher is reported", func(t *testing.T) {
		t.Parallel()

		c := swr.New[string]()
		defer c.Close()

		res := c.Get(context.Background(), swr.NewKey("categories"), nil)
		require.ErrorIs(t, res.Err, swr.ErrNilFetcher)
	})
}

// --- Cancellation ---

func TestGetCancellation(t *testing.T) {
	t.Parallel()

	t.Run("last waiter leaving cancels the fetch", func(t *testing.T) {
		t.Parallel()

		c := swr.New[string]()
		defer c.Close()

		key := swr.NewKey("categories")
		cancelled := make(chan struct{})
		var calls atomic.Int64
		fetch := func(ctx context.Context) (string, error) {
			if calls.Add(1) == 1 {
				<-ctx.Done()
				close(cancelled)
				return "", ctx.Err()
			}
			return "second", nil
		}

		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			require.Eventually(t, func() bool { return c.Peek(key).IsLoading }, time.Second, time.Millisecond)
			cancel()
		}()

		res := c.Get(ctx, key, fetch)
		require.ErrorIs(t, res.Err, context.Canceled)
		require.False(t, res.HasData)

		select {
		case <-cancelled:
		case <-time.After(time.Second):
			t.Fatal("fetch was not cancelled")
		}

		res = c.Get(context.Background(), key, fetch)
		require.NoError(t, res.Err)
		require.Equal(t, "second", res.Data)
		require.Equal(t, int64(2), calls.Load())
	})

	t.Run("remaining waiters still receive the result", func(t *testing.T) {
		t.Parallel()

		c := swr.New[string]()
		defer c.Close()

		key := swr.NewKey("categories")
		release := make(chan struct{})
		var calls atomic.Int64
		fetch := func(ctx context.Context) (string, error) {
			calls.Add(1)
			select {
			case <-release:
				return "shared", nil
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		stayed := make(chan swr.Result[string], 1)
		go func() {
			stayed <- c.Get(context.Background(), key, fetch)
		}()
		require.Eventually(t, func() bool { return c.Peek(key).IsLoading }, time.Second, time.Millisecond)

		ctx, cancel := context.WithCancel(context.Background())
		left := make(chan swr.Result[string], 1)
		go func() {
			left <- c.Get(ctx, key, fetch)
		}()
		time.Sleep(10 * time.Millisecond)
		cancel()

		res := <-left
		require.ErrorIs(t, res.Err, context.Canceled)
		require.True(t, res.IsLoading)

		close(release)
		res = <-stayed
		require.NoError(t, res.Err)
		require.Equal(t, "shared", res.Data)
		require.Equal(t, int64(1), calls.Load())
	})
}

// --- Revalidate / Invalidate / Set ---

func TestRevalidate(t *testing.T) {
	t.Parallel()

	t.Run("keeps previous value on failure", func(t *testing.T) {
		t.Parallel()

		c := swr.New[string](swr.WithRetry(0, 0))
		defer c.Close()

		ctx := context.Background()
		key := swr.NewKey("random-products")
		require.NoError(t, c.Set(ctx, key, "v1"))

		upstream := errors.New("upstream down")
		res := c.Revalidate(ctx, key, counting(new(atomic.Int64), "", upstream))

		require.ErrorIs(t, res.Err, upstream)
		require.Equal(t, "v1", res.Data)
		require.True(t, res.HasData)
	})

	t.Run("replaces fresh value on success", func(t *testing.T) {
		t.Parallel()

		c := swr.New[string]()
		defer c.Close()

		ctx := context.Background()
		key := swr.NewKey("random-products")
		require.NoError(t, c.Set(ctx, key, "v1"))

		res := c.Revalidate(ctx, key, counting(new(atomic.Int64), "v2", nil))
		require.NoError(t, res.Err)
		require.Equal(t, "v2", res.Data)
	})
}

func TestInvalidate(t *testing.T) {
	t.Parallel()

	c := swr.New[string]()
	defer c.Close()

	ctx := context.Background()
	key := swr.NewKey("categories")
	var calls atomic.Int64

	c.Get(ctx, key, counting(&calls, "v1", nil))
	c.Invalidate(ctx, key)
	require.False(t, c.Peek(key).HasData)
	require.Empty(t, c.Keys())

	res := c.Get(ctx, key, counting(&calls, "v2", nil))
	require.Equal(t, "v2", res.Data)
	require.Equal(t, int64(2), calls.Load())
}

func TestInvalidateDuringFetch(t *testing.T) {
	t.Parallel()

	c := swr.New[int]()
	defer c.Close()

	ctx := context.Background()
	key := swr.NewKey("categories")
	release := make(chan struct{})
	var calls atomic.Int64
	slow := func(context.Context) (int, error) {
		calls.Add(1)
		<-release
		return 1, nil
	}

	waiting := make(chan swr.Result[int], 1)
	go func() { waiting <- c.Get(ctx, key, slow) }()
	require.Eventually(t, func() bool { return c.Peek(key).IsLoading }, time.Second, time.Millisecond)

	c.Invalidate(ctx, key)
	close(release)

	res := <-waiting
	require.NoError(t, res.Err)
	require.Equal(t, 1, res.Data, "callers already waiting get the fetch outcome")

	require.False(t, c.Peek(key).HasData)
	res = c.Get(ctx, key, counting(&calls, 2, nil))
	require.Equal(t, 2, res.Data)
	require.Equal(t, int64(2), calls.Load())
}

func TestKeys(t *testing.T) {
	t.Parallel()

	c := swr.New[string]()
	defer c.Close()

	ctx := context.Background()
	require.NoError(t, c.Set(ctx, swr.NewKey("categories"), "a"))
	require.NoError(t, c.Set(ctx, categoryKey.With("7"), "b"))
	require.NoError(t, c.Set(ctx, swr.Key{}, "ignored"))

	names := make([]string, 0, 2)
	for _, k := range c.Keys() {
		names = append(names, k.String())
	}
	require.ElementsMatch(t, []string{"categories", "products-category-7"}, names)
}

func TestClose(t *testing.T) {
	t.Parallel()

	c := swr.New[string]()

	key := swr.NewKey("categories")
	done := make(chan swr.Result[string], 1)
	go func() {
		done <- c.Get(context.Background(), key, func(ctx context.Context) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		})
	}()
	require.Eventually(t, func() bool { return c.Peek(key).IsLoading }, time.Second, time.Millisecond)

	require.NoError(t, c.Close())
	require.ErrorIs(t, (<-done).Err, context.Canceled)

	res := c.Get(context.Background(), key, counting(new(atomic.Int64), "x", nil))
	require.ErrorIs(t, res.Err, swr.ErrClosed)
	require.NoError(t, c.Close())
}

// --- Observer ---

type recordingObserver struct {
	outcomes []swr.Outcome
	fetches  int
	mu       sync.Mutex
}

func (o *recordingObserver) Lookup(_ swr.Key, outcome swr.Outcome) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.outcomes = append(o.outcomes, outcome)
}

func (o *recordingObserver) Fetched(swr.Key, time.Duration, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.fetches++
}

func TestObserver(t *testing.T) {
	t.Parallel()

	obs := &recordingObserver{}
	c := swr.New[string](swr.WithObserver(obs))
	defer c.Close()

	ctx := context.Background()
	key := swr.NewKey("categories")
	c.Get(ctx, key, counting(new(atomic.Int64), "v", nil))
	c.Get(ctx, key, counting(new(atomic.Int64), "v", nil))

	obs.mu.Lock()
	defer obs.mu.Unlock()
	require.Equal(t, []swr.Outcome{swr.OutcomeMiss, swr.OutcomeHit}, obs.outcomes)
	require.Equal(t, 1, obs.fetches)
}
