package swr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Fetcher loads the value for a key. It must honor ctx cancellation.
type Fetcher[V any] func(ctx context.Context) (V, error)

// Result is an immutable snapshot of an entry as seen by one caller.
// Data is shared between callers and must be treated as read-only.
type Result[V any] struct {
	FetchedAt    time.Time
	Err          error
	Data         V
	HasData      bool
	IsLoading    bool
	IsValidating bool
	Stale        bool
}

type entry[V any] struct {
	key        Key
	value      V
	err        error
	fetchedAt  time.Time
	failedAt   time.Time
	flight     *flight[V]
	retryTimer *time.Timer
	hasValue   bool
	retried    bool
}

func (e *entry[V]) reset() {
	var zero V
	e.value = zero
	e.hasValue = false
	e.err = nil
	e.fetchedAt = time.Time{}
	e.failedAt = time.Time{}
	e.retried = false
	if e.retryTimer != nil {
		e.retryTimer.Stop()
		e.retryTimer = nil
	}
}

// flight is one outstanding fetch. Guarded by Cache.mu except for done.
// A discarded flight was detached from its entry by Invalidate; its waiters
// get the outcome in res and the entry never sees it.
type flight[V any] struct {
	done      chan struct{}
	cancel    context.CancelFunc
	res       Result[V]
	waiters   int
	detached  bool
	abandoned bool
	discarded bool
}

// Cache is a stale-while-revalidate cache for values of type V.
// The zero value is not usable; construct with New.
type Cache[V any] struct {
	opts    *options
	base    context.Context
	stop    context.CancelFunc
	entries map[string]*entry[V]
	wg      sync.WaitGroup
	mu      sync.Mutex
	closed  bool
}

// New creates an empty cache.
func New[V any](opts ...Option) *Cache[V] {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	base, stop := context.WithCancel(context.Background())
	return &Cache[V]{
		opts:    o,
		base:    base,
		stop:    stop,
		entries: make(map[string]*entry[V]),
	}
}

// Get returns the value for key, fetching it when needed.
//
// A fresh value is returned without calling fetch. A stale value is returned
// immediately and revalidated in the background. Without a value, Get attaches
// to the key's in-flight fetch (starting one if none is running) and waits for
// it or for ctx to end. The zero key returns an empty Result.
func (c *Cache[V]) Get(ctx context.Context, key Key, fetch Fetcher[V]) Result[V] {
	if key.IsZero() {
		return Result[V]{}
	}
	if fetch == nil {
		return Result[V]{Err: ErrNilFetcher}
	}

	now := c.opts.now()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return Result[V]{Err: ErrClosed}
	}

	e := c.entryLocked(key)

	if e.hasValue {
		outcome := OutcomeHit
		if !c.freshLocked(e, now) {
			outcome = OutcomeStale
			if e.flight == nil && c.mayFetchLocked(e, now) {
				c.startLocked(e, fetch, true, false)
			}
		}
		res := c.snapshotLocked(e, now)
		c.mu.Unlock()

		c.opts.observer.Lookup(key, outcome)
		return res
	}

	f := e.flight
	if f == nil {
		if !c.mayFetchLocked(e, now) {
			res := c.snapshotLocked(e, now)
			c.mu.Unlock()

			c.opts.observer.Lookup(key, OutcomeMiss)
			return res
		}
		f = c.startLocked(e, fetch, false, true)
	}
	f.waiters++
	c.mu.Unlock()

	c.opts.observer.Lookup(key, OutcomeMiss)
	return c.wait(ctx, e, f)
}

// Revalidate fetches key regardless of freshness and waits for the result.
// The previous value stays visible if the fetch fails.
func (c *Cache[V]) Revalidate(ctx context.Context, key Key, fetch Fetcher[V]) Result[V] {
	if key.IsZero() {
		return Result[V]{}
	}
	if fetch == nil {
		return Result[V]{Err: ErrNilFetcher}
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return Result[V]{Err: ErrClosed}
	}

	e := c.entryLocked(key)
	f := e.flight
	if f == nil {
		f = c.startLocked(e, fetch, false, false)
	}
	f.waiters++
	c.mu.Unlock()

	return c.wait(ctx, e, f)
}

// Peek returns the current snapshot for key without triggering any fetch.
func (c *Cache[V]) Peek(key Key) Result[V] {
	if key.IsZero() {
		return Result[V]{}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key.String()]
	if !ok {
		return Result[V]{}
	}
	return c.snapshotLocked(e, c.opts.now())
}

// Set stores value for key as if it had just been fetched.
func (c *Cache[V]) Set(ctx context.Context, key Key, value V) error {
	if key.IsZero() {
		return nil
	}

	now := c.opts.now()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	e := c.entryLocked(key)
	c.recordSuccessLocked(e, value, now)
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, c.opts.storeTimeout)
	defer cancel()
	return c.save(ctx, key, value, now)
}

// Invalidate drops the cached value for key so the next Get fetches again.
// A fetch already in flight is detached: callers waiting on it still get its
// outcome but it is neither cached nor written to the store.
func (c *Cache[V]) Invalidate(ctx context.Context, key Key) {
	if key.IsZero() {
		return
	}

	c.mu.Lock()
	if e, ok := c.entries[key.String()]; ok {
		e.reset()
		if f := e.flight; f != nil {
			f.discarded = true
			e.flight = nil
		}
		delete(c.entries, key.String())
	}
	c.mu.Unlock()

	if c.opts.store != nil {
		if err := c.opts.store.Delete(ctx, key.String()); err != nil && !errors.Is(err, ErrNotFound) {
			c.opts.logger.WarnContext(ctx, "swr: store delete failed",
				slog.String("key", key.String()),
				slog.Any("error", err),
			)
		}
	}
}

// Keys returns the keys that currently hold an entry.
func (c *Cache[V]) Keys() []Key {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]Key, 0, len(c.entries))
	for _, e := range c.entries {
		keys = append(keys, e.key)
	}
	return keys
}

// Close cancels all in-flight fetches and pending retries and waits for them to stop.
// Calls after Close return ErrClosed.
func (c *Cache[V]) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	for _, e := range c.entries {
		if e.retryTimer != nil {
			e.retryTimer.Stop()
			e.retryTimer = nil
		}
	}
	c.mu.Unlock()

	c.stop()
	c.wg.Wait()
	return nil
}

func (c *Cache[V]) entryLocked(key Key) *entry[V] {
	e, ok := c.entries[key.String()]
	if !ok {
		e = &entry[V]{key: key}
		c.entries[key.String()] = e
	}
	return e
}

func (c *Cache[V]) freshLocked(e *entry[V], now time.Time) bool {
	return e.hasValue && now.Sub(e.fetchedAt) < c.opts.staleTime
}

// mayFetchLocked holds off new fetches for a retry interval after a failure.
func (c *Cache[V]) mayFetchLocked(e *entry[V], now time.Time) bool {
	return e.err == nil || now.Sub(e.failedAt) >= c.opts.retryInterval
}

func (c *Cache[V]) snapshotLocked(e *entry[V], now time.Time) Result[V] {
	return Result[V]{
		Data:         e.value,
		HasData:      e.hasValue,
		Err:          e.err,
		FetchedAt:    e.fetchedAt,
		IsLoading:    e.flight != nil && !e.hasValue,
		IsValidating: e.flight != nil,
		Stale:        e.hasValue && !c.freshLocked(e, now),
	}
}

func (c *Cache[V]) recordSuccessLocked(e *entry[V], value V, fetchedAt time.Time) {
	e.value = value
	e.hasValue = true
	e.fetchedAt = fetchedAt
	e.err = nil
	e.failedAt = time.Time{}
	e.retried = false
	if e.retryTimer != nil {
		e.retryTimer.Stop()
		e.retryTimer = nil
	}
}

// startLocked launches a fetch for e. Detached fetches are not cancelled when
// their waiters leave. The store read and the fetch get separate deadlines.
func (c *Cache[V]) startLocked(e *entry[V], fetch Fetcher[V], detached, useStore bool) *flight[V] {
	ctx, cancel := context.WithCancel(c.base)
	f := &flight[V]{
		done:     make(chan struct{}),
		cancel:   cancel,
		detached: detached,
	}
	e.flight = f

	c.wg.Add(1)
	go c.run(ctx, e, f, fetch, useStore)
	return f
}

func (c *Cache[V]) run(ctx context.Context, e *entry[V], f *flight[V], fetch Fetcher[V], useStore bool) {
	defer c.wg.Done()
	defer close(f.done)
	defer f.cancel()

	value, fetchedAt, fromStore, err := c.resolve(ctx, e.key, fetch, useStore)

	c.mu.Lock()
	if e.flight == f {
		e.flight = nil
	}
	persist := false
	switch {
	case f.abandoned:
	case f.discarded:
		f.res = Result[V]{Data: value, HasData: err == nil, Err: err, FetchedAt: fetchedAt}
	case err == nil:
		c.recordSuccessLocked(e, value, fetchedAt)
		persist = !fromStore
	default:
		e.err = err
		e.failedAt = c.opts.now()
		c.scheduleRetryLocked(e, fetch)
	}
	c.mu.Unlock()

	if persist {
		c.persist(e.key, value, fetchedAt)
	}
}

// resolve answers a flight from the store when allowed, otherwise from fetch.
// A slow or unreachable store only costs the store timeout; the fetch still
// gets its full timeout afterwards.
func (c *Cache[V]) resolve(ctx context.Context, key Key, fetch Fetcher[V], useStore bool) (V, time.Time, bool, error) {
	if useStore && c.opts.store != nil {
		if value, fetchedAt, ok := c.load(ctx, key); ok {
			c.opts.observer.Lookup(key, OutcomeStore)
			return value, fetchedAt, true, nil
		}
	}

	fetchCtx, cancel := context.WithTimeout(ctx, c.opts.timeout)
	defer cancel()

	started := time.Now()
	value, err := c.call(fetchCtx, fetch)
	c.opts.observer.Fetched(key, time.Since(started), err)

	if err != nil {
		var zero V
		if !errors.Is(err, context.Canceled) {
			c.opts.logger.WarnContext(ctx, "swr: fetch failed",
				slog.String("key", key.String()),
				slog.Any("error", err),
			)
		}
		return zero, time.Time{}, false, err
	}
	return value, c.opts.now(), false, nil
}

// persist writes a fetched value to the store on its own deadline. Errors are
// logged only.
func (c *Cache[V]) persist(key Key, value V, fetchedAt time.Time) {
	if c.opts.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.base, c.opts.storeTimeout)
	defer cancel()

	if err := c.save(ctx, key, value, fetchedAt); err != nil {
		c.opts.logger.WarnContext(ctx, "swr: store save failed",
			slog.String("key", key.String()),
			slog.Any("error", err),
		)
	}
}

// call runs fetch and stops waiting for it once ctx ends, so a fetch that
// ignores its context cannot hold waiters past the timeout.
func (c *Cache[V]) call(ctx context.Context, fetch Fetcher[V]) (V, error) {
	type outcome struct {
		value V
		err   error
	}

	ch := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- outcome{err: fmt.Errorf("%w: %v", ErrFetchPanic, r)}
			}
		}()
		v, err := fetch(ctx)
		ch <- outcome{value: v, err: err}
	}()

	select {
	case out := <-ch:
		return out.value, out.err
	case <-ctx.Done():
		var zero V
		return zero, ctx.Err()
	}
}

func (c *Cache[V]) wait(ctx context.Context, e *entry[V], f *flight[V]) Result[V] {
	select {
	case <-f.done:
		c.mu.Lock()
		defer c.mu.Unlock()
		f.waiters--
		if f.discarded {
			return f.res
		}
		return c.snapshotLocked(e, c.opts.now())

	case <-ctx.Done():
		c.mu.Lock()
		f.waiters--
		if f.waiters == 0 && !f.detached && (e.flight == f || f.discarded) {
			f.abandoned = true
			f.cancel()
			if e.flight == f {
				e.flight = nil
			}
		}
		res := c.snapshotLocked(e, c.opts.now())
		c.mu.Unlock()

		if res.Err == nil {
			res.Err = ctx.Err()
		}
		return res
	}
}

func (c *Cache[V]) scheduleRetryLocked(e *entry[V], fetch Fetcher[V]) {
	if c.opts.retryCount == 0 || e.retried || e.retryTimer != nil || c.closed {
		return
	}
	e.retried = true

	e.retryTimer = time.AfterFunc(c.opts.retryInterval, func() {
		c.mu.Lock()
		defer c.mu.Unlock()

		e.retryTimer = nil
		if c.closed || c.entries[e.key.String()] != e || e.flight != nil {
			return
		}
		c.opts.logger.Debug("swr: retrying fetch", slog.String("key", e.key.String()))
		c.startLocked(e, fetch, true, false)
	})
}

func (c *Cache[V]) load(ctx context.Context, key Key) (V, time.Time, bool) {
	var zero V

	ctx, cancel := context.WithTimeout(ctx, c.opts.storeTimeout)
	defer cancel()

	rec, err := c.opts.store.Load(ctx, key.String())
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			c.opts.logger.WarnContext(ctx, "swr: store load failed",
				slog.String("key", key.String()),
				slog.Any("error", err),
			)
		}
		return zero, time.Time{}, false
	}

	if c.opts.now().Sub(rec.FetchedAt) >= c.opts.staleTime {
		return zero, time.Time{}, false
	}

	var value V
	if err := json.Unmarshal(rec.Data, &value); err != nil {
		c.opts.logger.WarnContext(ctx, "swr: store record undecodable",
			slog.String("key", key.String()),
			slog.Any("error", errors.Join(ErrStoreDecode, err)),
		)
		return zero, time.Time{}, false
	}
	return value, rec.FetchedAt, true
}

func (c *Cache[V]) save(ctx context.Context, key Key, value V, fetchedAt time.Time) error {
	if c.opts.store == nil {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return errors.Join(ErrStoreEncode, err)
	}
	return c.opts.store.Save(ctx, key.String(), Record{FetchedAt: fetchedAt, Data: data}, c.opts.staleTime)
}
