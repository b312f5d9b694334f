package swr

import (
	"io"
	"log/slog"
	"time"
)

const (
	DefaultStaleTime     = 30 * time.Minute
	DefaultRetryCount    = 1
	DefaultRetryInterval = 10 * time.Second
	DefaultTimeout       = 30 * time.Second
	DefaultStoreTimeout  = 500 * time.Millisecond

	maxRetryCount = 1
)

// Option configures a Cache.
type Option func(*options)

type options struct {
	staleTime     time.Duration
	retryCount    int
	retryInterval time.Duration
	timeout       time.Duration
	storeTimeout  time.Duration
	store         Store
	observer      Observer
	logger        *slog.Logger
	now           func() time.Time
}

func defaultOptions() *options {
	return &options{
		staleTime:     DefaultStaleTime,
		retryCount:    DefaultRetryCount,
		retryInterval: DefaultRetryInterval,
		timeout:       DefaultTimeout,
		storeTimeout:  DefaultStoreTimeout,
		observer:      nopObserver{},
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:           time.Now,
	}
}

// WithStaleTime sets how long a fetched value is served without revalidation.
// Default: 30 minutes
func WithStaleTime(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.staleTime = d
		}
	}
}

// WithRetry configures automatic retries after a failed fetch.
// The count is capped at one retry per failure streak.
// Default: 1 retry after 10 seconds
func WithRetry(count int, interval time.Duration) Option {
	return func(o *options) {
		o.retryCount = min(max(count, 0), maxRetryCount)
		if interval > 0 {
			o.retryInterval = interval
		}
	}
}

// WithTimeout bounds every fetch. Store reads and writes have their own
// deadline, see WithStoreTimeout.
// Default: 30 seconds
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithStore attaches a second-level store shared between processes.
func WithStore(s Store) Option {
	return func(o *options) {
		o.store = s
	}
}

// WithStoreTimeout bounds each store read and write. A store that misses
// this deadline is treated as a miss and the fetch runs.
// Default: 500 milliseconds
func WithStoreTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.storeTimeout = d
		}
	}
}

// WithObserver sets the observer notified about lookups and fetches.
func WithObserver(obs Observer) Option {
	return func(o *options) {
		if obs != nil {
			o.observer = obs
		}
	}
}

// WithLogger sets the logger for fetch failures and store errors.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithClock replaces the time source used for freshness decisions.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}
