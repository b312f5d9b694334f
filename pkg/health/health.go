package health

import (
	"context"
	"errors"
	"log/slog"
	"maps"
	"sync"
	"time"
)

const (
	defaultTimeout = 5 * time.Second

	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// CheckFunc reports a dependency's health.
type CheckFunc func(ctx context.Context) error

// Checks is a set of named checks.
type Checks map[string]CheckFunc

// Response is the aggregated probe result.
type Response struct {
	Checks map[string]Check `json:"checks,omitempty"`
	Status string           `json:"status"`
}

// Check is the result of one named check.
type Check struct {
	Status   string `json:"status"`
	Error    string `json:"error,omitempty"`
	Optional bool   `json:"optional,omitempty"`
}

type config struct {
	logger   *slog.Logger
	optional Checks
	timeout  time.Duration
}

// Option configures a readiness handler.
type Option func(*config)

// WithTimeout bounds the whole check round.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger logs failed checks at warn level.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithOptional adds checks whose failure degrades but does not fail readiness.
func WithOptional(checks Checks) Option {
	return func(c *config) {
		if c.optional == nil {
			c.optional = Checks{}
		}
		maps.Copy(c.optional, checks)
	}
}

func newConfig(opts ...Option) *config {
	cfg := &config{
		timeout: defaultTimeout,
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Run executes required and optional checks concurrently.
func Run(ctx context.Context, required Checks, opts ...Option) *Response {
	return runChecks(ctx, required, newConfig(opts...))
}

func runChecks(ctx context.Context, required Checks, cfg *config) *Response {
	if len(required) == 0 && len(cfg.optional) == 0 {
		return &Response{Status: StatusHealthy}
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.timeout)
	defer cancel()

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results = make(map[string]Check, len(required)+len(cfg.optional))
	)
	run := func(name string, check CheckFunc, optional bool) {
		wg.Go(func() {
			res := Check{Status: StatusHealthy, Optional: optional}
			if err := check(ctx); err != nil {
				if errors.Is(err, context.DeadlineExceeded) {
					err = errors.Join(ErrCheckTimeout, err)
				}
				res.Status = StatusUnhealthy
				res.Error = err.Error()
				cfg.logger.WarnContext(ctx, "health check failed",
					slog.String("check", name),
					slog.Bool("optional", optional),
					slog.Any("error", err),
				)
			}
			mu.Lock()
			results[name] = res
			mu.Unlock()
		})
	}

	for name, check := range required {
		run(name, check, false)
	}
	for name, check := range cfg.optional {
		if _, dup := required[name]; !dup {
			run(name, check, true)
		}
	}
	wg.Wait()

	status := StatusHealthy
	for _, res := range results {
		if res.Status != StatusUnhealthy {
			continue
		}
		if !res.Optional {
			status = StatusUnhealthy
			break
		}
		status = StatusDegraded
	}

	return &Response{Status: status, Checks: results}
}

// Err returns ErrCheckFailed when the response is unhealthy.
func (r *Response) Err() error {
	if r.Status == StatusUnhealthy {
		return ErrCheckFailed
	}
	return nil
}
