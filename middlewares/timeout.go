package middlewares

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"
)

// DefaultTimeout is the default request timeout.
const DefaultTimeout = 30 * time.Second

// TimeoutConfig configures the timeout middleware.
type TimeoutConfig struct {
	Logger  *slog.Logger
	OnError ErrorHandler
	Timeout time.Duration
}

// TimeoutOption configures TimeoutConfig.
type TimeoutOption func(*TimeoutConfig)

// WithTimeoutLogger sets the logger timeouts are reported to.
func WithTimeoutLogger(l *slog.Logger) TimeoutOption {
	return func(cfg *TimeoutConfig) {
		if l != nil {
			cfg.Logger = l
		}
	}
}

// WithTimeoutErrorHandler sets how the TimeoutError is rendered.
func WithTimeoutErrorHandler(h ErrorHandler) TimeoutOption {
	return func(cfg *TimeoutConfig) {
		if h != nil {
			cfg.OnError = h
		}
	}
}

// Timeout returns middleware that bounds the request context by timeout.
//
// The handler runs on the request goroutine and is expected to honour
// ctx.Done(). When it returns after the deadline without having written a
// response, a *TimeoutError is passed to the error handler. Responses already
// started are left alone.
func Timeout(timeout time.Duration, opts ...TimeoutOption) func(http.Handler) http.Handler {
	cfg := &TimeoutConfig{
		Logger:  slog.New(slog.DiscardHandler),
		OnError: defaultErrorHandler,
		Timeout: timeout,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), cfg.Timeout)
			defer cancel()

			tw := &trackingWriter{ResponseWriter: w}
			next.ServeHTTP(tw, r.WithContext(ctx))

			if errors.Is(ctx.Err(), context.DeadlineExceeded) && !tw.wrote.Load() {
				cfg.Logger.WarnContext(ctx, "request timeout", "timeout", cfg.Timeout.String())
				cfg.OnError(w, r, &TimeoutError{Duration: cfg.Timeout})
			}
		})
	}
}

// trackingWriter records whether the response has been started.
type trackingWriter struct {
	http.ResponseWriter
	wrote atomic.Bool
}

func (w *trackingWriter) WriteHeader(code int) {
	w.wrote.Store(true)
	w.ResponseWriter.WriteHeader(code)
}

func (w *trackingWriter) Write(b []byte) (int, error) {
	w.wrote.Store(true)
	return w.ResponseWriter.Write(b)
}

func (w *trackingWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
