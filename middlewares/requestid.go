package middlewares

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/corporategifts/giftsite/pkg/logger"
)

type requestIDKey struct{}

// RequestIDHeader carries the id in both directions.
const RequestIDHeader = "X-Request-ID"

// MaxRequestIDLength bounds inbound IDs; longer values are replaced.
const MaxRequestIDLength = 128

// inboundRequestIDHeaders are checked in order for an id set by a proxy or the SPA.
var inboundRequestIDHeaders = []string{RequestIDHeader, "X-Correlation-ID"}

// RequestIDOption configures RequestID.
type RequestIDOption func(*requestIDConfig)

type requestIDConfig struct {
	generate func() string
}

// WithRequestIDGenerator replaces the UUID generator.
func WithRequestIDGenerator(gen func() string) RequestIDOption {
	return func(cfg *requestIDConfig) {
		if gen != nil {
			cfg.generate = gen
		}
	}
}

// RequestID tags every request with an id taken from the inbound headers or
// generated, stores it in the context and echoes it in X-Request-ID.
// Inbound ids that are too long or not printable ASCII are replaced so they
// cannot pollute the logs.
func RequestID(opts ...RequestIDOption) func(http.Handler) http.Handler {
	cfg := &requestIDConfig{generate: uuid.NewString}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := inboundRequestID(r)
			if id == "" {
				id = cfg.generate()
			}
			w.Header().Set(RequestIDHeader, id)
			next.ServeHTTP(w, r.WithContext(WithRequestID(r.Context(), id)))
		})
	}
}

func inboundRequestID(r *http.Request) string {
	for _, h := range inboundRequestIDHeaders {
		if v := r.Header.Get(h); validRequestID(v) {
			return v
		}
	}
	return ""
}

func validRequestID(v string) bool {
	if v == "" || len(v) > MaxRequestIDLength {
		return false
	}
	for i := range len(v) {
		if v[i] < 0x21 || v[i] > 0x7e {
			return false
		}
	}
	return true
}

// WithRequestID returns a copy of ctx carrying id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// GetRequestID returns the request id, or "" outside a request.
func GetRequestID(ctx context.Context) string {
	v, _ := ctx.Value(requestIDKey{}).(string)
	return v
}

// RequestIDExtractor adds "request_id" to every record logged with a request context.
func RequestIDExtractor() logger.ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		if v := GetRequestID(ctx); v != "" {
			return slog.String("request_id", v), true
		}
		return slog.Attr{}, false
	}
}
