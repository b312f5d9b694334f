// Package middlewares provides net/http middleware for the giftsite API.
//
// Every middleware has the shape func(http.Handler) http.Handler and plugs
// straight into chi's Use.
//
// # Request ID
//
// RequestID assigns an ID to each request, reusing X-Request-ID or
// X-Correlation-ID when the caller sent one. Pair it with
// RequestIDExtractor so every log line written with the request context
// carries request_id:
//
//	log, flush, err := logger.New(cfg.Log, os.Stdout, middlewares.RequestIDExtractor())
//
// # Recover and Timeout
//
// Recover turns a panic into a *PanicError and Timeout turns an exceeded
// deadline into a *TimeoutError. Both hand the error to an ErrorHandler so
// the API can render them in its own error envelope.
//
// # CORS
//
// CORS answers preflight requests and decorates responses for allowed
// origins. Entries like "https://*.example.com" match subdomains.
//
// # Recommended order
//
//	r.Use(
//	    middlewares.CORS(middlewares.WithAllowOrigins(origins...)),
//	    middlewares.RequestID(),
//	    middlewares.AccessLog(log),
//	    middlewares.Recover(middlewares.WithRecoverLogger(log)),
//	    middlewares.Timeout(10*time.Second),
//	)
package middlewares
