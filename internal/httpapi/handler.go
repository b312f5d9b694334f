package httpapi

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/corporategifts/giftsite/middlewares"
)

// HandlerFunc is a route handler that reports failures by returning them.
type HandlerFunc func(w http.ResponseWriter, r *http.Request) error

// wrap adapts h to net/http. Returned errors are rendered by writeError.
func (s *Server) wrap(h HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h(w, r); err != nil {
			s.writeError(w, r, err)
		}
	}
}

// writeError renders err as a JSON HTTPError. Server errors are logged
// with their cause; client errors at debug level.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	he := toHTTPError(err)
	out := *he
	out.RequestID = middlewares.GetRequestID(r.Context())

	if out.Code >= http.StatusInternalServerError {
		s.logger.ErrorContext(r.Context(), "request failed",
			slog.Int("status", out.Code),
			slog.Any("error", err),
		)
	} else {
		s.logger.DebugContext(r.Context(), "request rejected",
			slog.Int("status", out.Code),
			slog.Any("error", err),
		)
	}

	writeJSON(w, out.Code, &out)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeJSON reads a small JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 4<<10)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			return err
		}
		return ErrBadRequest("Malformed JSON body", WithErrorCode("malformed_body"), WithError(err))
	}
	return nil
}

// bearerAuth rejects requests whose Authorization header does not carry token.
func bearerAuth(token string, onError func(http.ResponseWriter, *http.Request, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				w.Header().Set("WWW-Authenticate", `Bearer realm="giftsite"`)
				onError(w, r, ErrUnauthorized("Unauthorized"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
