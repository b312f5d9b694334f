package health

import (
	"encoding/json"
	"net/http"
	"strings"
)

var plainStatus = map[string]string{
	StatusHealthy:   "OK",
	StatusDegraded:  "Degraded",
	StatusUnhealthy: "Service Unavailable",
}

// LivenessHandler always answers OK while the process serves HTTP.
func LivenessHandler() http.HandlerFunc {
	live := &Response{Status: StatusHealthy}
	return func(w http.ResponseWriter, r *http.Request) {
		render(w, r, http.StatusOK, live)
	}
}

// ReadinessHandler runs checks on every probe. Only a failed required
// check makes the service unready; degraded answers 200.
func ReadinessHandler(checks Checks, opts ...Option) http.HandlerFunc {
	cfg := newConfig(opts...)

	return func(w http.ResponseWriter, r *http.Request) {
		resp := runChecks(r.Context(), checks, cfg)
		code := http.StatusOK
		if resp.Status == StatusUnhealthy {
			code = http.StatusServiceUnavailable
		}
		render(w, r, code, resp)
	}
}

// render answers plain text for load balancers and JSON for
// ?format=json or an Accept header asking for it.
func render(w http.ResponseWriter, r *http.Request, code int, resp *Response) {
	w.Header().Set("Cache-Control", "no-store")

	asJSON := r.URL.Query().Get("format") == "json" ||
		strings.Contains(r.Header.Get("Accept"), "application/json")
	if !asJSON {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(code)
		_, _ = w.Write([]byte(plainStatus[resp.Status]))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(resp)
}
