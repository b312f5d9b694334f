package httpapi

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/corporategifts/giftsite/pkg/catalog"
	"github.com/corporategifts/giftsite/pkg/swr"
)

var categoryIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// resultBody is the wire form of a cache snapshot. Field names follow what
// the site's data hooks already read.
type resultBody[V any] struct {
	Data         V          `json:"data"`
	FetchedAt    *time.Time `json:"fetchedAt,omitempty"`
	Error        string     `json:"error,omitempty"`
	IsLoading    bool       `json:"isLoading"`
	IsValidating bool       `json:"isValidating"`
	Stale        bool       `json:"stale"`
}

func (s *Server) randomProducts(w http.ResponseWriter, r *http.Request) error {
	writeResult(w, s.catalog.RandomProducts(r.Context()))
	return nil
}

func (s *Server) categories(w http.ResponseWriter, r *http.Request) error {
	writeResult(w, s.catalog.Categories(r.Context()))
	return nil
}

func (s *Server) productsByCategory(w http.ResponseWriter, r *http.Request) error {
	id := chi.URLParam(r, "id")
	if !categoryIDPattern.MatchString(id) {
		return ErrBadRequest("Invalid category id", WithErrorCode("invalid_category"))
	}
	writeResult(w, s.catalog.ProductsByCategory(r.Context(), id))
	return nil
}

// writeResult answers 200 whenever there is data, stale or not. Without data
// a timed-out wait is 504 and an upstream failure 502.
func writeResult[V any](w http.ResponseWriter, res swr.Result[V]) {
	body := resultBody[V]{
		Data:         res.Data,
		IsLoading:    res.IsLoading,
		IsValidating: res.IsValidating,
		Stale:        res.Stale,
	}
	if !res.FetchedAt.IsZero() {
		at := res.FetchedAt.UTC()
		body.FetchedAt = &at
	}
	if res.Err != nil {
		body.Error = errorText(res.Err)
	}

	status := http.StatusOK
	switch {
	case res.HasData:
	case res.IsLoading, errors.Is(res.Err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	case res.Err != nil:
		status = http.StatusBadGateway
	}

	if status == http.StatusOK && !res.Stale {
		w.Header().Set("Cache-Control", "public, max-age=60")
	} else {
		w.Header().Set("Cache-Control", "no-store")
	}
	writeJSON(w, status, body)
}

// errorText is the message shown to the site for a failed fetch.
func errorText(err error) string {
	if apiErr, ok := catalog.AsAPIError(err); ok {
		return apiErr.Message
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "catalog request timed out"
	case errors.Is(err, context.Canceled):
		return "request cancelled"
	case errors.Is(err, catalog.ErrInvalidJSON):
		return "catalog returned an invalid response"
	}
	return "catalog unavailable"
}
