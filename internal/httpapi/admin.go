package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/corporategifts/giftsite/pkg/catalog"
	"github.com/corporategifts/giftsite/pkg/swr"
)

type cacheRequest struct {
	Key string `json:"key"`
	All bool   `json:"all"`
}

type cacheResponse struct {
	Keys        []string `json:"keys,omitempty"`
	Invalidated int      `json:"invalidated,omitempty"`
}

func (s *Server) invalidateCache(w http.ResponseWriter, r *http.Request) error {
	var req cacheRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}

	if req.All {
		n := s.catalog.InvalidateAll(r.Context())
		s.logger.InfoContext(r.Context(), "catalog cache cleared", slog.Int("entries", n))
		writeJSON(w, http.StatusOK, cacheResponse{Invalidated: n})
		return nil
	}

	key, err := parseCacheKey(req.Key)
	if err != nil {
		return err
	}
	s.catalog.Invalidate(r.Context(), key)
	s.logger.InfoContext(r.Context(), "catalog cache entry invalidated", slog.String("key", key.String()))
	writeJSON(w, http.StatusOK, cacheResponse{Keys: []string{key.String()}, Invalidated: 1})
	return nil
}

// refreshCache refetches one key now, keeping the old value on failure.
func (s *Server) refreshCache(w http.ResponseWriter, r *http.Request) error {
	var req cacheRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}

	key, err := parseCacheKey(req.Key)
	if err != nil {
		return err
	}
	if err := s.catalog.Refresh(r.Context(), key); err != nil {
		return NewHTTPError(http.StatusBadGateway, "Refresh failed",
			WithDetail(errorText(err)), WithError(err))
	}
	writeJSON(w, http.StatusOK, cacheResponse{Keys: []string{key.String()}})
	return nil
}

func parseCacheKey(raw string) (swr.Key, error) {
	key, err := catalog.ParseKey(raw)
	if err != nil {
		return swr.Key{}, ErrBadRequest("Unknown cache key",
			WithErrorCode("unknown_key"), WithDetail(raw), WithError(err))
	}
	return key, nil
}
