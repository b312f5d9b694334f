package httpapi_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/corporategifts/giftsite/internal/httpapi"
	"github.com/corporategifts/giftsite/pkg/catalog"
	"github.com/corporategifts/giftsite/pkg/forms"
	"github.com/corporategifts/giftsite/pkg/health"
	"github.com/corporategifts/giftsite/pkg/swr"
)

type fakeCatalog struct {
	mu          sync.Mutex
	products    swr.Result[[]catalog.Product]
	categories  swr.Result[[]catalog.Category]
	byCategory  map[string]swr.Result[[]catalog.Product]
	invalidated []string
	refreshErr  error
}

func (f *fakeCatalog) RandomProducts(context.Context) swr.Result[[]catalog.Product] {
	return f.products
}

func (f *fakeCatalog) Categories(context.Context) swr.Result[[]catalog.Category] {
	return f.categories
}

func (f *fakeCatalog) ProductsByCategory(_ context.Context, id string) swr.Result[[]catalog.Product] {
	return f.byCategory[id]
}

func (f *fakeCatalog) Refresh(context.Context, swr.Key) error { return f.refreshErr }

func (f *fakeCatalog) Invalidate(_ context.Context, key swr.Key) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalidated = append(f.invalidated, key.String())
}

func (f *fakeCatalog) InvalidateAll(context.Context) int { return 3 }

type fakeDispatcher struct {
	mu   sync.Mutex
	subs []*forms.Submission
	err  error
}

func (d *fakeDispatcher) Dispatch(_ context.Context, s *forms.Submission) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.subs = append(d.subs, s)
	return nil
}

type countingRecorder struct {
	mu     sync.Mutex
	counts map[string]int
}

func (c *countingRecorder) Submission(kind forms.Kind, outcome string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[string(kind)+"/"+outcome]++
}

type fixture struct {
	handler    http.Handler
	catalog    *fakeCatalog
	dispatcher *fakeDispatcher
	recorder   *countingRecorder
}

func newFixture(t *testing.T, cfg httpapi.Config) *fixture {
	t.Helper()

	intake, err := forms.NewIntake()
	require.NoError(t, err)

	fetchedAt := time.Date(2025, 3, 14, 8, 0, 0, 0, time.UTC)
	f := &fixture{
		catalog: &fakeCatalog{
			products: swr.Result[[]catalog.Product]{
				Data:      []catalog.Product{{ID: "1", Name: "Leather Notebook", Image: "/n.jpg", Category: "Stationery", Rating: 5}},
				HasData:   true,
				FetchedAt: fetchedAt,
			},
			categories: swr.Result[[]catalog.Category]{
				Err: &catalog.APIError{Status: http.StatusInternalServerError, Message: "database offline"},
			},
			byCategory: map[string]swr.Result[[]catalog.Product]{
				"117": {
					Data:         []catalog.Product{{ID: "9", Name: "Pen"}},
					HasData:      true,
					Stale:        true,
					IsValidating: true,
					Err:          errors.New("upstream reset"),
					FetchedAt:    fetchedAt,
				},
				"slow": {IsLoading: true, Err: context.DeadlineExceeded},
			},
		},
		dispatcher: &fakeDispatcher{},
		recorder:   &countingRecorder{counts: map[string]int{}},
	}

	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = 5 * time.Second
	}
	srv := httpapi.New(cfg, httpapi.Deps{
		Catalog:    f.catalog,
		Intake:     intake,
		Dispatcher: f.dispatcher,
		Recorder:   f.recorder,
		Metrics: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("# metrics"))
		}),
		Ready: health.Checks{"catalog": func(context.Context) error { return nil }},
	})
	f.handler = srv.Handler()
	return f
}

func (f *fixture) do(t *testing.T, method, path, body string, header ...string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestCatalogRoutes(t *testing.T) {
	t.Parallel()

	f := newFixture(t, httpapi.Config{})

	t.Run("fresh data", func(t *testing.T) {
		t.Parallel()

		rec := f.do(t, http.MethodGet, "/api/products/random", "")
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "public, max-age=60", rec.Header().Get("Cache-Control"))

		body := decode(t, rec)
		require.Equal(t, false, body["isLoading"])
		require.Equal(t, false, body["stale"])
		require.Equal(t, "2025-03-14T08:00:00Z", body["fetchedAt"])
		require.NotContains(t, body, "error")
		data := body["data"].([]any)
		require.Len(t, data, 1)
		require.Equal(t, "Leather Notebook", data[0].(map[string]any)["name"])
	})

	t.Run("upstream failure without data is 502", func(t *testing.T) {
		t.Parallel()

		rec := f.do(t, http.MethodGet, "/api/categories", "")
		require.Equal(t, http.StatusBadGateway, rec.Code)

		body := decode(t, rec)
		require.Nil(t, body["data"])
		require.Equal(t, "database offline", body["error"])
		require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	})

	t.Run("stale data with error is still 200", func(t *testing.T) {
		t.Parallel()

		rec := f.do(t, http.MethodGet, "/api/categories/117/products", "")
		require.Equal(t, http.StatusOK, rec.Code)

		body := decode(t, rec)
		require.Equal(t, true, body["stale"])
		require.Equal(t, true, body["isValidating"])
		require.Equal(t, "catalog unavailable", body["error"])
		require.Len(t, body["data"], 1)
	})

	t.Run("abandoned wait is 504", func(t *testing.T) {
		t.Parallel()

		rec := f.do(t, http.MethodGet, "/api/categories/slow/products", "")
		require.Equal(t, http.StatusGatewayTimeout, rec.Code)
		require.Equal(t, true, decode(t, rec)["isLoading"])
	})

	t.Run("rejects odd category ids", func(t *testing.T) {
		t.Parallel()

		rec := f.do(t, http.MethodGet, "/api/categories/a.b/products", "")
		require.Equal(t, http.StatusBadRequest, rec.Code)

		body := decode(t, rec)
		require.Equal(t, "invalid_category", body["error_code"])
		require.NotEmpty(t, body["request_id"])
	})
}

func TestPhoneCheck(t *testing.T) {
	t.Parallel()

	f := newFixture(t, httpapi.Config{})

	tests := []struct {
		name       string
		phone      string
		normalized string
		kind       string
		errMsg     string
		valid      bool
	}{
		{"mobile with trunk zero", "0501234567", "+971501234567", "mobile", "", true},
		{"eight digit landline", "+971 4 234 5678", "+97142345678", "", "Please enter a valid UAE phone number", false},
		{"nine digit landline", "04 234 5678 9", "+971423456789", "landline", "", true},
		{"bad leading digit", "+971123456789", "+971123456789", "", "Please enter a valid UAE phone number", false},
		{"empty", "", "", "", "Phone number is required", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			payload, err := json.Marshal(map[string]string{"phone": tt.phone})
			require.NoError(t, err)

			rec := f.do(t, http.MethodPost, "/api/phone/check", string(payload))
			require.Equal(t, http.StatusOK, rec.Code)

			body := decode(t, rec)
			require.Equal(t, tt.valid, body["valid"])
			if tt.normalized != "" {
				require.Equal(t, tt.normalized, body["normalized"])
			}
			if tt.kind != "" {
				require.Equal(t, tt.kind, body["kind"])
			}
			if tt.errMsg != "" {
				require.Equal(t, tt.errMsg, body["error"])
			}
		})
	}

	t.Run("valid landline", func(t *testing.T) {
		t.Parallel()

		rec := f.do(t, http.MethodPost, "/api/phone/check", `{"phone":"00971 2 123 45678"}`)
		body := decode(t, rec)
		require.Equal(t, true, body["valid"])
		require.Equal(t, "landline", body["kind"])
		require.Equal(t, "+971212345678", body["normalized"])
	})

	t.Run("malformed body", func(t *testing.T) {
		t.Parallel()

		rec := f.do(t, http.MethodPost, "/api/phone/check", `{"phone":`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestSubmitForm(t *testing.T) {
	t.Parallel()

	const contact = `{
		"name": "Sara Ali",
		"email": "sara@example.com",
		"contact_number": "050 123 4567",
		"requirements": "Branded mugs",
		"budget": "AED 1,000-AED 5,000"
	}`

	t.Run("accepts a valid submission", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, httpapi.Config{})
		rec := f.do(t, http.MethodPost, "/api/forms/contact", contact)
		require.Equal(t, http.StatusAccepted, rec.Code)

		body := decode(t, rec)
		require.Equal(t, "accepted", body["status"])
		require.NotEmpty(t, body["id"])

		require.Len(t, f.dispatcher.subs, 1)
		sub := f.dispatcher.subs[0]
		require.Equal(t, "+971501234567", sub.Phone)
		require.Equal(t, "192.0.2.1", sub.ClientIP)
		require.Equal(t, 1, f.recorder.counts["contact/accepted"])
	})

	t.Run("validation errors are 422 with fields", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, httpapi.Config{})
		rec := f.do(t, http.MethodPost, "/api/forms/callback", `{"name":"Omar","phone":"12345"}`)
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

		body := decode(t, rec)
		require.Equal(t, "validation_failed", body["error_code"])
		fields := body["fields"].(map[string]any)
		require.Contains(t, fields, "phone")
		require.Contains(t, fields, "call_back_time")
		require.Empty(t, f.dispatcher.subs)
		require.Equal(t, 1, f.recorder.counts["callback/invalid"])
	})

	t.Run("honeypot is answered like success", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, httpapi.Config{})
		rec := f.do(t, http.MethodPost, "/api/forms/callback", `{"name":"bot","website":"http://spam.example"}`)
		require.Equal(t, http.StatusAccepted, rec.Code)
		require.Len(t, f.dispatcher.subs, 1)
		require.True(t, f.dispatcher.subs[0].Spam)
		require.Equal(t, 1, f.recorder.counts["callback/spam"])
	})

	t.Run("unknown kind is 404", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, httpapi.Config{})
		rec := f.do(t, http.MethodPost, "/api/forms/newsletter", contact)
		require.Equal(t, http.StatusNotFound, rec.Code)
		require.Equal(t, "unknown_form", decode(t, rec)["error_code"])
	})

	t.Run("oversized body is 413", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, httpapi.Config{})
		big := `{"name":"` + strings.Repeat("a", forms.MaxBodySize) + `"}`
		rec := f.do(t, http.MethodPost, "/api/forms/contact", big)
		require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	})

	t.Run("dispatch failure is 503", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, httpapi.Config{})
		f.dispatcher.err = errors.New("queue down")
		rec := f.do(t, http.MethodPost, "/api/forms/contact", contact)
		require.Equal(t, http.StatusServiceUnavailable, rec.Code)
		require.Equal(t, "dispatch_failed", decode(t, rec)["error_code"])
		require.NotContains(t, rec.Body.String(), "queue down")
		require.Equal(t, 1, f.recorder.counts["contact/dispatch_failed"])
	})
}

func TestCacheAdmin(t *testing.T) {
	t.Parallel()

	t.Run("routes are absent without a token", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, httpapi.Config{})
		rec := f.do(t, http.MethodPost, "/api/cache/invalidate", `{"key":"categories"}`)
		require.Equal(t, http.StatusNotFound, rec.Code)
	})

	f := newFixture(t, httpapi.Config{AdminToken: "s3cret"})

	t.Run("requires the bearer token", func(t *testing.T) {
		t.Parallel()

		rec := f.do(t, http.MethodPost, "/api/cache/invalidate", `{"key":"categories"}`, "Authorization", "Bearer nope")
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.NotEmpty(t, rec.Header().Get("WWW-Authenticate"))
	})

	t.Run("invalidates one key", func(t *testing.T) {
		t.Parallel()

		rec := f.do(t, http.MethodPost, "/api/cache/invalidate", `{"key":"products-category-117"}`, "Authorization", "Bearer s3cret")
		require.Equal(t, http.StatusOK, rec.Code)

		f.catalog.mu.Lock()
		defer f.catalog.mu.Unlock()
		require.Contains(t, f.catalog.invalidated, "products-category-117")
	})

	t.Run("invalidates everything", func(t *testing.T) {
		t.Parallel()

		rec := f.do(t, http.MethodPost, "/api/cache/invalidate", `{"all":true}`, "Authorization", "Bearer s3cret")
		require.Equal(t, http.StatusOK, rec.Code)
		require.InDelta(t, 3, decode(t, rec)["invalidated"], 0)
	})

	t.Run("unknown key is 400", func(t *testing.T) {
		t.Parallel()

		rec := f.do(t, http.MethodPost, "/api/cache/refresh", `{"key":"users"}`, "Authorization", "Bearer s3cret")
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, "unknown_key", decode(t, rec)["error_code"])
	})

	t.Run("refresh", func(t *testing.T) {
		t.Parallel()

		rec := f.do(t, http.MethodPost, "/api/cache/refresh", `{"key":"categories"}`, "Authorization", "Bearer s3cret")
		require.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestOperationalRoutes(t *testing.T) {
	t.Parallel()

	f := newFixture(t, httpapi.Config{AllowedOrigins: []string{"https://corporategiftsdubaii.ae"}})

	require.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/health/live", "").Code)
	require.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/health/ready", "").Code)
	require.Equal(t, "# metrics", f.do(t, http.MethodGet, "/metrics", "").Body.String())

	rec := f.do(t, http.MethodGet, "/nope", "", "X-Request-ID", "req-42")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "req-42", decode(t, rec)["request_id"])

	rec = f.do(t, http.MethodDelete, "/api/categories", "")
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = f.do(t, http.MethodOptions, "/api/forms/contact", "",
		"Origin", "https://corporategiftsdubaii.ae",
		"Access-Control-Request-Method", http.MethodPost)
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "https://corporategiftsdubaii.ae", rec.Header().Get("Access-Control-Allow-Origin"))
}
