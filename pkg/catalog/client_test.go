package catalog_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/corporategifts/giftsite/pkg/catalog"
)

func newUpstream(t *testing.T, h http.HandlerFunc) *catalog.Client {
	t.Helper()

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return catalog.NewClient(srv.URL+"/", catalog.WithHTTPClient(srv.Client()))
}

func TestClient(t *testing.T) {
	t.Parallel()

	t.Run("requests the expected paths", func(t *testing.T) {
		t.Parallel()

		seen := make(chan string, 3)
		c := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Accept") == "application/json" {
				seen <- r.URL.Path
			}
			_, _ = w.Write([]byte(`[]`))
		})

		ctx := context.Background()
		_, err := c.RandomProducts(ctx)
		require.NoError(t, err)
		_, err = c.Categories(ctx)
		require.NoError(t, err)
		_, err = c.ProductsByCategory(ctx, "117")
		require.NoError(t, err)

		close(seen)
		var paths []string
		for p := range seen {
			paths = append(paths, p)
		}
		require.Equal(t, []string{"/random-products", "/categories", "/products-by-category/117"}, paths)
	})

	t.Run("custom endpoints", func(t *testing.T) {
		t.Parallel()

		query := make(chan string, 1)
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			query <- r.URL.RawQuery
			_, _ = w.Write([]byte(`[]`))
		}))
		t.Cleanup(srv.Close)

		c := catalog.NewClient(srv.URL, catalog.WithEndpoints(catalog.Endpoints{
			ProductsByCategory: "/products?category={id}",
		}))
		_, err := c.ProductsByCategory(context.Background(), "gift-sets")
		require.NoError(t, err)
		require.Equal(t, "category=gift-sets", <-query)
	})

	t.Run("empty category id", func(t *testing.T) {
		t.Parallel()

		c := catalog.NewClient("http://127.0.0.1:0")
		_, err := c.ProductsByCategory(context.Background(), "")
		require.ErrorIs(t, err, catalog.ErrEmptyCategoryID)
	})

	t.Run("invalid json", func(t *testing.T) {
		t.Parallel()

		c := newUpstream(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`<html>maintenance</html>`))
		})
		_, err := c.Categories(context.Background())
		require.ErrorIs(t, err, catalog.ErrInvalidJSON)
	})

	t.Run("transport failure", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.NotFoundHandler())
		srv.Close()

		c := catalog.NewClient(srv.URL)
		_, err := c.Categories(context.Background())
		require.ErrorIs(t, err, catalog.ErrRequestFailed)
	})
}

func TestClientErrorMessages(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{"json message", http.StatusForbidden, `{"code":"rest_forbidden","message":"Sorry, you are not allowed"}`, "Sorry, you are not allowed"},
		{"json error", http.StatusBadRequest, `{"error":"bad category"}`, "bad category"},
		{"message preferred over error", http.StatusBadRequest, `{"error":"e","message":"m"}`, "m"},
		{"html body", http.StatusNotFound, `<html><body><h1>Not Found</h1></body></html>`, "Not Found"},
		{"empty body", http.StatusBadGateway, ``, "Bad Gateway"},
		{"json without message fields", http.StatusInternalServerError, `{"code":500}`, `{"code":500}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := newUpstream(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := c.RandomProducts(context.Background())
			apiErr, ok := catalog.AsAPIError(err)
			require.True(t, ok)
			require.Equal(t, tt.status, apiErr.Status)
			require.Equal(t, tt.message, apiErr.Message)
		})
	}
}
