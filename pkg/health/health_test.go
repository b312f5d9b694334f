package health_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/corporategifts/giftsite/pkg/health"
)

func ok(context.Context) error { return nil }

func failing(context.Context) error { return errors.New("connection refused") }

func TestRun(t *testing.T) {
	t.Parallel()

	t.Run("no checks", func(t *testing.T) {
		t.Parallel()
		require.Equal(t, health.StatusHealthy, health.Run(context.Background(), nil).Status)
	})

	t.Run("required failure", func(t *testing.T) {
		t.Parallel()

		resp := health.Run(context.Background(), health.Checks{"postgres": failing, "redis": ok})
		require.Equal(t, health.StatusUnhealthy, resp.Status)
		require.ErrorIs(t, resp.Err(), health.ErrCheckFailed)
		require.Equal(t, "connection refused", resp.Checks["postgres"].Error)
		require.Equal(t, health.StatusHealthy, resp.Checks["redis"].Status)
	})

	t.Run("optional failure degrades", func(t *testing.T) {
		t.Parallel()

		resp := health.Run(context.Background(), health.Checks{"postgres": ok},
			health.WithOptional(health.Checks{"catalog": failing}))
		require.Equal(t, health.StatusDegraded, resp.Status)
		require.NoError(t, resp.Err())
		require.True(t, resp.Checks["catalog"].Optional)
	})

	t.Run("timeout", func(t *testing.T) {
		t.Parallel()

		slow := func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		}
		resp := health.Run(context.Background(), health.Checks{"slow": slow}, health.WithTimeout(10*time.Millisecond))
		require.Equal(t, health.StatusUnhealthy, resp.Status)
		require.Contains(t, resp.Checks["slow"].Error, health.ErrCheckTimeout.Error())
	})
}

func TestHandlers(t *testing.T) {
	t.Parallel()

	t.Run("liveness", func(t *testing.T) {
		t.Parallel()

		rec := httptest.NewRecorder()
		health.LivenessHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "OK", rec.Body.String())
	})

	t.Run("readiness json", func(t *testing.T) {
		t.Parallel()

		h := health.ReadinessHandler(health.Checks{"postgres": failing})
		rec := httptest.NewRecorder()
		h(rec, httptest.NewRequest(http.MethodGet, "/health/ready?format=json", nil))
		require.Equal(t, http.StatusServiceUnavailable, rec.Code)

		var resp health.Response
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		require.Equal(t, health.StatusUnhealthy, resp.Status)
	})

	t.Run("degraded is ready", func(t *testing.T) {
		t.Parallel()

		h := health.ReadinessHandler(nil, health.WithOptional(health.Checks{"catalog": failing}))
		rec := httptest.NewRecorder()
		h(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "Degraded", rec.Body.String())
	})
}
