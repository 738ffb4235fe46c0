package httptransport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type healthFunc func(ctx context.Context) error

func (f healthFunc) Health(ctx context.Context) error { return f(ctx) }

func TestHealthHandler(t *testing.T) {
	ok := healthFunc(func(context.Context) error { return nil })
	down := healthFunc(func(context.Context) error { return errors.New("connection refused") })

	t.Run("all backends healthy - 200", func(t *testing.T) {
		handler := NewHealthHandler(testLogger(), map[string]HealthChecker{
			"patients": ok,
			"settings": ok,
		})
		router := NewRouter(testLogger(), nil, handler)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		var got healthResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
		assert.Equal(t, "ok", got.Status)
		assert.Equal(t, "ok", got.Components["patients"])
	})

	t.Run("one backend down - 503 with per-component detail", func(t *testing.T) {
		handler := NewHealthHandler(testLogger(), map[string]HealthChecker{
			"patients": ok,
			"sessions": down,
		})
		router := NewRouter(testLogger(), nil, handler)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		var got healthResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
		assert.Equal(t, "degraded", got.Status)
		assert.Equal(t, "ok", got.Components["patients"])
		assert.Equal(t, "connection refused", got.Components["sessions"])
	})
}
