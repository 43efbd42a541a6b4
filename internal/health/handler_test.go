package health_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"employee-service/internal/health"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	results map[string]error
}

func (r *recorder) RecordDependencyCheck(_ context.Context, dependency string, _ time.Duration, err error) {
	r.results[dependency] = err
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) PingContext(ctx context.Context) error { return f(ctx) }

func TestHealthHandler(t *testing.T) {
	var dbErr error
	rec := &recorder{results: map[string]error{}}
	router := chi.NewRouter()
	health.NewHandler(map[string]health.Pinger{
		"database": pingFunc(func(context.Context) error { return dbErr }),
		"absent":   nil,
	}, rec).RegisterRoutes(router)

	t.Run("Health", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	})

	t.Run("Ready", func(t *testing.T) {
		dbErr = nil
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"status":"ready","checks":{"database":"ok"}}`, w.Body.String())
		assert.Contains(t, rec.results, "database")
		assert.NoError(t, rec.results["database"])
	})

	t.Run("NotReady", func(t *testing.T) {
		dbErr = errors.New("connection refused")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		var resp health.HealthResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Equal(t, "unavailable", resp.Status)
		assert.Equal(t, "connection refused", resp.Checks["database"])
		assert.EqualError(t, rec.results["database"], "connection refused")
	})
}
