package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, c *Checker, path string) (int, Response) {
	t.Helper()

	e := echo.New()
	c.RegisterRoutes(e)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec.Code, resp
}

func ok(context.Context) error   { return nil }
func down(context.Context) error { return errors.New("connection refused") }

func TestChecker(t *testing.T) {
	t.Run("liveness is always healthy", func(t *testing.T) {
		c := NewChecker("1.0.0")
		c.AddCheck("redis", down, true)

		code, resp := serve(t, c, "/api/v1/health/live")
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, StatusHealthy, resp.Status)
		assert.Equal(t, "1.0.0", resp.Version)
	})

	t.Run("not ready during startup", func(t *testing.T) {
		c := NewChecker("1.0.0")

		code, resp := serve(t, c, "/api/v1/health/ready")
		assert.Equal(t, http.StatusServiceUnavailable, code)
		assert.Contains(t, resp.Checks, "startup")
	})

	t.Run("ready when checks pass", func(t *testing.T) {
		c := NewChecker("1.0.0")
		c.AddCheck("redis", ok, false)
		c.SetReady(true)

		code, resp := serve(t, c, "/api/v1/health/ready")
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, StatusHealthy, resp.Status)
		assert.Equal(t, StatusHealthy, resp.Checks["redis"].Status)
	})

	t.Run("non critical failure degrades", func(t *testing.T) {
		c := NewChecker("1.0.0")
		c.AddCheck("redis", down, false)
		c.AddCheck("kafka_consumer", ok, true)

		code, resp := serve(t, c, "/api/v1/health")
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, StatusDegraded, resp.Status)
		assert.Equal(t, "connection refused", resp.Checks["redis"].Message)
	})

	t.Run("critical failure is unhealthy", func(t *testing.T) {
		c := NewChecker("1.0.0")
		c.AddCheck("redis", down, false)
		c.AddCheck("kafka_consumer", down, true)

		code, resp := serve(t, c, "/api/v1/health")
		assert.Equal(t, http.StatusServiceUnavailable, code)
		assert.Equal(t, StatusUnhealthy, resp.Status)
	})
}
