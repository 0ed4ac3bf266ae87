package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edumanage-api/internal/service"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) PingContext(ctx context.Context) error { return f(ctx) }

func TestHealthHandlerReady(t *testing.T) {
	h := NewHealthHandler(nil, pingerFunc(func(ctx context.Context) error { return nil }))

	c, w := newGinContext(http.MethodGet, "/ready", nil)
	h.Ready(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"database":"up"`)
}

func TestHealthHandlerReadyDatabaseDown(t *testing.T) {
	h := NewHealthHandler(nil, pingerFunc(func(ctx context.Context) error { return errors.New("connection refused") }))

	c, w := newGinContext(http.MethodGet, "/ready", nil)
	h.Ready(c)

	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	require.Contains(t, w.Body.String(), "connection refused")
}

func TestHealthHandlerHealth(t *testing.T) {
	h := NewHealthHandler(nil, nil)

	c, w := newGinContext(http.MethodGet, "/health", nil)
	h.Health(c)

	require.Equal(t, http.StatusOK, w.Code)
}

func TestHealthHandlerPrometheus(t *testing.T) {
	metrics := service.NewMetricsService()
	metrics.ObserveHTTPRequest(http.MethodGet, "/api/students", http.StatusOK, 0)
	h := NewHealthHandler(metrics, nil)

	c, w := newGinContext(http.MethodGet, "/metrics", nil)
	h.Prometheus(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "edumanage_http_requests_total")
}

func TestHealthHandlerPrometheusDisabled(t *testing.T) {
	h := NewHealthHandler(nil, nil)

	c, w := newGinContext(http.MethodGet, "/metrics", nil)
	h.Prometheus(c)

	require.Equal(t, http.StatusServiceUnavailable, w.Code)
}
