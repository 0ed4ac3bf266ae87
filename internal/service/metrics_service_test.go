package service

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsServiceExposesCollectors(t *testing.T) {
	metrics := NewMetricsService()
	metrics.ObserveHTTPRequest(http.MethodGet, "/api/students/:id", http.StatusOK, 15*time.Millisecond)
	metrics.ObserveDBQuery("report_attendance", time.Millisecond)
	metrics.RecordExport("attendance", "csv")
	metrics.RecordUpload("stored")

	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.requestTotal.WithLabelValues("GET", "/api/students/:id", "200")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.reportExports.WithLabelValues("attendance", "csv")))

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "edumanage_http_requests_total"))
	assert.True(t, strings.Contains(body, "edumanage_db_query_duration_seconds"))
	assert.True(t, strings.Contains(body, "edumanage_profile_uploads_total"))
}

func TestMetricsServiceNilSafe(t *testing.T) {
	var metrics *MetricsService
	metrics.ObserveHTTPRequest(http.MethodGet, "/", http.StatusOK, time.Millisecond)
	metrics.RecordCacheLookup(true, time.Millisecond)
	metrics.RecordExport("attendance", "pdf")
	assert.Nil(t, metrics.Registry())

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
