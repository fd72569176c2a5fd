package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandlerExposesRecordedMetrics(t *testing.T) {
	m := New()
	m.ObserveRequest("events", http.MethodGet, http.StatusOK, 20*time.Millisecond)
	m.ObserveRequest("events", http.MethodPost, 0, time.Second)
	m.SnapshotPublished(3)
	m.RefreshFailed()

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `gateway_requests_total{code="200",method="GET",resource="events"} 1`)
	assert.Contains(t, body, `gateway_requests_total{code="0",method="POST",resource="events"} 1`)
	assert.Contains(t, body, "catalog_snapshot_version 3")
	assert.Contains(t, body, "catalog_refresh_failures_total 1")
	assert.Contains(t, body, "gateway_request_duration_seconds_bucket")
}
