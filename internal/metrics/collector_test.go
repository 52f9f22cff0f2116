package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wildwatch-sim/internal/alert"
	"wildwatch-sim/internal/telemetry"
)

func scrape(t *testing.T, c *Collector) string {
	t.Helper()
	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestCollectorFleet(t *testing.T) {
	c := NewCollector()
	rows := []telemetry.EntityRow{
		{EntityID: "a", Active: true, Battery: 80},
		{EntityID: "b", Active: true, Battery: 12},
		{EntityID: "c", Active: false, Battery: -1},
	}
	require.NoError(t, c.WriteBatch(rows))
	body := scrape(t, c)
	assert.Contains(t, body, "wildwatch_entities 3\n")
	assert.Contains(t, body, "wildwatch_entities_active 2\n")
	assert.Contains(t, body, "wildwatch_entities_low_battery 1\n")

	require.NoError(t, c.Write(rows[0]))
	body = scrape(t, c)
	assert.Contains(t, body, "wildwatch_fleet_updates_total 2\n")
	assert.Contains(t, body, "wildwatch_entities 1\n")
	assert.Contains(t, body, "wildwatch_entities_low_battery 0\n")
}

func TestCollectorAlerts(t *testing.T) {
	c := NewCollector()
	require.NoError(t, c.WriteAlert(alert.Alert{Type: alert.TypeFenceBreach, Priority: alert.PriorityHigh}))
	require.NoError(t, c.WriteAlert(alert.Alert{Type: alert.TypeFenceBreach, Priority: alert.PriorityHigh}))
	require.NoError(t, c.WriteStats(alert.Stats{Total: 3, Unread: 2, ByPriority: alert.PriorityCounts{High: 2, Low: 1}}))

	body := scrape(t, c)
	assert.Contains(t, body, `wildwatch_alerts_created_total{priority="high",type="fence_breach"} 2`)
	assert.Contains(t, body, "wildwatch_alerts_active 3\n")
	assert.Contains(t, body, "wildwatch_alerts_unread 2\n")
	assert.Contains(t, body, `wildwatch_alerts_active_by_priority{priority="low"} 1`)
}

func TestWrapHandler(t *testing.T) {
	c := NewCollector()
	h := c.WrapHandler("/missing", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	body := scrape(t, c)
	assert.Contains(t, body, `wildwatch_http_requests_total{route="/missing",status="404"} 1`)
	assert.Contains(t, body, `wildwatch_http_request_duration_seconds_count{route="/missing"} 1`)
}
