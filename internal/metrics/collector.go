// Package metrics exposes fleet and alert counters in Prometheus format.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"wildwatch-sim/internal/alert"
	"wildwatch-sim/internal/telemetry"
)

// Collector owns a private registry so tests and multiple sessions never
// collide on the global one. It is fed like any other output writer.
type Collector struct {
	registry *prometheus.Registry

	fleetUpdates  prometheus.Counter
	entities      prometheus.Gauge
	activeCollars prometheus.Gauge
	lowBattery    prometheus.Gauge

	alertsCreated *prometheus.CounterVec
	alertsActive  prometheus.Gauge
	alertsUnread  prometheus.Gauge
	alertsByPrio  *prometheus.GaugeVec

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// NewCollector creates and registers every metric.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		fleetUpdates: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wildwatch_fleet_updates_total",
			Help: "Fleet snapshots published by the simulator",
		}),
		entities: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "wildwatch_entities",
			Help: "Entities in the latest fleet snapshot",
		}),
		activeCollars: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "wildwatch_entities_active",
			Help: "Entities with an active collar",
		}),
		lowBattery: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "wildwatch_entities_low_battery",
			Help: "Entities reporting a battery level below 20 percent",
		}),
		alertsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wildwatch_alerts_created_total",
			Help: "Alerts raised by the rule engine",
		}, []string{"type", "priority"}),
		alertsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "wildwatch_alerts_active",
			Help: "Active alerts",
		}),
		alertsUnread: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "wildwatch_alerts_unread",
			Help: "Active alerts not yet read",
		}),
		alertsByPrio: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "wildwatch_alerts_active_by_priority",
			Help: "Active alerts per priority",
		}, []string{"priority"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wildwatch_http_requests_total",
			Help: "Admin API requests",
		}, []string{"route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "wildwatch_http_request_duration_seconds",
			Help:    "Admin API request latency",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
		}, []string{"route"}),
	}
	c.registry.MustRegister(
		c.fleetUpdates, c.entities, c.activeCollars, c.lowBattery,
		c.alertsCreated, c.alertsActive, c.alertsUnread, c.alertsByPrio,
		c.httpRequests, c.httpDuration,
	)
	return c
}

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Write counts a single row as a one-entity snapshot.
func (c *Collector) Write(row telemetry.EntityRow) error {
	return c.WriteBatch([]telemetry.EntityRow{row})
}

// WriteBatch records one fleet snapshot.
func (c *Collector) WriteBatch(rows []telemetry.EntityRow) error {
	active, low := 0, 0
	for _, r := range rows {
		if r.Active {
			active++
		}
		if r.Battery >= 0 && r.Battery < 20 {
			low++
		}
	}
	c.fleetUpdates.Inc()
	c.entities.Set(float64(len(rows)))
	c.activeCollars.Set(float64(active))
	c.lowBattery.Set(float64(low))
	return nil
}

// WriteAlert counts a raised alert.
func (c *Collector) WriteAlert(a alert.Alert) error {
	c.alertsCreated.WithLabelValues(string(a.Type), string(a.Priority)).Inc()
	return nil
}

// WriteStats mirrors the alert statistics into gauges.
func (c *Collector) WriteStats(s alert.Stats) error {
	c.alertsActive.Set(float64(s.Total))
	c.alertsUnread.Set(float64(s.Unread))
	c.alertsByPrio.WithLabelValues(string(alert.PriorityLow)).Set(float64(s.ByPriority.Low))
	c.alertsByPrio.WithLabelValues(string(alert.PriorityMedium)).Set(float64(s.ByPriority.Medium))
	c.alertsByPrio.WithLabelValues(string(alert.PriorityHigh)).Set(float64(s.ByPriority.High))
	c.alertsByPrio.WithLabelValues(string(alert.PriorityCritical)).Set(float64(s.ByPriority.Critical))
	return nil
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// WrapHandler records request count and latency under route.
func (c *Collector) WrapHandler(route string, h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		h.ServeHTTP(rec, r)
		c.httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
		c.httpRequests.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
	})
}
