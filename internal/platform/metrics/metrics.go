// Package metrics exposes Prometheus instrumentation for the HTTP API and
// the realtime layer, served from a single /metrics endpoint.
package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	WSConnections   prometheus.Gauge
	EventsPublished *prometheus.CounterVec
	EventsDelivered prometheus.Counter
	EventsDropped   prometheus.Counter
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		registry: reg,
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "healthconnect_http_requests_total",
			Help: "HTTP requests by method, path and status code.",
		}, []string{"method", "path", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "healthconnect_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		WSConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "healthconnect_ws_connections",
			Help: "Currently open realtime connections.",
		}),
		EventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "healthconnect_realtime_events_published_total",
			Help: "Realtime events handed to the dispatcher, by event name.",
		}, []string{"event"}),
		EventsDelivered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "healthconnect_realtime_events_delivered_total",
			Help: "Per-connection deliveries that succeeded.",
		}),
		EventsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "healthconnect_realtime_events_dropped_total",
			Help: "Per-connection deliveries that failed and were skipped.",
		}),
	}

	reg.MustRegister(m.HTTPRequests, m.HTTPDuration, m.WSConnections,
		m.EventsPublished, m.EventsDelivered, m.EventsDropped)
	return m
}

// Handler serves the Prometheus text exposition format.
func (m *Metrics) Handler() echo.HandlerFunc {
	h := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return func(c echo.Context) error {
		h.ServeHTTP(c.Response(), c.Request())
		return nil
	}
}

// Middleware records request counts and latencies. The route path (not the
// raw URL) is used as the label to keep cardinality bounded.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			path := c.Path()
			if path == "" {
				path = "unknown"
			}
			method := c.Request().Method
			m.HTTPRequests.WithLabelValues(method, path, strconv.Itoa(c.Response().Status)).Inc()
			m.HTTPDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
			return err
		}
	}
}
