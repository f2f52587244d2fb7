// Package metrics exposes Prometheus instruments for the HTTP API and the
// dataset workspace.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/asaidimu/go-tabula/core/workspace"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the instruments registered on one registry.
type Metrics struct {
	Registry        *prometheus.Registry
	RequestTotal    *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	DatasetsLoaded  prometheus.Counter
	DatasetsActive  prometheus.Gauge
	QueriesTotal    *prometheus.CounterVec
	QueryDuration   prometheus.Histogram
}

// New registers every instrument on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		RequestTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tabula_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tabula_http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		DatasetsLoaded: factory.NewCounter(prometheus.CounterOpts{
			Name: "tabula_datasets_loaded_total",
			Help: "Total number of datasets loaded",
		}),
		DatasetsActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "tabula_datasets_active",
			Help: "Number of datasets currently held in the workspace",
		}),
		QueriesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tabula_queries_total",
				Help: "Total number of dataset queries",
			},
			[]string{"status"},
		),
		QueryDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "tabula_query_duration_seconds",
			Help:    "Dataset query latency in seconds",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// Middleware records request count and duration. The path label is the
// matched route template so dataset ids do not explode cardinality.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		m.RequestTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		m.RequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// Observe subscribes the dataset and query instruments to ws events and
// returns a function that removes the subscriptions.
func (m *Metrics) Observe(ws *workspace.Workspace) func() {
	ids := []string{
		ws.Subscribe(workspace.DatasetLoaded, func(_ context.Context, _ workspace.Event) error {
			m.DatasetsLoaded.Inc()
			m.DatasetsActive.Set(float64(len(ws.List())))
			return nil
		}, "metrics"),
		ws.Subscribe(workspace.DatasetRemoved, func(_ context.Context, _ workspace.Event) error {
			m.DatasetsActive.Set(float64(len(ws.List())))
			return nil
		}, "metrics"),
		ws.Subscribe(workspace.QueryExecuted, m.observeQuery("ok"), "metrics"),
		ws.Subscribe(workspace.QueryFailed, m.observeQuery("error"), "metrics"),
	}
	return func() {
		for _, id := range ids {
			ws.Unsubscribe(id)
		}
	}
}

func (m *Metrics) observeQuery(status string) workspace.EventCallback {
	return func(_ context.Context, ev workspace.Event) error {
		m.QueriesTotal.WithLabelValues(status).Inc()
		if ev.Duration != nil {
			m.QueryDuration.Observe(float64(*ev.Duration) / 1000)
		}
		return nil
	}
}
