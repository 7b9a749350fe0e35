package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	errs "github.com/matzehuels/collage/pkg/errors"
	"github.com/matzehuels/collage/pkg/observability"
)

const namespace = "collage"

// Metrics holds the Prometheus collectors for the HTTP layer and the
// pipeline hooks. Each instance owns its registry so tests can create
// several without clashing.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	httpInflight *prometheus.GaugeVec

	layouts         *prometheus.CounterVec
	layoutDuration  prometheus.Histogram
	placedItems     *prometheus.CounterVec
	discoveryItems  *prometheus.CounterVec
	measureDuration *prometheus.HistogramVec
	renders         *prometheus.CounterVec
	renderDuration  prometheus.Histogram
	cacheEvents     *prometheus.CounterVec
}

// NewMetrics creates and registers every collector, including the Go and
// process collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "http", Name: "requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"path", "method", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "http", Name: "request_duration_seconds",
			Help: "Duration of HTTP requests in seconds", Buckets: prometheus.DefBuckets,
		}, []string{"path", "method", "status"}),
		httpInflight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "http", Name: "inflight_requests",
			Help: "In-flight HTTP requests",
		}, []string{"path"}),
		layouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "layout", Name: "runs_total",
			Help: "Layout passes by outcome code (ok on success)",
		}, []string{"code"}),
		layoutDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "layout", Name: "duration_seconds",
			Help:    "Duration of layout passes including size discovery",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 15, 20},
		}),
		placedItems: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "layout", Name: "placed_items_total",
			Help: "Placed items by placement kind",
		}, []string{"kind"}),
		discoveryItems: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "discovery", Name: "items_total",
			Help: "Size discovery outcomes per item",
		}, []string{"outcome"}),
		measureDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "discovery", Name: "measure_duration_seconds",
			Help: "Duration of single image measurements", Buckets: prometheus.DefBuckets,
		}, []string{"source", "result"}),
		renders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "render", Name: "runs_total",
			Help: "Render passes by format set and result",
		}, []string{"formats", "result"}),
		renderDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "render", Name: "duration_seconds",
			Help: "Duration of render passes", Buckets: prometheus.DefBuckets,
		}),
		cacheEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "cache", Name: "events_total",
			Help: "Cache hits, misses and writes by key type",
		}, []string{"key_type", "event"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests, m.httpDuration, m.httpInflight,
		m.layouts, m.layoutDuration, m.placedItems, m.discoveryItems, m.measureDuration,
		m.renders, m.renderDuration, m.cacheEvents,
	)
	return m
}

// Install routes the global observability hooks into m.
func (m *Metrics) Install() {
	observability.SetLayoutHooks(m)
	observability.SetMeasureHooks(m)
	observability.SetRenderHooks(m)
	observability.SetCacheHooks(m)
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware instruments requests.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sr := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		m.httpInflight.WithLabelValues(r.URL.Path).Inc()
		defer m.httpInflight.WithLabelValues(r.URL.Path).Dec()

		next.ServeHTTP(sr, r)

		// The route pattern is only known after routing.
		path := routePatternOrPath(r)
		status := strconv.Itoa(sr.status)
		m.httpRequests.WithLabelValues(path, r.Method, status).Inc()
		m.httpDuration.WithLabelValues(path, r.Method, status).Observe(time.Since(start).Seconds())
	})
}

// OnLayoutStart implements observability.LayoutHooks.
func (m *Metrics) OnLayoutStart(context.Context, int) {}

// OnDiscoveryComplete implements observability.LayoutHooks.
func (m *Metrics) OnDiscoveryComplete(_ context.Context, succeeded, failed, pending int, _ time.Duration) {
	m.discoveryItems.WithLabelValues("succeeded").Add(float64(succeeded))
	m.discoveryItems.WithLabelValues("failed").Add(float64(failed))
	m.discoveryItems.WithLabelValues("pending").Add(float64(pending))
}

// OnLayoutComplete implements observability.LayoutHooks.
func (m *Metrics) OnLayoutComplete(_ context.Context, placed, fallback int, d time.Duration, err error) {
	m.layouts.WithLabelValues(outcome(err)).Inc()
	m.layoutDuration.Observe(d.Seconds())
	if err == nil {
		m.placedItems.WithLabelValues("clustered").Add(float64(placed - fallback))
		m.placedItems.WithLabelValues("fallback").Add(float64(fallback))
	}
}

// OnMeasure implements observability.MeasureHooks.
func (m *Metrics) OnMeasure(_ context.Context, source string, d time.Duration, err error) {
	m.measureDuration.WithLabelValues(source, outcome(err)).Observe(d.Seconds())
}

// OnRenderStart implements observability.RenderHooks.
func (m *Metrics) OnRenderStart(context.Context, []string) {}

// OnRenderComplete implements observability.RenderHooks.
func (m *Metrics) OnRenderComplete(_ context.Context, formats []string, d time.Duration, err error) {
	m.renders.WithLabelValues(joinFormats(formats), outcome(err)).Inc()
	m.renderDuration.Observe(d.Seconds())
}

// OnCacheHit implements observability.CacheHooks.
func (m *Metrics) OnCacheHit(_ context.Context, keyType string) {
	m.cacheEvents.WithLabelValues(keyType, "hit").Inc()
}

// OnCacheMiss implements observability.CacheHooks.
func (m *Metrics) OnCacheMiss(_ context.Context, keyType string) {
	m.cacheEvents.WithLabelValues(keyType, "miss").Inc()
}

// OnCacheSet implements observability.CacheHooks.
func (m *Metrics) OnCacheSet(_ context.Context, keyType string, _ int) {
	m.cacheEvents.WithLabelValues(keyType, "set").Inc()
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	if code := errs.GetCode(err); code != "" {
		return string(code)
	}
	return "error"
}

func joinFormats(formats []string) string {
	out := ""
	for i, f := range formats {
		if i > 0 {
			out += ","
		}
		out += f
	}
	return out
}

var (
	_ observability.LayoutHooks  = (*Metrics)(nil)
	_ observability.MeasureHooks = (*Metrics)(nil)
	_ observability.RenderHooks  = (*Metrics)(nil)
	_ observability.CacheHooks   = (*Metrics)(nil)
)
