// Package observability provides metrics and HTTP instrumentation.
package observability

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus metrics this repository exposes: HTTP
// surface metrics for internal/api, and routing-kernel metrics recorded by
// its callers (internal/liveloop, internal/api) — never by internal/cgr
// itself, which stays free of ambient-stack imports.
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPResponseSize    *prometheus.HistogramVec

	CGRSearchesTotal          *prometheus.CounterVec
	CGRSearchDuration         *prometheus.HistogramVec
	CGRRoutesFoundTotal       *prometheus.CounterVec
	CGRLiveLoopTicksTotal     prometheus.Counter
	CGRLiveLoopActiveContacts prometheus.Gauge
}

var (
	globalMetrics *Metrics
	metricsOnce   sync.Once
)

// GetMetrics returns the global metrics instance.
func GetMetrics() *Metrics {
	metricsOnce.Do(func() {
		globalMetrics = initializeMetrics()
	})
	return globalMetrics
}

func initializeMetrics() *Metrics {
	m := &Metrics{}

	m.HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cgr",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	m.HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "cgr",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	m.HTTPResponseSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "cgr",
			Subsystem: "http",
			Name:      "response_size_bytes",
			Help:      "HTTP response size in bytes",
			Buckets:   prometheus.ExponentialBuckets(100, 2, 12),
		},
		[]string{"endpoint"},
	)

	m.CGRSearchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cgr",
			Subsystem: "search",
			Name:      "searches_total",
			Help:      "Total planning searches run, by algorithm",
		},
		[]string{"algorithm"},
	)

	m.CGRSearchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "cgr",
			Subsystem: "search",
			Name:      "duration_seconds",
			Help:      "Planning search wall-clock duration in seconds",
			Buckets:   []float64{.00001, .00005, .0001, .0005, .001, .005, .01, .05, .1, .5, 1},
		},
		[]string{"algorithm"},
	)

	m.CGRRoutesFoundTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cgr",
			Subsystem: "search",
			Name:      "routes_found_total",
			Help:      "Total routes returned with found=true, by algorithm",
		},
		[]string{"algorithm"},
	)

	m.CGRLiveLoopTicksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "cgr",
			Subsystem: "liveloop",
			Name:      "ticks_total",
			Help:      "Total live-loop ticks executed",
		},
	)

	m.CGRLiveLoopActiveContacts = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "cgr",
			Subsystem: "liveloop",
			Name:      "active_contacts",
			Help:      "Number of contacts active at the current simulated clock",
		},
	)

	return m
}

// Handler returns the Prometheus HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// HTTPMiddleware wraps an HTTP handler with request metrics collection.
func HTTPMiddleware(next http.Handler) http.Handler {
	m := GetMetrics()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapped := &responseWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start).Seconds()
		endpoint := normalizeEndpoint(r.URL.Path)

		m.HTTPRequestsTotal.WithLabelValues(r.Method, endpoint, statusToStr(wrapped.status)).Inc()
		m.HTTPRequestDuration.WithLabelValues(r.Method, endpoint).Observe(duration)
		m.HTTPResponseSize.WithLabelValues(endpoint).Observe(float64(wrapped.size))
	})
}

// responseWriter wraps http.ResponseWriter to capture status and size.
type responseWriter struct {
	http.ResponseWriter
	status int
	size   int
}

func (w *responseWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *responseWriter) Write(b []byte) (int, error) {
	size, err := w.ResponseWriter.Write(b)
	w.size += size
	return size, err
}

func (w *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("hijacker not supported")
	}
	return hijacker.Hijack()
}

func (w *responseWriter) Flush() {
	if flusher, ok := w.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

// normalizeEndpoint returns the endpoint label for a request path. It
// returns the path unchanged on every branch: paths are not collapsed, so
// each distinct request path, routed or not, gets its own label value.
func normalizeEndpoint(path string) string {
	switch {
	case strings.HasPrefix(path, "/v1/route"):
		return path
	default:
		return path
	}
}

func statusToStr(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	default:
		return "other"
	}
}

// RecordSearch records that a planning search ran under the given
// algorithm name ("dijkstra", "kconsume", "kyen"), its wall-clock duration,
// and whether it found a route.
func RecordSearch(algorithm string, duration time.Duration, found bool) {
	m := GetMetrics()
	m.CGRSearchesTotal.WithLabelValues(algorithm).Inc()
	m.CGRSearchDuration.WithLabelValues(algorithm).Observe(duration.Seconds())
	if found {
		m.CGRRoutesFoundTotal.WithLabelValues(algorithm).Inc()
	}
}

// RecordLiveLoopTick records one live-loop tick and its active-contact
// count.
func RecordLiveLoopTick(activeContacts int) {
	m := GetMetrics()
	m.CGRLiveLoopTicksTotal.Inc()
	m.CGRLiveLoopActiveContacts.Set(float64(activeContacts))
}
