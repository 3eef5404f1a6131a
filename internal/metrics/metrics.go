package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	// Registry is the dedicated Prometheus registry for the API.
	Registry = prometheus.NewRegistry()

	// HTTPRequests counts requests by method, path, and status.
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests."},
		[]string{"method", "path", "status"},
	)
	// HTTPDuration records request durations in seconds.
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"method", "path", "status"},
	)

	// Optimizations counts optimization outcomes (cached, computed, rejected, failed).
	Optimizations = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "route_optimizations_total", Help: "Route optimizations by outcome."},
		[]string{"outcome"},
	)
	// CacheLookups counts optimization cache lookups by result.
	CacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "optimization_cache_lookups_total", Help: "Optimization cache lookups by result."},
		[]string{"result"},
	)
	// DeviationChecks counts deviation evaluations by verdict.
	DeviationChecks = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "deviation_checks_total", Help: "Deviation evaluations by verdict."},
		[]string{"deviated"},
	)
)

// RegisterDefault registers collectors on the dedicated registry.
func RegisterDefault() {
	regOnce.Do(func() {
		Registry.MustRegister(HTTPRequests)
		Registry.MustRegister(HTTPDuration)
		Registry.MustRegister(Optimizations)
		Registry.MustRegister(CacheLookups)
		Registry.MustRegister(DeviationChecks)
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

var regOnce sync.Once
