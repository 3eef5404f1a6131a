package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"fleetroute/internal/metrics"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// metricsPath collapses per-resource segments so route ids do not mint one
// label value each.
func metricsPath(path string) string {
	rest, ok := strings.CutPrefix(path, "/v1/routes/")
	if !ok || rest == "" || rest == "optimize" {
		return path
	}
	if strings.HasSuffix(rest, "/locations") {
		return "/v1/routes/{routeId}/locations"
	}
	return "/v1/routes/{routeId}"
}

// WithObservability wraps a handler with request logging and Prometheus
// request metrics. WebSocket upgrades bypass the recorder because hijacked
// connections never write a status.
func WithObservability(log *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Upgrade") == "websocket" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		elapsed := time.Since(start)

		status := strconv.Itoa(rec.status)
		path := metricsPath(r.URL.Path)
		metrics.HTTPRequests.WithLabelValues(r.Method, path, status).Inc()
		metrics.HTTPDuration.WithLabelValues(r.Method, path, status).Observe(elapsed.Seconds())
		log.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("elapsed", elapsed))
	})
}
