// Package api exposes the engine over HTTP and WebSocket.
package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	redis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"fleetroute/internal/cache"
	"fleetroute/internal/config"
	"fleetroute/internal/deviation"
	"fleetroute/internal/metrics"
	"fleetroute/internal/planner"
	"fleetroute/internal/routing"
	"fleetroute/internal/throttle"
)

// Server holds the wired engine behind the HTTP handlers.
type Server struct {
	Planner  *planner.Planner
	Registry *RouteRegistry

	thresholdMeters float64
	log             *zap.Logger

	rdb *redis.Client
	pg  *cache.PostgresStore
}

// NewServer wires the engine from configuration. Cache storage prefers
// Postgres, then Redis, then process memory; throttling shares the Redis
// connection when one exists so replicas count against one window.
func NewServer(ctx context.Context, cfg config.Config, log *zap.Logger) (*Server, error) {
	provider, err := routing.NewGoogleClient(cfg.GoogleMapsAPIKey, cfg.ProviderTimeout, log,
		routing.WithQPS(cfg.ProviderQPS))
	if err != nil {
		return nil, err
	}

	s := &Server{
		Registry:        NewRouteRegistry(),
		thresholdMeters: cfg.DeviationThresholdMeters,
		log:             log,
	}

	if strings.TrimSpace(cfg.RedisURL) != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		s.rdb = redis.NewClient(opts)
	}

	var store cache.Store
	switch {
	case strings.TrimSpace(cfg.DatabaseURL) != "":
		pg, err := cache.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := pg.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		s.pg = pg
		store = pg
		log.Info("optimization cache backed by postgres")
	case s.rdb != nil:
		store = cache.NewRedisStore(s.rdb, cfg.CacheTTL)
		log.Info("optimization cache backed by redis")
	default:
		store = cache.NewMemoryStore()
		log.Info("optimization cache in process memory")
	}

	var limiter throttle.Limiter
	if s.rdb != nil {
		limiter = throttle.NewRedisLimiter(s.rdb, cfg.ThrottleWindow, cfg.ThrottleLimit)
	} else {
		limiter = throttle.NewFixedWindow(cfg.ThrottleWindow, cfg.ThrottleLimit)
	}

	s.Planner = planner.New(provider, cache.New(store, cfg.CacheTTL, log), limiter, log)
	return s, nil
}

// NewServerWith wires a Server from already built collaborators (tests).
func NewServerWith(p *planner.Planner, thresholdMeters float64, log *zap.Logger) *Server {
	if thresholdMeters <= 0 {
		thresholdMeters = deviation.DefaultThresholdMeters
	}
	return &Server{
		Planner:         p,
		Registry:        NewRouteRegistry(),
		thresholdMeters: thresholdMeters,
		log:             log,
	}
}

// Close releases backing connections.
func (s *Server) Close() {
	if s.pg != nil {
		s.pg.Close()
	}
	if s.rdb != nil {
		_ = s.rdb.Close()
	}
}

// Routes builds the HTTP mux.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/v1/routes/optimize", s.OptimizeHandler)
	mux.HandleFunc("/v1/routes/", s.RouteByIDHandler) // includes /locations
	mux.HandleFunc("/v1/eta", s.ETAHandler)

	mux.HandleFunc("/v1/deviation/check", s.DeviationCheckHandler)
	mux.HandleFunc("/v1/deviation/batch", s.DeviationBatchHandler)
	mux.HandleFunc("/v1/trajectory/analyze", s.TrajectoryHandler)

	mux.HandleFunc("/v1/telemetry/ws", s.TelemetryWSHandler)

	mux.HandleFunc("/healthz", s.HealthHandler)
	mux.HandleFunc("/readyz", s.ReadyHandler)
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	return mux
}

// callerID identifies the caller for throttling and cache scoping. The
// header wins over the body so gateways can stamp identity.
func callerID(r *http.Request, bodyCallerID string) string {
	if v := r.Header.Get("X-Caller-Id"); v != "" {
		return v
	}
	return bodyCallerID
}
