// Package planner is the optimization core: it validates requests,
// enforces per-caller throttling, orders waypoints, resolves route totals
// through the routing provider, and memoizes results behind the cache.
package planner

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"fleetroute/internal/cache"
	"fleetroute/internal/metrics"
	"fleetroute/internal/model"
	"fleetroute/internal/routing"
	"fleetroute/internal/throttle"
)

// Planner coordinates one optimization request end to end.
type Planner struct {
	orderer  *Orderer
	resolver *Resolver
	cache    *cache.Cache
	limiter  throttle.Limiter
	validate *validator.Validate
	log      *zap.Logger
}

func New(provider routing.Provider, c *cache.Cache, limiter throttle.Limiter, log *zap.Logger) *Planner {
	return &Planner{
		orderer:  NewOrderer(provider, log),
		resolver: NewResolver(provider, log),
		cache:    c,
		limiter:  limiter,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		log:      log,
	}
}

// Optimize validates and throttles the request, then returns a cached or
// freshly computed route. Provider failures surface as *routing.ProviderError
// and are never cached; the second return reports a cache hit.
func (p *Planner) Optimize(ctx context.Context, req model.RouteRequest) (model.OptimizedRoute, bool, error) {
	if err := p.validateRequest(req); err != nil {
		metrics.Optimizations.WithLabelValues("rejected").Inc()
		return model.OptimizedRoute{}, false, err
	}

	if p.limiter != nil {
		ok, retryAfter, err := p.limiter.Admit(ctx, req.CallerID)
		if err != nil {
			// Fail open: a broken limiter store must not take route
			// planning down with it.
			p.log.Warn("throttle check failed, admitting", zap.String("caller_id", req.CallerID), zap.Error(err))
		} else if !ok {
			metrics.Optimizations.WithLabelValues("rejected").Inc()
			return model.OptimizedRoute{}, false, &RateLimitError{RetryAfter: retryAfter}
		}
	}

	route, hit, err := p.cache.GetOrCompute(ctx, req.CallerID, req, func(ctx context.Context) (model.OptimizedRoute, error) {
		return p.compute(ctx, req)
	})
	switch {
	case err != nil:
		metrics.Optimizations.WithLabelValues("failed").Inc()
		return model.OptimizedRoute{}, false, err
	case hit:
		metrics.Optimizations.WithLabelValues("cached").Inc()
	default:
		metrics.Optimizations.WithLabelValues("computed").Inc()
	}
	return route, hit, nil
}

func (p *Planner) compute(ctx context.Context, req model.RouteRequest) (model.OptimizedRoute, error) {
	ordered, stops, usedHeuristic, err := p.orderer.Order(ctx, req)
	if err != nil {
		return model.OptimizedRoute{}, err
	}
	m, err := p.resolver.Resolve(ctx, req, ordered, stops)
	if err != nil {
		return model.OptimizedRoute{}, err
	}

	route := model.OptimizedRoute{
		RouteID:              uuid.NewString(),
		Ordered:              ordered,
		Polyline:             m.Polyline,
		TotalDistanceMeters:  m.TotalDistanceMeters,
		TotalDurationSeconds: m.TotalDurationSeconds,
		UsedLiveTraffic:      m.UsedLiveTraffic,
		UsedHeuristic:        usedHeuristic,
		Warnings:             m.Warnings,
	}
	p.log.Info("route computed",
		zap.String("route_id", route.RouteID),
		zap.String("caller_id", req.CallerID),
		zap.Int("waypoints", len(ordered)),
		zap.Bool("heuristic", usedHeuristic),
		zap.Bool("live_traffic", route.UsedLiveTraffic),
		zap.Float64("distance_m", route.TotalDistanceMeters))
	return route, nil
}

func (p *Planner) validateRequest(req model.RouteRequest) error {
	if err := p.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			f := verrs[0]
			return &ValidationError{Reason: fmt.Sprintf("field %s failed %s", f.Namespace(), f.Tag())}
		}
		return &ValidationError{Reason: err.Error()}
	}

	seen := make(map[string]struct{}, len(req.Waypoints))
	for _, w := range req.Waypoints {
		if _, dup := seen[w.ID]; dup {
			return &ValidationError{Reason: fmt.Sprintf("duplicate waypoint id %q", w.ID)}
		}
		seen[w.ID] = struct{}{}
	}
	return nil
}
