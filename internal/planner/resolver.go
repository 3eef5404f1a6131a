package planner

import (
	"context"
	"time"

	"go.uber.org/zap"

	"fleetroute/internal/geo"
	"fleetroute/internal/model"
	"fleetroute/internal/routing"
)

// routeMetrics are the resolved totals and geometry for an ordered route.
type routeMetrics struct {
	Polyline             string
	TotalDistanceMeters  float64
	TotalDurationSeconds float64
	UsedLiveTraffic      bool
	Warnings             []string
}

// Resolver turns an ordered waypoint sequence into totals and geometry.
// When the provider's native solver already answered for the same sequence,
// its result is reused instead of issuing a second call.
type Resolver struct {
	provider routing.Provider
	log      *zap.Logger
}

func NewResolver(provider routing.Provider, log *zap.Logger) *Resolver {
	return &Resolver{provider: provider, log: log}
}

// Resolve computes the metrics for req visited in the given order. stops,
// when non-nil, is the native solver result that produced the order.
func (r *Resolver) Resolve(ctx context.Context, req model.RouteRequest, ordered []model.OrderedWaypoint, stops *routing.StopsResult) (routeMetrics, error) {
	if stops != nil {
		return routeMetrics{
			Polyline:             stops.Polyline,
			TotalDistanceMeters:  stops.TotalDistanceMeters,
			TotalDurationSeconds: stops.TotalDurationSeconds,
			UsedLiveTraffic:      stops.UsedTraffic,
			Warnings:             stops.Warnings,
		}, nil
	}

	departAt := time.Now()
	if req.DepartureTime != nil {
		departAt = *req.DepartureTime
	}
	route, err := r.provider.GetRoute(ctx, *req.Origin, *req.Destination, ordered, departAt)
	if err != nil {
		return routeMetrics{}, err
	}

	var m routeMetrics
	m.Polyline = route.Polyline
	for _, leg := range route.Legs {
		m.TotalDistanceMeters += leg.DistanceMeters
		m.TotalDurationSeconds += leg.DurationSeconds
		if leg.UsedTraffic {
			m.UsedLiveTraffic = true
		}
	}
	if m.Polyline == "" {
		// Providers occasionally omit overview geometry on long routes.
		// A straight-line polyline through the stops keeps map rendering
		// and deviation registration working.
		m.Polyline = geo.EncodePolyline(sequencePoints(req, ordered))
		m.Warnings = append(m.Warnings, "polyline synthesized from stop sequence")
	}
	return m, nil
}

func sequencePoints(req model.RouteRequest, ordered []model.OrderedWaypoint) []geo.Point {
	points := make([]geo.Point, 0, len(ordered)+2)
	points = append(points, geo.Point{Lat: req.Origin.Lat, Lng: req.Origin.Lng})
	for _, w := range ordered {
		points = append(points, geo.Point{Lat: w.Lat, Lng: w.Lng})
	}
	points = append(points, geo.Point{Lat: req.Destination.Lat, Lng: req.Destination.Lng})
	return points
}
