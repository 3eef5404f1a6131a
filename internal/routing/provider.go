// Package routing defines the external routing provider boundary. The
// engine never computes road-network distances itself; it delegates to a
// Provider and consumes typed results.
package routing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fleetroute/internal/model"
)

// ErrNotConfigured indicates missing provider credentials or endpoint.
// Callers should fail fast rather than degrade silently.
var ErrNotConfigured = errors.New("routing provider not configured")

// ProviderError is a distinguishable provider failure (non-success API
// status or timeout). Results carrying it must never be cached.
type ProviderError struct {
	Status string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("routing provider error: %s", e.Status)
}

// Leg is one hop of a provider route.
type Leg struct {
	DistanceMeters  float64
	DurationSeconds float64
	UsedTraffic     bool
}

// StopsResult is the provider's native multi-stop optimization answer.
// WaypointOrder is a permutation of input waypoint indices.
type StopsResult struct {
	WaypointOrder        []int
	Polyline             string
	TotalDistanceMeters  float64
	TotalDurationSeconds float64
	UsedTraffic          bool
	Warnings             []string
}

// RouteResult is the provider's answer for a fixed waypoint sequence.
type RouteResult struct {
	Polyline string
	Legs     []Leg
}

// Provider is the external routing service consumed by the engine.
type Provider interface {
	// OptimizeStops asks the provider to order the waypoints itself.
	OptimizeStops(ctx context.Context, origin, destination model.LatLng, waypoints []model.Waypoint, departAt time.Time) (*StopsResult, error)

	// GetRoute resolves path geometry and per-leg metrics for an already
	// ordered sequence.
	GetRoute(ctx context.Context, origin, destination model.LatLng, ordered []model.OrderedWaypoint, departAt time.Time) (*RouteResult, error)
}
