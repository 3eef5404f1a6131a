package planner

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"fleetroute/internal/geo"
	"fleetroute/internal/model"
	"fleetroute/internal/routing"
)

// nativeSolverMaxWaypoints is the largest stop count the provider's own
// optimizer accepts in one call. Larger sets are ordered locally.
const nativeSolverMaxWaypoints = 25

// Orderer decides the visiting sequence of waypoints. Small sets are
// delegated to the provider's native solver; larger sets use a
// nearest-neighbor construction refined by 2-opt.
type Orderer struct {
	provider routing.Provider
	log      *zap.Logger
}

func NewOrderer(provider routing.Provider, log *zap.Logger) *Orderer {
	return &Orderer{provider: provider, log: log}
}

// Order returns the waypoints in visiting sequence with Order values 1..N.
// When the provider's native solver was used, its result is returned too so
// the caller can reuse the totals without a second provider call. The
// boolean reports whether the local heuristic ordered the set.
func (o *Orderer) Order(ctx context.Context, req model.RouteRequest) ([]model.OrderedWaypoint, *routing.StopsResult, bool, error) {
	if len(req.Waypoints) > nativeSolverMaxWaypoints {
		o.log.Debug("ordering locally",
			zap.Int("waypoints", len(req.Waypoints)),
			zap.Int("native_max", nativeSolverMaxWaypoints))
		return orderHeuristic(*req.Origin, *req.Destination, req.Waypoints), nil, true, nil
	}

	departAt := time.Now()
	if req.DepartureTime != nil {
		departAt = *req.DepartureTime
	}
	stops, err := o.provider.OptimizeStops(ctx, *req.Origin, *req.Destination, req.Waypoints, departAt)
	if err != nil {
		return nil, nil, false, err
	}
	ordered, err := applyWaypointOrder(req.Waypoints, stops.WaypointOrder)
	if err != nil {
		return nil, nil, false, err
	}
	return ordered, stops, false, nil
}

// applyWaypointOrder maps the provider's index permutation back onto the
// request waypoints.
func applyWaypointOrder(waypoints []model.Waypoint, order []int) ([]model.OrderedWaypoint, error) {
	if len(order) != len(waypoints) {
		return nil, &routing.ProviderError{Status: "BAD_WAYPOINT_ORDER"}
	}
	ordered := make([]model.OrderedWaypoint, len(order))
	seen := make([]bool, len(waypoints))
	for pos, idx := range order {
		if idx < 0 || idx >= len(waypoints) {
			return nil, &routing.ProviderError{Status: fmt.Sprintf("BAD_WAYPOINT_ORDER_INDEX_%d", idx)}
		}
		// A repeated index would drop one waypoint and visit another twice.
		if seen[idx] {
			return nil, &routing.ProviderError{Status: "BAD_WAYPOINT_ORDER"}
		}
		seen[idx] = true
		w := waypoints[idx]
		ordered[pos] = model.OrderedWaypoint{ID: w.ID, Lat: w.Lat, Lng: w.Lng, Order: pos + 1}
	}
	return ordered, nil
}

// orderHeuristic orders waypoints as an open path between the fixed origin
// and destination. Construction is nearest-neighbor from the origin;
// refinement is 2-opt with strict improvement, repeated until one full pass
// reverses nothing. Both phases compare squared planar degree distances,
// which preserve ordering at city scale and skip the trig of great-circle
// math.
func orderHeuristic(origin, destination model.LatLng, waypoints []model.Waypoint) []model.OrderedWaypoint {
	path := nearestNeighbor(geo.Point{Lat: origin.Lat, Lng: origin.Lng}, waypoints)
	twoOpt(geo.Point{Lat: origin.Lat, Lng: origin.Lng}, geo.Point{Lat: destination.Lat, Lng: destination.Lng}, path)

	ordered := make([]model.OrderedWaypoint, len(path))
	for i, w := range path {
		ordered[i] = model.OrderedWaypoint{ID: w.ID, Lat: w.Lat, Lng: w.Lng, Order: i + 1}
	}
	return ordered
}

func waypointPoint(w model.Waypoint) geo.Point {
	return geo.Point{Lat: w.Lat, Lng: w.Lng}
}

// nearestNeighbor builds an initial path by repeatedly visiting the closest
// unvisited waypoint, starting from the origin.
func nearestNeighbor(start geo.Point, waypoints []model.Waypoint) []model.Waypoint {
	remaining := make([]model.Waypoint, len(waypoints))
	copy(remaining, waypoints)

	path := make([]model.Waypoint, 0, len(waypoints))
	current := start
	for len(remaining) > 0 {
		best := 0
		bestDist := geo.SquaredDegreeDistance(current, waypointPoint(remaining[0]))
		for i := 1; i < len(remaining); i++ {
			if d := geo.SquaredDegreeDistance(current, waypointPoint(remaining[i])); d < bestDist {
				best, bestDist = i, d
			}
		}
		next := remaining[best]
		path = append(path, next)
		current = waypointPoint(next)
		remaining = append(remaining[:best], remaining[best+1:]...)
	}
	return path
}

// twoOpt refines the path in place. Endpoints are fixed: index -1 stands
// for the origin and index len(path) for the destination, so the edges
// into the first waypoint and out of the last participate in swaps but the
// terminals never move.
func twoOpt(origin, destination geo.Point, path []model.Waypoint) {
	at := func(i int) geo.Point {
		switch {
		case i < 0:
			return origin
		case i >= len(path):
			return destination
		default:
			return waypointPoint(path[i])
		}
	}

	improved := true
	for improved {
		improved = false
		for i := -1; i < len(path)-1; i++ {
			for j := i + 2; j < len(path); j++ {
				current := geo.SquaredDegreeDistance(at(i), at(i+1)) + geo.SquaredDegreeDistance(at(j), at(j+1))
				swapped := geo.SquaredDegreeDistance(at(i), at(j)) + geo.SquaredDegreeDistance(at(i+1), at(j+1))
				if swapped < current {
					reverse(path[i+1 : j+1])
					improved = true
				}
			}
		}
	}
}

func reverse(s []model.Waypoint) {
	for l, r := 0, len(s)-1; l < r; l, r = l+1, r-1 {
		s[l], s[r] = s[r], s[l]
	}
}
