package api

import (
	"sync"
	"time"

	"fleetroute/internal/geo"
	"fleetroute/internal/model"
)

// LatestLocation holds the latest known position of a vehicle on a route.
// HeadingDegrees is the bearing from the previous position (0 north, 90
// east), carried over while the vehicle stands still.
type LatestLocation struct {
	RouteID              string    `json:"routeId"`
	VehicleID            string    `json:"vehicleId"`
	Lat                  float64   `json:"lat"`
	Lng                  float64   `json:"lng"`
	SpeedMetersPerSecond *float64  `json:"speedMetersPerSecond,omitempty"`
	HeadingDegrees       float64   `json:"headingDegrees"`
	Timestamp            time.Time `json:"timestamp"`
}

// RouteRegistry holds active planned routes as deviation references plus
// the latest vehicle location per route/vehicle. Everything is in-process;
// registered routes only need to outlive the trips driving them.
type RouteRegistry struct {
	mu     sync.Mutex
	routes map[string][]model.RoutePolylinePoint
	// key: routeId|vehicleId
	locations map[string]LatestLocation
}

func NewRouteRegistry() *RouteRegistry {
	return &RouteRegistry{
		routes:    map[string][]model.RoutePolylinePoint{},
		locations: map[string]LatestLocation{},
	}
}

// RegisterRoute stores the planned path for a route id, decoding the
// polyline into ordered reference points.
func (r *RouteRegistry) RegisterRoute(routeID, polyline string) error {
	points, err := geo.DecodePolyline(polyline)
	if err != nil {
		return err
	}
	path := make([]model.RoutePolylinePoint, len(points))
	for i, p := range points {
		path[i] = model.RoutePolylinePoint{Lat: p.Lat, Lng: p.Lng, Order: i + 1}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes[routeID] = path
	return nil
}

// RegisterRoutePoints stores an already decoded planned path.
func (r *RouteRegistry) RegisterRoutePoints(routeID string, points []model.RoutePolylinePoint) {
	if routeID == "" || len(points) == 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes[routeID] = points
}

// Route returns the planned path for a route id.
func (r *RouteRegistry) Route(routeID string) ([]model.RoutePolylinePoint, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	points, ok := r.routes[routeID]
	return points, ok
}

// Routes returns a snapshot of all registered planned paths.
func (r *RouteRegistry) Routes() map[string][]model.RoutePolylinePoint {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string][]model.RoutePolylinePoint, len(r.routes))
	for id, points := range r.routes {
		out[id] = points
	}
	return out
}

func (r *RouteRegistry) locationKey(routeID, vehicleID string) string {
	return routeID + "|" + vehicleID
}

// UpsertLocation stores or updates the latest position of a vehicle.
func (r *RouteRegistry) UpsertLocation(sample model.VehicleSample) {
	if sample.RouteID == "" || sample.VehicleID == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	key := r.locationKey(sample.RouteID, sample.VehicleID)
	loc := LatestLocation{
		RouteID:              sample.RouteID,
		VehicleID:            sample.VehicleID,
		Lat:                  sample.Lat,
		Lng:                  sample.Lng,
		SpeedMetersPerSecond: sample.SpeedMetersPerSecond,
		Timestamp:            sample.Timestamp,
	}
	if prev, ok := r.locations[key]; ok {
		if prev.Lat != sample.Lat || prev.Lng != sample.Lng {
			loc.HeadingDegrees = geo.Heading(
				geo.Point{Lat: prev.Lat, Lng: prev.Lng},
				geo.Point{Lat: sample.Lat, Lng: sample.Lng},
			)
		} else {
			loc.HeadingDegrees = prev.HeadingDegrees
		}
	}
	r.locations[key] = loc
}

// ListLocationsByRoute returns the latest vehicle locations on a route.
func (r *RouteRegistry) ListLocationsByRoute(routeID string) []LatestLocation {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []LatestLocation{}
	prefix := routeID + "|"
	for k, v := range r.locations {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			out = append(out, v)
		}
	}
	return out
}
