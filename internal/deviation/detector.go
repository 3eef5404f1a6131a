// Package deviation decides whether vehicles have departed from their
// planned paths. Detection is pure computation over one telemetry sample
// and a planned polyline; it never errors, and degenerate input resolves
// to "not deviated" so incomplete telemetry cannot raise false alerts.
package deviation

import (
	"sort"

	"fleetroute/internal/geo"
	"fleetroute/internal/model"
)

const (
	// DefaultThresholdMeters is the allowed perpendicular distance from
	// the planned path.
	DefaultThresholdMeters = 200.0

	// MinMovingSpeed is the speed in m/s (about 5 km/h) below which a
	// vehicle is treated as stationary. Parked or idling vehicles are not
	// held to path conformance.
	MinMovingSpeed = 1.4
)

// Detect evaluates one position/speed sample against a planned route.
// Routes with fewer than two points, and stationary or speed-less samples,
// are never deviated.
func Detect(lat, lng float64, speed *float64, route []model.RoutePolylinePoint, thresholdMeters float64) model.DeviationResult {
	if thresholdMeters <= 0 {
		thresholdMeters = DefaultThresholdMeters
	}
	result := model.DeviationResult{ThresholdMeters: thresholdMeters}

	if len(route) < 2 {
		return result
	}
	if speed == nil || *speed < MinMovingSpeed {
		return result
	}

	sorted := make([]model.RoutePolylinePoint, len(route))
	copy(sorted, route)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Order < sorted[j].Order })

	p := geo.Point{Lat: lat, Lng: lng}
	minDistance := -1.0
	nearest := 0
	for i := 0; i < len(sorted)-1; i++ {
		a := geo.Point{Lat: sorted[i].Lat, Lng: sorted[i].Lng}
		b := geo.Point{Lat: sorted[i+1].Lat, Lng: sorted[i+1].Lng}
		d := geo.DistancePointToSegment(p, a, b)
		if minDistance < 0 || d < minDistance {
			minDistance = d
			nearest = i
		}
	}

	result.DistanceMeters = minDistance
	result.NearestSegmentIndex = &nearest
	result.IsDeviated = minDistance > thresholdMeters
	return result
}

// DetectBatch evaluates a fleet snapshot. Samples whose route is unknown
// are skipped: a vehicle without a planned path cannot be judged for
// conformance. Samples are independent, so results do not interact.
func DetectBatch(samples []model.VehicleSample, routesByRouteID map[string][]model.RoutePolylinePoint, thresholdMeters float64) map[string]model.DeviationResult {
	results := make(map[string]model.DeviationResult, len(samples))
	for _, s := range samples {
		route, ok := routesByRouteID[s.RouteID]
		if !ok {
			continue
		}
		results[s.VehicleID] = Detect(s.Lat, s.Lng, s.SpeedMetersPerSecond, route, thresholdMeters)
	}
	return results
}
