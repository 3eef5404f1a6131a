package model

import "time"

// LatLng is a WGS84 coordinate pair in degrees.
type LatLng struct {
	Lat float64 `json:"lat" validate:"latitude"`
	Lng float64 `json:"lng" validate:"longitude"`
}

// Waypoint is an intermediate stop to be visited between origin and
// destination. The ID is opaque to the engine.
type Waypoint struct {
	ID  string  `json:"id" validate:"required"`
	Lat float64 `json:"lat" validate:"latitude"`
	Lng float64 `json:"lng" validate:"longitude"`
}

// RouteRequest is one optimization request. Origin and destination are
// pointers so that a missing field is distinguishable from (0,0).
type RouteRequest struct {
	CallerID      string     `json:"callerId" validate:"required"`
	Origin        *LatLng    `json:"origin" validate:"required"`
	Destination   *LatLng    `json:"destination" validate:"required"`
	Waypoints     []Waypoint `json:"waypoints" validate:"required,min=1,dive"`
	DepartureTime *time.Time `json:"departureTime,omitempty"`
}

// OrderedWaypoint is a waypoint with its assigned visiting position (1..N).
type OrderedWaypoint struct {
	ID    string  `json:"id"`
	Lat   float64 `json:"lat"`
	Lng   float64 `json:"lng"`
	Order int     `json:"order"`
}

// OptimizedRoute is the result of one optimization. The id-multiset of
// Ordered equals the id-multiset of the request waypoints and Order values
// are a contiguous permutation of 1..N.
type OptimizedRoute struct {
	RouteID              string            `json:"routeId"`
	Ordered              []OrderedWaypoint `json:"ordered"`
	Polyline             string            `json:"polyline"`
	TotalDistanceMeters  float64           `json:"totalDistanceMeters"`
	TotalDurationSeconds float64           `json:"totalDurationSeconds"`
	UsedLiveTraffic      bool              `json:"usedLiveTraffic"`
	UsedHeuristic        bool              `json:"usedHeuristic"`
	Warnings             []string          `json:"warnings,omitempty"`
}

// RoutePolylinePoint is one point of the planned path used as the deviation
// reference. Points must be sorted by Order before use.
type RoutePolylinePoint struct {
	Lat   float64 `json:"lat"`
	Lng   float64 `json:"lng"`
	Order int     `json:"order"`
}

// VehicleSample is one telemetry reading. Speed is nil when the device did
// not report it.
type VehicleSample struct {
	VehicleID            string    `json:"vehicleId"`
	Lat                  float64   `json:"lat"`
	Lng                  float64   `json:"lng"`
	SpeedMetersPerSecond *float64  `json:"speedMetersPerSecond"`
	RouteID              string    `json:"routeId"`
	Timestamp            time.Time `json:"timestamp"`
}

// DeviationResult reports whether a sample is off the planned path.
// NearestSegmentIndex is nil when no segment was evaluated.
type DeviationResult struct {
	IsDeviated          bool    `json:"isDeviated"`
	DistanceMeters      float64 `json:"distanceMeters"`
	ThresholdMeters     float64 `json:"thresholdMeters"`
	NearestSegmentIndex *int    `json:"nearestSegmentIndex,omitempty"`
}
