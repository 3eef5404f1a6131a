package deviation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleetroute/internal/model"
)

func refRoute() []model.RoutePolylinePoint {
	return []model.RoutePolylinePoint{
		{Lat: -19.916681, Lng: -43.934493, Order: 1},
		{Lat: -19.917681, Lng: -43.935493, Order: 2},
		{Lat: -19.918681, Lng: -43.936493, Order: 3},
	}
}

func speed(v float64) *float64 { return &v }

func TestDetectOnRoute(t *testing.T) {
	res := Detect(-19.916681, -43.934493, speed(10), refRoute(), 200)
	assert.False(t, res.IsDeviated)
	assert.Less(t, res.DistanceMeters, 200.0)
	require.NotNil(t, res.NearestSegmentIndex)
}

func TestDetectFarFromRoute(t *testing.T) {
	res := Detect(-19.920681, -43.934493, speed(10), refRoute(), 200)
	assert.True(t, res.IsDeviated)
	assert.Greater(t, res.DistanceMeters, 200.0)
}

func TestDetectStationaryNeverDeviates(t *testing.T) {
	res := Detect(-19.920681, -43.934493, speed(0), refRoute(), 200)
	assert.False(t, res.IsDeviated)

	res = Detect(-19.920681, -43.934493, nil, refRoute(), 200)
	assert.False(t, res.IsDeviated)
	assert.Nil(t, res.NearestSegmentIndex)
}

func TestDetectSlowSpeedNeverDeviates(t *testing.T) {
	res := Detect(-19.920681, -43.934493, speed(1.0), refRoute(), 200)
	assert.False(t, res.IsDeviated)
}

func TestDetectShortRouteNeverDeviates(t *testing.T) {
	single := refRoute()[:1]
	res := Detect(-19.920681, -43.934493, speed(10), single, 200)
	assert.False(t, res.IsDeviated)
	assert.Nil(t, res.NearestSegmentIndex)

	res = Detect(-19.920681, -43.934493, speed(10), nil, 200)
	assert.False(t, res.IsDeviated)
}

func TestDetectDefaultThreshold(t *testing.T) {
	res := Detect(-19.916681, -43.934493, speed(10), refRoute(), 0)
	assert.Equal(t, DefaultThresholdMeters, res.ThresholdMeters)
}

func TestDetectUnsortedRoute(t *testing.T) {
	route := []model.RoutePolylinePoint{
		{Lat: -19.918681, Lng: -43.936493, Order: 3},
		{Lat: -19.916681, Lng: -43.934493, Order: 1},
		{Lat: -19.917681, Lng: -43.935493, Order: 2},
	}
	res := Detect(-19.917181, -43.934993, speed(10), route, 200)
	assert.False(t, res.IsDeviated)
	assert.Less(t, res.DistanceMeters, 100.0)
}

func TestDetectMonotonicity(t *testing.T) {
	// Moving perpendicular away from the path only increases the distance.
	prev := -1.0
	for _, offset := range []float64{0.0005, 0.001, 0.002, 0.004, 0.008} {
		res := Detect(-19.916681+offset, -43.934493, speed(10), refRoute(), 200)
		assert.Greater(t, res.DistanceMeters, prev)
		prev = res.DistanceMeters
	}
}

func TestDetectBatchMixedFleet(t *testing.T) {
	routes := map[string][]model.RoutePolylinePoint{"route-1": refRoute()}
	samples := []model.VehicleSample{
		{VehicleID: "near", Lat: -19.916681, Lng: -43.934493, SpeedMetersPerSecond: speed(10), RouteID: "route-1", Timestamp: time.Now()},
		{VehicleID: "far", Lat: -19.920681, Lng: -43.934493, SpeedMetersPerSecond: speed(10), RouteID: "route-1", Timestamp: time.Now()},
		{VehicleID: "lost", Lat: -19.920681, Lng: -43.934493, SpeedMetersPerSecond: speed(10), RouteID: "route-unknown", Timestamp: time.Now()},
	}

	results := DetectBatch(samples, routes, 200)
	require.Len(t, results, 2)
	assert.False(t, results["near"].IsDeviated)
	assert.True(t, results["far"].IsDeviated)
	_, ok := results["lost"]
	assert.False(t, ok)
}
