package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHaversineKnownDistances(t *testing.T) {
	// One degree of longitude at the equator.
	d := Haversine(Point{Lat: 0, Lng: 0}, Point{Lat: 0, Lng: 1})
	assert.InDelta(t, 111195, d, 5)

	assert.Zero(t, Haversine(Point{Lat: -19.9, Lng: -43.9}, Point{Lat: -19.9, Lng: -43.9}))

	// Symmetry.
	a := Point{Lat: -19.916681, Lng: -43.934493}
	b := Point{Lat: -19.918681, Lng: -43.936493}
	assert.InDelta(t, Haversine(a, b), Haversine(b, a), 1e-9)
}

func TestDistancePointToSegmentOnSegment(t *testing.T) {
	a := Point{Lat: 0, Lng: 0}
	b := Point{Lat: 0, Lng: 1}

	d := DistancePointToSegment(Point{Lat: 0, Lng: 0.5}, a, b)
	assert.Less(t, d, 1.0)

	// Coincides with an endpoint.
	assert.Zero(t, DistancePointToSegment(a, a, b))
}

func TestDistancePointToSegmentPerpendicular(t *testing.T) {
	a := Point{Lat: 0, Lng: 0}
	b := Point{Lat: 0, Lng: 1}

	// 0.001 degrees of latitude is about 111 m.
	d := DistancePointToSegment(Point{Lat: 0.001, Lng: 0.5}, a, b)
	assert.InDelta(t, 111, d, 3)
}

func TestDistancePointToSegmentBeyondEndpoint(t *testing.T) {
	a := Point{Lat: 0, Lng: 0}
	b := Point{Lat: 0, Lng: 1}

	// Projection falls past b; the answer is the distance to b.
	d := DistancePointToSegment(Point{Lat: 0, Lng: 2}, a, b)
	assert.InDelta(t, Haversine(Point{Lat: 0, Lng: 2}, b), d, 1)

	// Projection falls before a.
	d = DistancePointToSegment(Point{Lat: 0, Lng: -1}, a, b)
	assert.InDelta(t, Haversine(Point{Lat: 0, Lng: -1}, a), d, 1)
}

func TestDistancePointToSegmentDegenerate(t *testing.T) {
	a := Point{Lat: -19.916681, Lng: -43.934493}
	p := Point{Lat: -19.920681, Lng: -43.934493}

	// Zero-length segment collapses to point distance.
	d := DistancePointToSegment(p, a, a)
	assert.InDelta(t, Haversine(p, a), d, 1e-9)
}

func TestPathDistance(t *testing.T) {
	points := []Point{
		{Lat: 0, Lng: 0},
		{Lat: 0, Lng: 1},
		{Lat: 0, Lng: 2},
	}
	assert.InDelta(t, 2*111195, PathDistance(points), 10)
	assert.Zero(t, PathDistance(points[:1]))
	assert.Zero(t, PathDistance(nil))
}

func TestHeading(t *testing.T) {
	assert.InDelta(t, 0, Heading(Point{Lat: 0, Lng: 0}, Point{Lat: 1, Lng: 0}), 0.1)
	assert.InDelta(t, 90, Heading(Point{Lat: 0, Lng: 0}, Point{Lat: 0, Lng: 1}), 0.1)
	assert.InDelta(t, 180, Heading(Point{Lat: 1, Lng: 0}, Point{Lat: 0, Lng: 0}), 0.1)
	assert.InDelta(t, 270, Heading(Point{Lat: 0, Lng: 1}, Point{Lat: 0, Lng: 0}), 0.1)
}

func TestSquaredDegreeDistanceOrderingAgreement(t *testing.T) {
	origin := Point{Lat: -19.91, Lng: -43.93}
	near := Point{Lat: -19.92, Lng: -43.94}
	far := Point{Lat: -19.99, Lng: -43.99}

	assert.Less(t, SquaredDegreeDistance(origin, near), SquaredDegreeDistance(origin, far))
	assert.Less(t, Haversine(origin, near), Haversine(origin, far))
}

func TestPolylineRoundTrip(t *testing.T) {
	points := []Point{
		{Lat: -19.916681, Lng: -43.934493},
		{Lat: -19.917681, Lng: -43.935493},
		{Lat: -19.918681, Lng: -43.936493},
	}
	encoded := EncodePolyline(points)
	require.NotEmpty(t, encoded)

	decoded, err := DecodePolyline(encoded)
	require.NoError(t, err)
	require.Len(t, decoded, len(points))
	for i := range points {
		assert.InDelta(t, points[i].Lat, decoded[i].Lat, 1e-5)
		assert.InDelta(t, points[i].Lng, decoded[i].Lng, 1e-5)
	}
}

func TestDecodePolylineInvalid(t *testing.T) {
	_, err := DecodePolyline("\x7f")
	assert.Error(t, err)
}
