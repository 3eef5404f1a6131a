// Package geo provides the geodesy primitives shared by route planning and
// deviation detection. The same haversine formulation backs both so that
// optimization and conformance agree on distances.
package geo

import "math"

// EarthRadiusMeters is the mean Earth radius used for all great-circle math.
const EarthRadiusMeters = 6371000.0

// degenerateSegmentMeters is the segment length below which point-to-segment
// distance collapses to distance-to-nearest-endpoint.
const degenerateSegmentMeters = 10.0

// Point is a coordinate pair in WGS84 degrees.
type Point struct {
	Lat float64
	Lng float64
}

// Haversine returns the great-circle distance between a and b in meters.
func Haversine(a, b Point) float64 {
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(a.Lat*math.Pi/180)*math.Cos(b.Lat*math.Pi/180)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return EarthRadiusMeters * c
}

// DistancePointToSegment returns the distance in meters from p to the
// segment (a, b). The perpendicular distance is derived from the haversine
// triangle via the law of cosines and is used only when the projection of p
// falls within the segment; otherwise the distance to the nearest endpoint
// is returned. This is a planar approximation over short great-circle legs:
// fine for stop-to-stop spacing and thresholds around 100-200 m, degrading
// for very long segments or near the poles.
func DistancePointToSegment(p, a, b Point) float64 {
	d12 := Haversine(p, a)
	d13 := Haversine(p, b)
	d23 := Haversine(a, b)

	if d23 < degenerateSegmentMeters {
		return math.Min(d12, d13)
	}
	if d12 == 0 {
		return 0
	}

	// Clamp to dodge NaN from floating-point drift on collinear points.
	cosine := (d12*d12 + d23*d23 - d13*d13) / (2 * d12 * d23)
	cosine = math.Max(-1, math.Min(1, cosine))
	angle := math.Acos(cosine)
	perpendicular := d12 * math.Sin(angle)

	if angle > math.Pi/2 || d12*math.Cos(angle) > d23 {
		return math.Min(d12, d13)
	}

	return perpendicular
}

// PathDistance returns the summed haversine length of the polyline in meters.
func PathDistance(points []Point) float64 {
	total := 0.0
	for i := 0; i < len(points)-1; i++ {
		total += Haversine(points[i], points[i+1])
	}
	return total
}

// Heading returns the initial bearing from a to b in degrees [0, 360),
// where 0 is north and 90 is east.
func Heading(a, b Point) float64 {
	dLng := (b.Lng - a.Lng) * math.Pi / 180
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180

	y := math.Sin(dLng) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLng)

	heading := math.Atan2(y, x) * 180 / math.Pi
	return math.Mod(heading+360, 360)
}

// SquaredDegreeDistance returns the squared planar distance over raw
// degrees. It is the cost function of the ordering heuristics, where only
// relative magnitude matters; it is not a distance in meters.
func SquaredDegreeDistance(a, b Point) float64 {
	dLat := a.Lat - b.Lat
	dLng := a.Lng - b.Lng
	return dLat*dLat + dLng*dLng
}
