package geo

import (
	"fmt"

	gopolyline "github.com/twpayne/go-polyline"
)

// DecodePolyline decodes a Google encoded polyline into points.
func DecodePolyline(encoded string) ([]Point, error) {
	coords, _, err := gopolyline.DecodeCoords([]byte(encoded))
	if err != nil {
		return nil, fmt.Errorf("decode polyline: %w", err)
	}
	points := make([]Point, len(coords))
	for i, c := range coords {
		points[i] = Point{Lat: c[0], Lng: c[1]}
	}
	return points, nil
}

// EncodePolyline encodes points as a Google encoded polyline.
func EncodePolyline(points []Point) string {
	coords := make([][]float64, len(points))
	for i, p := range points {
		coords[i] = []float64{p.Lat, p.Lng}
	}
	return string(gopolyline.EncodeCoords(coords))
}
