package planner

import (
	"context"
	"time"

	"go.uber.org/zap"

	"fleetroute/internal/geo"
	"fleetroute/internal/model"
)

// fallbackSpeedMetersPerSecond is the assumed urban travel speed (30 km/h)
// when the provider cannot answer.
const fallbackSpeedMetersPerSecond = 30.0 / 3.6

// ETA is an arrival estimate for a direct origin-to-destination trip.
// Estimated marks straight-line fallback values rather than road-network
// ones.
type ETA struct {
	DistanceMeters  float64   `json:"distanceMeters"`
	DurationSeconds float64   `json:"durationSeconds"`
	Arrival         time.Time `json:"arrival"`
	Estimated       bool      `json:"estimated"`
}

// EstimateETA resolves a direct trip through the provider, falling back to
// great-circle distance at an assumed urban speed. It never fails; the
// fallback keeps arrival boards populated during provider outages.
func (p *Planner) EstimateETA(ctx context.Context, from, to model.LatLng, departAt time.Time) ETA {
	if departAt.IsZero() {
		departAt = time.Now()
	}

	route, err := p.resolver.provider.GetRoute(ctx, from, to, nil, departAt)
	if err == nil && len(route.Legs) > 0 {
		var dist, dur float64
		for _, leg := range route.Legs {
			dist += leg.DistanceMeters
			dur += leg.DurationSeconds
		}
		return ETA{
			DistanceMeters:  dist,
			DurationSeconds: dur,
			Arrival:         departAt.Add(time.Duration(dur * float64(time.Second))),
		}
	}
	if err != nil {
		p.log.Warn("eta provider lookup failed, using straight-line estimate", zap.Error(err))
	}

	dist := geo.Haversine(geo.Point{Lat: from.Lat, Lng: from.Lng}, geo.Point{Lat: to.Lat, Lng: to.Lng})
	dur := dist / fallbackSpeedMetersPerSecond
	return ETA{
		DistanceMeters:  dist,
		DurationSeconds: dur,
		Arrival:         departAt.Add(time.Duration(dur * float64(time.Second))),
		Estimated:       true,
	}
}
