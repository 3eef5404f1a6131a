package deviation

import (
	"math"
	"sort"
	"time"

	"fleetroute/internal/geo"
)

// unplannedStopMinDuration is the minimum stationary span reported as an
// unplanned stop.
const unplannedStopMinDuration = 2 * time.Minute

// PlannedPoint is one planned route point with an optional arrival
// estimate.
type PlannedPoint struct {
	Lat           float64    `json:"lat"`
	Lng           float64    `json:"lng"`
	Order         int        `json:"order"`
	EstimatedTime *time.Time `json:"estimatedTime,omitempty"`
}

// ActualPosition is one recorded telemetry position.
type ActualPosition struct {
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	Timestamp time.Time `json:"timestamp"`
	Speed     *float64  `json:"speed,omitempty"`
}

// TrajectoryDeviation is one recorded off-route position.
type TrajectoryDeviation struct {
	Timestamp    time.Time `json:"timestamp"`
	Lat          float64   `json:"lat"`
	Lng          float64   `json:"lng"`
	Distance     float64   `json:"distanceMeters"`
	SegmentIndex int       `json:"segmentIndex"`
}

// UnplannedStop is a stationary span away from scheduled stops.
type UnplannedStop struct {
	Timestamp       time.Time `json:"timestamp"`
	Lat             float64   `json:"lat"`
	Lng             float64   `json:"lng"`
	DurationMinutes float64   `json:"durationMinutes"`
}

// DivergentSegment maps an off-route stretch of travel back onto the
// planned route.
type DivergentSegment struct {
	StartIndex      int     `json:"startIndex"`
	EndIndex        int     `json:"endIndex"`
	PlannedDistance float64 `json:"plannedDistanceMeters"`
	ActualDistance  float64 `json:"actualDistanceMeters"`
	Deviation       float64 `json:"deviationMeters"`
}

// TrajectoryAnalysis compares a planned route against recorded positions.
type TrajectoryAnalysis struct {
	TotalDistancePlanned float64               `json:"totalDistancePlannedMeters"`
	TotalDistanceActual  float64               `json:"totalDistanceActualMeters"`
	TotalTimePlanned     float64               `json:"totalTimePlannedMinutes"`
	TotalTimeActual      float64               `json:"totalTimeActualMinutes"`
	ConformityPercentage float64               `json:"conformityPercentage"`
	ExtraDistance        float64               `json:"extraDistanceMeters"`
	TimeDelay            float64               `json:"timeDelayMinutes"`
	Deviations           []TrajectoryDeviation `json:"deviations"`
	UnplannedStops       []UnplannedStop       `json:"unplannedStops"`
	DivergentSegments    []DivergentSegment    `json:"divergentSegments"`
}

func plannedPath(points []PlannedPoint) []geo.Point {
	path := make([]geo.Point, len(points))
	for i, p := range points {
		path[i] = geo.Point{Lat: p.Lat, Lng: p.Lng}
	}
	return path
}

func actualPath(points []ActualPosition) []geo.Point {
	path := make([]geo.Point, len(points))
	for i, p := range points {
		path[i] = geo.Point{Lat: p.Lat, Lng: p.Lng}
	}
	return path
}

func minSegmentDistance(p geo.Point, planned []PlannedPoint) (float64, int) {
	minDistance := math.Inf(1)
	index := -1
	for i := 0; i < len(planned)-1; i++ {
		a := geo.Point{Lat: planned[i].Lat, Lng: planned[i].Lng}
		b := geo.Point{Lat: planned[i+1].Lat, Lng: planned[i+1].Lng}
		if d := geo.DistancePointToSegment(p, a, b); d < minDistance {
			minDistance = d
			index = i
		}
	}
	return minDistance, index
}

// AnalyzeTrajectory compares the planned route against the recorded
// positions of one completed (or in-progress) trip: total distances and
// times, conformity, off-route positions, stationary spans, and the
// divergent stretches with their extra distance.
func AnalyzeTrajectory(planned []PlannedPoint, actual []ActualPosition, thresholdMeters float64) TrajectoryAnalysis {
	if thresholdMeters <= 0 {
		thresholdMeters = DefaultThresholdMeters
	}

	sortedPlanned := make([]PlannedPoint, len(planned))
	copy(sortedPlanned, planned)
	sort.Slice(sortedPlanned, func(i, j int) bool { return sortedPlanned[i].Order < sortedPlanned[j].Order })

	sortedActual := make([]ActualPosition, len(actual))
	copy(sortedActual, actual)
	sort.Slice(sortedActual, func(i, j int) bool { return sortedActual[i].Timestamp.Before(sortedActual[j].Timestamp) })

	totalDistancePlanned := geo.PathDistance(plannedPath(sortedPlanned))
	totalDistanceActual := geo.PathDistance(actualPath(sortedActual))

	totalTimePlanned := 0.0
	if n := len(sortedPlanned); n > 1 && sortedPlanned[0].EstimatedTime != nil && sortedPlanned[n-1].EstimatedTime != nil {
		totalTimePlanned = sortedPlanned[n-1].EstimatedTime.Sub(*sortedPlanned[0].EstimatedTime).Minutes()
	}
	totalTimeActual := 0.0
	if n := len(sortedActual); n > 1 {
		totalTimeActual = sortedActual[n-1].Timestamp.Sub(sortedActual[0].Timestamp).Minutes()
	}

	deviations := []TrajectoryDeviation{}
	for _, pos := range sortedActual {
		d, idx := minSegmentDistance(geo.Point{Lat: pos.Lat, Lng: pos.Lng}, sortedPlanned)
		if idx >= 0 && d > thresholdMeters {
			deviations = append(deviations, TrajectoryDeviation{
				Timestamp:    pos.Timestamp,
				Lat:          pos.Lat,
				Lng:          pos.Lng,
				Distance:     math.Round(d),
				SegmentIndex: idx,
			})
		}
	}

	unplannedStops := []UnplannedStop{}
	var stopStart *ActualPosition
	for i := range sortedActual {
		pos := sortedActual[i]
		isStopped := pos.Speed == nil || *pos.Speed < MinMovingSpeed
		if isStopped && stopStart == nil {
			stopStart = &sortedActual[i]
		} else if !isStopped && stopStart != nil {
			if span := pos.Timestamp.Sub(stopStart.Timestamp); span > unplannedStopMinDuration {
				unplannedStops = append(unplannedStops, UnplannedStop{
					Timestamp:       stopStart.Timestamp,
					Lat:             stopStart.Lat,
					Lng:             stopStart.Lng,
					DurationMinutes: math.Round(span.Minutes()),
				})
			}
			stopStart = nil
		}
	}

	divergentSegments := []DivergentSegment{}
	var segStart int
	var segIndices []int
	for i, pos := range sortedActual {
		d, idx := minSegmentDistance(geo.Point{Lat: pos.Lat, Lng: pos.Lng}, sortedPlanned)
		isDivergent := idx >= 0 && d > thresholdMeters

		if isDivergent {
			if segIndices == nil {
				segStart = i
			}
			segIndices = append(segIndices, i)
		} else if segIndices != nil {
			divergentSegments = append(divergentSegments, closeDivergentSegment(sortedPlanned, sortedActual, segStart, segIndices))
			segIndices = nil
		}
	}

	conformity := 100.0
	if totalDistancePlanned > 0 {
		conformity = (1 - (totalDistanceActual-totalDistancePlanned)/totalDistancePlanned) * 100
		conformity = math.Max(0, math.Min(100, conformity))
	}

	return TrajectoryAnalysis{
		TotalDistancePlanned: math.Round(totalDistancePlanned),
		TotalDistanceActual:  math.Round(totalDistanceActual),
		TotalTimePlanned:     math.Round(totalTimePlanned),
		TotalTimeActual:      math.Round(totalTimeActual),
		ConformityPercentage: math.Round(conformity*10) / 10,
		ExtraDistance:        math.Round(math.Max(0, totalDistanceActual-totalDistancePlanned)),
		TimeDelay:            math.Round(math.Max(0, totalTimeActual-totalTimePlanned)),
		Deviations:           deviations,
		UnplannedStops:       unplannedStops,
		DivergentSegments:    divergentSegments,
	}
}

// closeDivergentSegment maps a run of off-route positions onto the
// approximate planned indices covering the same fraction of the trip.
func closeDivergentSegment(planned []PlannedPoint, actual []ActualPosition, segStart int, indices []int) DivergentSegment {
	segmentActual := make([]ActualPosition, 0, len(indices))
	for _, idx := range indices {
		segmentActual = append(segmentActual, actual[idx])
	}
	actualDistance := geo.PathDistance(actualPath(segmentActual))

	plannedStart := int(math.Floor(float64(segStart) / float64(len(actual)) * float64(len(planned))))
	if plannedStart > len(planned)-2 {
		plannedStart = len(planned) - 2
	}
	if plannedStart < 0 {
		plannedStart = 0
	}
	lastIdx := indices[len(indices)-1]
	plannedEnd := int(math.Floor(float64(lastIdx) / float64(len(actual)) * float64(len(planned))))
	if plannedEnd > len(planned)-1 {
		plannedEnd = len(planned) - 1
	}
	if plannedEnd < plannedStart {
		plannedEnd = plannedStart
	}

	plannedDistance := geo.PathDistance(plannedPath(planned[plannedStart : plannedEnd+1]))

	return DivergentSegment{
		StartIndex:      plannedStart,
		EndIndex:        plannedEnd,
		PlannedDistance: math.Round(plannedDistance),
		ActualDistance:  math.Round(actualDistance),
		Deviation:       math.Round(actualDistance - plannedDistance),
	}
}
