package deviation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func trajectoryPlanned() []PlannedPoint {
	return []PlannedPoint{
		{Lat: -19.916681, Lng: -43.934493, Order: 1},
		{Lat: -19.917681, Lng: -43.935493, Order: 2},
		{Lat: -19.918681, Lng: -43.936493, Order: 3},
	}
}

func TestAnalyzeTrajectoryPerfectConformance(t *testing.T) {
	base := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	actual := []ActualPosition{
		{Lat: -19.916681, Lng: -43.934493, Timestamp: base, Speed: speed(8)},
		{Lat: -19.917681, Lng: -43.935493, Timestamp: base.Add(2 * time.Minute), Speed: speed(8)},
		{Lat: -19.918681, Lng: -43.936493, Timestamp: base.Add(4 * time.Minute), Speed: speed(8)},
	}

	a := AnalyzeTrajectory(trajectoryPlanned(), actual, 200)
	assert.Equal(t, 100.0, a.ConformityPercentage)
	assert.Empty(t, a.Deviations)
	assert.Empty(t, a.UnplannedStops)
	assert.Empty(t, a.DivergentSegments)
	assert.Zero(t, a.ExtraDistance)
	assert.InDelta(t, a.TotalDistancePlanned, a.TotalDistanceActual, 1)
	assert.Equal(t, 4.0, a.TotalTimeActual)
}

func TestAnalyzeTrajectoryDetectsDeviations(t *testing.T) {
	base := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	actual := []ActualPosition{
		{Lat: -19.916681, Lng: -43.934493, Timestamp: base, Speed: speed(8)},
		// Roughly 440 m east of the path.
		{Lat: -19.917681, Lng: -43.930493, Timestamp: base.Add(2 * time.Minute), Speed: speed(8)},
		{Lat: -19.918681, Lng: -43.936493, Timestamp: base.Add(4 * time.Minute), Speed: speed(8)},
	}

	a := AnalyzeTrajectory(trajectoryPlanned(), actual, 200)
	require.Len(t, a.Deviations, 1)
	assert.Greater(t, a.Deviations[0].Distance, 200.0)
	assert.GreaterOrEqual(t, a.Deviations[0].SegmentIndex, 0)
	assert.Greater(t, a.ExtraDistance, 0.0)
	assert.Less(t, a.ConformityPercentage, 100.0)
	require.Len(t, a.DivergentSegments, 1)
}

func TestAnalyzeTrajectoryUnplannedStop(t *testing.T) {
	base := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	actual := []ActualPosition{
		{Lat: -19.916681, Lng: -43.934493, Timestamp: base, Speed: speed(8)},
		{Lat: -19.917181, Lng: -43.934993, Timestamp: base.Add(1 * time.Minute), Speed: speed(0)},
		{Lat: -19.917181, Lng: -43.934993, Timestamp: base.Add(2 * time.Minute), Speed: speed(0)},
		{Lat: -19.917181, Lng: -43.934993, Timestamp: base.Add(4 * time.Minute), Speed: speed(0)},
		{Lat: -19.918681, Lng: -43.936493, Timestamp: base.Add(6 * time.Minute), Speed: speed(8)},
	}

	a := AnalyzeTrajectory(trajectoryPlanned(), actual, 200)
	require.Len(t, a.UnplannedStops, 1)
	assert.Equal(t, 5.0, a.UnplannedStops[0].DurationMinutes)
	assert.Equal(t, base.Add(1*time.Minute), a.UnplannedStops[0].Timestamp)
}

func TestAnalyzeTrajectoryPlannedTimes(t *testing.T) {
	base := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	eta1 := base
	eta3 := base.Add(10 * time.Minute)
	planned := trajectoryPlanned()
	planned[0].EstimatedTime = &eta1
	planned[2].EstimatedTime = &eta3

	actual := []ActualPosition{
		{Lat: -19.916681, Lng: -43.934493, Timestamp: base, Speed: speed(8)},
		{Lat: -19.918681, Lng: -43.936493, Timestamp: base.Add(15 * time.Minute), Speed: speed(8)},
	}

	a := AnalyzeTrajectory(planned, actual, 200)
	assert.Equal(t, 10.0, a.TotalTimePlanned)
	assert.Equal(t, 15.0, a.TotalTimeActual)
	assert.Equal(t, 5.0, a.TimeDelay)
}

func TestAnalyzeTrajectoryEmptyInputs(t *testing.T) {
	a := AnalyzeTrajectory(nil, nil, 200)
	assert.Equal(t, 100.0, a.ConformityPercentage)
	assert.Empty(t, a.Deviations)
	assert.Empty(t, a.UnplannedStops)
}
