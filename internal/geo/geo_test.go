package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceSymmetric(t *testing.T) {
	a := Coordinate{Lat: 14.5995, Lon: 120.9842}
	b := Coordinate{Lat: 14.6760, Lon: 121.0437}

	assert.InDelta(t, Distance(a, b), Distance(b, a), 1e-9)
}

func TestDistanceSelfIsZero(t *testing.T) {
	a := Coordinate{Lat: 7.0731, Lon: 125.6128}
	assert.InDelta(t, 0.0, Distance(a, a), 1e-9)
}

func TestDistanceKnownSpan(t *testing.T) {
	// Roughly one degree of longitude at the equator is ~111.2km.
	a := Coordinate{Lat: 0, Lon: 0}
	b := Coordinate{Lat: 0, Lon: 1}
	got := Distance(a, b)
	assert.True(t, math.Abs(got-111.19) < 0.5, "expected ~111km, got %f", got)
}

func TestEstimateCollectionTimeIsConstantCap(t *testing.T) {
	assert.Equal(t, 15.0, EstimateCollectionTime(15.0))
	assert.Equal(t, 5.0, EstimateCollectionTime(5.0))
}

func TestVolumeScaledCollectionTimeIsCapped(t *testing.T) {
	assert.Equal(t, 15.0, VolumeScaledCollectionTime(10000, 15.0))
	assert.InDelta(t, 7.0, VolumeScaledCollectionTime(100, 15.0), 1e-9)
}

func TestCalculateStopTimesUsesPrevWhenPresent(t *testing.T) {
	depot := Coordinate{Lat: 0, Lon: 0}
	prev := Coordinate{Lat: 0, Lon: 0.01}
	loc := Coordinate{Lat: 0.01, Lon: 0}

	withPrev := CalculateStopTimes(loc, depot, &prev, 15, AverageSpeedKPH)
	withoutPrev := CalculateStopTimes(loc, depot, nil, 15, AverageSpeedKPH)

	assert.NotEqual(t, withPrev.TravelMin, withoutPrev.TravelMin)
	assert.InDelta(t, EstimateTravelTime(Distance(loc, depot), AverageSpeedKPH), withPrev.DepotReturnMin, 1e-9)
}
