package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/portomove/wcoroute/internal/geo"
	"github.com/portomove/wcoroute/internal/model"
)

var depot = geo.Coordinate{Lat: 14.5995, Lon: 120.9842}

func TestRegisterCollectionRejectsDuplicateVisit(t *testing.T) {
	l := New(420, 30)
	loc := model.Location{ID: "loc_1", Name: "A", Coordinates: geo.Coordinate{Lat: 14.6, Lon: 121.0}, WCOAmount: 10}

	assert.True(t, l.RegisterCollection("veh_1", 7, 0, loc, depot, nil, 15))
	assert.False(t, l.RegisterCollection("veh_1", 7, 0, loc, depot, nil, 15))

	data, ok := l.GetTrip("veh_1", 7, 0)
	require.True(t, ok)
	assert.Len(t, data.Stops, 1)
}

func TestCumulativeLoadIsPrefixSum(t *testing.T) {
	l := New(420, 30)
	locs := []model.Location{
		{ID: "loc_1", Coordinates: geo.Coordinate{Lat: 14.60, Lon: 121.00}, WCOAmount: 10},
		{ID: "loc_2", Coordinates: geo.Coordinate{Lat: 14.61, Lon: 121.01}, WCOAmount: 5},
		{ID: "loc_3", Coordinates: geo.Coordinate{Lat: 14.62, Lon: 121.02}, WCOAmount: 7},
	}
	var prev *geo.Coordinate
	for _, loc := range locs {
		l.RegisterCollection("veh_1", 7, 0, loc, depot, prev, 15)
		c := loc.Coordinates
		prev = &c
	}

	data, ok := l.GetTrip("veh_1", 7, 0)
	require.True(t, ok)
	require.Len(t, data.Stops, 3)
	assert.Equal(t, 10.0, data.Stops[0].CumulativeLoad)
	assert.Equal(t, 15.0, data.Stops[1].CumulativeLoad)
	assert.Equal(t, 22.0, data.Stops[2].CumulativeLoad)
}

func TestDailyTimeCapFlagsExceededAndRejectsFurtherRegistration(t *testing.T) {
	l := New(10, 30) // tiny cap, forces overflow on first stop
	loc := model.Location{ID: "loc_1", Coordinates: geo.Coordinate{Lat: 14.7, Lon: 121.1}, WCOAmount: 10}

	assert.True(t, l.RegisterCollection("veh_1", 7, 0, loc, depot, nil, 15))
	assert.True(t, l.ExceedsDailyTime(7))

	other := model.Location{ID: "loc_2", Coordinates: geo.Coordinate{Lat: 14.8, Lon: 121.2}, WCOAmount: 5}
	assert.False(t, l.RegisterCollection("veh_1", 7, 0, other, depot, nil, 15))

	data, ok := l.GetTrip("veh_1", 7, 0)
	require.True(t, ok)
	assert.Len(t, data.Stops, 1)
}

func TestClearTotalTimeResetsExceededFlagButKeepsDayIndex(t *testing.T) {
	l := New(10, 30)
	loc := model.Location{ID: "loc_1", Coordinates: geo.Coordinate{Lat: 14.7, Lon: 121.1}, WCOAmount: 10}
	l.RegisterCollection("veh_1", 7, 0, loc, depot, nil, 15)
	require.True(t, l.ExceedsDailyTime(7))

	l.ClearTotalTime(7)
	assert.False(t, l.ExceedsDailyTime(7))

	other := model.Location{ID: "loc_2", Coordinates: geo.Coordinate{Lat: 14.8, Lon: 121.2}, WCOAmount: 5}
	assert.True(t, l.RegisterCollection("veh_1", 7, 1, other, depot, nil, 15))
}

func TestGetVisitedLocationsSpansTrips(t *testing.T) {
	l := New(420, 30)
	a := model.Location{ID: "loc_a", Coordinates: geo.Coordinate{Lat: 14.6, Lon: 121.0}, WCOAmount: 5}
	b := model.Location{ID: "loc_b", Coordinates: geo.Coordinate{Lat: 14.7, Lon: 121.1}, WCOAmount: 5}

	l.RegisterCollection("veh_1", 7, 0, a, depot, nil, 15)
	l.RegisterCollection("veh_1", 7, 1, b, depot, nil, 15)

	visited := l.GetVisitedLocations("veh_1", 7)
	assert.Len(t, visited, 2)
	_, hasA := visited["loc_a"]
	_, hasB := visited["loc_b"]
	assert.True(t, hasA)
	assert.True(t, hasB)
}

func TestGetVehicleRouteConcatenatesTripsInOrder(t *testing.T) {
	l := New(420, 30)
	a := model.Location{ID: "loc_a", Coordinates: geo.Coordinate{Lat: 14.6, Lon: 121.0}, WCOAmount: 5}
	b := model.Location{ID: "loc_b", Coordinates: geo.Coordinate{Lat: 14.7, Lon: 121.1}, WCOAmount: 5}

	l.RegisterCollection("veh_1", 7, 0, a, depot, nil, 15)
	l.RegisterCollection("veh_1", 7, 1, b, depot, nil, 15)

	route := l.GetVehicleRoute("veh_1", 7)
	require.Len(t, route.Stops, 2)
	assert.Equal(t, "loc_a", route.Stops[0].LocationID)
	assert.Equal(t, "loc_b", route.Stops[1].LocationID)
	assert.Equal(t, 10.0, route.TotalCollected)
}

func TestDaysAndVehiclesReportDistinctKeys(t *testing.T) {
	l := New(420, 30)
	a := model.Location{ID: "loc_a", Coordinates: geo.Coordinate{Lat: 14.6, Lon: 121.0}, WCOAmount: 5}
	l.RegisterCollection("veh_1", 7, 0, a, depot, nil, 15)
	l.RegisterCollection("veh_2", 7, 0, a, depot, nil, 15)

	assert.Equal(t, []int{7}, l.Days())
	assert.ElementsMatch(t, []string{"veh_1", "veh_2"}, l.Vehicles(7))
}

func TestDefaultsAppliedWhenZero(t *testing.T) {
	l := New(0, 0)
	assert.Equal(t, geo.MaxDailyTime, l.maxDailyTime)
	assert.Equal(t, geo.AverageSpeedKPH, l.speedKPH)
}
