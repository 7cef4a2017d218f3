package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/portomove/wcoroute/internal/geo"
	"github.com/portomove/wcoroute/internal/ledger"
	"github.com/portomove/wcoroute/internal/model"
)

var depot = geo.Coordinate{Lat: 14.5995, Lon: 120.9842}

func TestBuildRouteAnalysisResultBracketsEachTripWithDepotStops(t *testing.T) {
	l := ledger.New(420, 30)
	vehicle := model.Vehicle{ID: "veh_1", Capacity: 100, DepotCoords: depot}

	locA := model.Location{ID: "loc_a", Name: "A", Coordinates: geo.Coordinate{Lat: 14.60, Lon: 121.00}, WCOAmount: 10}
	locB := model.Location{ID: "loc_b", Name: "B", Coordinates: geo.Coordinate{Lat: 14.61, Lon: 121.01}, WCOAmount: 10}

	require.True(t, l.RegisterCollection(vehicle.ID, 7, 1, locA, depot, nil, 15))
	coordA := locA.Coordinates
	require.True(t, l.RegisterCollection(vehicle.ID, 7, 1, locB, depot, &coordA, 15))

	schedule := model.ScheduleEntry{ID: "weekly", Name: "Weekly", Frequency: 7}
	result := BuildRouteAnalysisResult(l, schedule, 7, []model.Vehicle{vehicle}, model.MissingReport{})

	require.Equal(t, "weekly_day7", result.ScheduleID)
	require.Len(t, result.Trips, 1)
	require.Len(t, result.Trips[0].VehicleRoutes, 1)

	route := result.Trips[0].VehicleRoutes[0]
	require.Len(t, route.Stops, 4)
	assert.Equal(t, "Depot", route.Stops[0].Name)
	assert.Equal(t, "Depot", route.Stops[len(route.Stops)-1].Name)
	assert.Equal(t, locA.ID, route.Stops[1].LocationID)
	assert.Equal(t, locB.ID, route.Stops[2].LocationID)
	assert.InDelta(t, 20.0, route.TotalCollected, 1e-9)
	assert.NotEmpty(t, route.RoutePolyline)
}

func TestBuildRouteAnalysisResultNoStopsYieldsNoTrips(t *testing.T) {
	l := ledger.New(420, 30)
	schedule := model.ScheduleEntry{ID: "weekly", Name: "Weekly", Frequency: 7}
	result := BuildRouteAnalysisResult(l, schedule, 7, nil, model.MissingReport{})
	assert.Empty(t, result.Trips)
	assert.Equal(t, 0, result.TotalStops)
}

func TestBuildRouteAnalysisResultAggregatesAcrossVehiclesInSameTrip(t *testing.T) {
	l := ledger.New(420, 30)
	v1 := model.Vehicle{ID: "veh_1", Capacity: 100, DepotCoords: depot}
	v2 := model.Vehicle{ID: "veh_2", Capacity: 100, DepotCoords: depot}

	loc1 := model.Location{ID: "loc_1", Name: "one", Coordinates: geo.Coordinate{Lat: 14.60, Lon: 121.00}, WCOAmount: 15}
	loc2 := model.Location{ID: "loc_2", Name: "two", Coordinates: geo.Coordinate{Lat: 14.65, Lon: 121.05}, WCOAmount: 25}

	require.True(t, l.RegisterCollection(v1.ID, 7, 1, loc1, depot, nil, 15))
	require.True(t, l.RegisterCollection(v2.ID, 7, 1, loc2, depot, nil, 15))

	schedule := model.ScheduleEntry{ID: "weekly", Name: "Weekly", Frequency: 7}
	result := BuildRouteAnalysisResult(l, schedule, 7, []model.Vehicle{v1, v2}, model.MissingReport{})

	require.Len(t, result.Trips, 1)
	assert.Len(t, result.Trips[0].VehicleRoutes, 2)
	assert.InDelta(t, 40.0, result.TotalCollected, 1e-9)
}
