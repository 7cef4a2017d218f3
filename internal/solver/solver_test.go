package solver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/portomove/wcoroute/internal/geo"
	"github.com/portomove/wcoroute/internal/model"
)

var testDepot = geo.Coordinate{Lat: 14.5995, Lon: 120.9842}

func testVehicle(id string, capacity float64) model.Vehicle {
	return model.Vehicle{ID: id, Capacity: capacity, DepotCoords: testDepot}
}

func testLocations(n int) []model.Location {
	out := make([]model.Location, n)
	for i := 0; i < n; i++ {
		lat := 14.6 + float64(i)*0.01
		lon := 121.0 + float64(i)*0.01
		loc := model.Location{
			ID:          model.NewLocationID(),
			Name:        "loc",
			Coordinates: geo.Coordinate{Lat: lat, Lon: lon},
			WCOAmount:   10,
		}
		loc.DistanceFromDepot = geo.Distance(testDepot, loc.Coordinates)
		out[i] = loc
	}
	return out
}

func inputIDs(locations []model.Location) map[string]bool {
	out := make(map[string]bool, len(locations))
	for _, l := range locations {
		out[l.ID] = true
	}
	return out
}

func outputIDs(routes [][]*model.Location) map[string]bool {
	out := make(map[string]bool)
	for _, route := range routes {
		for _, loc := range route {
			if loc != nil {
				out[loc.ID] = true
			}
		}
	}
	return out
}

func assertNonExpansion(t *testing.T, locations []model.Location, routes [][]*model.Location) {
	t.Helper()
	allowed := inputIDs(locations)
	for id := range outputIDs(routes) {
		assert.True(t, allowed[id], "solver produced id %s not present in input", id)
	}
}

func assertNoDuplicateVisit(t *testing.T, routes [][]*model.Location) {
	t.Helper()
	seen := make(map[string]bool)
	for _, route := range routes {
		for _, loc := range route {
			if loc == nil {
				continue
			}
			assert.False(t, seen[loc.ID], "location %s visited more than once", loc.ID)
			seen[loc.ID] = true
		}
	}
}

func TestRegistryBuildsAllWellKnownSolvers(t *testing.T) {
	reg := NewRegistry()
	for _, id := range []string{IDORTools, IDGreedy, IDNearest, IDSchedule} {
		s, ok := reg.Build(id, Config{})
		require.True(t, ok, "expected solver %s to be registered", id)
		assert.Equal(t, id, s.ID())
	}
}

func TestRegistryBuildUnknownIDFails(t *testing.T) {
	reg := NewRegistry()
	_, ok := reg.Build("not-a-solver", Config{})
	assert.False(t, ok)
}

func TestRegistryDescribeListsEverySolver(t *testing.T) {
	reg := NewRegistry()
	descs := reg.Describe()
	assert.Len(t, descs, 4)
	for _, d := range descs {
		assert.NotEmpty(t, d.Name)
		assert.NotEmpty(t, d.Description)
	}
}

func TestBasicSolverWrapsInputWithDepotMarkers(t *testing.T) {
	s := NewBasicSolver(Config{})
	locations := testLocations(2)
	vehicles := []model.Vehicle{testVehicle("veh_1", 100)}

	routes, err := s.Solve(locations, vehicles, model.RouteConstraints{})
	require.NoError(t, err)
	require.Len(t, routes, 1)
	assert.Nil(t, routes[0][0])
	assert.Nil(t, routes[0][len(routes[0])-1])
	assertNonExpansion(t, locations, routes)
}

func TestNearestNeighborSolverRespectsCapacity(t *testing.T) {
	s := NewNearestNeighborSolver(Config{SpeedKPH: 30})
	locations := testLocations(5)
	for i := range locations {
		locations[i].WCOAmount = 40
	}
	vehicles := []model.Vehicle{testVehicle("veh_1", 50)}

	routes, err := s.Solve(locations, vehicles, model.RouteConstraints{})
	require.NoError(t, err)
	assertNonExpansion(t, locations, routes)
	assertNoDuplicateVisit(t, routes)

	// capacity applies per trip: a nil depot marker starts a new load.
	var load float64
	for _, loc := range routes[0] {
		if loc == nil {
			load = 0
			continue
		}
		load += loc.WCOAmount
		assert.LessOrEqual(t, load, 50.0)
	}
}

func TestGreedySolverNeverDuplicatesAcrossVehicles(t *testing.T) {
	s := NewGreedySolver(Config{SpeedKPH: 30})
	locations := testLocations(8)
	vehicles := []model.Vehicle{testVehicle("veh_1", 1000), testVehicle("veh_2", 1000)}

	routes, err := s.Solve(locations, vehicles, model.RouteConstraints{})
	require.NoError(t, err)
	assertNonExpansion(t, locations, routes)
	assertNoDuplicateVisit(t, routes)
}

func TestORToolsStyleSolverSingleLocationShortCircuit(t *testing.T) {
	s := NewORToolsStyleSolver(Config{SpeedKPH: 30, MaxDailyTime: 420, StopTimeMinutes: 15})
	locations := testLocations(1)
	vehicles := []model.Vehicle{testVehicle("veh_1", 100)}

	routes, err := s.Solve(locations, vehicles, model.RouteConstraints{})
	require.NoError(t, err)
	require.Len(t, routes, 1)
	require.Len(t, routes[0], 3)
	assert.Equal(t, locations[0].ID, routes[0][1].ID)
}

func TestORToolsStyleSolverHonorsOneWayConstraint(t *testing.T) {
	s := NewORToolsStyleSolver(Config{SpeedKPH: 30, MaxDailyTime: 420, StopTimeMinutes: 15})
	locations := testLocations(4)
	vehicles := []model.Vehicle{testVehicle("veh_1", 1000)}

	constraints := model.RouteConstraints{OneWayRoads: []model.RoadEdge{
		{From: locations[0].Coordinates, To: locations[1].Coordinates},
	}}

	routes, err := s.Solve(locations, vehicles, constraints)
	require.NoError(t, err)
	assertNonExpansion(t, locations, routes)

	for _, route := range routes {
		for i := 0; i+1 < len(route); i++ {
			if route[i] == nil || route[i+1] == nil {
				continue
			}
			assert.False(t, constraints.Forbids(route[i].Coordinates, route[i+1].Coordinates))
		}
	}
}

func TestORToolsStyleSolverNeverExceedsCapacity(t *testing.T) {
	s := NewORToolsStyleSolver(Config{SpeedKPH: 30, MaxDailyTime: 420, StopTimeMinutes: 15})
	locations := testLocations(10)
	for i := range locations {
		locations[i].WCOAmount = 30
	}
	vehicles := []model.Vehicle{testVehicle("veh_1", 100), testVehicle("veh_2", 100)}

	routes, err := s.Solve(locations, vehicles, model.RouteConstraints{})
	require.NoError(t, err)
	assertNoDuplicateVisit(t, routes)

	for _, route := range routes {
		var load float64
		for _, loc := range route {
			if loc != nil {
				load += loc.WCOAmount
			}
		}
		assert.LessOrEqual(t, load, 100.0)
	}
}

func TestORToolsStyleSolverEmptyVehiclesReturnsNil(t *testing.T) {
	s := NewORToolsStyleSolver(Config{})
	routes, err := s.Solve(testLocations(3), nil, model.RouteConstraints{})
	require.NoError(t, err)
	assert.Nil(t, routes)
}
