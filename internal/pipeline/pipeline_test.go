package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/portomove/wcoroute/internal/geo"
	"github.com/portomove/wcoroute/internal/ledger"
	"github.com/portomove/wcoroute/internal/model"
	"github.com/portomove/wcoroute/internal/registry"
	"github.com/portomove/wcoroute/internal/scheduler"
	"github.com/portomove/wcoroute/internal/solver"
)

var pipelineDepot = geo.Coordinate{Lat: 14.5995, Lon: 120.9842}

func newDriver(locations []model.Location, vehicles []model.Vehicle, solverID string) *Driver {
	reg := registry.New(locations...)
	for _, loc := range reg.All() {
		loc.DistanceFromDepot = geo.Distance(pipelineDepot, loc.Coordinates)
		reg.Update(loc)
	}

	schedules := []model.ScheduleEntry{{ID: "weekly", Name: "Weekly", Frequency: 7, CollectionTimeMinutes: 15}}
	sched := scheduler.New(schedules, geo.AverageSpeedKPH, geo.MaxDailyTime)

	reg2 := solver.NewRegistry()
	s, _ := reg2.Build(solverID, solver.Config{SpeedKPH: geo.AverageSpeedKPH, MaxDailyTime: geo.MaxDailyTime, StopTimeMinutes: 15})

	return &Driver{
		Registry:     reg,
		Vehicles:     vehicles,
		Depot:        pipelineDepot,
		Solver:       s,
		Scheduler:    sched,
		Ledger:       ledger.New(geo.MaxDailyTime, geo.AverageSpeedKPH),
		SpeedKPH:     geo.AverageSpeedKPH,
		MaxDailyTime: geo.MaxDailyTime,
	}
}

func weeklyLoc(id string, lat, lon, wco float64) model.Location {
	return model.Location{ID: id, Name: id, Coordinates: geo.Coordinate{Lat: lat, Lon: lon}, WCOAmount: wco, DisposalSchedule: 7}
}

func TestRunScheduleProcessesAllFeasibleLocations(t *testing.T) {
	locations := []model.Location{
		weeklyLoc("loc_1", 14.60, 121.00, 10),
		weeklyLoc("loc_2", 14.61, 121.01, 10),
		weeklyLoc("loc_3", 14.62, 121.02, 10),
	}
	vehicles := []model.Vehicle{{ID: "veh_1", Capacity: 100, DepotCoords: pipelineDepot}}
	d := newDriver(locations, vehicles, solver.IDSchedule)

	results, err := d.Run(context.Background(), []model.ScheduleEntry{{ID: "weekly", Name: "Weekly", Frequency: 7, CollectionTimeMinutes: 15}})
	require.NoError(t, err)
	require.Len(t, results, 1)

	run := results[0]
	assert.Len(t, run.Processed, 3)
	assert.Empty(t, run.Missing.Locations)
}

func TestRunScheduleReportsMissingWhenOverCapacity(t *testing.T) {
	locations := []model.Location{
		weeklyLoc("loc_1", 14.60, 121.00, 80),
		weeklyLoc("loc_2", 14.61, 121.01, 80),
	}
	vehicles := []model.Vehicle{{ID: "veh_1", Capacity: 100, DepotCoords: pipelineDepot}}
	d := newDriver(locations, vehicles, solver.IDSchedule)

	results, err := d.Run(context.Background(), []model.ScheduleEntry{{ID: "weekly", Name: "Weekly", Frequency: 7, CollectionTimeMinutes: 15}})
	require.NoError(t, err)
	require.Len(t, results, 1)

	run := results[0]
	assert.Len(t, run.Processed, 1)
	require.Len(t, run.Missing.Locations, 1)
	assert.Greater(t, run.Missing.TotalWCO, 0.0)
}

func TestRunScheduleNeverRegistersALocationTwice(t *testing.T) {
	locations := []model.Location{
		weeklyLoc("loc_1", 14.60, 121.00, 10),
		weeklyLoc("loc_2", 14.61, 121.01, 10),
		weeklyLoc("loc_3", 14.62, 121.02, 10),
		weeklyLoc("loc_4", 14.63, 121.03, 10),
	}
	vehicles := []model.Vehicle{{ID: "veh_1", Capacity: 15, DepotCoords: pipelineDepot}, {ID: "veh_2", Capacity: 15, DepotCoords: pipelineDepot}}
	d := newDriver(locations, vehicles, solver.IDNearest)

	results, err := d.Run(context.Background(), []model.ScheduleEntry{{ID: "weekly", Name: "Weekly", Frequency: 7, CollectionTimeMinutes: 15}})
	require.NoError(t, err)

	seen := map[string]int{}
	for _, vid := range []string{"veh_1", "veh_2"} {
		route := d.Ledger.GetVehicleRoute(vid, 7)
		for _, stop := range route.Stops {
			seen[stop.LocationID]++
		}
	}
	for _, count := range seen {
		assert.Equal(t, 1, count)
	}
	assert.NotEmpty(t, results)
}

func TestRunEmptySchedulesReturnsEmptyResults(t *testing.T) {
	d := newDriver(nil, []model.Vehicle{{ID: "veh_1", Capacity: 100, DepotCoords: pipelineDepot}}, solver.IDSchedule)
	results, err := d.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestRunHonorsCancellationAtScheduleBoundary(t *testing.T) {
	d := newDriver([]model.Location{weeklyLoc("loc_1", 14.6, 121.0, 10)}, []model.Vehicle{{ID: "veh_1", Capacity: 100, DepotCoords: pipelineDepot}}, solver.IDSchedule)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := d.Run(ctx, []model.ScheduleEntry{{ID: "weekly", Frequency: 7}})
	assert.Error(t, err)
	assert.Empty(t, results)
}
