// Package pipeline is the driver loop: for each schedule it pulls the
// locations due that day from the registry, alternates scheduler and
// solver calls, registers the result into the trip ledger, and keeps
// going until every due location is assigned or progress stalls.
package pipeline

import (
	"context"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/portomove/wcoroute/internal/geo"
	"github.com/portomove/wcoroute/internal/ledger"
	"github.com/portomove/wcoroute/internal/model"
	"github.com/portomove/wcoroute/internal/registry"
	"github.com/portomove/wcoroute/internal/scheduler"
	"github.com/portomove/wcoroute/internal/solver"
)

var log = logrus.WithField("component", "pipeline")

// forceAssignThreshold is the |remaining| size at or below which the
// scheduler's second, capacity-only assignment pass kicks in.
const forceAssignThreshold = 5

// Driver runs schedules against a registry, a vehicle fleet, and a
// chosen solver, registering every trip into a shared ledger.
type Driver struct {
	Registry     *registry.Registry
	Vehicles     []model.Vehicle
	Depot        geo.Coordinate
	Constraints  model.RouteConstraints
	Solver       solver.Solver
	Scheduler    *scheduler.Scheduler
	Ledger       *ledger.TripLedger
	SpeedKPH     float64
	MaxDailyTime float64
	// DisableGeoCluster skips the scheduler's balanced k-means pass,
	// treating every schedule's due locations as a single cluster. Set
	// from the CLI's --disable-scheduling flag.
	DisableGeoCluster bool
}

// Run executes every schedule, returning the day-level results in
// schedule order. Cancellation is honored at schedule and trip-round
// boundaries only; an in-flight solver call always completes.
func (d *Driver) Run(ctx context.Context, schedules []model.ScheduleEntry) ([]ScheduleRun, error) {
	results := make([]ScheduleRun, 0, len(schedules))
	for _, schedule := range schedules {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		results = append(results, d.runSchedule(ctx, schedule))
	}
	return results, nil
}

// ScheduleRun is the per-schedule outcome: every trip round's raw
// registrations plus the locations that could never be placed.
type ScheduleRun struct {
	Schedule  model.ScheduleEntry
	Day       int
	Rounds    int
	Missing   model.MissingReport
	Processed map[string]bool
}

func (d *Driver) runSchedule(ctx context.Context, schedule model.ScheduleEntry) ScheduleRun {
	day := schedule.Frequency
	due := dueLocations(d.Registry, schedule.Frequency, d.Depot)

	run := ScheduleRun{Schedule: schedule, Day: day, Processed: make(map[string]bool)}
	if len(due) == 0 {
		return run
	}

	remaining := due
	trip := 0

	for len(remaining) > 0 {
		if err := ctx.Err(); err != nil {
			log.WithField("schedule_id", schedule.ID).WithField("remaining", len(remaining)).Warn("cancelled with locations remaining")
			break
		}

		force := len(remaining) <= forceAssignThreshold
		assignResult := d.Scheduler.OptimizeVehicleAssignments(d.Vehicles, day, remaining, scheduler.Options{
			ForceAssign:   force,
			UseGeoCluster: !d.DisableGeoCluster,
		})

		totalAssigned := 0
		for _, a := range assignResult.Assignments {
			totalAssigned += len(a.Locations)
		}
		if totalAssigned == 0 {
			log.WithField("schedule_id", schedule.ID).WithField("remaining", len(remaining)).Warn("no feasible assignment for remaining locations")
			break
		}

		routes := d.solveAssignment(assignResult.Assignments)
		routes = lazyPatch(routes, assignResult.Assignments, d.Vehicles, d.Depot)

		trip++
		registered := d.registerRoutes(routes, day, trip, schedule)
		for id := range registered {
			run.Processed[id] = true
		}

		remaining = removeProcessed(remaining, run.Processed)

		if d.Ledger.ExceedsDailyTime(day) {
			log.WithField("schedule_id", schedule.ID).WithField("day", day).Warn("daily time exceeded, clearing total time")
			d.Ledger.ClearTotalTime(day)
		}
	}

	run.Rounds = trip
	run.Missing = buildMissingReport(due, run.Processed)
	return run
}

// solveAssignment runs the configured solver: once over the flattened
// assignment for the OR-Tools-style solver (so it can rebalance across
// vehicles), or once per vehicle for every other solver (preserving
// the scheduler's allocation).
func (d *Driver) solveAssignment(assignments []scheduler.Assignment) [][]*model.Location {
	if d.Solver.ID() == solver.IDORTools {
		var flattened []model.Location
		for _, a := range assignments {
			flattened = append(flattened, a.Locations...)
		}
		routes, err := d.Solver.Solve(flattened, d.Vehicles, d.Constraints)
		if err != nil || len(routes) == 0 {
			log.WithField("solver_id", d.Solver.ID()).WithError(err).Warn("solver failed, falling back to distance sort")
			return [][]*model.Location{fallbackRoute(flattened)}
		}
		return routes
	}

	routes := make([][]*model.Location, len(assignments))
	for i, a := range assignments {
		if len(a.Locations) == 0 {
			continue
		}
		vehicle := d.Vehicles[i]
		perVehicleRoutes, err := d.Solver.Solve(a.Locations, []model.Vehicle{vehicle}, d.Constraints)
		if err != nil || len(perVehicleRoutes) == 0 {
			log.WithField("solver_id", d.Solver.ID()).WithField("vehicle_id", vehicle.ID).WithError(err).Warn("solver failed for vehicle, falling back to distance sort")
			routes[i] = fallbackRoute(a.Locations)
			continue
		}
		routes[i] = perVehicleRoutes[0]
	}
	return routes
}

func fallbackRoute(locations []model.Location) []*model.Location {
	sorted := make([]*model.Location, len(locations))
	for i := range locations {
		sorted[i] = &locations[i]
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].DistanceFromDepot < sorted[j].DistanceFromDepot })
	route := make([]*model.Location, 0, len(sorted)+2)
	route = append(route, nil)
	route = append(route, sorted...)
	route = append(route, nil)
	return route
}

// registerRoutes walks each vehicle's route in order and registers
// every non-nil stop with the ledger, tracking the previous stop's
// coordinate within the trip.
func (d *Driver) registerRoutes(routes [][]*model.Location, day, trip int, schedule model.ScheduleEntry) map[string]bool {
	registered := make(map[string]bool)
	collectionTime := schedule.EffectiveCollectionTime()

	for vIdx, route := range routes {
		if vIdx >= len(d.Vehicles) {
			break
		}
		vehicle := d.Vehicles[vIdx]
		var prev *geo.Coordinate

		for _, loc := range route {
			if loc == nil {
				prev = nil
				continue
			}
			ok := d.Ledger.RegisterCollection(vehicle.ID, day, trip, *loc, vehicle.DepotCoords, prev, collectionTime)
			if ok {
				registered[loc.ID] = true
			}
			c := loc.Coordinates
			prev = &c
		}
	}
	return registered
}

// dueLocations filters the registry to locations whose disposal
// schedule matches frequency, with DistanceFromDepot populated.
func dueLocations(reg *registry.Registry, frequency int, depot geo.Coordinate) []model.Location {
	var out []model.Location
	for _, loc := range reg.All() {
		if loc.DisposalSchedule == frequency {
			loc.DistanceFromDepot = geo.Distance(depot, loc.Coordinates)
			out = append(out, loc)
		}
	}
	return out
}

func removeProcessed(remaining []model.Location, processed map[string]bool) []model.Location {
	out := remaining[:0:0]
	for _, loc := range remaining {
		if !processed[loc.ID] {
			out = append(out, loc)
		}
	}
	return out
}

func buildMissingReport(due []model.Location, processed map[string]bool) model.MissingReport {
	var missing []model.MissingLocation
	var missingWCO, totalWCO float64

	for _, loc := range due {
		totalWCO += loc.WCOAmount
		if processed[loc.ID] {
			continue
		}
		missingWCO += loc.WCOAmount
		missing = append(missing, model.MissingLocation{
			Location: loc,
			Reasons:  []string{"capacity", "time budget", "distance"},
		})
	}

	report := model.MissingReport{Locations: missing, TotalWCO: missingWCO}
	if totalWCO > 0 {
		report.PercentOfAll = missingWCO / totalWCO * 100
	}
	return report
}
