package solver

import (
	"math"
	"sort"
	"time"

	"github.com/portomove/wcoroute/internal/geo"
	"github.com/portomove/wcoroute/internal/model"
)

// wallClockBudget bounds the local-search improvement phase, mirroring
// the reference solver's 10-second time_limit.
const wallClockBudget = 10 * time.Second

// ORToolsStyleSolver solves a vehicle-routing problem built from
// haversine distance, a per-vehicle time limit, vehicle capacity, and
// one-way road exclusions on the successor relation. The
// time limit is a plain cap: a vehicle's projected time (service, travel
// and depot return per stop) may not exceed max_daily_time; there is no
// slack variable and no separate depot time window. Capacity is compared
// in raw liters, without scaling demand by 10. No OR-Tools binding
// exists for Go, so construction appends each location, nearest to the
// depot first, to the vehicle whose route end is closest (standing in
// for PATH_CHEAPEST_ARC) and improves it with bounded-time 2-opt moves
// (standing in for GUIDED_LOCAL_SEARCH) instead of delegating to the
// real solver engine.
type ORToolsStyleSolver struct {
	cfg Config
}

// NewORToolsStyleSolver builds the constrained solver.
func NewORToolsStyleSolver(cfg Config) *ORToolsStyleSolver {
	return &ORToolsStyleSolver{cfg: cfg}
}

func (s *ORToolsStyleSolver) ID() string   { return IDORTools }
func (s *ORToolsStyleSolver) Name() string { return "Google OR-Tools Solver" }
func (s *ORToolsStyleSolver) Description() string {
	return "Advanced optimization solver using constraint-programming-style routing. Best for complex routing problems."
}

// Solve runs the flattened assignment through the constructive +
// local-search heuristic once, across all vehicles jointly, so the
// solver can rebalance stops between vehicles.
func (s *ORToolsStyleSolver) Solve(locations []model.Location, vehicles []model.Vehicle, constraints model.RouteConstraints) (routes [][]*model.Location, err error) {
	defer func() {
		if r := recover(); r != nil {
			routes, err = s.fallback(locations, vehicles)
		}
	}()

	if len(vehicles) == 0 {
		return nil, nil
	}
	if len(locations) == 1 {
		return [][]*model.Location{{nil, &locations[0], nil}}, nil
	}
	if len(locations) == 0 {
		return make([][]*model.Location, len(vehicles)), nil
	}

	speedKPH := s.cfg.SpeedKPH
	if speedKPH <= 0 {
		speedKPH = geo.AverageSpeedKPH
	}
	maxDailyTime := s.cfg.MaxDailyTime
	if maxDailyTime <= 0 {
		maxDailyTime = geo.MaxDailyTime
	}
	stopTime := s.cfg.StopTimeMinutes
	if stopTime <= 0 {
		stopTime = geo.DefaultCollectionTime
	}

	assignments := s.construct(locations, vehicles, constraints, speedKPH, stopTime, maxDailyTime)
	placed := false
	for _, assigned := range assignments {
		if len(assigned) > 0 {
			placed = true
			break
		}
	}
	if !placed {
		return s.fallback(locations, vehicles)
	}
	s.improve(assignments, vehicles, constraints, speedKPH, stopTime, maxDailyTime)

	routes = make([][]*model.Location, len(vehicles))
	for i, assigned := range assignments {
		if len(assigned) == 0 {
			routes[i] = nil
			continue
		}
		route := make([]*model.Location, 0, len(assigned)+2)
		route = append(route, nil)
		route = append(route, assigned...)
		route = append(route, nil)
		routes[i] = route
	}
	return routes, nil
}

// construct greedily builds each vehicle's route via cheapest
// insertion into whichever vehicle's current end is nearest,
// respecting capacity, the time dimension, and one-way exclusions.
func (s *ORToolsStyleSolver) construct(
	locations []model.Location,
	vehicles []model.Vehicle,
	constraints model.RouteConstraints,
	speedKPH, stopTime, maxDailyTime float64,
) [][]*model.Location {
	ordered := make([]*model.Location, len(locations))
	for i := range locations {
		ordered[i] = &locations[i]
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].DistanceFromDepot < ordered[j].DistanceFromDepot })

	assignments := make([][]*model.Location, len(vehicles))
	loads := make([]float64, len(vehicles))
	times := make([]float64, len(vehicles))

	for _, loc := range ordered {
		bestV := -1
		bestCost := math.MaxFloat64

		for vIdx, vehicle := range vehicles {
			if loads[vIdx]+loc.WCOAmount > vehicle.Capacity {
				continue
			}

			var prev *geo.Coordinate
			if n := len(assignments[vIdx]); n > 0 {
				c := assignments[vIdx][n-1].Coordinates
				prev = &c
				if constraints.Forbids(*prev, loc.Coordinates) {
					continue
				}
			}

			st := geo.CalculateStopTimes(loc.Coordinates, vehicle.DepotCoords, prev, stopTime, speedKPH)
			projected := times[vIdx] + geo.TotalTime(st)
			if projected > maxDailyTime {
				continue
			}

			from := vehicle.DepotCoords
			if prev != nil {
				from = *prev
			}
			cost := geo.Distance(from, loc.Coordinates)
			if cost < bestCost {
				bestCost = cost
				bestV = vIdx
			}
		}

		if bestV < 0 {
			continue
		}

		var prev *geo.Coordinate
		if n := len(assignments[bestV]); n > 0 {
			c := assignments[bestV][n-1].Coordinates
			prev = &c
		}
		st := geo.CalculateStopTimes(loc.Coordinates, vehicles[bestV].DepotCoords, prev, stopTime, speedKPH)
		assignments[bestV] = append(assignments[bestV], loc)
		loads[bestV] += loc.WCOAmount
		times[bestV] += geo.TotalTime(st)
	}

	return assignments
}

// improve applies bounded-time 2-opt swaps within each vehicle's
// route, accepting a swap only when it shortens the route and keeps
// every one-way exclusion satisfied.
func (s *ORToolsStyleSolver) improve(assignments [][]*model.Location, vehicles []model.Vehicle, constraints model.RouteConstraints, speedKPH, stopTime, maxDailyTime float64) {
	deadline := time.Now().Add(wallClockBudget)

	for vIdx, route := range assignments {
		if len(route) < 3 {
			continue
		}
		depot := vehicles[vIdx].DepotCoords

		improved := true
		for improved {
			improved = false
			if time.Now().After(deadline) {
				return
			}
			for i := 0; i < len(route)-1; i++ {
				for j := i + 1; j < len(route); j++ {
					if twoOptViolatesConstraints(route, i, j, constraints) {
						continue
					}
					delta := twoOptDelta(route, i, j, depot)
					if delta < -1e-9 {
						reverse(route, i, j)
						improved = true
					}
				}
			}
		}
		assignments[vIdx] = route
	}
}

func twoOptViolatesConstraints(route []*model.Location, i, j int, constraints model.RouteConstraints) bool {
	if len(constraints.OneWayRoads) == 0 {
		return false
	}
	reversed := make([]*model.Location, len(route))
	copy(reversed, route)
	reverse(reversed, i, j)
	for k := 0; k < len(reversed)-1; k++ {
		if reversed[k] == nil || reversed[k+1] == nil {
			continue
		}
		if constraints.Forbids(reversed[k].Coordinates, reversed[k+1].Coordinates) {
			return true
		}
	}
	return false
}

func twoOptDelta(route []*model.Location, i, j int, depot geo.Coordinate) float64 {
	before := routeSegmentDistance(route, depot)
	reversed := make([]*model.Location, len(route))
	copy(reversed, route)
	reverse(reversed, i, j)
	after := routeSegmentDistance(reversed, depot)
	return after - before
}

func routeSegmentDistance(route []*model.Location, depot geo.Coordinate) float64 {
	total := 0.0
	prev := depot
	for _, loc := range route {
		cur := depot
		if loc != nil {
			cur = loc.Coordinates
		}
		total += geo.Distance(prev, cur)
		prev = cur
	}
	return total
}

func reverse(route []*model.Location, i, j int) {
	for i < j {
		route[i], route[j] = route[j], route[i]
		i++
		j--
	}
}

// fallback sorts every location by distance_from_depot into a single
// route, used on construction panic or when the heuristic cannot
// place any location.
func (s *ORToolsStyleSolver) fallback(locations []model.Location, vehicles []model.Vehicle) ([][]*model.Location, error) {
	sorted := make([]*model.Location, len(locations))
	for i := range locations {
		sorted[i] = &locations[i]
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].DistanceFromDepot < sorted[j].DistanceFromDepot })

	route := make([]*model.Location, 0, len(sorted)+2)
	route = append(route, nil)
	route = append(route, sorted...)
	route = append(route, nil)

	routes := make([][]*model.Location, len(vehicles))
	if len(vehicles) > 0 {
		routes[0] = route
	}
	return routes, nil
}
