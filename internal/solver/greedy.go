package solver

import (
	"math"
	"sort"

	"github.com/portomove/wcoroute/internal/geo"
	"github.com/portomove/wcoroute/internal/model"
)

// GreedySolver sorts locations by (-distance_from_depot, -wco) and,
// per vehicle, repeatedly takes the closest feasible remaining
// location until capacity drops below a fixed threshold, then returns
// to depot.
type GreedySolver struct {
	cfg Config
}

// minRemainingCapacity is the fixed threshold below which a vehicle
// returns to the depot rather than continuing its route.
const minRemainingCapacity = 100.0

// NewGreedySolver builds the greedy solver.
func NewGreedySolver(cfg Config) *GreedySolver {
	return &GreedySolver{cfg: cfg}
}

func (s *GreedySolver) ID() string   { return IDGreedy }
func (s *GreedySolver) Name() string { return "Greedy Solver" }
func (s *GreedySolver) Description() string {
	return "Fast solver that prioritizes closest locations and maximum capacity utilization. Good for simple routes."
}

// Solve builds one route per vehicle via repeated nearest-feasible
// selection from a candidate pool shared across vehicles. The pool is a
// map, so the (-distance_from_depot, -wco) ordering built first does not
// affect which location is picked; equal distances are resolved in map
// iteration order.
func (s *GreedySolver) Solve(locations []model.Location, vehicles []model.Vehicle, constraints model.RouteConstraints) ([][]*model.Location, error) {
	if len(locations) == 0 {
		return make([][]*model.Location, len(vehicles)), nil
	}

	priorities := make([]*model.Location, len(locations))
	for i := range locations {
		priorities[i] = &locations[i]
	}
	sort.Slice(priorities, func(i, j int) bool {
		if priorities[i].DistanceFromDepot != priorities[j].DistanceFromDepot {
			return priorities[i].DistanceFromDepot > priorities[j].DistanceFromDepot
		}
		return priorities[i].WCOAmount > priorities[j].WCOAmount
	})

	remaining := make(map[string]*model.Location, len(priorities))
	for _, loc := range priorities {
		remaining[loc.ID] = loc
	}

	routes := make([][]*model.Location, len(vehicles))
	for vIdx, vehicle := range vehicles {
		routes[vIdx] = s.buildRoute(vehicle, remaining)
	}
	return routes, nil
}

// buildRoute ignores one-way road constraints entirely: only the
// OR-Tools-style solver honors them, per spec.
func (s *GreedySolver) buildRoute(vehicle model.Vehicle, remaining map[string]*model.Location) []*model.Location {
	route := []*model.Location{nil}
	remainingCapacity := vehicle.Capacity
	currentPos := vehicle.DepotCoords
	atDepot := true

	for len(remaining) > 0 {
		var best *model.Location
		bestDist := math.MaxFloat64

		for _, loc := range remaining {
			if loc.WCOAmount > remainingCapacity {
				continue
			}
			d := geo.Distance(currentPos, loc.Coordinates)
			if d < bestDist {
				bestDist = d
				best = loc
			}
		}

		if best == nil {
			if atDepot {
				break
			}
			route = append(route, nil)
			remainingCapacity = vehicle.Capacity
			currentPos = vehicle.DepotCoords
			atDepot = true
			continue
		}

		route = append(route, best)
		remainingCapacity -= best.WCOAmount
		currentPos = best.Coordinates
		atDepot = false
		delete(remaining, best.ID)

		if remainingCapacity < minRemainingCapacity {
			route = append(route, nil)
			remainingCapacity = vehicle.Capacity
			currentPos = vehicle.DepotCoords
			atDepot = true
		}
	}

	if route[len(route)-1] != nil {
		route = append(route, nil)
	}
	return route
}
