package solver

import (
	"math"
	"sort"

	"github.com/portomove/wcoroute/internal/geo"
	"github.com/portomove/wcoroute/internal/model"
)

// NearestNeighborSolver greedily picks the closest feasible unvisited
// location for each vehicle in turn, rather than attempting to route
// the whole fleet jointly. Fast, but does not rebalance load across
// vehicles the way the OR-Tools-style solver does.
type NearestNeighborSolver struct {
	cfg Config
}

// NewNearestNeighborSolver builds the nearest-neighbor solver.
func NewNearestNeighborSolver(cfg Config) *NearestNeighborSolver {
	return &NearestNeighborSolver{cfg: cfg}
}

func (s *NearestNeighborSolver) ID() string   { return IDNearest }
func (s *NearestNeighborSolver) Name() string { return "Nearest Neighbor Solver" }
func (s *NearestNeighborSolver) Description() string {
	return "Simple solver that always chooses the closest next location. Fast but may not find optimal solutions."
}

// Solve fills one vehicle at a time, each step visiting the unvisited
// location closest to the vehicle's current position, and inserts depot
// markers on capacity exhaustion (90% soft threshold). Candidates are
// held in a map, so the farthest-from-depot ordering built first does
// not affect which location is picked; equal distances are resolved in
// map iteration order. One-way road constraints are ignored: only the
// OR-Tools-style solver honors them, per spec.
func (s *NearestNeighborSolver) Solve(locations []model.Location, vehicles []model.Vehicle, constraints model.RouteConstraints) ([][]*model.Location, error) {
	if len(locations) == 0 {
		return make([][]*model.Location, len(vehicles)), nil
	}

	priority := make([]*model.Location, len(locations))
	for i := range locations {
		priority[i] = &locations[i]
	}
	sort.Slice(priority, func(i, j int) bool {
		if priority[i].DistanceFromDepot != priority[j].DistanceFromDepot {
			return priority[i].DistanceFromDepot > priority[j].DistanceFromDepot
		}
		return priority[i].WCOAmount > priority[j].WCOAmount
	})

	remaining := make(map[string]*model.Location, len(priority))
	for _, loc := range priority {
		remaining[loc.ID] = loc
	}

	routes := make([][]*model.Location, len(vehicles))

	for vIdx, vehicle := range vehicles {
		route := []*model.Location{nil}
		currentLoad := 0.0
		currentPos := vehicle.DepotCoords
		atDepot := true

		for len(remaining) > 0 {
			var best *model.Location
			bestDist := math.MaxFloat64

			for _, loc := range remaining {
				d := geo.Distance(currentPos, loc.Coordinates)
				if d < bestDist {
					bestDist = d
					best = loc
				}
			}

			if best == nil {
				break
			}

			if currentLoad+best.WCOAmount > vehicle.Capacity {
				if !atDepot {
					route = append(route, nil)
					currentLoad = 0
					currentPos = vehicle.DepotCoords
					atDepot = true
				}
				if best.WCOAmount > vehicle.Capacity {
					// No vehicle configuration lets this single stop
					// fit; leave it for the next vehicle or the
					// pipeline's unassigned report.
					break
				}
				continue
			}

			route = append(route, best)
			currentLoad += best.WCOAmount
			currentPos = best.Coordinates
			atDepot = false
			delete(remaining, best.ID)

			if currentLoad >= 0.9*vehicle.Capacity {
				route = append(route, nil)
				currentLoad = 0
				currentPos = vehicle.DepotCoords
				atDepot = true
			}
		}

		if route[len(route)-1] != nil {
			route = append(route, nil)
		}
		routes[vIdx] = route
	}

	return routes, nil
}
