package pipeline

import (
	"math"

	"github.com/portomove/wcoroute/internal/geo"
	"github.com/portomove/wcoroute/internal/model"
	"github.com/portomove/wcoroute/internal/scheduler"
)

// lazyPatch inserts a single location the solver dropped back into
// whichever vehicle's depot sits nearest it, provided capacity
// allows. It only fires when the solver's output is missing exactly
// one location relative to the scheduler's input; any larger gap is
// left to the per-schedule missing report instead of being patched.
func lazyPatch(routes [][]*model.Location, assignments []scheduler.Assignment, vehicles []model.Vehicle, depot geo.Coordinate) [][]*model.Location {
	inputIDs := make(map[string]model.Location)
	for _, a := range assignments {
		for _, loc := range a.Locations {
			inputIDs[loc.ID] = loc
		}
	}

	outputIDs := make(map[string]bool)
	for _, route := range routes {
		for _, loc := range route {
			if loc != nil {
				outputIDs[loc.ID] = true
			}
		}
	}

	var missing []model.Location
	for id, loc := range inputIDs {
		if !outputIDs[id] {
			missing = append(missing, loc)
		}
	}
	if len(missing) != 1 {
		return routes
	}
	target := missing[0]

	nearestVehicle := -1
	nearestDist := math.MaxFloat64
	for i, v := range vehicles {
		if i >= len(routes) {
			continue
		}
		d := geo.Distance(v.DepotCoords, target.Coordinates)
		if d < nearestDist {
			nearestDist = d
			nearestVehicle = i
		}
	}
	if nearestVehicle < 0 {
		return routes
	}

	vehicleLoad := 0.0
	for _, loc := range routes[nearestVehicle] {
		if loc != nil {
			vehicleLoad += loc.WCOAmount
		}
	}
	if vehicleLoad+target.WCOAmount > vehicles[nearestVehicle].Capacity {
		return routes
	}

	route := routes[nearestVehicle]
	if len(route) == 0 {
		routes[nearestVehicle] = []*model.Location{nil, &target, nil}
		return routes
	}

	insertAt := nearestStopIndex(route, target.Coordinates, depot)
	patched := make([]*model.Location, 0, len(route)+1)
	patched = append(patched, route[:insertAt]...)
	patched = append(patched, &target)
	patched = append(patched, route[insertAt:]...)
	routes[nearestVehicle] = patched

	return routes
}

// nearestStopIndex finds the position in route whose coordinate (or
// the depot, for a nil marker) lies closest to target, so the patched
// stop lands next to its nearest existing neighbor rather than at an
// arbitrary end of the route.
func nearestStopIndex(route []*model.Location, target, depot geo.Coordinate) int {
	best := len(route)
	bestDist := math.MaxFloat64
	for i, loc := range route {
		coord := depot
		if loc != nil {
			coord = loc.Coordinates
		}
		d := geo.Distance(coord, target)
		if d < bestDist {
			bestDist = d
			best = i
		}
	}
	return best
}
