package solver

import "github.com/portomove/wcoroute/internal/model"

// BasicSolver returns its input untouched, sandwiched by depot
// markers: no optimization, used when the schedule's allocation
// should be preserved as-is or the input is trivially small.
type BasicSolver struct {
	cfg Config
}

// NewBasicSolver builds the identity/basic solver.
func NewBasicSolver(cfg Config) *BasicSolver {
	return &BasicSolver{cfg: cfg}
}

func (s *BasicSolver) ID() string          { return IDSchedule }
func (s *BasicSolver) Name() string        { return "Basic Solver" }
func (s *BasicSolver) Description() string {
	return "Simple solver that generates routes without optimization"
}

// Solve wraps the given locations, in the order given, with depot
// markers and returns that same route once per vehicle; it does not
// split the locations between vehicles.
func (s *BasicSolver) Solve(locations []model.Location, vehicles []model.Vehicle, constraints model.RouteConstraints) ([][]*model.Location, error) {
	route := make([]*model.Location, 0, len(locations)+2)
	route = append(route, nil)
	for i := range locations {
		route = append(route, &locations[i])
	}
	route = append(route, nil)

	routes := make([][]*model.Location, len(vehicles))
	for i := range vehicles {
		routes[i] = route
	}
	return routes, nil
}
