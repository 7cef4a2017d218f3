// Package solver implements the CVRP solver family: pluggable
// strategies that take a scheduler's per-vehicle assignment and
// reorder it into an efficient, depot-bracketed route.
package solver

import (
	"github.com/portomove/wcoroute/internal/model"
)

// Solver is the capability every routing strategy implements. A nil
// entry in a returned route marks a depot visit (trip start, end, or
// mid-route return).
type Solver interface {
	Solve(locations []model.Location, vehicles []model.Vehicle, constraints model.RouteConstraints) ([][]*model.Location, error)
	ID() string
	Name() string
	Description() string
}

// Well-known solver ids, matching the HTTP façade's solver registry.
const (
	IDORTools  = "ortools"
	IDGreedy   = "greedy"
	IDNearest  = "nearest"
	IDSchedule = "schedule"
)

// DefaultSolverID is used when a caller does not specify one.
const DefaultSolverID = IDSchedule

// Config carries the tunables every constructor needs: the shared
// speed/time parameters the distance and time callbacks are built from.
// The OR-Tools-style solver's wall-clock budget is not part of Config; it
// is the fixed wallClockBudget constant.
type Config struct {
	SpeedKPH        float64
	MaxDailyTime    float64
	StopTimeMinutes float64
}

// Registry is a process-wide mapping from solver id to constructor,
// owned by the driver or injected at the HTTP boundary.
type Registry struct {
	constructors map[string]func(Config) Solver
}

// NewRegistry builds the registry with every built-in solver
// registered under its well-known id.
func NewRegistry() *Registry {
	r := &Registry{constructors: make(map[string]func(Config) Solver)}
	r.Register(IDORTools, func(cfg Config) Solver { return NewORToolsStyleSolver(cfg) })
	r.Register(IDGreedy, func(cfg Config) Solver { return NewGreedySolver(cfg) })
	r.Register(IDNearest, func(cfg Config) Solver { return NewNearestNeighborSolver(cfg) })
	r.Register(IDSchedule, func(cfg Config) Solver { return NewBasicSolver(cfg) })
	return r
}

// Register adds or replaces the constructor for a solver id.
func (r *Registry) Register(id string, ctor func(Config) Solver) {
	r.constructors[id] = ctor
}

// Build instantiates the solver registered under id, or false if no
// such id is registered (a ValidationError at the HTTP boundary).
func (r *Registry) Build(id string, cfg Config) (Solver, bool) {
	ctor, ok := r.constructors[id]
	if !ok {
		return nil, false
	}
	return ctor(cfg), true
}

// Describe lists every registered solver's {id, name, description},
// for the GET /api/solvers façade.
func (r *Registry) Describe() []Description {
	out := make([]Description, 0, len(r.constructors))
	for id, ctor := range r.constructors {
		s := ctor(Config{})
		out = append(out, Description{ID: id, Name: s.Name(), Description: s.Description()})
	}
	return out
}

// Description is one entry in the solver registry listing.
type Description struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}
