package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/portomove/wcoroute/internal/analysis"
	"github.com/portomove/wcoroute/internal/geo"
	"github.com/portomove/wcoroute/internal/ledger"
	"github.com/portomove/wcoroute/internal/model"
	"github.com/portomove/wcoroute/internal/pipeline"
	"github.com/portomove/wcoroute/internal/registry"
	"github.com/portomove/wcoroute/internal/scheduler"
	"github.com/portomove/wcoroute/internal/solver"
)

var log = logrus.WithField("component", "httpapi")

// ValidationError marks a client-input problem (unknown solver id,
// unknown schedule id, malformed coordinates); handleOptimize maps it
// to HTTP 400, per the error taxonomy.
type ValidationError struct {
	Message string
}

func (e ValidationError) Error() string { return e.Message }

// LocationInput is one row of the `locations` array in an /optimize
// request body, the JSON counterpart of the CSV loader's columns.
type LocationInput struct {
	Name             string  `json:"name"`
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`
	WCOAmount        float64 `json:"wco_amount"`
	DisposalSchedule int     `json:"disposal_schedule"`
}

// VehicleInput is one entry in `config.settings.vehicles`.
type VehicleInput struct {
	ID       string  `json:"id"`
	Capacity float64 `json:"capacity"`
}

// ScheduleInput is one entry in the top-level `schedules` array.
type ScheduleInput struct {
	ID                    string  `json:"id"`
	Name                  string  `json:"name"`
	Frequency             int     `json:"frequency"`
	File                  string  `json:"file,omitempty"`
	CollectionTimeMinutes float64 `json:"collection_time_minutes,omitempty"`
	Color                 string  `json:"color,omitempty"`
}

// SettingsInput is `config.settings`.
type SettingsInput struct {
	DepotLocation   [2]float64     `json:"depot_location"`
	Vehicles        []VehicleInput `json:"vehicles"`
	Constraints     struct {
		OneWayRoads [][2][2]float64 `json:"one_way_roads"`
	} `json:"constraints"`
	Solver          string  `json:"solver"`
	MaxDailyTime    float64 `json:"max_daily_time"`
	AverageSpeedKPH float64 `json:"average_speed_kph"`
}

// ConfigInput is the request body's `config` field.
type ConfigInput struct {
	Settings SettingsInput `json:"settings"`
}

// OptimizeRequest is the full POST /api/optimize body.
type OptimizeRequest struct {
	Config    ConfigInput     `json:"config"`
	Locations []LocationInput `json:"locations"`
	Schedules []ScheduleInput `json:"schedules"`
}

func (s *Server) handleOptimize(w http.ResponseWriter, r *http.Request) {
	reqID := requestIDFrom(r.Context())

	var req OptimizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, reqID, ValidationError{Message: fmt.Sprintf("malformed request body: %v", err)})
		return
	}

	results, err := runOptimize(r.Context(), s.Solvers, req)
	if err != nil {
		writeError(w, reqID, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func runOptimize(ctx context.Context, solverRegistry *solver.Registry, req OptimizeRequest) ([]model.RouteAnalysisResult, error) {
	settings := req.Config.Settings

	solverID := settings.Solver
	if solverID == "" {
		solverID = solver.DefaultSolverID
	}
	chosenSolver, ok := solverRegistry.Build(solverID, solver.Config{
		SpeedKPH:     settings.AverageSpeedKPH,
		MaxDailyTime: settings.MaxDailyTime,
	})
	if !ok {
		return nil, ValidationError{Message: fmt.Sprintf("unknown solver id %q", solverID)}
	}

	if len(settings.Vehicles) == 0 {
		return nil, ValidationError{Message: "config.settings.vehicles must be non-empty"}
	}

	depot := geo.Coordinate{Lat: settings.DepotLocation[0], Lon: settings.DepotLocation[1]}
	vehicles := make([]model.Vehicle, len(settings.Vehicles))
	for i, v := range settings.Vehicles {
		vehicles[i] = model.Vehicle{ID: v.ID, Capacity: v.Capacity, DepotCoords: depot}
	}

	var constraints model.RouteConstraints
	for _, edge := range settings.Constraints.OneWayRoads {
		constraints.OneWayRoads = append(constraints.OneWayRoads, model.RoadEdge{
			From: geo.Coordinate{Lat: edge[0][0], Lon: edge[0][1]},
			To:   geo.Coordinate{Lat: edge[1][0], Lon: edge[1][1]},
		})
	}

	if len(req.Schedules) == 0 {
		return nil, ValidationError{Message: "schedules must be non-empty"}
	}
	schedules := make([]model.ScheduleEntry, len(req.Schedules))
	for i, se := range req.Schedules {
		if se.ID == "" {
			return nil, ValidationError{Message: "schedule id must not be empty"}
		}
		schedules[i] = model.ScheduleEntry{
			ID:                    se.ID,
			Name:                  se.Name,
			Frequency:             se.Frequency,
			File:                  se.File,
			CollectionTimeMinutes: se.CollectionTimeMinutes,
			Color:                 se.Color,
		}
	}

	reg := registry.New()
	for _, li := range req.Locations {
		loc := model.Location{
			ID:               model.NewLocationID(),
			Name:             li.Name,
			Coordinates:      geo.Coordinate{Lat: li.Latitude, Lon: li.Longitude},
			WCOAmount:        li.WCOAmount,
			DisposalSchedule: li.DisposalSchedule,
		}
		loc.DistanceFromDepot = geo.Distance(depot, loc.Coordinates)
		reg.Add(loc)
	}

	speedKPH := settings.AverageSpeedKPH
	if speedKPH <= 0 {
		speedKPH = geo.AverageSpeedKPH
	}
	maxDailyTime := settings.MaxDailyTime
	if maxDailyTime <= 0 {
		maxDailyTime = geo.MaxDailyTime
	}

	driver := &pipeline.Driver{
		Registry:     reg,
		Vehicles:     vehicles,
		Depot:        depot,
		Constraints:  constraints,
		Solver:       chosenSolver,
		Scheduler:    scheduler.New(schedules, speedKPH, maxDailyTime),
		Ledger:       ledger.New(maxDailyTime, speedKPH),
		SpeedKPH:     speedKPH,
		MaxDailyTime: maxDailyTime,
	}

	runs, err := driver.Run(ctx, schedules)
	if err != nil {
		return nil, err
	}

	results := make([]model.RouteAnalysisResult, 0, len(runs))
	for _, run := range runs {
		result := analysis.BuildRouteAnalysisResult(driver.Ledger, run.Schedule, run.Day, vehicles, run.Missing)
		result.DateGenerated = time.Now().UTC()
		results = append(results, result)
	}
	return results, nil
}

func (s *Server) handleSolvers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Solvers.Describe())
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Config)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Error("failed to encode JSON response")
	}
}

func writeError(w http.ResponseWriter, requestID string, err error) {
	status := http.StatusInternalServerError
	if _, ok := err.(ValidationError); ok {
		status = http.StatusBadRequest
	} else {
		log.WithField("request_id", requestID).WithError(err).Error("unhandled error in optimize handler")
	}
	writeJSON(w, status, map[string]string{"error": err.Error(), "request_id": requestID})
}
