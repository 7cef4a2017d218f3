// Command wcoroute runs the WCO collection routing core: either a one-shot
// CLI pass over one locations CSV file, or an HTTP server exposing
// POST /api/optimize, GET /api/solvers, and GET /api/config.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/portomove/wcoroute/internal/analysis"
	"github.com/portomove/wcoroute/internal/archive"
	"github.com/portomove/wcoroute/internal/config"
	"github.com/portomove/wcoroute/internal/geo"
	"github.com/portomove/wcoroute/internal/httpapi"
	"github.com/portomove/wcoroute/internal/ledger"
	"github.com/portomove/wcoroute/internal/loader"
	"github.com/portomove/wcoroute/internal/model"
	"github.com/portomove/wcoroute/internal/pipeline"
	"github.com/portomove/wcoroute/internal/registry"
	"github.com/portomove/wcoroute/internal/scheduler"
	"github.com/portomove/wcoroute/internal/solver"
)

var log = logrus.WithField("component", "cmd")

func main() {
	solverID := flag.String("solver", solver.DefaultSolverID, "solver id to use for the CLI pass (ortools, greedy, nearest, schedule)")
	apiMode := flag.Bool("api", false, "run the HTTP server instead of a one-shot CLI pass")
	port := flag.Int("port", 0, "port to bind in --api mode (defaults to $PORT or 8080)")
	disableScheduling := flag.Bool("disable-scheduling", false, "skip the scheduler's geo-clustering pass, treating every schedule's locations as a single cluster")
	locationsFile := flag.String("locations", "", "CSV file of locations for the CLI pass (required unless --api)")
	flag.Parse()

	env := config.Load()
	cfg := config.Default()
	if *solverID != "" {
		cfg.Solver = *solverID
	}

	if *apiMode {
		runServer(env, cfg, *port)
		return
	}

	if *locationsFile == "" {
		log.Fatal("--locations is required unless --api is set")
	}
	if err := runCLI(cfg, *locationsFile, *disableScheduling); err != nil {
		log.WithError(err).Fatal("CLI pass failed")
	}
}

func runServer(env config.Env, cfg config.RunConfig, portFlag int) {
	srv := httpapi.NewServer(cfg)

	port := env.Port
	if portFlag > 0 {
		port = fmt.Sprintf("%d", portFlag)
	}
	addr := ":" + port

	httpServer := &http.Server{Addr: addr, Handler: srv.Router()}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		<-sigCh
		log.Info("shutdown signal received")
		shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 10*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Error("graceful shutdown failed")
		}
		cancel()
	}()

	log.WithField("addr", addr).Info("starting HTTP server")
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.WithError(err).Fatal("HTTP server failed")
	}
}

// runCLI mirrors the original `main.py` one-shot pass: one schedule per
// distinct disposal frequency found in the locations file, each run
// through the configured solver, with each day's analysis printed as
// JSON and (if R2 is configured) archived as Parquet.
func runCLI(cfg config.RunConfig, locationsFile string, disableScheduling bool) error {
	locations, err := loader.LoadCSV(locationsFile)
	if err != nil {
		return fmt.Errorf("load locations: %w", err)
	}
	if len(locations) == 0 {
		log.Warn("no locations loaded, nothing to do")
		return nil
	}

	if len(cfg.Vehicles) == 0 {
		cfg.Vehicles = []config.VehicleConfig{{ID: "vehicle-1", Capacity: 1000}}
	}
	depot := geo.Coordinate{Lat: cfg.DepotLat, Lon: cfg.DepotLon}

	vehicles := make([]model.Vehicle, len(cfg.Vehicles))
	for i, v := range cfg.Vehicles {
		vehicles[i] = model.Vehicle{ID: v.ID, Capacity: v.Capacity, DepotCoords: depot}
	}

	chosenSolver, ok := solver.NewRegistry().Build(cfg.Solver, solver.Config{
		SpeedKPH:     cfg.AverageSpeedKPH,
		MaxDailyTime: cfg.MaxDailyTime,
	})
	if !ok {
		return fmt.Errorf("unknown solver id %q", cfg.Solver)
	}

	freqs := distinctFrequencies(locations)
	schedules := make([]model.ScheduleEntry, len(freqs))
	for i, f := range freqs {
		schedules[i] = model.ScheduleEntry{
			ID:        fmt.Sprintf("schedule-%d", f),
			Name:      fmt.Sprintf("Every %d days", f),
			Frequency: f,
		}
	}

	reg := registry.New()
	for _, loc := range locations {
		loc.DistanceFromDepot = geo.Distance(depot, loc.Coordinates)
		reg.Add(loc)
	}

	sched := scheduler.New(schedules, cfg.AverageSpeedKPH, cfg.MaxDailyTime)

	driver := &pipeline.Driver{
		Registry:          reg,
		Vehicles:          vehicles,
		Depot:             depot,
		Solver:            chosenSolver,
		Scheduler:         sched,
		Ledger:            ledger.New(cfg.MaxDailyTime, cfg.AverageSpeedKPH),
		SpeedKPH:          cfg.AverageSpeedKPH,
		MaxDailyTime:      cfg.MaxDailyTime,
		DisableGeoCluster: disableScheduling,
	}

	ctx := context.Background()
	runs, err := driver.Run(ctx, schedules)
	if err != nil {
		return fmt.Errorf("run pipeline: %w", err)
	}

	r2Client, r2Bucket := archive.NewR2Client()

	for _, run := range runs {
		result := analysis.BuildRouteAnalysisResult(driver.Ledger, run.Schedule, run.Day, vehicles, run.Missing)
		result.DateGenerated = time.Now().UTC()

		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal result for schedule %s: %w", run.Schedule.ID, err)
		}
		fmt.Println(string(out))

		if err := archive.ArchiveRouteAnalysis(ctx, r2Client, r2Bucket, result); err != nil {
			log.WithField("schedule_id", run.Schedule.ID).WithError(err).Warn("archival failed, continuing")
		}
	}

	return nil
}

func distinctFrequencies(locations []model.Location) []int {
	seen := make(map[int]bool)
	var out []int
	for _, loc := range locations {
		if !seen[loc.DisposalSchedule] {
			seen[loc.DisposalSchedule] = true
			out = append(out, loc.DisposalSchedule)
		}
	}
	return out
}
