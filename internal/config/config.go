// Package config resolves process configuration: a .env file loaded
// via godotenv (ignored if absent) layered under real environment
// variables, then defaulted the way the domain's own Config model
// defaults solver/speed/time fields.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/portomove/wcoroute/internal/geo"
	"github.com/portomove/wcoroute/internal/solver"
)

// Env holds the process-level settings read from the environment.
// ORS_* belong to the out-of-scope rendering collaborator; the core
// never calls out to them, and GET /api/config does not serve them (it
// serves a RunConfig).
type Env struct {
	Port        string
	DatabaseURL string
	ORSAPIKey   string
	ORSBaseURL  string
	R2Endpoint  string
	R2Bucket    string
}

// Load attempts godotenv.Load() (silently ignored if no .env file is
// present — containers and CI set real environment variables) and then
// reads process env into an Env, applying defaults.
func Load() Env {
	if err := godotenv.Load(); err != nil {
		logrus.WithField("component", "config").Debug("no .env file found, using process environment")
	}

	return Env{
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		ORSAPIKey:   os.Getenv("ORS_API_KEY"),
		ORSBaseURL:  getEnv("ORS_BASE_URL", "https://api.openrouteservice.org"),
		R2Endpoint:  os.Getenv("R2_ENDPOINT"),
		R2Bucket:    getEnv("R2_BUCKET", "porto-move"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// RunConfig is the routing-domain config resolved per request or per
// CLI invocation: depot, vehicles, constraints, solver choice, and the
// two global tunables (max_daily_time, average_speed_kph).
type RunConfig struct {
	DepotLat        float64
	DepotLon        float64
	Vehicles        []VehicleConfig
	Solver          string
	MaxDailyTime    float64
	AverageSpeedKPH float64
}

// VehicleConfig is one vehicle entry within a RunConfig.
type VehicleConfig struct {
	ID       string
	Capacity float64
}

// Default returns the system's baked-in default RunConfig, the value
// GET /api/config serves and the CLI falls back to absent a request
// body.
func Default() RunConfig {
	return RunConfig{
		Solver:          solver.DefaultSolverID,
		MaxDailyTime:    geo.MaxDailyTime,
		AverageSpeedKPH: geo.AverageSpeedKPH,
	}
}

// ParsePort parses a port string for use with net.Listen, defaulting to
// 8080 on a malformed value.
func ParsePort(s string) int {
	p, err := strconv.Atoi(s)
	if err != nil || p <= 0 {
		return 8080
	}
	return p
}
