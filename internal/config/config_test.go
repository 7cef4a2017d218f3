package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultUsesScheduleSolverAndGeoDefaults(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "schedule", cfg.Solver)
	assert.Equal(t, 420.0, cfg.MaxDailyTime)
	assert.Equal(t, 30.0, cfg.AverageSpeedKPH)
}

func TestParsePortFallsBackOnGarbage(t *testing.T) {
	assert.Equal(t, 8080, ParsePort("not-a-port"))
	assert.Equal(t, 9090, ParsePort("9090"))
	assert.Equal(t, 8080, ParsePort("-5"))
}

func TestGetEnvFallback(t *testing.T) {
	t.Setenv("WCOROUTE_TEST_KEY", "")
	assert.Equal(t, "fallback", getEnv("WCOROUTE_TEST_KEY", "fallback"))
	t.Setenv("WCOROUTE_TEST_KEY", "set")
	assert.Equal(t, "set", getEnv("WCOROUTE_TEST_KEY", "fallback"))
}
