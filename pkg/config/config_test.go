package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnvDefaults(t *testing.T) {
	var c Config
	c.FromEnv()

	assert.Equal(t, 30*time.Second, c.GracePeriod)
	assert.Equal(t, 100*time.Millisecond, c.ClockTick)
	assert.Equal(t, 500*time.Millisecond, c.AnalysisBudget)
	assert.Equal(t, 5, c.EnginePoolSize)
	assert.Empty(t, c.EnginePath)
	assert.Empty(t, c.APIKeys)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("GRACE_PERIOD", "45s")
	t.Setenv("CLOCK_TICK", "250ms")
	t.Setenv("ANALYSIS_BUDGET", "2")
	t.Setenv("ENGINE_PATH", " /usr/bin/stockfish ")
	t.Setenv("ENGINE_POOL_SIZE", "3")
	t.Setenv("API_KEYS", "alpha, beta,,gamma ")

	var c Config
	c.FromEnv()

	assert.Equal(t, 45*time.Second, c.GracePeriod)
	assert.Equal(t, 250*time.Millisecond, c.ClockTick)
	assert.Equal(t, 2*time.Second, c.AnalysisBudget, "plain integers read as seconds")
	assert.Equal(t, "/usr/bin/stockfish", c.EnginePath)
	assert.Equal(t, 3, c.EnginePoolSize)
	assert.Equal(t, []string{"alpha", "beta", "gamma"}, c.APIKeys)
}

func TestFromEnvIgnoresGarbage(t *testing.T) {
	t.Setenv("GRACE_PERIOD", "soon")
	t.Setenv("CLOCK_TICK", "-5s")
	t.Setenv("ENGINE_POOL_SIZE", "zero")

	var c Config
	c.FromEnv()

	assert.Equal(t, 30*time.Second, c.GracePeriod)
	assert.Equal(t, 100*time.Millisecond, c.ClockTick)
	assert.Equal(t, 5, c.EnginePoolSize)
}
