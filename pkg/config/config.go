// Package config holds the server configuration.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config carries every tunable the server reads at startup. Port and Debug
// come from flags; the rest is environment, loaded once in main.
type Config struct {
	Debug bool
	Port  string

	// GracePeriod is how long a disconnected player may reconnect before
	// the game is forfeited to the opponent.
	GracePeriod time.Duration

	// ClockTick is the interval at which session clocks re-account elapsed
	// time so an idle player is flagged promptly.
	ClockTick time.Duration

	// AnalysisBudget bounds each suggestion/evaluation request against the
	// analysis engine. Exceeding it degrades the response, never the move.
	AnalysisBudget time.Duration

	EnginePath     string
	EnginePoolSize int

	APIKeys []string
}

const (
	defaultGracePeriod    = 30 * time.Second
	defaultClockTick      = 100 * time.Millisecond
	defaultAnalysisBudget = 500 * time.Millisecond
	defaultEnginePoolSize = 5
)

// FromEnv fills the environment-driven fields, keeping defaults for anything
// unset or unparsable.
func (c *Config) FromEnv() {
	c.GracePeriod = envDuration("GRACE_PERIOD", defaultGracePeriod)
	c.ClockTick = envDuration("CLOCK_TICK", defaultClockTick)
	c.AnalysisBudget = envDuration("ANALYSIS_BUDGET", defaultAnalysisBudget)

	c.EnginePath = strings.TrimSpace(os.Getenv("ENGINE_PATH"))
	c.EnginePoolSize = defaultEnginePoolSize
	if v := strings.TrimSpace(os.Getenv("ENGINE_POOL_SIZE")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.EnginePoolSize = n
		}
	}

	if v := strings.TrimSpace(os.Getenv("API_KEYS")); v != "" {
		for _, key := range strings.Split(v, ",") {
			if key = strings.TrimSpace(key); key != "" {
				c.APIKeys = append(c.APIKeys, key)
			}
		}
	}
}

func envDuration(name string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}
	// Plain integers are read as seconds.
	if n, err := strconv.Atoi(v); err == nil && n > 0 {
		return time.Duration(n) * time.Second
	}
	return fallback
}
