package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix is prepended to every variable name read by ParseEnv.
const EnvPrefix = "ROBOCMD_"

// ServerConfig holds configuration for the dashboard server.
type ServerConfig struct {
	Addr        string        `env:"ADDR"`                            // Listen address; empty disables the dashboard
	SSEInterval time.Duration `env:"SSE_INTERVAL" envDefault:"500ms"` // Snapshot poll interval for /sse/scheduler
}

// SimConfig holds configuration for the simulator.
type SimConfig struct {
	Scenario      string        `env:"SCENARIO"`                     // Scenario YAML path
	Cycles        int           `env:"CYCLES"`                       // Overrides the scenario cycle count when > 0
	Period        time.Duration `env:"PERIOD"`                       // Overrides the scenario period when > 0
	Realtime      bool          `env:"REALTIME"`                     // Tick on a wall-clock ticker instead of back to back
	HaltOnFault   bool          `env:"HALT_ON_FAULT"`                // Stop at the first command fault
	MailboxSize   int           `env:"MAILBOX_SIZE" envDefault:"64"` // Dashboard request queue depth
	JournalPath   string        `env:"JOURNAL"`                      // SQLite journal path; empty disables recording
	RecordExecute bool          `env:"RECORD_EXECUTE"`               // Journal every execute call as well
	LogLevel      string        `env:"LOG_LEVEL" envDefault:"info"`  // debug, info, warn, error
	LogFormat     string        `env:"LOG_FORMAT" envDefault:"text"` // text, json
	OTLPEndpoint  string        `env:"OTLP_ENDPOINT"`                // OTLP/HTTP trace endpoint; empty disables export

	Server ServerConfig `envPrefix:"SERVER_"`
}

// DefaultServerConfig returns sensible defaults.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		SSEInterval: 500 * time.Millisecond,
	}
}

// DefaultSimConfig returns sensible defaults.
func DefaultSimConfig() SimConfig {
	return SimConfig{
		MailboxSize: 64,
		LogLevel:    "info",
		LogFormat:   "text",
		Server:      DefaultServerConfig(),
	}
}

// ParseEnv loads ROBOCMD_* variables into target.
func ParseEnv(target any) error {
	if err := env.ParseWithOptions(target, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// LoadSimConfig returns DefaultSimConfig overridden by the environment.
func LoadSimConfig() (SimConfig, error) {
	cfg := DefaultSimConfig()
	if err := ParseEnv(&cfg); err != nil {
		return SimConfig{}, err
	}
	return cfg, nil
}
