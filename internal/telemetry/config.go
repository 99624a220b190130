package telemetry

import (
	"github.com/caarlos0/env/v11"
)

// Config is the environment-driven configuration for cmd/statetreectl,
// grounded on dmitrymomot-saaskit's caarlos0/env-based config loading
// convention (struct tags, no bespoke flag-parsing for env-sourced values).
type Config struct {
	LogLevel   string `env:"STATETREE_LOG_LEVEL" envDefault:"info"`
	DiagramDir string `env:"STATETREE_DIAGRAM_DIR" envDefault:"."`
}

// LoadConfig parses Config from the process environment.
func LoadConfig() (Config, error) {
	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
