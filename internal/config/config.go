// Package config reads redg defaults from the environment. Command-line
// flags are bound with these values as their defaults, so a flag always
// overrides the variable.
package config

import (
	"fmt"
	"slices"

	"github.com/caarlos0/env/v11"
)

// Formats lists the accepted output formats.
var Formats = []string{"text", "json"}

// Config holds environment defaults for the CLI.
type Config struct {
	DB      string `env:"REDG_DB"      envDefault:"redg.db"`
	Format  string `env:"REDG_FORMAT"  envDefault:"text"`
	Verbose bool   `env:"REDG_VERBOSE"`
	Session string `env:"REDG_SESSION"`
}

// Load parses the environment and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ParseEnv loads environment variables into target.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Validate checks the values that have a closed set of options.
func (c Config) Validate() error {
	if !ValidFormat(c.Format) {
		return fmt.Errorf("invalid format %q: must be one of %v", c.Format, Formats)
	}
	if c.DB == "" {
		return fmt.Errorf("database path must not be empty")
	}
	return nil
}

// ValidFormat reports whether format is one of Formats.
func ValidFormat(format string) bool {
	return slices.Contains(Formats, format)
}
