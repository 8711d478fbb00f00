package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Host holds preferences of the embedding host, read from the environment.
type Host struct {
	ReducedMotion bool   `env:"CAROUSEL_REDUCED_MOTION" envDefault:"false"`
	LogLevel      string `env:"CAROUSEL_LOG_LEVEL" envDefault:"info"`
	LogFile       string `env:"CAROUSEL_LOG_FILE"`
}

// HostFromEnv loads host preferences from environment variables.
func HostFromEnv() (Host, error) {
	var h Host
	if err := env.Parse(&h); err != nil {
		return Host{}, fmt.Errorf("parse env: %w", err)
	}
	return h, nil
}

// WithHost applies host preferences. A host preferring reduced motion wins
// over the declared setting.
func (s Settings) WithHost(h Host) Settings {
	if h.ReducedMotion {
		s.ReducedMotion = true
	}
	return s
}
