package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Env holds process-level settings read from the environment.
type Env struct {
	DataDir  string `env:"SCMODEL_DATA_DIR" envDefault:".scmodel"`
	LogLevel string `env:"SCMODEL_LOG_LEVEL" envDefault:"info"`
	Workers  int    `env:"SCMODEL_WORKERS" envDefault:"0"`
}

// ParseEnv loads Env from environment variables.
func ParseEnv() (Env, error) {
	var e Env
	if err := env.Parse(&e); err != nil {
		return Env{}, fmt.Errorf("parse env: %w", err)
	}
	return e, nil
}
