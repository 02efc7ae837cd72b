package cliconfig

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix prefixes every environment variable.
const EnvPrefix = "OTSOLVE_"

// EnvConfig is the environment layer (OTSOLVE_METHOD, OTSOLVE_EPSILON, ...).
type EnvConfig struct {
	Method       string  `env:"METHOD"`
	Epsilon      float64 `env:"EPSILON"`
	MaxIter      int     `env:"MAX_ITER"`
	Tol          float64 `env:"TOL"`
	Precision    string  `env:"PRECISION"`
	Backend      string  `env:"BACKEND"`
	Plot         string  `env:"PLOT"`
	LogLevel     string  `env:"LOG_LEVEL"`
	OTelEndpoint string  `env:"OTEL_ENDPOINT"`
}

// ParseEnv reads the OTSOLVE_* variables.
func ParseEnv() (EnvConfig, error) {
	var ec EnvConfig
	if err := env.ParseWithOptions(&ec, env.Options{Prefix: EnvPrefix}); err != nil {
		return ec, fmt.Errorf("parse env: %w", err)
	}

	return ec, nil
}

// ApplyEnvConfig copies the environment values into cfg, skipping every
// field whose flag is in changed.
func ApplyEnvConfig(cfg *Config, ec EnvConfig, changed map[string]bool) {
	s := newConfigSetter(changed)

	s.setString("method", ec.Method, &cfg.Method)
	s.setFloat("epsilon", ec.Epsilon, &cfg.Epsilon)
	s.setInt("max-iter", ec.MaxIter, &cfg.MaxIter)
	s.setFloat("tol", ec.Tol, &cfg.Tol)
	s.setString("precision", ec.Precision, &cfg.Precision)
	s.setString("backend", ec.Backend, &cfg.Backend)
	s.setString("plot", ec.Plot, &cfg.Plot)
	s.setString("log-level", ec.LogLevel, &cfg.LogLevel)
	s.setString("otel-endpoint", ec.OTelEndpoint, &cfg.OTelEndpoint)
}

// Resolve layers a problem file (when path is non-empty) and the
// environment over cfg, leaving fields whose flag is in changed untouched,
// and validates the result.
func Resolve(cfg *Config, path string, changed map[string]bool) error {
	if path != "" {
		fc, err := LoadFileConfig(path)
		if err != nil {
			return fmt.Errorf("load problem: %w", err)
		}
		ApplyFileConfig(cfg, fc, changed)
	}
	ec, err := ParseEnv()
	if err != nil {
		return err
	}
	ApplyEnvConfig(cfg, ec, changed)

	return cfg.Validate()
}
