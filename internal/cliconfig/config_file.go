package cliconfig

import (
	"fmt"
	"os"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig is the TOML layout of a problem file:
//
//	[solver]
//	method = "sinkhorn"
//	epsilon = 0.05
//
//	[problem]
//	mu = [0.5, 0.5]
//	nu = [0.5, 0.5]
//	cost = [[0, 1], [1, 0]]
type FileConfig struct {
	Solver  SolverSection  `toml:"solver"`
	Problem ProblemSection `toml:"problem"`
}

// SolverSection holds the solver knobs; zero values leave defaults alone.
type SolverSection struct {
	Method             string    `toml:"method"`
	Epsilon            float64   `toml:"epsilon"`
	Schedule           []float64 `toml:"schedule"`
	Lambda1            float64   `toml:"lambda1"`
	Lambda2            float64   `toml:"lambda2"`
	MaxIter            int       `toml:"max_iter"`
	Tol                float64   `toml:"tol"`
	Precision          string    `toml:"precision"`
	Backend            string    `toml:"backend"`
	AbsorbThreshold    float64   `toml:"absorb_threshold"`
	WithRegularization *bool     `toml:"with_regularization"`
	Stabilized         *bool     `toml:"stabilized"`
	Debias             string    `toml:"debias"`
	Concurrent         *bool     `toml:"concurrent"`
	Plot               string    `toml:"plot"`
	LogLevel           string    `toml:"log_level"`
}

// ProblemSection mirrors Problem.
type ProblemSection struct {
	Mu        []float64   `toml:"mu"`
	Nu        []float64   `toml:"nu"`
	Cost      [][]float64 `toml:"cost"`
	X         [][]float64 `toml:"x"`
	Y         [][]float64 `toml:"y"`
	Metric    string      `toml:"metric"`
	Grid      int         `toml:"grid"`
	Marginals [][]float64 `toml:"marginals"`
	Weights   []float64   `toml:"weights"`
}

// LoadFileConfig reads and parses a TOML problem file.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, fmt.Errorf("parse %s: %w", path, err)
	}

	return fc, nil
}

// ApplyFileConfig copies the file values into cfg, skipping every field
// whose flag is in changed. The problem section is always taken from the file.
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) {
	s := newConfigSetter(changed)
	sv := fc.Solver

	s.setString("method", sv.Method, &cfg.Method)
	s.setFloat("epsilon", sv.Epsilon, &cfg.Epsilon)
	s.setFloats("schedule", sv.Schedule, &cfg.Schedule)
	s.setFloat("lambda1", sv.Lambda1, &cfg.Lambda1)
	s.setFloat("lambda2", sv.Lambda2, &cfg.Lambda2)
	s.setInt("max-iter", sv.MaxIter, &cfg.MaxIter)
	s.setFloat("tol", sv.Tol, &cfg.Tol)
	s.setString("precision", sv.Precision, &cfg.Precision)
	s.setString("backend", sv.Backend, &cfg.Backend)
	s.setFloat("absorb-threshold", sv.AbsorbThreshold, &cfg.AbsorbThreshold)
	s.setBool("with-regularization", sv.WithRegularization, &cfg.WithRegularization)
	s.setBool("stabilized", sv.Stabilized, &cfg.Stabilized)
	s.setString("debias", sv.Debias, &cfg.Debias)
	s.setBool("concurrent", sv.Concurrent, &cfg.Concurrent)
	s.setString("plot", sv.Plot, &cfg.Plot)
	s.setString("log-level", sv.LogLevel, &cfg.LogLevel)

	p := fc.Problem
	cfg.Problem = Problem{
		Mu: p.Mu, Nu: p.Nu, Cost: p.Cost, X: p.X, Y: p.Y,
		Metric: cfg.Problem.Metric, Grid: p.Grid,
		Marginals: p.Marginals, Weights: p.Weights,
	}
	if p.Metric != "" {
		cfg.Problem.Metric = p.Metric
	}
}

// FileExists reports whether p can be stat'ed.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
