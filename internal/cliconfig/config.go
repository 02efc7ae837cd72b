// Package cliconfig resolves the otsolve configuration from defaults, a TOML
// problem file, OTSOLVE_* environment variables and command-line flags, in
// increasing order of precedence.
package cliconfig

import (
	"errors"
	"fmt"
	"math"
	"slices"
)

// Solver methods.
const (
	MethodSinkhorn       = "sinkhorn"
	MethodStabilized     = "stabilized"
	MethodEpsilonScaling = "epsilon-scaling"
	MethodUnbalanced     = "unbalanced"
	MethodQuadratic      = "quadratic"
	MethodExact          = "exact"
	MethodBarycenter     = "barycenter"
)

// Methods lists every accepted method name.
var Methods = []string{
	MethodSinkhorn, MethodStabilized, MethodEpsilonScaling, MethodUnbalanced,
	MethodQuadratic, MethodExact, MethodBarycenter,
}

// Precisions and backends.
var (
	Precisions = []string{"float64", "float32"}
	Backends   = []string{"cpu", "parallel", "gonum"}
)

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("cliconfig: invalid configuration")

// Config is the resolved solver configuration.
type Config struct {
	Method    string
	Epsilon   float64
	Schedule  []float64 // epsilon-scaling stages; empty derives one from Epsilon
	Lambda1   float64   // 0 means +Inf
	Lambda2   float64   // 0 means +Inf
	MaxIter   int
	Tol       float64 // 0 selects the precision default
	Precision string
	Backend   string

	AbsorbThreshold    float64
	WithRegularization bool
	Stabilized         bool
	Debias             string // auto, on, off
	Concurrent         bool

	Plot         string // residual-history PNG, empty disables
	LogLevel     string
	OTelEndpoint string

	Problem Problem
}

// Problem is the numeric input of one solve.
type Problem struct {
	Mu, Nu []float64
	Cost   [][]float64 // explicit cost; wins over X/Y and Grid
	X, Y   [][]float64 // point clouds for costs.Pairwise
	Metric string
	Grid   int // n-point grid on [0,1] when Cost and X/Y are absent

	Marginals [][]float64 // barycenter inputs, one marginal per entry
	Weights   []float64   // barycenter weights; empty means uniform
}

// DefaultConfig returns the defaults before any file, env or flag.
func DefaultConfig() Config {
	return Config{
		Method:    MethodSinkhorn,
		Epsilon:   0.1,
		MaxIter:   1000,
		Precision: "float64",
		Backend:   "cpu",
		Debias:    "auto",
		LogLevel:  "info",
		Problem:   Problem{Metric: "sqeuclidean"},
	}
}

// Validate checks the resolved configuration.
func (c *Config) Validate() error {
	if !slices.Contains(Methods, c.Method) {
		return fmt.Errorf("method %q (want one of %v): %w", c.Method, Methods, ErrInvalid)
	}
	if !slices.Contains(Precisions, c.Precision) {
		return fmt.Errorf("precision %q: %w", c.Precision, ErrInvalid)
	}
	if !slices.Contains(Backends, c.Backend) {
		return fmt.Errorf("backend %q: %w", c.Backend, ErrInvalid)
	}
	if c.Backend == "gonum" && c.Precision != "float64" {
		return fmt.Errorf("gonum backend needs float64 precision: %w", ErrInvalid)
	}
	if c.Method != MethodExact && !(c.Epsilon > 0) && len(c.Schedule) == 0 {
		return fmt.Errorf("epsilon %g must be positive: %w", c.Epsilon, ErrInvalid)
	}
	if c.MaxIter <= 0 {
		return fmt.Errorf("max-iter %d must be positive: %w", c.MaxIter, ErrInvalid)
	}
	if c.Tol < 0 || math.IsNaN(c.Tol) {
		return fmt.Errorf("tol %g: %w", c.Tol, ErrInvalid)
	}
	if c.Lambda1 < 0 || c.Lambda2 < 0 {
		return fmt.Errorf("lambda must be positive: %w", ErrInvalid)
	}
	if !slices.Contains([]string{"auto", "on", "off"}, c.Debias) {
		return fmt.Errorf("debias %q: %w", c.Debias, ErrInvalid)
	}

	return nil
}

// configSetter applies a value unless the matching flag was set explicitly.
type configSetter struct {
	changed map[string]bool
}

func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

func (s *configSetter) setFloat(flag string, value float64, dst *float64) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

func (s *configSetter) setFloats(flag string, value []float64, dst *[]float64) {
	if len(value) == 0 || s.changed[flag] {
		return
	}
	*dst = slices.Clone(value)
}
