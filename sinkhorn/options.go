// SPDX-License-Identifier: MIT

package sinkhorn

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/katalvlaran/lvlot/convergence"
	"github.com/katalvlaran/lvlot/matrix"
)

const (
	// DefaultAbsorbThreshold triggers absorption of u,v into the log potentials.
	DefaultAbsorbThreshold = 1e3

	// DefaultStageTol is the tolerance of every epsilon-scaling stage but the last.
	DefaultStageTol = 1e-4
)

// Options configures one solver call. It is passed by value; zero fields take
// the defaults documented on DefaultOptions.
type Options[T matrix.Float] struct {
	// Convergence holds Tol and MaxIter. Zero fields fall back to
	// convergence.Defaults[T]().
	Convergence convergence.Options

	// WithRegularization adds ε·Σ p·log p to reported costs.
	WithRegularization bool

	// Plan, when non-nil, makes the Cost entry points skip iteration and
	// evaluate the cost of this plan directly.
	Plan *matrix.Dense[T]

	// AbsorbThreshold is the max(|u|,|v|) bound above which the log-domain
	// kernel absorbs the scalings into its potentials (default 1e3).
	AbsorbThreshold float64

	// StageTol is the early-stop tolerance of intermediate epsilon-scaling
	// stages; the effective value is max(StageTol, Convergence.Tol).
	StageTol float64

	// Stabilized selects the log-domain kernel for the unbalanced variant.
	Stabilized bool

	// Backend runs the matrix-vector products (default matrix.CPU[T]).
	Backend matrix.Backend[T]

	// Logger receives Trace per iteration and Debug/Warn at termination.
	// The zero Logger discards everything.
	Logger zerolog.Logger

	// RecordHistory keeps every residual in Diagnostics.History.
	RecordHistory bool
}

// DefaultOptions returns the defaults for element type T:
// Tol 1e-9 (1e-6 for float32), MaxIter 1000, AbsorbThreshold 1e3,
// StageTol 1e-4, CPU backend, no-op logger.
func DefaultOptions[T matrix.Float]() Options[T] {
	return Options[T]{
		Convergence:     convergence.Defaults[T](),
		AbsorbThreshold: DefaultAbsorbThreshold,
		StageTol:        DefaultStageTol,
		Backend:         matrix.CPU[T]{},
		Logger:          zerolog.Nop(),
	}
}

// withDefaults fills zero-valued fields.
func (o Options[T]) withDefaults() Options[T] {
	def := convergence.Defaults[T]()
	if o.Convergence.Tol == 0 {
		o.Convergence.Tol = def.Tol
	}
	if o.Convergence.MaxIter == 0 {
		o.Convergence.MaxIter = def.MaxIter
	}
	if o.AbsorbThreshold == 0 {
		o.AbsorbThreshold = DefaultAbsorbThreshold
	}
	if o.StageTol == 0 {
		o.StageTol = DefaultStageTol
	}
	if o.Backend == nil {
		o.Backend = matrix.CPU[T]{}
	}

	return o
}

func (o Options[T]) validate() error {
	if err := o.Convergence.Validate(); err != nil {
		return err
	}
	if !(o.AbsorbThreshold > 0) {
		return fmt.Errorf("absorb threshold %g: %w", o.AbsorbThreshold, ErrBadOptions)
	}
	if !(o.StageTol > 0) || math.IsInf(o.StageTol, 0) {
		return fmt.Errorf("stage tol %g: %w", o.StageTol, ErrBadOptions)
	}

	return nil
}

// Result is the outcome of a plan-producing solve.
type Result[T matrix.Float] struct {
	// Plan is the M×N coupling diag(u)·K·diag(v).
	Plan *matrix.Dense[T]

	// U, V are the multiplicative scalings (scaling-kernel variants only).
	U, V []T

	// F, G are the additive log-potentials in cost units (log-domain variants only).
	F, G []T

	convergence.Diagnostics
}

// CostResult is the outcome of a cost-only solve.
type CostResult[T matrix.Float] struct {
	Cost T
	convergence.Diagnostics
}

// checkEpsilon validates a regularization strength.
func checkEpsilon[T matrix.Float](eps T) error {
	e := float64(eps)
	if !(e > 0) || math.IsInf(e, 0) {
		return fmt.Errorf("epsilon %g: %w", e, ErrBadEpsilon)
	}

	return nil
}
