// Package convergence implements the termination policy shared by every
// iterative solver in lvlot.
//
// Contract:
//   - After each iteration the solver reports one scalar residual (a marginal
//     constraint violation or a fixed-point change).
//   - The loop halts with Converged=true as soon as residual < Tol, or with
//     Converged=false once the iteration count reaches MaxIter.
//   - Hitting MaxIter is never an error: it is reported through Diagnostics,
//     which every solver result carries.
//   - A NaN residual halts immediately with Converged=false (the naive Sinkhorn
//     path at extreme ε; use the stabilized variant).
package convergence

import (
	"errors"
	"fmt"
	"math"

	"github.com/katalvlaran/lvlot/matrix"
)

// Defaults.
const (
	// DefaultMaxIter caps the number of iterations.
	DefaultMaxIter = 1000

	// DefaultTol is the residual tolerance for double precision.
	DefaultTol = 1e-9

	// DefaultTolSingle is the residual tolerance for single precision; 1e-9 is
	// below float32 resolution and would never be reached.
	DefaultTolSingle = 1e-6
)

// ErrBadOptions reports a non-positive tolerance or iteration cap.
var ErrBadOptions = errors.New("convergence: invalid options")

// Options configures termination.
type Options struct {
	Tol     float64 // residual threshold, > 0
	MaxIter int     // iteration cap, > 0
}

// Defaults returns the documented defaults for element type T.
func Defaults[T matrix.Float]() Options {
	if matrix.IsSingle[T]() {
		return Options{Tol: DefaultTolSingle, MaxIter: DefaultMaxIter}
	}

	return Options{Tol: DefaultTol, MaxIter: DefaultMaxIter}
}

// Validate checks Tol > 0 (finite) and MaxIter > 0.
func (o Options) Validate() error {
	if !(o.Tol > 0) || math.IsInf(o.Tol, 0) {
		return fmt.Errorf("tol %g: %w", o.Tol, ErrBadOptions)
	}
	if o.MaxIter <= 0 {
		return fmt.Errorf("max iterations %d: %w", o.MaxIter, ErrBadOptions)
	}

	return nil
}

// Diagnostics is the convergence report attached to every solver result.
type Diagnostics struct {
	Iterations int       // iterations performed (summed over stages where applicable)
	Residual   float64   // last observed residual
	Converged  bool      // residual < Tol before the cap
	History    []float64 // per-iteration residuals, only when recording was requested
}

// Then folds a later stage into d: iterations and history accumulate, the
// residual and converged flag are taken from next.
func (d Diagnostics) Then(next Diagnostics) Diagnostics {
	out := Diagnostics{
		Iterations: d.Iterations + next.Iterations,
		Residual:   next.Residual,
		Converged:  next.Converged,
	}
	if d.History != nil || next.History != nil {
		out.History = append(append(make([]float64, 0, len(d.History)+len(next.History)), d.History...), next.History...)
	}

	return out
}

// Tracker owns the mutable ConvergenceState of one solve.
type Tracker struct {
	opts      Options
	iter      int
	residual  float64
	converged bool
	done      bool
	history   []float64
	record    bool
}

// NewTracker starts a fresh state. When record is true every residual is kept.
func NewTracker(opts Options, record bool) *Tracker {
	t := &Tracker{opts: opts, residual: math.Inf(1), record: record}
	if record {
		t.history = make([]float64, 0, min(opts.MaxIter, 1024))
	}

	return t
}

// Done reports whether the loop must stop.
func (t *Tracker) Done() bool { return t.done || t.iter >= t.opts.MaxIter }

// Iteration returns the number of observed iterations.
func (t *Tracker) Iteration() int { return t.iter }

// Observe records the residual of the iteration that just finished and
// returns true when the loop must stop.
func (t *Tracker) Observe(residual float64) bool {
	t.iter++
	t.residual = residual
	if t.record {
		t.history = append(t.history, residual)
	}
	switch {
	case math.IsNaN(residual):
		t.done = true
	case residual < t.opts.Tol:
		t.converged = true
		t.done = true
	case t.iter >= t.opts.MaxIter:
		t.done = true
	}

	return t.done
}

// Diagnostics snapshots the state.
func (t *Tracker) Diagnostics() Diagnostics {
	return Diagnostics{
		Iterations: t.iter,
		Residual:   t.residual,
		Converged:  t.converged,
		History:    t.history,
	}
}
