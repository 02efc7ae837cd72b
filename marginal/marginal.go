// SPDX-License-Identifier: MIT

// Package marginal validates the inputs shared by every transport solver:
// marginal vectors, cost-matrix shapes and convex weight vectors.
//
// All checks are pure and fail fast, before any solver allocates state.
// Returned errors wrap one of the package sentinels, so callers can branch
// with errors.Is regardless of the context prefix added on the way up.
package marginal

import (
	"errors"
	"fmt"
	"math"

	"github.com/katalvlaran/lvlot/matrix"
)

// Sentinel errors.
var (
	// ErrShape indicates that the cost matrix does not match the marginal lengths.
	ErrShape = errors.New("marginal: shape mismatch")

	// ErrEmpty indicates a zero-length marginal.
	ErrEmpty = errors.New("marginal: empty marginal")

	// ErrNegativeMass indicates a negative weight.
	ErrNegativeMass = errors.New("marginal: negative mass")

	// ErrNaN indicates a NaN or ±Inf in a marginal or cost entry.
	ErrNaN = errors.New("marginal: NaN or Inf value")

	// ErrMassImbalance indicates balanced-mode marginals with different totals.
	ErrMassImbalance = errors.New("marginal: total mass mismatch")

	// ErrBadWeights indicates weights that are not a convex combination.
	ErrBadWeights = errors.New("marginal: weights must be non-negative and sum to 1")
)

// Mass tolerances used when the caller passes tol <= 0.
const (
	DefaultMassTol       = 1e-8
	DefaultMassTolSingle = 1e-4
)

// DefaultTol returns the mass tolerance for element type T.
func DefaultTol[T matrix.Float]() float64 {
	if matrix.IsSingle[T]() {
		return DefaultMassTolSingle
	}

	return DefaultMassTol
}

func resolveTol[T matrix.Float](tol float64) float64 {
	if tol > 0 {
		return tol
	}

	return DefaultTol[T]()
}

// Mass returns Σ x[i], accumulated in float64 in index order.
func Mass[T matrix.Float](x []T) float64 {
	var acc float64
	for _, v := range x {
		acc += float64(v)
	}

	return acc
}

// Vector checks that x is non-empty, finite and non-negative.
func Vector[T matrix.Float](name string, x []T) error {
	if len(x) == 0 {
		return fmt.Errorf("%s: %w", name, ErrEmpty)
	}
	for i, v := range x {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("%s[%d]: %w", name, i, ErrNaN)
		}
		if f < 0 {
			return fmt.Errorf("%s[%d]=%g: %w", name, i, f, ErrNegativeMass)
		}
	}

	return nil
}

// Cost checks that c is rows×cols with finite entries.
func Cost[T matrix.Float](c *matrix.Dense[T], rows, cols int) error {
	if c == nil {
		return fmt.Errorf("cost: %w", ErrShape)
	}
	if c.Rows() != rows || c.Cols() != cols {
		return fmt.Errorf("cost is %dx%d, want %dx%d: %w", c.Rows(), c.Cols(), rows, cols, ErrShape)
	}
	if !matrix.AllFinite(c.Raw()) {
		return fmt.Errorf("cost: %w", ErrNaN)
	}

	return nil
}

// Validate checks a transport problem (mu, nu, C).
//
// Contract:
//   - shape(C) == (len(mu), len(nu)), else ErrShape;
//   - marginals non-empty, finite and >= 0; C finite;
//   - when balanced, |Σmu − Σnu| < tol, else ErrMassImbalance.
//
// tol <= 0 selects DefaultTol[T]().
// Complexity: O(M*N).
func Validate[T matrix.Float](mu, nu []T, c *matrix.Dense[T], balanced bool, tol float64) error {
	if err := Vector("mu", mu); err != nil {
		return err
	}
	if err := Vector("nu", nu); err != nil {
		return err
	}
	if err := Cost(c, len(mu), len(nu)); err != nil {
		return err
	}
	if !balanced {
		return nil
	}
	tol = resolveTol[T](tol)
	if a, b := Mass(mu), Mass(nu); !(math.Abs(a-b) < tol) {
		return fmt.Errorf("sum(mu)=%g sum(nu)=%g: %w", a, b, ErrMassImbalance)
	}

	return nil
}

// ValidateColumns checks a matrix whose columns are marginals: every entry
// finite and >= 0, and every column carrying the mass of the first one
// within tol. Returns the common mass.
// Complexity: O(n*k).
func ValidateColumns[T matrix.Float](m *matrix.Dense[T], tol float64) (float64, error) {
	if m == nil {
		return 0, fmt.Errorf("marginals: %w", ErrEmpty)
	}
	raw := m.Raw()
	if !matrix.AllFinite(raw) {
		return 0, fmt.Errorf("marginals: %w", ErrNaN)
	}
	tol = resolveTol[T](tol)
	n, k := m.Shape()
	masses := make([]float64, k)
	var i, j int
	for i = 0; i < n; i++ {
		for j = 0; j < k; j++ {
			v := raw[i*k+j]
			if v < 0 {
				return 0, fmt.Errorf("marginals[%d,%d]=%g: %w", i, j, float64(v), ErrNegativeMass)
			}
			masses[j] += float64(v)
		}
	}
	for j = 1; j < k; j++ {
		if !(math.Abs(masses[j]-masses[0]) < tol) {
			return 0, fmt.Errorf("column %d mass %g, column 0 mass %g: %w", j, masses[j], masses[0], ErrMassImbalance)
		}
	}

	return masses[0], nil
}

// ValidateWeights checks that w has length k, is non-negative and sums to 1
// within tol.
func ValidateWeights[T matrix.Float](w []T, k int, tol float64) error {
	if len(w) != k {
		return fmt.Errorf("weights: len %d, want %d: %w", len(w), k, ErrShape)
	}
	if err := Vector("weights", w); err != nil {
		return fmt.Errorf("%w: %w", ErrBadWeights, err)
	}
	tol = resolveTol[T](tol)
	if s := Mass(w); !(math.Abs(s-1) < tol) {
		return fmt.Errorf("weights sum to %g: %w", s, ErrBadWeights)
	}

	return nil
}
