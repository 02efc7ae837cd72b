// SPDX-License-Identifier: MIT
// Package matrix - public API facades.
//
// Purpose:
//   - Provide thin, well-documented entry points for common tasks across the package.
//   - Each facade delegates to the canonical kernel.
//
// Determinism & Policy:
//   - Facades never change the loop orders or numeric policy of underlying kernels.
//   - Validation is performed here once; kernels assume valid operands.
//
// AI-Hints:
//   - RowSums/ColSums are the marginals of a transport plan.
//   - AllClose with small atol/rtol is ideal for invariance tests.

package matrix

import (
	"fmt"
	"math"
)

const (
	opRowSums  = "RowSums"
	opColSums  = "ColSums"
	opAllClose = "AllClose"
	opInner    = "Inner"
)

// NewZeros returns a new zero-initialized *Dense of size rows×cols.
// Thin alias of NewDense with an intention-revealing name.
func NewZeros[T Float](rows, cols int) (*Dense[T], error) {
	return NewDense[T](rows, cols)
}

// RowSums returns r[i] = Σ_j m[i,j] via MulVec with a ones vector.
// Complexity: O(rc).
func RowSums[T Float](m *Dense[T]) ([]T, error) {
	if err := ValidateNotNil(m); err != nil {
		return nil, fmt.Errorf("%s: %w", opRowSums, err)
	}
	out := make([]T, m.r)
	CPU[T]{}.MulVec(out, m, Ones[T](m.c))

	return out, nil
}

// ColSums returns c[j] = Σ_i m[i,j] via MulTransVec with a ones vector.
// Complexity: O(rc).
func ColSums[T Float](m *Dense[T]) ([]T, error) {
	if err := ValidateNotNil(m); err != nil {
		return nil, fmt.Errorf("%s: %w", opColSums, err)
	}
	out := make([]T, m.c)
	CPU[T]{}.MulTransVec(out, m, Ones[T](m.r))

	return out, nil
}

// Inner returns the Frobenius inner product ⟨a, b⟩ = Σ a[i,j]·b[i,j].
// Errors: ErrNilMatrix, ErrDimensionMismatch. Complexity: O(rc).
func Inner[T Float](a, b *Dense[T]) (T, error) {
	if err := ValidateNotNil(a); err != nil {
		return 0, fmt.Errorf("%s: %w", opInner, err)
	}
	if err := ValidateShape(b, a.r, a.c); err != nil {
		return 0, fmt.Errorf("%s: %w", opInner, err)
	}

	return CPU[T]{}.Dot(a.data, b.data), nil
}

// AllClose checks element-wise |a-b| ≤ atol + rtol*|b| for identical shapes.
// Returns (true,nil) if all elements satisfy the relation; (false,nil) otherwise.
// NaN != anything; +Inf equals +Inf; -Inf equals -Inf.
// Time: O(r*c). Space: O(1).
func AllClose[T Float](a, b *Dense[T], rtol, atol float64) (bool, error) {
	if err := ValidateNotNil(a); err != nil {
		return false, fmt.Errorf("%s: %w", opAllClose, err)
	}
	if err := ValidateShape(b, a.r, a.c); err != nil {
		return false, fmt.Errorf("%s: %w", opAllClose, err)
	}
	rtol, atol = math.Abs(rtol), math.Abs(atol)
	var x, y float64
	for k := range a.data {
		x, y = float64(a.data[k]), float64(b.data[k])
		if math.IsInf(x, 0) || math.IsInf(y, 0) {
			if x != y {
				return false, nil
			}
			continue
		}
		if math.IsNaN(x) || math.IsNaN(y) || math.Abs(x-y) > atol+rtol*math.Abs(y) {
			return false, nil
		}
	}

	return true, nil
}
