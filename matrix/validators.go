// SPDX-License-Identifier: MIT
// Package: matrix
//
// Purpose:
//  - Provide a single, canonical source of truth for common validation checks.
//  - Keep kernels and solvers minimal by delegating shape/nil/finite checks here.
//  - Return sentinel errors tagged with the validator name so call sites can wrap uniformly.
//
// Determinism & Performance:
//  - All checks are pure, deterministic and allocate nothing.
//
// Note:
//  - Each composite validator follows a fixed sequence (NotNil → Shape → Finite).

package matrix

import "fmt"

// validatorErrorf wraps an underlying error with the given validator tag.
func validatorErrorf(tag string, err error) error {
	return fmt.Errorf("%s: %w", tag, err)
}

// ValidateNotNil – Ensures the dense reference is non-nil.
// Returns ErrNilMatrix if m == nil. Complexity: O(1).
func ValidateNotNil[T Float](m *Dense[T]) error {
	if m == nil {
		return validatorErrorf("ValidateNotNil", ErrNilMatrix)
	}

	return nil
}

// ValidateSameShape – Ensures a and b have equal dimensions.
// Assumes a and b are not nil. Complexity: O(1).
func ValidateSameShape[T Float](a, b Matrix[T]) error {
	if a.Rows() != b.Rows() {
		return validatorErrorf("ValidateSameShape: Rows", ErrDimensionMismatch)
	}
	if a.Cols() != b.Cols() {
		return validatorErrorf("ValidateSameShape: Columns", ErrDimensionMismatch)
	}

	return nil
}

// ValidateShape – Ensures m is non-nil and exactly rows×cols.
// Complexity: O(1).
func ValidateShape[T Float](m *Dense[T], rows, cols int) error {
	if err := ValidateNotNil(m); err != nil {
		return validatorErrorf("ValidateShape", err)
	}
	if m.r != rows || m.c != cols {
		return validatorErrorf(fmt.Sprintf("ValidateShape: got %dx%d, want %dx%d", m.r, m.c, rows, cols), ErrDimensionMismatch)
	}

	return nil
}

// ValidateVecLen ensures the vector is non-nil and its length matches n.
// Time: O(1). Space: O(1).
func ValidateVecLen[T Float](x []T, n int) error {
	// Disallow nil vectors to avoid subtle bugs in MatVec-like routines.
	if x == nil {
		return validatorErrorf("ValidateVecLen", ErrNilMatrix)
	}
	if len(x) != n {
		return validatorErrorf("ValidateVecLen", ErrDimensionMismatch)
	}

	return nil
}

// ValidateFinite – Ensures every element of m is finite.
// Complexity: O(r*c).
func ValidateFinite[T Float](m *Dense[T]) error {
	if err := ValidateNotNil(m); err != nil {
		return validatorErrorf("ValidateFinite", err)
	}
	if !AllFinite(m.data) {
		return validatorErrorf("ValidateFinite", ErrNaNInf)
	}

	return nil
}
