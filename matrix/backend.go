// SPDX-License-Identifier: MIT

// Package matrix - numeric-array backend abstraction.
//
// Purpose:
//   - Solvers are written against Backend only: matrix-vector products and
//     reductions are the hot kernels of every scaling loop.
//   - Implementations are interchangeable without changing observable results:
//     CPU (sequential), Parallel (goroutine-partitioned, same accumulation
//     order), and gonummat.Backend (gonum BLAS, float64 only).
//
// Contract (all implementations):
//   - dst must not alias x.
//   - len(dst)/len(x) are validated by the caller (solvers validate once at entry);
//     kernels index without bounds re-checks beyond Go's own.
//
// AI-Hints:
//   - Use CheckMulVec at API edges when calling a backend directly.

package matrix

import "fmt"

const (
	opMulVec      = "MulVec"
	opMulTransVec = "MulTransVec"
)

// Backend is the numeric-array capability consumed by every solver.
type Backend[T Float] interface {
	// Name identifies the backend in logs and reports.
	Name() string

	// MulVec computes dst = A·x (len(dst)==A.Rows(), len(x)==A.Cols()).
	MulVec(dst []T, a *Dense[T], x []T)

	// MulTransVec computes dst = Aᵀ·x (len(dst)==A.Cols(), len(x)==A.Rows()).
	MulTransVec(dst []T, a *Dense[T], x []T)

	// Dot returns Σ x[i]*y[i] over equal-length vectors.
	Dot(x, y []T) T

	// Sum returns Σ x[i].
	Sum(x []T) T
}

// CheckMulVec validates operand lengths for MulVec (trans=false) or
// MulTransVec (trans=true).
//
// Errors: ErrNilMatrix, ErrDimensionMismatch.
// Complexity: O(1).
func CheckMulVec[T Float](dst []T, a *Dense[T], x []T, trans bool) error {
	op := opMulVec
	if trans {
		op = opMulTransVec
	}
	if a == nil {
		return fmt.Errorf("%s: %w", op, ErrNilMatrix)
	}
	rows, cols := a.r, a.c
	if trans {
		rows, cols = cols, rows
	}
	if err := ValidateVecLen(x, cols); err != nil {
		return fmt.Errorf("%s: x: %w", op, err)
	}
	if err := ValidateVecLen(dst, rows); err != nil {
		return fmt.Errorf("%s: dst: %w", op, err)
	}

	return nil
}

// CPU is the sequential reference backend. Loop orders are fixed, so results
// are reproducible bit-for-bit across runs.
type CPU[T Float] struct{}

var _ Backend[float64] = CPU[float64]{}

// Name implements Backend.
func (CPU[T]) Name() string { return "cpu" }

// MulVec computes dst = A·x with one flat pass per row.
// Complexity: O(r*c).
func (CPU[T]) MulVec(dst []T, a *Dense[T], x []T) {
	mulRows(dst, a, x, 0, a.r)
}

// MulTransVec computes dst = Aᵀ·x by streaming rows (cache-friendly for row-major A).
// Complexity: O(r*c).
func (CPU[T]) MulTransVec(dst []T, a *Dense[T], x []T) {
	mulTransCols(dst, a, x, 0, a.c)
}

// Dot implements Backend. Complexity: O(n).
func (CPU[T]) Dot(x, y []T) T {
	var acc T
	for i := range x {
		acc += x[i] * y[i]
	}

	return acc
}

// Sum implements Backend. Complexity: O(n).
func (CPU[T]) Sum(x []T) T {
	var acc T
	for _, v := range x {
		acc += v
	}

	return acc
}

// mulRows fills dst[lo:hi] with row dot-products of A and x.
func mulRows[T Float](dst []T, a *Dense[T], x []T, lo, hi int) {
	var i, j, base int
	var acc T
	for i = lo; i < hi; i++ { // iterate rows deterministically
		acc = 0
		base = i * a.c
		for j = 0; j < a.c; j++ {
			acc += a.data[base+j] * x[j]
		}
		dst[i] = acc
	}
}

// mulTransCols fills dst[lo:hi] with column dot-products of A and x.
// Accumulation order per column is i = 0..r-1 regardless of the range split.
func mulTransCols[T Float](dst []T, a *Dense[T], x []T, lo, hi int) {
	var i, j, base int
	var xi T
	for j = lo; j < hi; j++ {
		dst[j] = 0
	}
	for i = 0; i < a.r; i++ { // stream rows; fixed i order per column
		xi = x[i]
		base = i * a.c
		for j = lo; j < hi; j++ {
			dst[j] += a.data[base+j] * xi
		}
	}
}
