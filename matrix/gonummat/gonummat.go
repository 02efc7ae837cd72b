// SPDX-License-Identifier: MIT

// Package gonummat implements matrix.Backend[float64] on top of gonum's
// BLAS-backed mat and floats packages.
//
// The row-major buffer of a *matrix.Dense is wrapped by mat.NewDense without
// copying, so switching a solver to this backend costs no extra memory.
// Results agree with matrix.CPU up to floating-point reassociation inside the
// gonum kernels (unrolled dot products), i.e. within a few ulps per element.
package gonummat

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/lvlot/matrix"
)

// Backend is the gonum-backed float64 compute backend.
type Backend struct{}

var _ matrix.Backend[float64] = Backend{}

// New returns a gonum Backend.
func New() Backend { return Backend{} }

// Name implements matrix.Backend.
func (Backend) Name() string { return "gonum" }

// MulVec computes dst = A·x with mat.VecDense.MulVec (BLAS dgemv).
func (Backend) MulVec(dst []float64, a *matrix.Dense[float64], x []float64) {
	r, c := a.Shape()
	A := mat.NewDense(r, c, a.Raw()) // shares the buffer
	y := mat.NewVecDense(r, dst)
	y.MulVec(A, mat.NewVecDense(c, x))
}

// MulTransVec computes dst = Aᵀ·x through the transposed view (dgemv with trans).
func (Backend) MulTransVec(dst []float64, a *matrix.Dense[float64], x []float64) {
	r, c := a.Shape()
	A := mat.NewDense(r, c, a.Raw())
	y := mat.NewVecDense(c, dst)
	y.MulVec(A.T(), mat.NewVecDense(r, x))
}

// Dot implements matrix.Backend via floats.Dot.
func (Backend) Dot(x, y []float64) float64 { return floats.Dot(x, y) }

// Sum implements matrix.Backend via floats.Sum.
func (Backend) Sum(x []float64) float64 { return floats.Sum(x) }
