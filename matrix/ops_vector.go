// SPDX-License-Identifier: MIT
// Package matrix - vector kernels shared by the scaling solvers.
//
// Purpose:
//   - Keep the element-wise loops of the solvers in one place with fixed order.
//   - Scalar transcendentals (Exp/Log/Pow) go through float64 and are rounded to T.
//
// Determinism & Performance:
//   - All kernels are single pass, allocation-free (except constructors), and
//     deterministic. Length agreement is the caller's contract.

package matrix

import "math"

// Exp returns e^x in T.
func Exp[T Float](x T) T { return T(math.Exp(float64(x))) }

// Log returns ln x in T.
func Log[T Float](x T) T { return T(math.Log(float64(x))) }

// Pow returns x^y in T.
func Pow[T Float](x, y T) T { return T(math.Pow(float64(x), float64(y))) }

// Abs returns |x| in T.
func Abs[T Float](x T) T {
	if x < 0 {
		return -x
	}

	return x
}

// XLogX returns x·ln x with the convention 0·ln 0 = 0.
func XLogX[T Float](x T) T {
	if x == 0 {
		return 0
	}

	return x * Log(x)
}

// Ones returns a fresh length-n vector of ones.
// Complexity: O(n).
func Ones[T Float](n int) []T {
	out := make([]T, n)
	Fill(out, 1)

	return out
}

// Fill sets every element of x to v.
func Fill[T Float](x []T, v T) {
	for i := range x {
		x[i] = v
	}
}

// DivInto computes dst[i] = num[i] / den[i].
func DivInto[T Float](dst, num, den []T) {
	for i := range dst {
		dst[i] = num[i] / den[i]
	}
}

// SafeDivInto computes dst[i] = num[i] / den[i] with 0/x = 0 for every x,
// including 0, so zero-mass entries stay exactly zero.
func SafeDivInto[T Float](dst, num, den []T) {
	for i := range dst {
		if num[i] == 0 {
			dst[i] = 0
			continue
		}
		dst[i] = num[i] / den[i]
	}
}

// MulInto computes dst[i] = a[i] * b[i].
func MulInto[T Float](dst, a, b []T) {
	for i := range dst {
		dst[i] = a[i] * b[i]
	}
}

// L1Dist returns Σ |x[i] - y[i]|.
func L1Dist[T Float](x, y []T) T {
	var acc T
	for i := range x {
		acc += Abs(x[i] - y[i])
	}

	return acc
}

// MaxAbs returns max |x[i]| (0 for an empty vector).
func MaxAbs[T Float](x []T) T {
	var m T
	for _, v := range x {
		if a := Abs(v); a > m {
			m = a
		}
	}

	return m
}

// AllFinite reports whether every element is neither NaN nor ±Inf.
func AllFinite[T Float](x []T) bool {
	for _, v := range x {
		if isNonFinite(float64(v)) {
			return false
		}
	}

	return true
}

// Convert copies src into a fresh vector of element type D.
// Complexity: O(n).
func Convert[D, S Float](src []S) []D {
	out := make([]D, len(src))
	for i, v := range src {
		out[i] = D(v)
	}

	return out
}

// ConvertDense copies m into a fresh Dense with element type D.
// Complexity: O(r*c).
func ConvertDense[D, S Float](m *Dense[S]) *Dense[D] {
	return &Dense[D]{r: m.r, c: m.c, data: Convert[D](m.data), validateNaNInf: m.validateNaNInf}
}
