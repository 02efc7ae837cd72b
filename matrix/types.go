// SPDX-License-Identifier: MIT

// Package matrix: element constraint and the read/write surface shared by
// dense and sparse storage. Errors live in errors.go, compute backends in
// backend*.go, vector kernels in ops_vector.go.
package matrix

// Float is the element constraint for every numeric container and solver in
// this module. The element type chosen by the caller is carried end-to-end:
// float32 inputs produce float32 plans, costs and potentials.
//
// AI-Hints:
//   - Transcendentals (exp/log/pow) are evaluated through float64 and rounded
//     back to T; accumulations stay in T.
type Float interface {
	~float32 | ~float64
}

// Matrix is the minimal two-dimensional surface over elements of type T.
//
// Complexity notes: all methods are expected O(1) except Clone (O(r*c)).
type Matrix[T Float] interface {
	// Rows returns the number of rows in the matrix.
	Rows() int

	// Cols returns the number of columns in the matrix.
	Cols() int

	// At retrieves the element at position (i, j).
	// Returns ErrOutOfRange if i<0, i>=Rows(), j<0 or j>=Cols().
	At(i, j int) (T, error)

	// Set assigns the value v at position (i, j).
	// Returns ErrOutOfRange if indices are invalid.
	Set(i, j int, v T) error

	// Clone returns a deep copy of the matrix.
	Clone() Matrix[T]
}

// IsSingle reports whether T carries single (float32) precision.
// The check relies on 1+1e-12 rounding back to 1 only in float32.
// Complexity: O(1).
func IsSingle[T Float]() bool {
	var one T = 1
	tiny := T(1e-12)

	return one+tiny == one
}

// MachineEpsilon returns the unit roundoff of T as float64
// (2^-23 for float32, 2^-52 for float64).
func MachineEpsilon[T Float]() float64 {
	if IsSingle[T]() {
		return 1.1920928955078125e-07
	}

	return 2.220446049250313e-16
}
