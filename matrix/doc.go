// SPDX-License-Identifier: MIT

// Package matrix provides the numeric-array layer of lvlot: generic dense and
// CSR sparse containers over float32/float64, a Backend abstraction for the
// matrix-vector kernels of the scaling solvers, and the vector helpers those
// solvers share.
//
// 🚀 What lives here?
//
//   - Dense[T]   - row-major storage with safe At/Set and a Raw() fast path.
//   - Sparse[T]  - CSR storage for plans with exact zeros (quadratic OT).
//   - Backend[T] - MulVec / MulTransVec / Dot / Sum; CPU, Parallel, and the
//     gonum-backed implementation in matrix/gonummat.
//
// ✨ Numeric policy:
//
//   - Element type is preserved end-to-end: float32 in, float32 out.
//   - Set rejects NaN/±Inf by default; kernels writing through Raw() do not.
//   - All loops run in fixed order, so every backend is reproducible.
//
// ⚙️ Usage:
//
//	C, _ := matrix.FromRows([][]float64{{0, 1}, {1, 0}})
//	y := make([]float64, 2)
//	matrix.CPU[float64]{}.MulVec(y, C, []float64{1, 1}) // y = [1 1]
package matrix
