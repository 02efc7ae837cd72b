// SPDX-License-Identifier: MIT
// Package matrix_test contains test helpers
//
// Purpose:
//   • Provide small, deterministic fixtures for kernels and backends.
//   • Keep all data finite and well-formed to avoid numeric-policy interference.

package matrix_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/lvlot/matrix"
)

// mustDense builds an r×c Dense or fails the test.
func mustDense[T matrix.Float](tb testing.TB, r, c int) *matrix.Dense[T] {
	tb.Helper()
	m, err := matrix.NewDense[T](r, c)
	require.NoError(tb, err)

	return m
}

// mustFromRows builds a Dense from literal rows or fails the test.
func mustFromRows[T matrix.Float](tb testing.TB, rows [][]T) *matrix.Dense[T] {
	tb.Helper()
	m, err := matrix.FromRows(rows)
	require.NoError(tb, err)

	return m
}

// fillDenseRand fills m with values in [-1,1) from a fixed seed.
func fillDenseRand[T matrix.Float](m *matrix.Dense[T], seed int64) {
	rng := rand.New(rand.NewSource(seed))
	raw := m.Raw()
	for k := range raw {
		raw[k] = T(rng.Float64()*2 - 1)
	}
}

// randVec returns a length-n vector in [0,1) from a fixed seed.
func randVec[T matrix.Float](n int, seed int64) []T {
	rng := rand.New(rand.NewSource(seed))
	out := make([]T, n)
	for i := range out {
		out[i] = T(rng.Float64())
	}

	return out
}
