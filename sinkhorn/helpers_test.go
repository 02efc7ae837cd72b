// SPDX-License-Identifier: MIT

package sinkhorn_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/lvlot/matrix"
)

// randomSimplex returns a length-n probability vector with entries >= 0.05/n.
func randomSimplex(n int, seed int64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	out := make([]float64, n)
	var s float64
	for i := range out {
		out[i] = 0.05 + rng.Float64()
		s += out[i]
	}
	for i := range out {
		out[i] /= s
	}

	return out
}

// gridCost returns C_ij = offset + ((i−j)/n)² on an m×n grid.
func gridCost(t testing.TB, m, n int, offset float64) *matrix.Dense[float64] {
	t.Helper()
	c, err := matrix.NewDense[float64](m, n)
	require.NoError(t, err)
	raw := c.Raw()
	for i := 0; i < m; i++ {
		for j := 0; j < n; j++ {
			d := float64(i-j) / float64(n)
			raw[i*n+j] = offset + d*d
		}
	}

	return c
}

func uniform(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 1 / float64(n)
	}

	return out
}

func swap2x2(t testing.TB) ([]float64, *matrix.Dense[float64]) {
	t.Helper()
	c, err := matrix.FromRows([][]float64{{0, 1}, {1, 0}})
	require.NoError(t, err)

	return []float64{0.5, 0.5}, c
}

// requireMarginals checks row and column sums of p.
func requireMarginals(t *testing.T, p *matrix.Dense[float64], mu, nu []float64, delta float64) {
	t.Helper()
	rs, err := matrix.RowSums(p)
	require.NoError(t, err)
	cs, err := matrix.ColSums(p)
	require.NoError(t, err)
	require.InDeltaSlice(t, mu, rs, delta, "row sums")
	require.InDeltaSlice(t, nu, cs, delta, "column sums")
}

func requireNonNegative[T matrix.Float](t *testing.T, p *matrix.Dense[T]) {
	t.Helper()
	for k, v := range p.Raw() {
		require.GreaterOrEqual(t, float64(v), 0.0, "entry %d", k)
	}
}
