// SPDX-License-Identifier: MIT

package matrix_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/lvlot/matrix"
)

func TestValidators(t *testing.T) {
	a := mustDense[float64](t, 2, 3)
	b := mustDense[float64](t, 3, 2)

	require.ErrorIs(t, matrix.ValidateNotNil[float64](nil), matrix.ErrNilMatrix)
	require.ErrorIs(t, matrix.ValidateSameShape[float64](a, b), matrix.ErrDimensionMismatch)
	require.NoError(t, matrix.ValidateSameShape[float64](a, a))
	require.NoError(t, matrix.ValidateShape(a, 2, 3))
	require.ErrorIs(t, matrix.ValidateShape(a, 3, 3), matrix.ErrDimensionMismatch)
	require.ErrorIs(t, matrix.ValidateVecLen[float64](nil, 0), matrix.ErrNilMatrix)
	require.ErrorIs(t, matrix.ValidateVecLen([]float64{1}, 2), matrix.ErrDimensionMismatch)
	require.NoError(t, matrix.ValidateFinite(a))
}

func TestMarginalsAndInner(t *testing.T) {
	p := mustFromRows(t, [][]float64{{0.1, 0.2}, {0.3, 0.4}})
	rs, err := matrix.RowSums(p)
	require.NoError(t, err)
	require.InDeltaSlice(t, []float64{0.3, 0.7}, rs, 1e-15)
	cs, err := matrix.ColSums(p)
	require.NoError(t, err)
	require.InDeltaSlice(t, []float64{0.4, 0.6}, cs, 1e-15)

	c := mustFromRows(t, [][]float64{{0, 1}, {1, 0}})
	in, err := matrix.Inner(p, c)
	require.NoError(t, err)
	require.InDelta(t, 0.5, in, 1e-15)

	_, err = matrix.Inner(p, mustDense[float64](t, 1, 2))
	require.ErrorIs(t, err, matrix.ErrDimensionMismatch)
}

func TestAllClose(t *testing.T) {
	a := mustFromRows(t, [][]float64{{1, 2}})
	b := mustFromRows(t, [][]float64{{1 + 1e-10, 2}})
	ok, err := matrix.AllClose(a, b, 0, 1e-9)
	require.NoError(t, err)
	require.True(t, ok)
	ok, _ = matrix.AllClose(a, b, 0, 1e-12)
	require.False(t, ok)
}
