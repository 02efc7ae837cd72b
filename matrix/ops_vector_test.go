// SPDX-License-Identifier: MIT

package matrix_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/lvlot/matrix"
)

func TestXLogXZeroConvention(t *testing.T) {
	require.Zero(t, matrix.XLogX[float64](0))
	require.InDelta(t, 2*math.Log(2), matrix.XLogX[float64](2), 1e-15)
	require.Zero(t, matrix.XLogX[float32](1))
}

func TestVectorKernels(t *testing.T) {
	dst := make([]float64, 3)
	matrix.DivInto(dst, []float64{1, 4, 9}, []float64{1, 2, 3})
	require.Equal(t, []float64{1, 2, 3}, dst)
	matrix.MulInto(dst, dst, []float64{2, 2, 2})
	require.Equal(t, []float64{2, 4, 6}, dst)

	matrix.SafeDivInto(dst, []float64{0, 1, 0}, []float64{0, 2, 5})
	require.Equal(t, []float64{0, 0.5, 0}, dst)

	require.Equal(t, 3.0, matrix.L1Dist([]float64{1, 2}, []float64{0, 4}))
	require.Equal(t, 5.0, matrix.MaxAbs([]float64{1, -5, 3}))
	require.Zero(t, matrix.MaxAbs[float64](nil))
	require.Equal(t, []float32{1, 1}, matrix.Ones[float32](2))
	require.True(t, matrix.AllFinite([]float64{0, 1}))
	require.False(t, matrix.AllFinite([]float64{0, math.Inf(-1)}))
}

func TestConvertPrecision(t *testing.T) {
	m := mustFromRows(t, [][]float64{{0.5, 1.25}})
	f := matrix.ConvertDense[float32](m)
	require.Equal(t, []float32{0.5, 1.25}, f.Raw())
	require.Equal(t, []float64{0.5, 1.25}, matrix.Convert[float64](f.Raw()))
}

func TestPrecisionHelpers(t *testing.T) {
	require.True(t, matrix.IsSingle[float32]())
	require.False(t, matrix.IsSingle[float64]())
	require.Greater(t, matrix.MachineEpsilon[float32](), matrix.MachineEpsilon[float64]())
}
