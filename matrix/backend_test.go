// SPDX-License-Identifier: MIT

package matrix_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/katalvlaran/lvlot/matrix"
	"github.com/katalvlaran/lvlot/matrix/gonummat"
)

// BackendSuite checks every backend against the sequential reference.
type BackendSuite struct {
	suite.Suite
	a *matrix.Dense[float64]
	x []float64 // len Cols
	y []float64 // len Rows
}

func (s *BackendSuite) SetupTest() {
	s.a = mustDense[float64](s.T(), 67, 131)
	fillDenseRand(s.a, 7)
	s.x = randVec[float64](131, 11)
	s.y = randVec[float64](67, 13)
}

// TestParallelBitwise forces the parallel path (MinWork=1) and expects exact equality.
func (s *BackendSuite) TestParallelBitwise() {
	cpu := matrix.CPU[float64]{}
	for _, w := range []int{1, 2, 3, 8, 200} {
		par := matrix.Parallel[float64]{Workers: w, MinWork: 1}
		want, got := make([]float64, 67), make([]float64, 67)
		cpu.MulVec(want, s.a, s.x)
		par.MulVec(got, s.a, s.x)
		s.Require().Equal(want, got, fmt.Sprintf("MulVec workers=%d", w))

		wantT, gotT := make([]float64, 131), make([]float64, 131)
		cpu.MulTransVec(wantT, s.a, s.y)
		par.MulTransVec(gotT, s.a, s.y)
		s.Require().Equal(wantT, gotT, fmt.Sprintf("MulTransVec workers=%d", w))
	}
}

// TestGonumClose compares the BLAS-backed kernels within a tight delta.
func (s *BackendSuite) TestGonumClose() {
	cpu, gb := matrix.CPU[float64]{}, gonummat.New()
	want, got := make([]float64, 67), make([]float64, 67)
	cpu.MulVec(want, s.a, s.x)
	gb.MulVec(got, s.a, s.x)
	s.Require().InDeltaSlice(want, got, 1e-12)

	wantT, gotT := make([]float64, 131), make([]float64, 131)
	cpu.MulTransVec(wantT, s.a, s.y)
	gb.MulTransVec(gotT, s.a, s.y)
	s.Require().InDeltaSlice(wantT, gotT, 1e-12)

	s.Require().InDelta(cpu.Dot(s.x, s.x), gb.Dot(s.x, s.x), 1e-12)
	s.Require().InDelta(cpu.Sum(s.y), gb.Sum(s.y), 1e-12)
	s.Require().Equal("gonum", gb.Name())
}

func TestBackendSuite(t *testing.T) {
	suite.Run(t, new(BackendSuite))
}

func TestCPUSmall(t *testing.T) {
	a := mustFromRows(t, [][]float32{{1, 2}, {3, 4}, {5, 6}})
	dst := make([]float32, 3)
	matrix.CPU[float32]{}.MulVec(dst, a, []float32{1, 1})
	require.Equal(t, []float32{3, 7, 11}, dst)

	dt := make([]float32, 2)
	matrix.CPU[float32]{}.MulTransVec(dt, a, []float32{1, 0, 1})
	require.Equal(t, []float32{6, 8}, dt)
}

func TestCheckMulVec(t *testing.T) {
	a := mustDense[float64](t, 2, 3)
	require.NoError(t, matrix.CheckMulVec(make([]float64, 2), a, make([]float64, 3), false))
	require.NoError(t, matrix.CheckMulVec(make([]float64, 3), a, make([]float64, 2), true))
	require.ErrorIs(t, matrix.CheckMulVec(make([]float64, 3), a, make([]float64, 3), false), matrix.ErrDimensionMismatch)
	require.ErrorIs(t, matrix.CheckMulVec(make([]float64, 2), nil, make([]float64, 3), false), matrix.ErrNilMatrix)
}
