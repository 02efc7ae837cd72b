// SPDX-License-Identifier: MIT

package matrix_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/lvlot/matrix"
)

func TestSparseSetAtInsertDelete(t *testing.T) {
	s, err := matrix.NewSparse[float64](3, 3)
	require.NoError(t, err)
	require.Equal(t, 0, s.NNZ())

	require.NoError(t, s.Set(1, 2, 5))
	require.NoError(t, s.Set(1, 0, 4))
	require.NoError(t, s.Set(0, 1, 1))
	require.Equal(t, 3, s.NNZ())

	v, err := s.At(1, 0)
	require.NoError(t, err)
	require.Equal(t, 4.0, v)
	v, _ = s.At(2, 2)
	require.Zero(t, v)

	// overwrite then delete
	require.NoError(t, s.Set(1, 0, 7))
	v, _ = s.At(1, 0)
	require.Equal(t, 7.0, v)
	require.NoError(t, s.Set(1, 0, 0))
	require.Equal(t, 2, s.NNZ())

	require.Equal(t, []float64{0, 1, 0, 0, 0, 5, 0, 0, 0}, s.Dense().Raw())

	_, err = s.At(3, 0)
	require.ErrorIs(t, err, matrix.ErrOutOfRange)
}

func TestCSRBuilderOrder(t *testing.T) {
	b, err := matrix.NewCSRBuilder[float32](3, 2)
	require.NoError(t, err)
	require.NoError(t, b.Push(0, 1, 2))
	require.NoError(t, b.Push(2, 0, 3))
	require.NoError(t, b.Push(2, 1, 0)) // zeros are skipped
	require.ErrorIs(t, b.Push(1, 0, 1), matrix.ErrOutOfRange)
	s := b.Build()

	require.Equal(t, 2, s.NNZ())
	require.Equal(t, []float32{2, 0, 3}, s.RowSums())
	require.Equal(t, []float32{3, 2}, s.ColSums())

	var visited [][3]float32
	s.Do(func(i, j int, v float32) bool {
		visited = append(visited, [3]float32{float32(i), float32(j), v})
		return true
	})
	require.Equal(t, [][3]float32{{0, 1, 2}, {2, 0, 3}}, visited)
}

// TestCSRBuilderRowMajorSweepNeverFails pushes a sparse pattern cell by cell
// in row-major order, skipping cells and whole rows, and expects every entry.
func TestCSRBuilderRowMajorSweepNeverFails(t *testing.T) {
	const rows, cols = 6, 5
	b, err := matrix.NewCSRBuilder[float32](rows, cols)
	require.NoError(t, err)
	want := 0
	for i := 0; i < rows; i++ {
		if i == 2 {
			continue
		}
		for j := 0; j < cols; j++ {
			if (i+j)%3 == 0 {
				continue
			}
			require.NoError(t, b.Push(i, j, float32(i*cols+j)))
			want++
		}
	}
	s := b.Build()
	require.Equal(t, want, s.NNZ())
	v, err := s.At(4, 4)
	require.NoError(t, err)
	require.Equal(t, float32(24), v)
	v, err = s.At(2, 1)
	require.NoError(t, err)
	require.Zero(t, v)
}

func TestSparseMulVecMatchesDense(t *testing.T) {
	d := mustFromRows(t, [][]float64{{1, 0, 2}, {0, 0, 0}, {0, 3, 4}})
	b, err := matrix.NewCSRBuilder[float64](3, 3)
	require.NoError(t, err)
	d.Do(func(i, j int, v float64) bool {
		require.NoError(t, b.Push(i, j, v))
		return true
	})
	s := b.Build()
	x := []float64{1, 2, 3}

	want := make([]float64, 3)
	got := make([]float64, 3)
	matrix.CPU[float64]{}.MulVec(want, d, x)
	s.MulVec(got, x)
	require.Equal(t, want, got)

	matrix.CPU[float64]{}.MulTransVec(want, d, x)
	s.MulTransVec(got, x)
	require.Equal(t, want, got)
}

func TestSparseCloneIndependent(t *testing.T) {
	s, _ := matrix.NewSparse[float64](2, 2)
	require.NoError(t, s.Set(0, 0, 1))
	c := s.Clone()
	require.NoError(t, c.Set(0, 0, 2))
	v, _ := s.At(0, 0)
	require.Equal(t, 1.0, v)
}
