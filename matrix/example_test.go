// SPDX-License-Identifier: MIT

package matrix_test

import (
	"fmt"

	"github.com/katalvlaran/lvlot/matrix"
)

// ExampleCPU_MulVec multiplies a cost matrix by a ones vector.
func ExampleCPU_MulVec() {
	c, _ := matrix.FromRows([][]float64{{0, 1}, {1, 0}})
	y := make([]float64, 2)
	matrix.CPU[float64]{}.MulVec(y, c, []float64{1, 1})
	fmt.Println(y)
	// Output: [1 1]
}

// ExampleCSRBuilder assembles a sparse plan row by row.
func ExampleCSRBuilder() {
	b, _ := matrix.NewCSRBuilder[float64](2, 2)
	_ = b.Push(0, 0, 0.5)
	_ = b.Push(1, 1, 0.5)
	s := b.Build()
	fmt.Println(s.NNZ(), s.RowSums())
	// Output: 2 [0.5 0.5]
}
