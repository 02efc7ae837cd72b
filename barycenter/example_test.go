// SPDX-License-Identifier: MIT

package barycenter_test

import (
	"fmt"

	"github.com/katalvlaran/lvlot/barycenter"
	"github.com/katalvlaran/lvlot/costs"
	"github.com/katalvlaran/lvlot/matrix"
)

// ExampleSinkhorn averages two copies of the same histogram; debiasing keeps
// the result equal to the input.
func ExampleSinkhorn() {
	a := []float64{0.1, 0.2, 0.3, 0.4}
	m, _ := matrix.FromRows([][]float64{{a[0], a[0]}, {a[1], a[1]}, {a[2], a[2]}, {a[3], a[3]}})
	c, _ := costs.Grid1D[float64](4)

	res, err := barycenter.Sinkhorn(m, []*matrix.Dense[float64]{c, c}, 0.1, []float64{0.5, 0.5}, barycenter.Options[float64]{})
	if err != nil {
		fmt.Println(err)
		return
	}
	for _, v := range res.Barycenter {
		fmt.Printf("%.4f ", v)
	}
	fmt.Println()
	// Output: 0.1000 0.2000 0.3000 0.4000
}
