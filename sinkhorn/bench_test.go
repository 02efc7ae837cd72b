// SPDX-License-Identifier: MIT

package sinkhorn_test

import (
	"fmt"
	"testing"

	"github.com/katalvlaran/lvlot/convergence"
	"github.com/katalvlaran/lvlot/matrix"
	"github.com/katalvlaran/lvlot/sinkhorn"
)

var sinkCost float64

func benchPlan(b *testing.B, be matrix.Backend[float64], stabilized bool) {
	for _, n := range []int{64, 256} {
		b.Run(fmt.Sprintf("n=%d", n), func(b *testing.B) {
			mu, nu := randomSimplex(n, 1), randomSimplex(n, 2)
			c := gridCost(b, n, n, 0)
			opts := sinkhorn.Options[float64]{
				Backend:     be,
				Convergence: convergence.Options{Tol: 1e-9, MaxIter: 200},
			}
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				var res sinkhorn.CostResult[float64]
				var err error
				if stabilized {
					res, err = sinkhorn.StabilizedCost(mu, nu, c, 0.05, opts)
				} else {
					res, err = sinkhorn.Cost(mu, nu, c, 0.05, opts)
				}
				if err != nil {
					b.Fatal(err)
				}
				sinkCost = res.Cost
			}
		})
	}
}

func BenchmarkCostCPU(b *testing.B)        { benchPlan(b, matrix.CPU[float64]{}, false) }
func BenchmarkCostParallel(b *testing.B)   { benchPlan(b, matrix.NewParallel[float64](0), false) }
func BenchmarkStabilizedCost(b *testing.B) { benchPlan(b, matrix.CPU[float64]{}, true) }
