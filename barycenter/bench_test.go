// SPDX-License-Identifier: MIT

package barycenter_test

import (
	"testing"

	"github.com/katalvlaran/lvlot/barycenter"
	"github.com/katalvlaran/lvlot/convergence"
	"github.com/katalvlaran/lvlot/costs"
	"github.com/katalvlaran/lvlot/matrix"
)

func benchmarkBarycenter(b *testing.B, concurrent bool) {
	const n, k = 64, 8
	cols := make([][]float64, k)
	cs := make([]*matrix.Dense[float64], k)
	w := make([]float64, k)
	c, _ := costs.Grid1D[float64](n)
	for i := range cols {
		cols[i] = simplex(n, int64(i))
		cs[i] = c
		w[i] = 1.0 / k
	}
	m := columns(b, cols...)
	opts := barycenter.Options[float64]{
		Convergence: convergence.Options{Tol: 1e-300, MaxIter: 50},
		Concurrent:  concurrent,
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := barycenter.Sinkhorn(m, cs, 0.05, w, opts); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkSinkhornSequential(b *testing.B) { benchmarkBarycenter(b, false) }
func BenchmarkSinkhornConcurrent(b *testing.B) { benchmarkBarycenter(b, true) }
