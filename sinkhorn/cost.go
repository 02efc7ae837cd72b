// SPDX-License-Identifier: MIT

package sinkhorn

import (
	"github.com/katalvlaran/lvlot/convergence"
	"github.com/katalvlaran/lvlot/matrix"
)

// transportCost returns ⟨C, P⟩, plus ε·Σ p·log p (0·log 0 = 0) when withReg,
// for the plan whose entries are produced by p. Entries are visited in
// row-major order and every product is rounded to T explicitly, so a solve
// and a later evaluation of the plan it returned agree bit for bit.
func transportCost[T matrix.Float](c *matrix.Dense[T], eps T, withReg bool, p func(i, j int) T) T {
	m, n := c.Shape()
	craw := c.Raw()
	var lin, ent, pij T
	var i, j int
	for i = 0; i < m; i++ {
		for j = 0; j < n; j++ {
			pij = p(i, j)
			lin += T(craw[i*n+j] * pij)
			if withReg {
				ent += matrix.XLogX(pij)
			}
		}
	}
	if withReg {
		return lin + T(eps*ent)
	}

	return lin
}

// cost evaluates the plan held by st without materializing it.
func (st *state[T]) cost(withReg bool) T {
	return transportCost(st.c, st.eps, withReg, st.entry)
}

// planCost is the warm path: cost of a caller-supplied plan, no iteration.
func planCost[T matrix.Float](c, plan *matrix.Dense[T], eps T, withReg bool) CostResult[T] {
	raw, n := plan.Raw(), c.Cols()
	cost := transportCost(c, eps, withReg, func(i, j int) T { return raw[i*n+j] })

	return CostResult[T]{Cost: cost, Diagnostics: convergence.Diagnostics{Converged: true}}
}
