// SPDX-License-Identifier: MIT

package sinkhorn

import (
	"github.com/katalvlaran/lvlot/convergence"
	"github.com/katalvlaran/lvlot/matrix"
)

// StabilizedPlan solves the entropic problem in the log domain.
//
// Implementation:
//   - Stage 1: potentials f, g from one log-sum-exp sweep starting at 0,
//     kernel exp((f⊕g − C)/ε), u = v = 1. No kernel line underflows even
//     when all of C sits far above ε.
//   - Stage 2: balanced scaling updates; whenever max(|u|,|v|) exceeds
//     opts.AbsorbThreshold, f += ε·log u, g += ε·log v, u = v = 1 and the
//     kernel is rebuilt.
//   - Stage 3: a final absorption, then the plan is the kernel itself.
//
// Same fixed point as Plan in exact arithmetic; stays finite for ε far below
// the cost scale. Result carries F and G instead of U and V.
//
// Errors: as Plan.
// Complexity: O(iterations * M * N) plus O(M * N) per absorption.
func StabilizedPlan[T matrix.Float](mu, nu []T, c *matrix.Dense[T], eps T, opts Options[T]) (Result[T], error) {
	o, err := prepare(opStabilizedPlan, mu, nu, c, eps, opts, true)
	if err != nil {
		return Result[T]{}, err
	}
	st, diag := solveStabilized(mu, nu, c, eps, o)

	return Result[T]{Plan: st.plan(), F: st.f, G: st.g, Diagnostics: diag}, nil
}

// StabilizedCost is Cost on top of StabilizedPlan's loop, with the same
// opts.Plan warm path.
func StabilizedCost[T matrix.Float](mu, nu []T, c *matrix.Dense[T], eps T, opts Options[T]) (CostResult[T], error) {
	o, err := prepare(opStabilizedCost, mu, nu, c, eps, opts, true)
	if err != nil {
		return CostResult[T]{}, err
	}
	if o.Plan != nil {
		return planCost(c, o.Plan, eps, o.WithRegularization), nil
	}
	st, diag := solveStabilized(mu, nu, c, eps, o)

	return CostResult[T]{Cost: st.cost(o.WithRegularization), Diagnostics: diag}, nil
}

func solveStabilized[T matrix.Float](mu, nu []T, c *matrix.Dense[T], eps T, o Options[T]) (*state[T], convergence.Diagnostics) {
	st := newState(mu, nu, c, eps, o.Backend, true)
	rep := logKernel[T]{threshold: o.AbsorbThreshold, log: o.Logger}
	st.seed()
	rep.build(st)

	return st, run[T](st, rep, balancedRule[T]{}, o.loop(loopStabilized))
}
