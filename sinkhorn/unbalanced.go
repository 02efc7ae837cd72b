// SPDX-License-Identifier: MIT

package sinkhorn

import (
	"github.com/katalvlaran/lvlot/convergence"
	"github.com/katalvlaran/lvlot/matrix"
)

// UnbalancedPlan solves entropic transport with KL-relaxed marginals:
//
//	u ← (mu / (K v))^(λ1/(λ1+ε)),   v ← (nu / (Kᵀ u))^(λ2/(λ2+ε)).
//
// λ1, λ2 > 0 weight how strictly each marginal is enforced; +Inf restores
// the hard constraint. Masses of mu and nu need not match. The residual is
// the L∞ change of the row log-scaling between sweeps. With
// opts.Stabilized the log-domain kernel is used (Result.F, Result.G).
//
// Errors: ErrBadLambda, plus the errors of Plan except marginal.ErrMassImbalance.
func UnbalancedPlan[T matrix.Float](mu, nu []T, c *matrix.Dense[T], lambda1, lambda2, eps T, opts Options[T]) (Result[T], error) {
	o, err := prepareUnbalanced(opUnbalancedPlan, mu, nu, c, lambda1, lambda2, eps, opts)
	if err != nil {
		return Result[T]{}, err
	}
	st, diag := solveUnbalanced(mu, nu, c, lambda1, lambda2, eps, o)
	res := Result[T]{Plan: st.plan(), Diagnostics: diag}
	if o.Stabilized {
		res.F, res.G = st.f, st.g
	} else {
		res.U, res.V = st.u, st.v
	}

	return res, nil
}

// UnbalancedCost is the cost-only form of UnbalancedPlan, with the same
// reporting contract and opts.Plan warm path as Cost.
func UnbalancedCost[T matrix.Float](mu, nu []T, c *matrix.Dense[T], lambda1, lambda2, eps T, opts Options[T]) (CostResult[T], error) {
	o, err := prepareUnbalanced(opUnbalancedCost, mu, nu, c, lambda1, lambda2, eps, opts)
	if err != nil {
		return CostResult[T]{}, err
	}
	if o.Plan != nil {
		return planCost(c, o.Plan, eps, o.WithRegularization), nil
	}
	st, diag := solveUnbalanced(mu, nu, c, lambda1, lambda2, eps, o)

	return CostResult[T]{Cost: st.cost(o.WithRegularization), Diagnostics: diag}, nil
}

func prepareUnbalanced[T matrix.Float](op string, mu, nu []T, c *matrix.Dense[T], lambda1, lambda2, eps T, opts Options[T]) (Options[T], error) {
	if err := checkLambda("lambda1", lambda1); err != nil {
		return opts, sinkhornErrorf(op, err)
	}
	if err := checkLambda("lambda2", lambda2); err != nil {
		return opts, sinkhornErrorf(op, err)
	}

	return prepare(op, mu, nu, c, eps, opts, false)
}

func solveUnbalanced[T matrix.Float](mu, nu []T, c *matrix.Dense[T], lambda1, lambda2, eps T, o Options[T]) (*state[T], convergence.Diagnostics) {
	st := newState(mu, nu, c, eps, o.Backend, o.Stabilized)
	rule := newRelaxedRule(float64(lambda1), float64(lambda2), eps, len(mu))
	if o.Stabilized {
		rep := logKernel[T]{threshold: o.AbsorbThreshold, log: o.Logger}
		st.seed()
		rep.build(st)

		return st, run[T](st, rep, rule, o.loop(loopUnbalancedLogStep))
	}
	rep := scalingKernel[T]{}
	rep.build(st)

	return st, run[T](st, rep, rule, o.loop(loopUnbalanced))
}
