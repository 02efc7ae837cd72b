// SPDX-License-Identifier: MIT

package sinkhorn

import (
	"fmt"
	"math"

	"github.com/katalvlaran/lvlot/convergence"
	"github.com/katalvlaran/lvlot/marginal"
	"github.com/katalvlaran/lvlot/matrix"
)

const (
	opPlan                = "Plan"
	opCost                = "Cost"
	opStabilizedPlan      = "StabilizedPlan"
	opStabilizedCost      = "StabilizedCost"
	opEpsilonScaledPlan   = "EpsilonScaledPlan"
	opEpsilonScaledCost   = "EpsilonScaledCost"
	opUnbalancedPlan      = "UnbalancedPlan"
	opUnbalancedCost      = "UnbalancedCost"
	opGeometricSchedule   = "GeometricSchedule"
	loopSinkhorn          = "sinkhorn"
	loopStabilized        = "sinkhorn stabilized"
	loopUnbalanced        = "sinkhorn unbalanced"
	loopUnbalancedLogStep = "sinkhorn unbalanced stabilized"
)

// Plan solves the entropic problem with the plain scaling kernel and returns
// the coupling diag(u)·K·diag(v).
//
// Inputs are validated in balanced mode (shape, non-negative finite entries,
// equal mass). Hitting MaxIter is reported through Result.Converged.
// For small ε the kernel underflows and the result may hold NaN; use
// StabilizedPlan or EpsilonScaledPlan there.
//
// Errors: ErrBadEpsilon, ErrBadOptions, convergence.ErrBadOptions and the
// marginal sentinels.
// Complexity: O(iterations * M * N) time, O(M * N) space.
func Plan[T matrix.Float](mu, nu []T, c *matrix.Dense[T], eps T, opts Options[T]) (Result[T], error) {
	o, err := prepare(opPlan, mu, nu, c, eps, opts, true)
	if err != nil {
		return Result[T]{}, err
	}
	st, diag := solveScaling(mu, nu, c, eps, o)

	return Result[T]{Plan: st.plan(), U: st.u, V: st.v, Diagnostics: diag}, nil
}

// Cost returns ⟨C, P⟩ (+ ε·Σ p·log p when opts.WithRegularization) of the
// plan Plan would return, without materializing it. When opts.Plan is set the
// iteration is skipped and the cost of that plan is returned instead; for the
// plan produced by Plan with the same inputs both values are identical.
//
// Errors: as Plan, plus marginal.ErrShape for a mis-shaped opts.Plan.
func Cost[T matrix.Float](mu, nu []T, c *matrix.Dense[T], eps T, opts Options[T]) (CostResult[T], error) {
	o, err := prepare(opCost, mu, nu, c, eps, opts, true)
	if err != nil {
		return CostResult[T]{}, err
	}
	if o.Plan != nil {
		return planCost(c, o.Plan, eps, o.WithRegularization), nil
	}
	st, diag := solveScaling(mu, nu, c, eps, o)

	return CostResult[T]{Cost: st.cost(o.WithRegularization), Diagnostics: diag}, nil
}

func solveScaling[T matrix.Float](mu, nu []T, c *matrix.Dense[T], eps T, o Options[T]) (*state[T], convergence.Diagnostics) {
	st := newState(mu, nu, c, eps, o.Backend, false)
	rep := scalingKernel[T]{}
	rep.build(st)

	return st, run[T](st, rep, balancedRule[T]{}, o.loop(loopSinkhorn))
}

// prepare fills defaults and runs every fail-fast check of an entry point.
func prepare[T matrix.Float](op string, mu, nu []T, c *matrix.Dense[T], eps T, opts Options[T], balanced bool) (Options[T], error) {
	o := opts.withDefaults()
	if err := o.validate(); err != nil {
		return o, sinkhornErrorf(op, err)
	}
	if err := checkEpsilon(eps); err != nil {
		return o, sinkhornErrorf(op, err)
	}
	if err := marginal.Validate(mu, nu, c, balanced, 0); err != nil {
		return o, sinkhornErrorf(op, err)
	}
	if o.Plan != nil && (o.Plan.Rows() != c.Rows() || o.Plan.Cols() != c.Cols()) {
		return o, sinkhornErrorf(op, fmt.Errorf("plan is %dx%d, cost is %dx%d: %w",
			o.Plan.Rows(), o.Plan.Cols(), c.Rows(), c.Cols(), marginal.ErrShape))
	}

	return o, nil
}

func (o Options[T]) loop(name string) loopConfig {
	return loopConfig{conv: o.Convergence, record: o.RecordHistory, log: o.Logger, name: name}
}

// checkLambda validates a KL relaxation strength: positive, +Inf allowed.
func checkLambda[T matrix.Float](name string, lambda T) error {
	l := float64(lambda)
	if !(l > 0) {
		return fmt.Errorf("%s %g: %w", name, l, ErrBadLambda)
	}

	return nil
}

// GeometricSchedule returns steps values start·factor^k, k = 0..steps−1,
// ending at start·factor^(steps−1). factor must lie in (0,1).
//
// Errors: ErrBadSchedule, ErrBadEpsilon.
func GeometricSchedule[T matrix.Float](start T, factor float64, steps int) ([]T, error) {
	if err := checkEpsilon(start); err != nil {
		return nil, sinkhornErrorf(opGeometricSchedule, err)
	}
	if !(factor > 0 && factor < 1) || steps <= 0 {
		return nil, sinkhornErrorf(opGeometricSchedule, fmt.Errorf("factor %g, steps %d: %w", factor, steps, ErrBadSchedule))
	}
	out := make([]T, steps)
	for k := range out {
		out[k] = T(float64(start) * math.Pow(factor, float64(k)))
	}
	if err := checkSchedule(out); err != nil {
		return nil, sinkhornErrorf(opGeometricSchedule, err)
	}

	return out, nil
}
