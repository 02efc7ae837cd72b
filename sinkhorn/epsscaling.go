// SPDX-License-Identifier: MIT

package sinkhorn

import (
	"fmt"
	"math"

	"github.com/katalvlaran/lvlot/convergence"
	"github.com/katalvlaran/lvlot/matrix"
)

// EpsilonScaledPlan runs the log-domain loop over a strictly decreasing
// schedule of ε values, warm-starting every stage from the potentials of the
// previous one.
//
// Behavior highlights:
//   - Every stage but the last stops at max(opts.StageTol, Tol).
//   - The last stage uses the caller's Tol and MaxIter; its ε is the
//     regularization of the returned plan.
//   - Diagnostics sum the iterations of all stages; Converged and Residual
//     describe the last stage.
//
// Errors: ErrBadSchedule, plus the errors of Plan.
func EpsilonScaledPlan[T matrix.Float](mu, nu []T, c *matrix.Dense[T], schedule []T, opts Options[T]) (Result[T], error) {
	if err := checkSchedule(schedule); err != nil {
		return Result[T]{}, sinkhornErrorf(opEpsilonScaledPlan, err)
	}
	o, err := prepare(opEpsilonScaledPlan, mu, nu, c, schedule[len(schedule)-1], opts, true)
	if err != nil {
		return Result[T]{}, err
	}
	st, diag := solveScheduled(mu, nu, c, schedule, o)

	return Result[T]{Plan: st.plan(), F: st.f, G: st.g, Diagnostics: diag}, nil
}

// EpsilonScaledCost is the cost-only form of EpsilonScaledPlan. The entropy
// term and the opts.Plan warm path use the final ε of the schedule.
func EpsilonScaledCost[T matrix.Float](mu, nu []T, c *matrix.Dense[T], schedule []T, opts Options[T]) (CostResult[T], error) {
	if err := checkSchedule(schedule); err != nil {
		return CostResult[T]{}, sinkhornErrorf(opEpsilonScaledCost, err)
	}
	eps := schedule[len(schedule)-1]
	o, err := prepare(opEpsilonScaledCost, mu, nu, c, eps, opts, true)
	if err != nil {
		return CostResult[T]{}, err
	}
	if o.Plan != nil {
		return planCost(c, o.Plan, eps, o.WithRegularization), nil
	}
	st, diag := solveScheduled(mu, nu, c, schedule, o)

	return CostResult[T]{Cost: st.cost(o.WithRegularization), Diagnostics: diag}, nil
}

func solveScheduled[T matrix.Float](mu, nu []T, c *matrix.Dense[T], schedule []T, o Options[T]) (*state[T], convergence.Diagnostics) {
	st := newState(mu, nu, c, schedule[0], o.Backend, true)
	rep := logKernel[T]{threshold: o.AbsorbThreshold, log: o.Logger}
	stageTol := math.Max(o.StageTol, o.Convergence.Tol)
	last := len(schedule) - 1

	var diag convergence.Diagnostics
	for s, eps := range schedule {
		st.eps = eps
		st.seed() // starts from the previous stage's f, g
		rep.build(st)
		cfg := o.loop(loopStabilized)
		if s < last {
			cfg.conv.Tol = stageTol
		}
		d := run[T](st, rep, balancedRule[T]{}, cfg)
		o.Logger.Debug().Int("stage", s).Float64("eps", float64(eps)).Int("iterations", d.Iterations).Msg("epsilon stage done")
		diag = diag.Then(d)
	}

	return st, diag
}

// checkSchedule requires a non-empty, positive, finite, strictly decreasing schedule.
func checkSchedule[T matrix.Float](schedule []T) error {
	if len(schedule) == 0 {
		return fmt.Errorf("empty: %w", ErrBadSchedule)
	}
	for k, eps := range schedule {
		if err := checkEpsilon(eps); err != nil {
			return fmt.Errorf("stage %d: %w: %w", k, ErrBadSchedule, err)
		}
		if k > 0 && !(eps < schedule[k-1]) {
			return fmt.Errorf("stage %d: %g >= %g: %w", k, float64(eps), float64(schedule[k-1]), ErrBadSchedule)
		}
	}

	return nil
}
