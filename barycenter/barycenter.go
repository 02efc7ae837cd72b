// SPDX-License-Identifier: MIT

package barycenter

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/katalvlaran/lvlot/convergence"
	"github.com/katalvlaran/lvlot/marginal"
	"github.com/katalvlaran/lvlot/matrix"
	"github.com/katalvlaran/lvlot/sinkhorn"
)

// debiasSteps is the number of d-updates per outer iteration.
const debiasSteps = 10

// ErrNoSupportCost indicates DebiasOn without a usable barycenter-support cost.
var ErrNoSupportCost = errors.New("barycenter: debiasing needs an N×N support cost")

// Debias selects the debiasing policy.
type Debias int

const (
	// DebiasAuto debiases when a support cost is available: Options.SupportCost,
	// or all costs square and identical.
	DebiasAuto Debias = iota
	// DebiasOn requires a support cost.
	DebiasOn
	// DebiasOff runs classical iterative Bregman projections.
	DebiasOff
)

// Options configures Sinkhorn. Zero fields take defaults.
type Options[T matrix.Float] struct {
	Convergence   convergence.Options // default convergence.Defaults[T]()
	Debias        Debias
	SupportCost   *matrix.Dense[T] // N×N cost on the barycenter support
	Concurrent    bool             // run per-marginal steps on an errgroup
	Workers       int              // goroutine cap when Concurrent; <=0 means k
	Backend       matrix.Backend[T]
	Logger        zerolog.Logger
	RecordHistory bool
}

// Result is the barycenter and its convergence report.
type Result[T matrix.Float] struct {
	Barycenter []T
	convergence.Diagnostics
}

// subproblem is one marginal's half of the coupled Sinkhorn iteration.
type subproblem[T matrix.Float] struct {
	a   []T              // marginal, length n
	k   *matrix.Dense[T] // n×N Gibbs kernel
	u   []T              // n
	v   []T              // N
	kv  []T              // n
	ktu []T              // N
	w   float64          // weight
}

// step updates u from a and K·v, then computes Kᵀu.
func (sp *subproblem[T]) step(be matrix.Backend[T]) {
	be.MulVec(sp.kv, sp.k, sp.v)
	matrix.SafeDivInto(sp.u, sp.a, sp.kv)
	be.MulTransVec(sp.ktu, sp.k, sp.u)
}

// Sinkhorn returns the entropic barycenter of the columns of marginals.
//
// Inputs:
//   - marginals: n×k, one marginal per column, equal masses.
//   - costs: k matrices, each n×N.
//   - eps: regularization, > 0.
//   - weights: k convex weights.
//
// Errors: sinkhorn.ErrBadEpsilon, ErrNoSupportCost, convergence.ErrBadOptions
// and the marginal sentinels (ErrShape, ErrMassImbalance, ErrBadWeights, ...).
// Complexity: O(iterations · k · n · N) (+ O(iterations · N²) when debiasing).
func Sinkhorn[T matrix.Float](marginals *matrix.Dense[T], costs []*matrix.Dense[T], eps T, weights []T, opts Options[T]) (Result[T], error) {
	o := withDefaults(opts)
	subs, kbar, err := setup(marginals, costs, eps, weights, o)
	if err != nil {
		return Result[T]{}, fmt.Errorf("barycenter.Sinkhorn: %w", err)
	}
	nb := costs[0].Cols()

	b := make([]T, nb)
	matrix.Fill(b, T(1/float64(nb)))
	prev := slices.Clone(b)
	d := matrix.Ones[T](nb)
	kd := make([]T, nb)

	tr := convergence.NewTracker(o.Convergence, o.RecordHistory)
	for !tr.Done() {
		if err := o.fanOut(subs); err != nil {
			return Result[T]{}, fmt.Errorf("barycenter.Sinkhorn: %w", err)
		}
		geometricMean(b, d, subs)
		for _, sp := range subs {
			matrix.SafeDivInto(sp.v, b, sp.ktu)
		}
		if kbar != nil {
			for s := 0; s < debiasSteps; s++ {
				o.Backend.MulVec(kd, kbar, d)
				for j := range d {
					d[j] = T(math.Sqrt(float64(d[j]) * float64(b[j]) / float64(kd[j])))
				}
			}
		}
		res := float64(matrix.L1Dist(b, prev))
		copy(prev, b)
		o.Logger.Trace().Int("iter", tr.Iteration()+1).Float64("residual", res).Msg("barycenter iteration")
		tr.Observe(res)
	}

	diag := tr.Diagnostics()
	ev := o.Logger.Debug()
	if !diag.Converged {
		ev = o.Logger.Warn()
	}
	ev.Int("iterations", diag.Iterations).Float64("residual", diag.Residual).Bool("debiased", kbar != nil).Msg("barycenter done")

	return Result[T]{Barycenter: b, Diagnostics: diag}, nil
}

func withDefaults[T matrix.Float](o Options[T]) Options[T] {
	def := convergence.Defaults[T]()
	if o.Convergence.Tol == 0 {
		o.Convergence.Tol = def.Tol
	}
	if o.Convergence.MaxIter == 0 {
		o.Convergence.MaxIter = def.MaxIter
	}
	if o.Backend == nil {
		o.Backend = matrix.CPU[T]{}
	}

	return o
}

// setup validates the inputs and builds one subproblem per marginal plus the
// debiasing kernel (nil when not debiasing).
func setup[T matrix.Float](marginals *matrix.Dense[T], costs []*matrix.Dense[T], eps T, weights []T, o Options[T]) ([]*subproblem[T], *matrix.Dense[T], error) {
	if err := o.Convergence.Validate(); err != nil {
		return nil, nil, err
	}
	if _, err := marginal.ValidateColumns(marginals, 0); err != nil {
		return nil, nil, err
	}
	n, k := marginals.Shape()
	if len(costs) != k {
		return nil, nil, fmt.Errorf("%d costs for %d marginals: %w", len(costs), k, marginal.ErrShape)
	}
	if err := marginal.ValidateWeights(weights, k, 0); err != nil {
		return nil, nil, err
	}
	if costs[0] == nil {
		return nil, nil, fmt.Errorf("cost 0: %w", marginal.ErrShape)
	}
	nb := costs[0].Cols()

	subs := make([]*subproblem[T], k)
	for idx, c := range costs {
		if err := marginal.Cost(c, n, nb); err != nil {
			return nil, nil, fmt.Errorf("cost %d: %w", idx, err)
		}
		kern, err := sinkhorn.Kernel(c, eps)
		if err != nil {
			return nil, nil, err
		}
		col := make([]T, n)
		for i := range col {
			col[i] = marginals.Row(i)[idx]
		}
		subs[idx] = &subproblem[T]{
			a: col, k: kern,
			u: make([]T, n), v: matrix.Ones[T](nb),
			kv: make([]T, n), ktu: make([]T, nb),
			w: float64(weights[idx]),
		}
	}

	support, err := supportCost(costs, o)
	if err != nil || support == nil {
		return subs, nil, err
	}
	kbar, err := sinkhorn.Kernel(support, eps)
	if err != nil {
		return nil, nil, err
	}

	return subs, kbar, nil
}

// supportCost resolves the N×N cost used for debiasing, or nil.
func supportCost[T matrix.Float](costs []*matrix.Dense[T], o Options[T]) (*matrix.Dense[T], error) {
	if o.Debias == DebiasOff {
		return nil, nil
	}
	nb := costs[0].Cols()
	if o.SupportCost != nil {
		if err := marginal.Cost(o.SupportCost, nb, nb); err != nil {
			return nil, fmt.Errorf("support cost: %w", err)
		}
		return o.SupportCost, nil
	}
	if costs[0].Rows() == nb && allEqual(costs) {
		return costs[0], nil
	}
	if o.Debias == DebiasOn {
		return nil, ErrNoSupportCost
	}

	return nil, nil
}

func allEqual[T matrix.Float](costs []*matrix.Dense[T]) bool {
	first := costs[0].Raw()
	for _, c := range costs[1:] {
		if c != costs[0] && !slices.Equal(first, c.Raw()) {
			return false
		}
	}

	return true
}

// fanOut runs every subproblem step, concurrently when configured, and
// returns once all of them are done.
func (o Options[T]) fanOut(subs []*subproblem[T]) error {
	if !o.Concurrent || len(subs) == 1 {
		for _, sp := range subs {
			sp.step(o.Backend)
		}
		return nil
	}
	g, ctx := errgroup.WithContext(context.Background())
	if o.Workers > 0 {
		g.SetLimit(o.Workers)
	}
	for _, sp := range subs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			sp.step(o.Backend)
			return nil
		})
	}

	return g.Wait()
}

// geometricMean sets b_j = d_j · exp(Σ_k w_k · log (K_kᵀu_k)_j), in index
// order over k. Zero-weight marginals are skipped.
func geometricMean[T matrix.Float](b, d []T, subs []*subproblem[T]) {
	for j := range b {
		var acc float64
		for _, sp := range subs {
			if sp.w == 0 {
				continue
			}
			acc += sp.w * math.Log(float64(sp.ktu[j]))
		}
		b[j] = T(float64(d[j]) * math.Exp(acc))
	}
}
