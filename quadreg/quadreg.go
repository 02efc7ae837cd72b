package quadreg

import (
	"errors"
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/katalvlaran/lvlot/convergence"
	"github.com/katalvlaran/lvlot/marginal"
	"github.com/katalvlaran/lvlot/matrix"
)

// Defaults of the Newton iteration.
const (
	DefaultRidge       = 1e-5 // δ added to the generalized Hessian
	DefaultArmijoTheta = 0.1  // sufficient-decrease constant
	DefaultArmijoKappa = 0.5  // backtracking factor
	DefaultArmijoMax   = 50   // backtracking steps before giving up
)

var (
	// ErrBadEpsilon indicates a regularization strength that is not positive and finite.
	ErrBadEpsilon = errors.New("quadreg: epsilon must be positive and finite")

	// ErrBadOptions indicates invalid line-search or ridge parameters.
	ErrBadOptions = errors.New("quadreg: invalid options")
)

// Options configures one solve. Zero fields take the package defaults.
type Options[T matrix.Float] struct {
	Convergence convergence.Options

	// WithRegularization adds ε/2·‖P‖² to reported costs.
	WithRegularization bool

	// Plan, when non-nil, makes Cost evaluate this plan without iterating.
	Plan *matrix.Sparse[T]

	Ridge       float64
	ArmijoTheta float64 // in (0, 1)
	ArmijoKappa float64 // in (0, 1)
	ArmijoMax   int
	CGMaxIter   int // <=0 means 2·(M+N)

	Logger        zerolog.Logger
	RecordHistory bool
}

// Result holds the sparse plan and the dual potentials.
type Result[T matrix.Float] struct {
	Plan        *matrix.Sparse[T]
	Alpha, Beta []T
	convergence.Diagnostics
}

// CostResult is the outcome of Cost.
type CostResult[T matrix.Float] struct {
	Cost T
	convergence.Diagnostics
}

// Plan returns the quadratically regularized plan between mu and nu.
//
// Errors: ErrBadEpsilon, ErrBadOptions, convergence.ErrBadOptions and the
// marginal sentinels. Non-convergence is reported in Result.Converged.
// Complexity: O(iterations · (M·N + CG iterations · nnz)).
func Plan[T matrix.Float](mu, nu []T, c *matrix.Dense[T], eps T, opts Options[T]) (Result[T], error) {
	o, err := prepare(mu, nu, c, eps, opts)
	if err != nil {
		return Result[T]{}, fmt.Errorf("quadreg.Plan: %w", err)
	}

	return solve(mu, nu, c, eps, o), nil
}

// Cost returns ⟨C, P⟩ (+ ε/2·‖P‖² when WithRegularization) for the plan
// Plan would return, or for opts.Plan when it is set. The two paths agree
// bit for bit.
func Cost[T matrix.Float](mu, nu []T, c *matrix.Dense[T], eps T, opts Options[T]) (CostResult[T], error) {
	o, err := prepare(mu, nu, c, eps, opts)
	if err != nil {
		return CostResult[T]{}, fmt.Errorf("quadreg.Cost: %w", err)
	}
	if o.Plan != nil {
		if o.Plan.Rows() != c.Rows() || o.Plan.Cols() != c.Cols() {
			return CostResult[T]{}, fmt.Errorf("quadreg.Cost: plan is %dx%d: %w", o.Plan.Rows(), o.Plan.Cols(), marginal.ErrShape)
		}
		return CostResult[T]{
			Cost:        planCost(c, o.Plan, eps, o.WithRegularization),
			Diagnostics: convergence.Diagnostics{Converged: true},
		}, nil
	}
	res := solve(mu, nu, c, eps, o)

	return CostResult[T]{
		Cost:        planCost(c, res.Plan, eps, o.WithRegularization),
		Diagnostics: res.Diagnostics,
	}, nil
}

// planCost visits the stored entries in row-major order, rounding every
// product to T.
func planCost[T matrix.Float](c *matrix.Dense[T], p *matrix.Sparse[T], eps T, withReg bool) T {
	craw, n := c.Raw(), c.Cols()
	var lin, sq T
	p.Do(func(i, j int, v T) bool {
		lin += T(craw[i*n+j] * v)
		sq += T(v * v)
		return true
	})
	if withReg {
		return lin + T(eps/2*sq)
	}

	return lin
}

func prepare[T matrix.Float](mu, nu []T, c *matrix.Dense[T], eps T, opts Options[T]) (Options[T], error) {
	o := opts.withDefaults()
	if err := o.validate(); err != nil {
		return o, err
	}
	if e := float64(eps); !(e > 0) || math.IsInf(e, 0) {
		return o, fmt.Errorf("epsilon %g: %w", e, ErrBadEpsilon)
	}
	if err := marginal.Validate(mu, nu, c, true, 0); err != nil {
		return o, err
	}

	return o, nil
}

func (o Options[T]) withDefaults() Options[T] {
	def := convergence.Defaults[T]()
	if o.Convergence.Tol == 0 {
		o.Convergence.Tol = def.Tol
	}
	if o.Convergence.MaxIter == 0 {
		o.Convergence.MaxIter = def.MaxIter
	}
	if o.Ridge == 0 {
		o.Ridge = DefaultRidge
	}
	if o.ArmijoTheta == 0 {
		o.ArmijoTheta = DefaultArmijoTheta
	}
	if o.ArmijoKappa == 0 {
		o.ArmijoKappa = DefaultArmijoKappa
	}
	if o.ArmijoMax == 0 {
		o.ArmijoMax = DefaultArmijoMax
	}

	return o
}

func (o Options[T]) validate() error {
	if err := o.Convergence.Validate(); err != nil {
		return err
	}
	switch {
	case !(o.Ridge > 0) || math.IsInf(o.Ridge, 0):
		return fmt.Errorf("ridge %g: %w", o.Ridge, ErrBadOptions)
	case !(o.ArmijoTheta > 0 && o.ArmijoTheta < 1):
		return fmt.Errorf("armijo theta %g: %w", o.ArmijoTheta, ErrBadOptions)
	case !(o.ArmijoKappa > 0 && o.ArmijoKappa < 1):
		return fmt.Errorf("armijo kappa %g: %w", o.ArmijoKappa, ErrBadOptions)
	case o.ArmijoMax < 0:
		return fmt.Errorf("armijo max %d: %w", o.ArmijoMax, ErrBadOptions)
	}

	return nil
}
