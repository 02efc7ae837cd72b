package exact

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"

	"github.com/katalvlaran/lvlot/marginal"
	"github.com/katalvlaran/lvlot/matrix"
)

// DefaultSimplexTol is the pivoting tolerance handed to lp.Simplex.
const DefaultSimplexTol = 1e-10

// Simplex is an Optimizer backed by gonum's dense simplex method.
//
// The LP is written in standard form over x = vec(P), row-major:
// M row constraints and N−1 column constraints. The last column constraint
// follows from the others once the totals agree, and dropping it keeps the
// constraint matrix at full row rank, which lp.Simplex requires.
//
// Dense tableau: memory O((M+N)·M·N). Use it to cross-check small problems;
// SuccessivePaths scales further.
type Simplex[T matrix.Float] struct {
	Tol     float64 // pivoting tolerance; <=0 means DefaultSimplexTol
	MassTol float64 // allowed |Σsupply − Σdemand|; <=0 means marginal.DefaultTol[T]()
}

var _ Optimizer[float64] = Simplex[float64]{}

// Optimize implements Optimizer.
func (s Simplex[T]) Optimize(c *matrix.Dense[T], supply, demand []T) (*matrix.Dense[T], Status, error) {
	if c == nil {
		return nil, Infeasible, ErrNilCost
	}
	m, n := c.Shape()
	if len(supply) != m || len(demand) != n {
		return nil, Infeasible, fmt.Errorf("exact.Simplex: supply %d, demand %d for %dx%d cost: %w",
			len(supply), len(demand), m, n, marginal.ErrShape)
	}
	massTol := s.MassTol
	if massTol <= 0 {
		massTol = marginal.DefaultTol[T]()
	}
	if math.Abs(marginal.Mass(supply)-marginal.Mass(demand)) > massTol {
		return nil, Infeasible, nil
	}
	tol := s.Tol
	if tol <= 0 {
		tol = DefaultSimplexTol
	}

	a, b := transportConstraints(supply, demand)
	_, x, err := lp.Simplex(matrix.Convert[float64](c.Raw()), a, b, tol, nil)
	switch {
	case errors.Is(err, lp.ErrInfeasible):
		return nil, Infeasible, nil
	case err != nil:
		return nil, Infeasible, fmt.Errorf("exact.Simplex: %w", err)
	}

	p, err := matrix.NewDense[T](m, n)
	if err != nil {
		return nil, Infeasible, err
	}
	raw := p.Raw()
	for k, v := range x {
		if v > 0 {
			raw[k] = T(v)
		}
	}

	return p, Optimal, nil
}

// transportConstraints builds A·vec(P) = b for the row sums and all but the
// last column sum.
func transportConstraints[T matrix.Float](supply, demand []T) (*mat.Dense, []float64) {
	m, n := len(supply), len(demand)
	rows := m + n - 1
	a := mat.NewDense(rows, m*n, nil)
	b := make([]float64, rows)
	var i, j int
	for i = 0; i < m; i++ {
		for j = 0; j < n; j++ {
			a.Set(i, i*n+j, 1)
		}
		b[i] = float64(supply[i])
	}
	for j = 0; j < n-1; j++ {
		for i = 0; i < m; i++ {
			a.Set(m+j, i*n+j, 1)
		}
		b[m+j] = float64(demand[j])
	}

	return a, b
}
