package runner

import (
	"errors"
	"fmt"
	"math"

	"github.com/katalvlaran/lvlot/costs"
	"github.com/katalvlaran/lvlot/internal/cliconfig"
	"github.com/katalvlaran/lvlot/matrix"
	"github.com/katalvlaran/lvlot/matrix/gonummat"
	"github.com/katalvlaran/lvlot/sinkhorn"
)

var (
	// ErrProblem indicates a problem section that cannot be turned into solver input.
	ErrProblem = errors.New("runner: invalid problem")

	// ErrBackend indicates a backend unavailable for the chosen precision.
	ErrBackend = errors.New("runner: backend not available for this precision")
)

// backendFor maps a backend name to a matrix.Backend over T.
func backendFor[T matrix.Float](name string) (matrix.Backend[T], error) {
	switch name {
	case "", "cpu":
		return matrix.CPU[T]{}, nil
	case "parallel":
		return matrix.NewParallel[T](0), nil
	case "gonum":
		if be, ok := any(matrix.Backend[float64](gonummat.New())).(matrix.Backend[T]); ok {
			return be, nil
		}
		return nil, fmt.Errorf("gonum: %w", ErrBackend)
	}

	return nil, fmt.Errorf("%q: %w", name, ErrBackend)
}

func vec[T matrix.Float](x []float64) []T { return matrix.Convert[T](x) }

func rowsOf[T matrix.Float](x [][]float64) [][]T {
	out := make([][]T, len(x))
	for i, r := range x {
		out[i] = vec[T](r)
	}

	return out
}

// costMatrix builds the ground cost from, in order of preference, the
// explicit matrix, the two point clouds, or an n-point grid.
func costMatrix[T matrix.Float](p cliconfig.Problem) (*matrix.Dense[T], error) {
	switch {
	case len(p.Cost) > 0:
		c, err := matrix.FromRows(rowsOf[T](p.Cost))
		if err != nil {
			return nil, fmt.Errorf("cost: %w: %w", ErrProblem, err)
		}
		return c, nil
	case len(p.X) > 0 && len(p.Y) > 0:
		metric, err := costs.ParseMetric(p.Metric)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrProblem, err)
		}
		return costs.Pairwise(rowsOf[T](p.X), rowsOf[T](p.Y), metric)
	case p.Grid > 0:
		return costs.Grid1D[T](p.Grid)
	}

	return nil, fmt.Errorf("no cost, points or grid given: %w", ErrProblem)
}

// marginalColumns stacks the barycenter inputs as the columns of an n×k matrix.
func marginalColumns[T matrix.Float](ms [][]float64) (*matrix.Dense[T], error) {
	if len(ms) == 0 || len(ms[0]) == 0 {
		return nil, fmt.Errorf("no marginals: %w", ErrProblem)
	}
	n, k := len(ms[0]), len(ms)
	data := make([]T, n*k)
	for j, m := range ms {
		if len(m) != n {
			return nil, fmt.Errorf("marginal %d has %d entries, want %d: %w", j, len(m), n, ErrProblem)
		}
		for i, v := range m {
			data[i*k+j] = T(v)
		}
	}

	return matrix.NewDenseFrom(n, k, data)
}

// uniformWeights returns k weights of 1/k.
func uniformWeights[T matrix.Float](k int) []T {
	w := make([]T, k)
	matrix.Fill(w, T(1/float64(k)))

	return w
}

// epsilonSchedule returns the configured schedule, or decades from 1 down to
// eps ending exactly at eps.
func epsilonSchedule[T matrix.Float](cfg cliconfig.Config) ([]T, error) {
	if len(cfg.Schedule) > 0 {
		return vec[T](cfg.Schedule), nil
	}
	eps := cfg.Epsilon
	if eps >= 1 {
		return []T{T(eps)}, nil
	}
	steps := int(math.Ceil(math.Log10(1/eps))) + 1
	s, err := sinkhorn.GeometricSchedule(T(1), 0.1, steps)
	if err != nil {
		return nil, err
	}
	out := s[:0]
	for _, e := range s {
		if e > T(eps) {
			out = append(out, e)
		}
	}

	return append(out, T(eps)), nil
}

// lambda maps the "unset" zero to a hard constraint.
func lambda[T matrix.Float](l float64) T {
	if l == 0 {
		return T(math.Inf(1))
	}

	return T(l)
}

func denseRows[T matrix.Float](m *matrix.Dense[T]) [][]float64 {
	out := make([][]float64, m.Rows())
	for i := range out {
		out[i] = matrix.Convert[float64](m.Row(i))
	}

	return out
}
