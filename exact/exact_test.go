package exact_test

import (
	"context"
	"math"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/katalvlaran/lvlot/exact"
	"github.com/katalvlaran/lvlot/marginal"
	"github.com/katalvlaran/lvlot/matrix"
)

// SuccessivePathsSuite groups tests for the min-cost-flow optimizer.
type SuccessivePathsSuite struct {
	suite.Suite
}

func TestSuccessivePathsSuite(t *testing.T) {
	suite.Run(t, new(SuccessivePathsSuite))
}

// TestSwap: identity coupling, zero cost.
func (s *SuccessivePathsSuite) TestSwap() {
	c, err := matrix.FromRows([][]float64{{0, 1}, {1, 0}})
	s.Require().NoError(err)
	mu := []float64{0.5, 0.5}

	p, st, err := exact.Plan(mu, mu, c, nil)
	s.Require().NoError(err)
	s.Require().Equal(exact.Optimal, st)
	s.Require().Equal([]float64{0.5, 0, 0, 0.5}, p.Raw())
}

// TestAssignment: the 3×3 assignment whose optimum is 1+2+2.
func (s *SuccessivePathsSuite) TestAssignment() {
	c, err := matrix.FromRows([][]float64{{4, 1, 3}, {2, 0, 5}, {3, 2, 2}})
	s.Require().NoError(err)
	w := []float64{1.0 / 3, 1.0 / 3, 1.0 / 3}

	cost, st, err := exact.Cost(w, w, c, nil)
	s.Require().NoError(err)
	s.Require().Equal(exact.Optimal, st)
	s.Require().InDelta(5.0/3, cost, 1e-12)
}

// TestOneDimensionalMonotone compares against the north-west-corner rule on
// sorted points, which is optimal for convex costs of |x−y| in 1-D.
func (s *SuccessivePathsSuite) TestOneDimensionalMonotone() {
	rng := rand.New(rand.NewSource(3))
	for trial := 0; trial < 5; trial++ {
		m, n := 3+rng.Intn(5), 3+rng.Intn(5)
		x, y := sortedPoints(rng, m), sortedPoints(rng, n)
		mu, nu := simplex(rng, m), simplex(rng, n)
		c, err := matrix.NewDense[float64](m, n)
		s.Require().NoError(err)
		for i := range x {
			for j := range y {
				d := x[i] - y[j]
				s.Require().NoError(c.Set(i, j, d*d))
			}
		}

		p, st, err := exact.Plan(mu, nu, c, nil)
		s.Require().NoError(err)
		s.Require().Equal(exact.Optimal, st)
		rs, _ := matrix.RowSums(p)
		cs, _ := matrix.ColSums(p)
		s.Require().InDeltaSlice(mu, rs, 1e-12)
		s.Require().InDeltaSlice(nu, cs, 1e-12)
		for _, v := range p.Raw() {
			s.Require().GreaterOrEqual(v, 0.0)
		}
		got, _ := matrix.Inner(c, p)
		s.Require().InDelta(northWestCost(c, mu, nu), got, 1e-12, "trial %d", trial)
	}
}

func (s *SuccessivePathsSuite) TestInfeasibleTotals() {
	c, _ := matrix.FromRows([][]float64{{0, 1}, {1, 0}})
	_, st, err := exact.SuccessivePaths[float64]{}.Optimize(c, []float64{0.5, 0.5}, []float64{0.5, 0.7})
	s.Require().NoError(err)
	s.Require().Equal(exact.Infeasible, st)

	_, _, err = exact.Plan([]float64{0.5, 0.5}, []float64{0.5, 0.7}, c, nil)
	s.Require().ErrorIs(err, marginal.ErrMassImbalance)
}

func (s *SuccessivePathsSuite) TestIterationLimit() {
	c, _ := matrix.FromRows([][]float64{{4, 1, 3}, {2, 0, 5}, {3, 2, 2}})
	w := []float64{1.0 / 3, 1.0 / 3, 1.0 / 3}
	_, st, err := exact.Plan(w, w, c, exact.SuccessivePaths[float64]{MaxAugment: 1})
	s.Require().NoError(err)
	s.Require().Equal(exact.IterationLimit, st)
	s.Require().Equal("iteration-limit", st.String())
}

func (s *SuccessivePathsSuite) TestCancelled() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c, _ := matrix.FromRows([][]float64{{0, 1}, {1, 0}})
	_, _, err := exact.Plan([]float64{0.5, 0.5}, []float64{0.5, 0.5}, c, exact.SuccessivePaths[float64]{Ctx: ctx})
	s.Require().ErrorIs(err, context.Canceled)
}

func (s *SuccessivePathsSuite) TestFloat32() {
	c, _ := matrix.FromRows([][]float32{{0, 2}, {1, 0}})
	p, st, err := exact.Plan([]float32{0.25, 0.75}, []float32{0.5, 0.5}, c, nil)
	s.Require().NoError(err)
	s.Require().Equal(exact.Optimal, st)
	s.Require().Equal([]float32{0.25, 0, 0.25, 0.5}, p.Raw())
}

func (s *SuccessivePathsSuite) TestShapeErrors() {
	c, _ := matrix.FromRows([][]float64{{0, 1}, {1, 0}})
	_, _, err := exact.SuccessivePaths[float64]{}.Optimize(c, []float64{1}, []float64{0.5, 0.5})
	s.Require().ErrorIs(err, marginal.ErrShape)
	_, _, err = exact.Plan([]float64{1}, []float64{1}, nil, nil)
	s.Require().ErrorIs(err, exact.ErrNilCost)
}

// TestSimplexAgreesWithSuccessivePaths solves the same random problems with
// both optimizers; optimal plans may differ on ties, optimal costs may not.
func TestSimplexAgreesWithSuccessivePaths(t *testing.T) {
	rng := rand.New(rand.NewSource(21))
	for trial := 0; trial < 6; trial++ {
		m, n := 1+rng.Intn(5), 1+rng.Intn(5)
		mu, nu := simplex(rng, m), simplex(rng, n)
		c, err := matrix.NewDense[float64](m, n)
		require.NoError(t, err)
		for k := range c.Raw() {
			c.Raw()[k] = rng.Float64()
		}

		want, st, err := exact.Cost(mu, nu, c, nil)
		require.NoError(t, err)
		require.Equal(t, exact.Optimal, st)

		p, st, err := exact.Plan(mu, nu, c, exact.Simplex[float64]{})
		require.NoError(t, err, "trial %d (%dx%d)", trial, m, n)
		require.Equal(t, exact.Optimal, st)
		rs, _ := matrix.RowSums(p)
		cs, _ := matrix.ColSums(p)
		require.InDeltaSlice(t, mu, rs, 1e-9)
		require.InDeltaSlice(t, nu, cs, 1e-9)
		for _, v := range p.Raw() {
			require.GreaterOrEqual(t, v, 0.0)
		}
		got, _ := matrix.Inner(c, p)
		require.InDelta(t, want, got, 1e-9, "trial %d (%dx%d)", trial, m, n)
	}
}

func TestSimplexAssignmentAndErrors(t *testing.T) {
	c, err := matrix.FromRows([][]float64{{4, 1, 3}, {2, 0, 5}, {3, 2, 2}})
	require.NoError(t, err)
	w := []float64{1.0 / 3, 1.0 / 3, 1.0 / 3}
	cost, st, err := exact.Cost(w, w, c, exact.Simplex[float64]{})
	require.NoError(t, err)
	require.Equal(t, exact.Optimal, st)
	require.InDelta(t, 5.0/3, cost, 1e-9)

	_, st, err = exact.Simplex[float64]{}.Optimize(c, w, []float64{0.5, 0.5, 0.5})
	require.NoError(t, err)
	require.Equal(t, exact.Infeasible, st)

	_, _, err = exact.Simplex[float64]{}.Optimize(c, []float64{1}, w)
	require.ErrorIs(t, err, marginal.ErrShape)
	_, _, err = exact.Simplex[float64]{}.Optimize(nil, w, w)
	require.ErrorIs(t, err, exact.ErrNilCost)
}

func TestSimplexFloat32(t *testing.T) {
	c, _ := matrix.FromRows([][]float32{{0, 2}, {1, 0}})
	p, st, err := exact.Plan([]float32{0.25, 0.75}, []float32{0.5, 0.5}, c, exact.Simplex[float32]{})
	require.NoError(t, err)
	require.Equal(t, exact.Optimal, st)
	require.InDeltaSlice(t, []float32{0.25, 0, 0.25, 0.5}, p.Raw(), 1e-6)
}

func TestStatusString(t *testing.T) {
	cases := []struct {
		st   exact.Status
		want string
	}{
		{exact.Optimal, "optimal"},
		{exact.Infeasible, "infeasible"},
		{exact.IterationLimit, "iteration-limit"},
		{exact.Status(9), "Status(9)"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, tc.st.String())
	}
}

func sortedPoints(rng *rand.Rand, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = rng.Float64()
	}
	sort.Float64s(out)

	return out
}

func simplex(rng *rand.Rand, n int) []float64 {
	out := make([]float64, n)
	var sum float64
	for i := range out {
		out[i] = 0.1 + rng.Float64()
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}

	return out
}

// northWestCost is the cost of the monotone coupling of sorted supports.
func northWestCost(c *matrix.Dense[float64], mu, nu []float64) float64 {
	a, b := append([]float64(nil), mu...), append([]float64(nil), nu...)
	var i, j int
	var total float64
	for i < len(a) && j < len(b) {
		q := math.Min(a[i], b[j])
		v, _ := c.At(i, j)
		total += q * v
		a[i] -= q
		b[j] -= q
		if a[i] <= b[j] {
			i++
		} else {
			j++
		}
	}

	return total
}
