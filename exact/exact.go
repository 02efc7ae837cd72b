package exact

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/katalvlaran/lvlot/marginal"
	"github.com/katalvlaran/lvlot/matrix"
)

// Status is the termination status reported by an Optimizer.
type Status int

const (
	// Optimal means the returned plan solves the LP.
	Optimal Status = iota
	// Infeasible means supply and demand cannot be matched (unequal totals).
	Infeasible
	// IterationLimit means the optimizer stopped early; the plan is partial.
	IterationLimit
)

func (s Status) String() string {
	switch s {
	case Optimal:
		return "optimal"
	case Infeasible:
		return "infeasible"
	case IterationLimit:
		return "iteration-limit"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// ErrNilCost is returned when the cost matrix is nil.
var ErrNilCost = errors.New("exact: nil cost matrix")

// Optimizer is the LP-solve capability: optimize(C, supply, demand) → (plan, status).
type Optimizer[T matrix.Float] interface {
	Optimize(c *matrix.Dense[T], supply, demand []T) (*matrix.Dense[T], Status, error)
}

// Plan validates a balanced problem and delegates to opt
// (a zero SuccessivePaths when opt is nil).
func Plan[T matrix.Float](mu, nu []T, c *matrix.Dense[T], opt Optimizer[T]) (*matrix.Dense[T], Status, error) {
	if c == nil {
		return nil, Infeasible, ErrNilCost
	}
	if err := marginal.Validate(mu, nu, c, true, 0); err != nil {
		return nil, Infeasible, fmt.Errorf("exact.Plan: %w", err)
	}
	if opt == nil {
		opt = SuccessivePaths[T]{}
	}

	return opt.Optimize(c, mu, nu)
}

// Cost returns ⟨C, P⟩ of the plan returned by Plan.
func Cost[T matrix.Float](mu, nu []T, c *matrix.Dense[T], opt Optimizer[T]) (T, Status, error) {
	p, st, err := Plan(mu, nu, c, opt)
	if err != nil {
		return 0, st, err
	}
	v, err := matrix.Inner(c, p)
	if err != nil {
		return 0, st, fmt.Errorf("exact.Cost: %w", err)
	}

	return v, st, nil
}

// SuccessivePaths is a min-cost-flow Optimizer.
//
// Options:
//   - Ctx: checked before every augmentation (nil means Background).
//   - Epsilon: masses ≤ Epsilon count as zero (default 1e-12 · total mass).
//   - MaxAugment: augmentation cap (default 4·(M+N)²); reaching it yields IterationLimit.
//   - Logger: Trace line per augmentation.
type SuccessivePaths[T matrix.Float] struct {
	Ctx        context.Context
	Epsilon    float64
	MaxAugment int
	Logger     zerolog.Logger
}

var _ Optimizer[float64] = SuccessivePaths[float64]{}

// network is the residual bipartite network, kept in float64.
type network struct {
	m, n     int
	cost     []float64 // m*n
	flow     []float64 // m*n, flow on row→column arcs
	supply   []float64 // remaining source→row capacity
	demand   []float64 // remaining column→sink capacity
	distRow  []float64
	distCol  []float64
	predRow  []int // for column j: row it was reached from
	predCol  []int // for row i: column it was reached from, −1 from the source
	eps, tie float64
}

// Optimize implements Optimizer.
func (sp SuccessivePaths[T]) Optimize(c *matrix.Dense[T], supply, demand []T) (*matrix.Dense[T], Status, error) {
	if c == nil {
		return nil, Infeasible, ErrNilCost
	}
	m, n := c.Shape()
	if len(supply) != m || len(demand) != n {
		return nil, Infeasible, fmt.Errorf("exact.SuccessivePaths: supply %d, demand %d for %dx%d cost: %w",
			len(supply), len(demand), m, n, marginal.ErrShape)
	}
	ctx := sp.Ctx
	if ctx == nil {
		ctx = context.Background()
	}

	net := newNetwork(c, supply, demand, sp.Epsilon)
	total := marginal.Mass(supply)
	status := Optimal
	if math.Abs(total-marginal.Mass(demand)) > net.eps*float64(m+n) {
		status = Infeasible
	}

	maxAug := sp.MaxAugment
	if maxAug <= 0 {
		maxAug = 4 * (m + n) * (m + n)
	}
	var aug int
	for net.pending() {
		if err := ctx.Err(); err != nil {
			return nil, status, err
		}
		if aug == maxAug {
			if status == Optimal {
				status = IterationLimit
			}
			break
		}
		net.shortestPaths()
		j := net.closestSink()
		if j < 0 {
			break // nothing reachable: only happens with zero supply left
		}
		delta := net.augment(j)
		aug++
		sp.Logger.Trace().Int("augmentation", aug).Int("column", j).Float64("mass", delta).Msg("augmenting path")
	}
	sp.Logger.Debug().Int("augmentations", aug).Stringer("status", status).Msg("min-cost flow done")

	p, err := matrix.NewDense[T](m, n)
	if err != nil {
		return nil, status, err
	}
	raw := p.Raw()
	for k, f := range net.flow {
		raw[k] = T(f)
	}

	return p, status, nil
}

func newNetwork[T matrix.Float](c *matrix.Dense[T], supply, demand []T, eps float64) *network {
	m, n := c.Shape()
	net := &network{
		m: m, n: n,
		cost:    matrix.Convert[float64](c.Raw()),
		flow:    make([]float64, m*n),
		supply:  matrix.Convert[float64](supply),
		demand:  matrix.Convert[float64](demand),
		distRow: make([]float64, m),
		distCol: make([]float64, n),
		predRow: make([]int, n),
		predCol: make([]int, m),
	}
	if eps <= 0 {
		eps = 1e-12 * math.Max(1, marginal.Mass(supply))
	}
	net.eps = eps
	var maxCost float64
	for _, v := range net.cost {
		maxCost = math.Max(maxCost, math.Abs(v))
	}
	net.tie = 1e-12 * (1 + maxCost)

	return net
}

// pending reports whether both some supply and some demand remain.
func (net *network) pending() bool {
	var s, d bool
	for _, v := range net.supply {
		if v > net.eps {
			s = true
			break
		}
	}
	for _, v := range net.demand {
		if v > net.eps {
			d = true
			break
		}
	}

	return s && d
}

// shortestPaths runs Bellman–Ford from the source over the residual network.
func (net *network) shortestPaths() {
	inf := math.Inf(1)
	var i, j int
	for i = 0; i < net.m; i++ {
		net.distRow[i] = inf
		net.predCol[i] = -1
		if net.supply[i] > net.eps {
			net.distRow[i] = 0
		}
	}
	for j = 0; j < net.n; j++ {
		net.distCol[j] = inf
		net.predRow[j] = -1
	}
	for round := 0; round <= net.m+net.n; round++ {
		changed := false
		for i = 0; i < net.m; i++ { // forward arcs row → column
			if math.IsInf(net.distRow[i], 1) {
				continue
			}
			for j = 0; j < net.n; j++ {
				if d := net.distRow[i] + net.cost[i*net.n+j]; d < net.distCol[j]-net.tie {
					net.distCol[j], net.predRow[j] = d, i
					changed = true
				}
			}
		}
		for j = 0; j < net.n; j++ { // reverse arcs column → row on positive flow
			if math.IsInf(net.distCol[j], 1) {
				continue
			}
			for i = 0; i < net.m; i++ {
				if net.flow[i*net.n+j] <= net.eps {
					continue
				}
				if d := net.distCol[j] - net.cost[i*net.n+j]; d < net.distRow[i]-net.tie {
					net.distRow[i], net.predCol[i] = d, j
					changed = true
				}
			}
		}
		if !changed {
			return
		}
	}
}

// closestSink returns the column with remaining demand at minimum distance, or −1.
func (net *network) closestSink() int {
	best, arg := math.Inf(1), -1
	for j := 0; j < net.n; j++ {
		if net.demand[j] > net.eps && net.distCol[j] < best {
			best, arg = net.distCol[j], j
		}
	}

	return arg
}

// augment pushes the bottleneck mass along the path ending at column j.
func (net *network) augment(j int) float64 {
	delta := net.demand[j]
	col, steps := j, 0
	for { // bottleneck
		i := net.predRow[col]
		prev := net.predCol[i]
		if prev < 0 {
			delta = math.Min(delta, net.supply[i])
			break
		}
		delta = math.Min(delta, net.flow[i*net.n+prev])
		col = prev
		if steps++; steps > net.m+net.n {
			return 0
		}
	}
	col = j
	for {
		i := net.predRow[col]
		net.flow[i*net.n+col] += delta
		prev := net.predCol[i]
		if prev < 0 {
			net.supply[i] -= delta
			break
		}
		net.flow[i*net.n+prev] -= delta
		col = prev
	}
	net.demand[j] -= delta

	return delta
}
