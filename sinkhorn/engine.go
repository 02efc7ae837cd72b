// SPDX-License-Identifier: MIT

package sinkhorn

import (
	"math"

	"github.com/rs/zerolog"

	"github.com/katalvlaran/lvlot/convergence"
	"github.com/katalvlaran/lvlot/matrix"
)

// state is the per-call mutable fixed-point state. It is created at entry,
// mutated in place by the loop, and never shared between calls.
type state[T matrix.Float] struct {
	c      *matrix.Dense[T] // cost, read-only
	mu, nu []T              // marginals, read-only
	eps    T

	k       *matrix.Dense[T] // current kernel (Gibbs or stabilized)
	u, v    []T              // multiplicative scalings
	kv, ktu []T              // K·v and Kᵀ·u
	f, g    []T              // log potentials; nil for the scaling kernel

	be matrix.Backend[T]
}

func newState[T matrix.Float](mu, nu []T, c *matrix.Dense[T], eps T, be matrix.Backend[T], logDomain bool) *state[T] {
	m, n := c.Rows(), c.Cols()
	k, _ := matrix.NewDense[T](m, n) // shape already validated
	st := &state[T]{
		c: c, mu: mu, nu: nu, eps: eps,
		k:   k,
		u:   matrix.Ones[T](m),
		v:   matrix.Ones[T](n),
		kv:  make([]T, m),
		ktu: make([]T, n),
		be:  be,
	}
	if logDomain {
		st.f, st.g = make([]T, m), make([]T, n)
	}

	return st
}

// seed performs one balanced update of f and g in log-sum-exp form and
// resets u = v = 1. Afterwards every row and column with positive mass has a
// kernel entry that does not underflow, whatever the scale of C against ε.
// Zero-mass entries get a −Inf potential, i.e. an all-zero kernel line.
func (st *state[T]) seed() {
	m, n := st.c.Shape()
	craw := st.c.Raw()
	eps := float64(st.eps)
	var i, j int
	for i = 0; i < m; i++ {
		if st.mu[i] == 0 {
			st.f[i] = T(math.Inf(-1))
			continue
		}
		if lse, ok := logSumExp(n, eps, func(j int) float64 { return float64(st.g[j]) - float64(craw[i*n+j]) }); ok {
			st.f[i] = T(eps*math.Log(float64(st.mu[i])) - lse)
		}
	}
	for j = 0; j < n; j++ {
		if st.nu[j] == 0 {
			st.g[j] = T(math.Inf(-1))
			continue
		}
		if lse, ok := logSumExp(m, eps, func(i int) float64 { return float64(st.f[i]) - float64(craw[i*n+j]) }); ok {
			st.g[j] = T(eps*math.Log(float64(st.nu[j])) - lse)
		}
	}
	matrix.Fill(st.u, 1)
	matrix.Fill(st.v, 1)
}

// logSumExp returns ε·log Σ_k exp(z(k)/ε) shifted by the largest z. It
// reports false when every z(k) is −Inf.
func logSumExp(count int, eps float64, z func(k int) float64) (float64, bool) {
	hi := math.Inf(-1)
	for k := 0; k < count; k++ {
		if v := z(k); v > hi {
			hi = v
		}
	}
	if math.IsInf(hi, -1) {
		return 0, false
	}
	var acc float64
	for k := 0; k < count; k++ {
		acc += math.Exp((z(k) - hi) / eps)
	}

	return hi + eps*math.Log(acc), true
}

// entry returns the plan entry p_ij = u_i·K_ij·v_j. Plan materialization and
// on-the-fly cost evaluation both go through here.
func (st *state[T]) entry(i, j int) T {
	return T(T(st.u[i]*st.k.Raw()[i*st.c.Cols()+j]) * st.v[j])
}

// plan materializes diag(u)·K·diag(v).
func (st *state[T]) plan() *matrix.Dense[T] {
	m, n := st.c.Rows(), st.c.Cols()
	p, _ := matrix.NewDense[T](m, n)
	raw := p.Raw()
	var i, j int
	for i = 0; i < m; i++ {
		for j = 0; j < n; j++ {
			raw[i*n+j] = st.entry(i, j)
		}
	}

	return p
}

// representation is the kernel-storage strategy of the loop.
type representation[T matrix.Float] interface {
	// build (re)computes st.k from C, ε and the current potentials.
	build(st *state[T])

	// absorb folds u,v into the potentials and rebuilds the kernel when
	// required (always when force is set). It reports whether it did.
	absorb(st *state[T], force bool) bool
}

// scalingKernel stores K = exp(−C/ε) and never absorbs.
type scalingKernel[T matrix.Float] struct{}

func (scalingKernel[T]) build(st *state[T]) { gibbs(st.k.Raw(), st.c.Raw(), st.eps) }

func (scalingKernel[T]) absorb(*state[T], bool) bool { return false }

// logKernel stores exp((f⊕g − C)/ε) and moves u,v into f,g once either
// scaling leaves [−threshold, threshold].
type logKernel[T matrix.Float] struct {
	threshold float64
	log       zerolog.Logger
}

func (logKernel[T]) build(st *state[T]) {
	stabilizedGibbs(st.k.Raw(), st.c.Raw(), st.f, st.g, st.c.Cols(), st.eps)
}

func (lk logKernel[T]) absorb(st *state[T], force bool) bool {
	if !force && float64(matrix.MaxAbs(st.u)) <= lk.threshold && float64(matrix.MaxAbs(st.v)) <= lk.threshold {
		return false
	}
	for i, ui := range st.u {
		st.f[i] += st.eps * matrix.Log(ui)
	}
	for j, vj := range st.v {
		st.g[j] += st.eps * matrix.Log(vj)
	}
	matrix.Fill(st.u, 1)
	matrix.Fill(st.v, 1)
	lk.build(st)
	if !force {
		lk.log.Debug().Float64("eps", float64(st.eps)).Msg("absorbed scalings into log potentials")
	}

	return true
}

// updateRule is the scaling-update strategy of the loop.
type updateRule[T matrix.Float] interface {
	// scaleRows updates u from mu and K·v.
	scaleRows(st *state[T])

	// scaleCols updates v from nu and Kᵀ·u.
	scaleCols(st *state[T])

	// residual measures the iteration that just finished (K·v is current).
	residual(st *state[T]) float64
}

// balancedRule: u ← mu/(K v), v ← nu/(Kᵀ u); residual ‖u⊙Kv − mu‖₁.
type balancedRule[T matrix.Float] struct{}

func (balancedRule[T]) scaleRows(st *state[T]) { matrix.SafeDivInto(st.u, st.mu, st.kv) }

func (balancedRule[T]) scaleCols(st *state[T]) { matrix.SafeDivInto(st.v, st.nu, st.ktu) }

func (balancedRule[T]) residual(st *state[T]) float64 {
	var acc float64
	for i, ui := range st.u {
		acc += math.Abs(float64(ui*st.kv[i]) - float64(st.mu[i]))
	}

	return acc
}

// relaxedRule is the KL-penalized update with exponents ρ = λ/(λ+ε):
// u ← (mu/(K v))^ρ1, v ← (nu/(Kᵀ u))^ρ2. With a log kernel the exponent
// is applied to the full scaling exp(f/ε)·u, which adds the factor
// exp(f(ρ−1)/ε). Residual is the L∞ change of the row log-scaling.
type relaxedRule[T matrix.Float] struct {
	rho1, rho2 float64
	prev       []float64 // previous f/ε + log u
}

func newRelaxedRule[T matrix.Float](lambda1, lambda2 float64, eps T, m int) *relaxedRule[T] {
	return &relaxedRule[T]{
		rho1: relaxExponent(lambda1, float64(eps)),
		rho2: relaxExponent(lambda2, float64(eps)),
		prev: make([]float64, m),
	}
}

// relaxExponent returns λ/(λ+ε), or 1 for λ = +Inf.
func relaxExponent(lambda, eps float64) float64 {
	if math.IsInf(lambda, 1) {
		return 1
	}

	return lambda / (lambda + eps)
}

func (r *relaxedRule[T]) scaleRows(st *state[T]) {
	relaxedScale(st.u, st.mu, st.kv, st.f, r.rho1, st.eps)
}

func (r *relaxedRule[T]) scaleCols(st *state[T]) {
	relaxedScale(st.v, st.nu, st.ktu, st.g, r.rho2, st.eps)
}

func (r *relaxedRule[T]) residual(st *state[T]) float64 {
	var worst float64
	eps := float64(st.eps)
	for i, ui := range st.u {
		if st.mu[i] == 0 {
			continue
		}
		cur := math.Log(float64(ui))
		if st.f != nil {
			cur += float64(st.f[i]) / eps
		}
		if d := math.Abs(cur - r.prev[i]); d > worst || math.IsNaN(d) {
			worst = d
		}
		r.prev[i] = cur
	}

	return worst
}

// relaxedScale computes dst = (num/den)^ρ · exp(pot·(ρ−1)/ε), with zero mass
// mapping to a zero scaling.
func relaxedScale[T matrix.Float](dst, num, den, pot []T, rho float64, eps T) {
	for i := range dst {
		if num[i] == 0 {
			dst[i] = 0
			continue
		}
		s := math.Pow(float64(num[i])/float64(den[i]), rho)
		if pot != nil && rho != 1 {
			s *= math.Exp(float64(pot[i]) * (rho - 1) / float64(eps))
		}
		dst[i] = T(s)
	}
}

// loopConfig carries what run needs from Options.
type loopConfig struct {
	conv   convergence.Options
	record bool
	log    zerolog.Logger
	name   string
}

// run is the one Sinkhorn fixed-point loop shared by every variant.
//
// Per iteration: u from K·v, Kᵀu, v from Kᵀu, K·v, residual. After a
// non-final iteration the representation may absorb; at exit it is forced
// to absorb so that the plan is read from the kernel with u = v = 1.
func run[T matrix.Float](st *state[T], rep representation[T], rule updateRule[T], cfg loopConfig) convergence.Diagnostics {
	tr := convergence.NewTracker(cfg.conv, cfg.record)
	st.be.MulVec(st.kv, st.k, st.v)
	for !tr.Done() {
		rule.scaleRows(st)
		st.be.MulTransVec(st.ktu, st.k, st.u)
		rule.scaleCols(st)
		st.be.MulVec(st.kv, st.k, st.v)
		res := rule.residual(st)
		cfg.log.Trace().Int("iter", tr.Iteration()+1).Float64("residual", res).Msg(cfg.name)
		if tr.Observe(res) {
			break
		}
		if rep.absorb(st, false) {
			st.be.MulVec(st.kv, st.k, st.v)
		}
	}
	rep.absorb(st, true)

	d := tr.Diagnostics()
	if d.Converged {
		cfg.log.Debug().Int("iterations", d.Iterations).Float64("residual", d.Residual).Msg(cfg.name + " converged")
	} else {
		cfg.log.Warn().Int("iterations", d.Iterations).Float64("residual", d.Residual).Msg(cfg.name + " did not converge")
	}

	return d
}
