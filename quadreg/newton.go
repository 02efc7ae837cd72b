package quadreg

import (
	"math"

	"github.com/katalvlaran/lvlot/convergence"
	"github.com/katalvlaran/lvlot/matrix"
)

// armijoSlack is the relative rounding slack on Φ in the line search.
const armijoSlack = 1e-14

// dual is the mutable Newton state of one solve. x holds α (length m)
// followed by β (length n).
type dual struct {
	m, n   int
	c      []float64
	mu, nu []float64
	eps    float64
	ridge  float64

	x    []float64
	grad []float64
	obj  float64

	active     *matrix.Sparse[float64] // 1 where α_i + β_j > C_ij
	rowDeg     []float64
	colDeg     []float64
	tm, tn     []float64 // scratch
	cgR, cgP   []float64
	cgAp, cgTr []float64
}

func newDual[T matrix.Float](mu, nu []T, c *matrix.Dense[T], eps T, ridge float64) *dual {
	m, n := c.Shape()
	d := &dual{
		m: m, n: n,
		c:     matrix.Convert[float64](c.Raw()),
		mu:    matrix.Convert[float64](mu),
		nu:    matrix.Convert[float64](nu),
		eps:   float64(eps),
		ridge: ridge,
		x:     make([]float64, m+n),
		grad:  make([]float64, m+n),
		tm:    make([]float64, m),
		tn:    make([]float64, n),
		cgR:   make([]float64, m+n),
		cgP:   make([]float64, m+n),
		cgAp:  make([]float64, m+n),
		cgTr:  make([]float64, m+n),
	}
	d.refresh()

	return d
}

// objective returns Φ at x.
func (d *dual) objective(x []float64) float64 {
	alpha, beta := x[:d.m], x[d.m:]
	var sq, lin, s float64
	var i, j int
	for i = 0; i < d.m; i++ {
		row := d.c[i*d.n : (i+1)*d.n]
		for j = 0; j < d.n; j++ {
			if s = alpha[i] + beta[j] - row[j]; s > 0 {
				sq += s * s
			}
		}
		lin += alpha[i] * d.mu[i]
	}
	for j = 0; j < d.n; j++ {
		lin += beta[j] * d.nu[j]
	}

	return sq/(2*d.eps) - lin
}

// refresh recomputes the objective, the gradient and the active set at x.
func (d *dual) refresh() {
	alpha, beta := d.x[:d.m], d.x[d.m:]
	ga, gb := d.grad[:d.m], d.grad[d.m:]
	for i := range ga {
		ga[i] = -d.mu[i]
	}
	for j := range gb {
		gb[j] = -d.nu[j]
	}
	b, _ := matrix.NewCSRBuilder[float64](d.m, d.n)
	var i, j int
	var s, p float64
	for i = 0; i < d.m; i++ {
		row := d.c[i*d.n : (i+1)*d.n]
		for j = 0; j < d.n; j++ {
			if s = alpha[i] + beta[j] - row[j]; s > 0 {
				p = s / d.eps
				ga[i] += p
				gb[j] += p
				_ = b.Push(i, j, 1) // row-major: cannot fail
			}
		}
	}
	d.active = b.Build()
	d.rowDeg = d.active.RowSums()
	d.colDeg = d.active.ColSums()
	d.obj = d.objective(d.x)
}

// residual is ‖P·1 − mu‖₁ + ‖Pᵀ·1 − nu‖₁, i.e. the L1 norm of the gradient.
func (d *dual) residual() float64 {
	var r float64
	for _, g := range d.grad {
		r += math.Abs(g)
	}

	return r
}

// hessVec computes dst = (H + δI)·v with H = 1/ε·[[diag(r), A], [Aᵀ, diag(c)]].
func (d *dual) hessVec(dst, v []float64) {
	va, vb := v[:d.m], v[d.m:]
	da, db := dst[:d.m], dst[d.m:]
	d.active.MulVec(d.tm, vb)
	d.active.MulTransVec(d.tn, va)
	for i := range da {
		da[i] = (d.rowDeg[i]*va[i]+d.tm[i])/d.eps + d.ridge*va[i]
	}
	for j := range db {
		db[j] = (d.colDeg[j]*vb[j]+d.tn[j])/d.eps + d.ridge*vb[j]
	}
}

// direction solves (H + δI)·dir = −grad by conjugate gradients, stopping
// when the residual drops below min(0.5, ‖grad‖)·‖grad‖ or after maxIter
// steps. Returns the number of CG steps.
func (d *dual) direction(dir []float64, maxIter int) int {
	dot := matrix.CPU[float64]{}.Dot
	r, p, ap := d.cgR, d.cgP, d.cgAp
	clear(dir)
	for k, g := range d.grad {
		r[k] = -g
	}
	copy(p, r)
	rr := dot(r, r)
	gnorm := math.Sqrt(rr)
	stop := math.Min(0.5, gnorm) * gnorm
	var k int
	for k = 0; k < maxIter && math.Sqrt(rr) > stop; k++ {
		d.hessVec(ap, p)
		pap := dot(p, ap)
		if !(pap > 0) {
			break
		}
		a := rr / pap
		for idx := range dir {
			dir[idx] += a * p[idx]
			r[idx] -= a * ap[idx]
		}
		next := dot(r, r)
		beta := next / rr
		rr = next
		for idx := range p {
			p[idx] = r[idx] + beta*p[idx]
		}
	}

	return k
}

// lineSearch backtracks from a unit step until the Armijo condition
// Φ(x + t·dir) ≤ Φ(x) + θ·t·gradᵀdir holds, up to a rounding slack on Φ
// near the optimum. On success x moves and the
// state is refreshed; the accepted t is returned. Returns 0 when no step
// within maxSteps is acceptable.
func (d *dual) lineSearch(dir []float64, theta, kappa float64, maxSteps int) float64 {
	slope := matrix.CPU[float64]{}.Dot(d.grad, dir)
	trial := d.cgTr
	slack := armijoSlack * (1 + math.Abs(d.obj))
	t := 1.0
	for s := 0; s <= maxSteps; s++ {
		for k := range trial {
			trial[k] = d.x[k] + t*dir[k]
		}
		if d.objective(trial) <= d.obj+theta*t*slope+slack {
			copy(d.x, trial)
			d.refresh()
			return t
		}
		t *= kappa
	}

	return 0
}

// plan materializes P = [α⊕β − C]₊/ε in float64; toSparse rounds it.
func (d *dual) plan() *matrix.Sparse[float64] {
	b, _ := matrix.NewCSRBuilder[float64](d.m, d.n)
	alpha, beta := d.x[:d.m], d.x[d.m:]
	var i, j int
	var s float64
	for i = 0; i < d.m; i++ {
		row := d.c[i*d.n : (i+1)*d.n]
		for j = 0; j < d.n; j++ {
			if s = alpha[i] + beta[j] - row[j]; s > 0 {
				_ = b.Push(i, j, s/d.eps) // row-major: cannot fail
			}
		}
	}

	return b.Build()
}

// solve runs the damped semismooth Newton iteration from α = β = 0.
func solve[T matrix.Float](mu, nu []T, c *matrix.Dense[T], eps T, o Options[T]) Result[T] {
	d := newDual(mu, nu, c, eps, o.Ridge)
	cgMax := o.CGMaxIter
	if cgMax <= 0 {
		cgMax = 2 * (d.m + d.n)
	}
	dir := make([]float64, d.m+d.n)

	tr := convergence.NewTracker(o.Convergence, o.RecordHistory)
	for !tr.Done() {
		cg := d.direction(dir, cgMax)
		if !(matrix.CPU[float64]{}.Dot(d.grad, dir) < 0) {
			for k, g := range d.grad {
				dir[k] = -g
			}
		}
		step := d.lineSearch(dir, o.ArmijoTheta, o.ArmijoKappa, o.ArmijoMax)
		res := d.residual()
		o.Logger.Trace().
			Int("iter", tr.Iteration()+1).
			Float64("residual", res).
			Float64("step", step).
			Int("cg", cg).
			Int("active", d.active.NNZ()).
			Msg("quadreg iteration")
		tr.Observe(res)
		if step == 0 {
			o.Logger.Warn().Int("iter", tr.Iteration()).Msg("quadreg line search failed")
			break
		}
	}

	diag := tr.Diagnostics()
	ev := o.Logger.Debug()
	if !diag.Converged {
		ev = o.Logger.Warn()
	}
	ev.Int("iterations", diag.Iterations).Float64("residual", diag.Residual).Int("nnz", d.active.NNZ()).Msg("quadreg done")

	return Result[T]{
		Plan:        toSparse[T](d.plan()),
		Alpha:       matrix.Convert[T](d.x[:d.m]),
		Beta:        matrix.Convert[T](d.x[d.m:]),
		Diagnostics: diag,
	}
}

// toSparse rounds a float64 CSR matrix to T, dropping entries that round to 0.
// Do visits entries in row-major order, so Push cannot fail.
func toSparse[T matrix.Float](p *matrix.Sparse[float64]) *matrix.Sparse[T] {
	b, _ := matrix.NewCSRBuilder[T](p.Rows(), p.Cols())
	p.Do(func(i, j int, v float64) bool {
		_ = b.Push(i, j, T(v))
		return true
	})

	return b.Build()
}
