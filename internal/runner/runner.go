// Package runner turns a resolved otsolve configuration into one solver call
// and a report.
package runner

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/katalvlaran/lvlot/barycenter"
	"github.com/katalvlaran/lvlot/convergence"
	"github.com/katalvlaran/lvlot/exact"
	"github.com/katalvlaran/lvlot/internal/cliconfig"
	"github.com/katalvlaran/lvlot/internal/report"
	"github.com/katalvlaran/lvlot/internal/telemetry"
	"github.com/katalvlaran/lvlot/matrix"
	"github.com/katalvlaran/lvlot/quadreg"
	"github.com/katalvlaran/lvlot/sinkhorn"
)

// Run solves the configured problem at the configured precision. Structural
// problems are errors; non-convergence is reported in the Report.
func Run(ctx context.Context, cfg cliconfig.Config, log zerolog.Logger) (report.Report, error) {
	ctx, span := telemetry.StartSolve(ctx, cfg.Method, cfg.Precision, cfg.Backend)
	var (
		rep report.Report
		err error
	)
	if cfg.Precision == "float32" {
		rep, err = solve[float32](ctx, cfg, log)
	} else {
		rep, err = solve[float64](ctx, cfg, log)
	}
	telemetry.EndSolve(span, rep.Iterations, rep.Residual, rep.Converged, err)
	if err != nil {
		return report.Report{}, fmt.Errorf("%s: %w", cfg.Method, err)
	}

	return rep, nil
}

func solve[T matrix.Float](ctx context.Context, cfg cliconfig.Config, log zerolog.Logger) (report.Report, error) {
	be, err := backendFor[T](cfg.Backend)
	if err != nil {
		return report.Report{}, err
	}
	rep := report.Report{Method: cfg.Method, Precision: cfg.Precision, Backend: be.Name()}
	conv := convergence.Options{Tol: cfg.Tol, MaxIter: cfg.MaxIter}
	log = log.With().Str("method", cfg.Method).Logger()

	if cfg.Method == cliconfig.MethodBarycenter {
		return solveBarycenter[T](cfg, conv, be, log, rep)
	}

	p := cfg.Problem
	mu, nu := vec[T](p.Mu), vec[T](p.Nu)
	c, err := costMatrix[T](p)
	if err != nil {
		return rep, err
	}
	eps := T(cfg.Epsilon)

	switch cfg.Method {
	case cliconfig.MethodQuadratic:
		return solveQuadratic(mu, nu, c, eps, cfg, conv, log, rep)
	case cliconfig.MethodExact:
		return solveExact(ctx, mu, nu, c, log, rep)
	}

	opts := sinkhorn.Options[T]{
		Convergence:        conv,
		WithRegularization: cfg.WithRegularization,
		AbsorbThreshold:    cfg.AbsorbThreshold,
		Stabilized:         cfg.Stabilized,
		Backend:            be,
		Logger:             log,
		RecordHistory:      true,
	}
	var (
		res    sinkhorn.Result[T]
		costFn func(o sinkhorn.Options[T]) (sinkhorn.CostResult[T], error)
	)
	switch cfg.Method {
	case cliconfig.MethodSinkhorn:
		res, err = sinkhorn.Plan(mu, nu, c, eps, opts)
		costFn = func(o sinkhorn.Options[T]) (sinkhorn.CostResult[T], error) { return sinkhorn.Cost(mu, nu, c, eps, o) }
	case cliconfig.MethodStabilized:
		res, err = sinkhorn.StabilizedPlan(mu, nu, c, eps, opts)
		costFn = func(o sinkhorn.Options[T]) (sinkhorn.CostResult[T], error) {
			return sinkhorn.StabilizedCost(mu, nu, c, eps, o)
		}
	case cliconfig.MethodEpsilonScaling:
		schedule, serr := epsilonSchedule[T](cfg)
		if serr != nil {
			return rep, serr
		}
		res, err = sinkhorn.EpsilonScaledPlan(mu, nu, c, schedule, opts)
		costFn = func(o sinkhorn.Options[T]) (sinkhorn.CostResult[T], error) {
			return sinkhorn.EpsilonScaledCost(mu, nu, c, schedule, o)
		}
	case cliconfig.MethodUnbalanced:
		l1, l2 := lambda[T](cfg.Lambda1), lambda[T](cfg.Lambda2)
		res, err = sinkhorn.UnbalancedPlan(mu, nu, c, l1, l2, eps, opts)
		costFn = func(o sinkhorn.Options[T]) (sinkhorn.CostResult[T], error) {
			return sinkhorn.UnbalancedCost(mu, nu, c, l1, l2, eps, o)
		}
	default:
		return rep, fmt.Errorf("unknown method %q: %w", cfg.Method, cliconfig.ErrInvalid)
	}
	if err != nil {
		return rep, err
	}

	// Cost of the plan just computed, without iterating again.
	opts.Plan = res.Plan
	cr, err := costFn(opts)
	if err != nil {
		return rep, err
	}
	cost := float64(cr.Cost)
	rep.Cost = &cost
	fillDiagnostics(&rep, res.Diagnostics)
	rep.Plan = denseRows(res.Plan)

	return rep, nil
}

func solveQuadratic[T matrix.Float](mu, nu []T, c *matrix.Dense[T], eps T, cfg cliconfig.Config, conv convergence.Options, log zerolog.Logger, rep report.Report) (report.Report, error) {
	opts := quadreg.Options[T]{
		Convergence:        conv,
		WithRegularization: cfg.WithRegularization,
		Logger:             log,
		RecordHistory:      true,
	}
	res, err := quadreg.Plan(mu, nu, c, eps, opts)
	if err != nil {
		return rep, err
	}
	opts.Plan = res.Plan
	cr, err := quadreg.Cost(mu, nu, c, eps, opts)
	if err != nil {
		return rep, err
	}
	cost := float64(cr.Cost)
	rep.Cost = &cost
	rep.NNZ = res.Plan.NNZ()
	fillDiagnostics(&rep, res.Diagnostics)
	rep.Plan = denseRows(res.Plan.Dense())

	return rep, nil
}

func solveExact[T matrix.Float](ctx context.Context, mu, nu []T, c *matrix.Dense[T], log zerolog.Logger, rep report.Report) (report.Report, error) {
	plan, status, err := exact.Plan(mu, nu, c, exact.SuccessivePaths[T]{Ctx: ctx, Logger: log})
	if err != nil {
		return rep, err
	}
	rep.Status = status.String()
	rep.Converged = status == exact.Optimal
	if plan == nil {
		return rep, nil
	}
	cost, err := matrix.Inner(c, plan)
	if err != nil {
		return rep, err
	}
	cf := float64(cost)
	rep.Cost = &cf
	rep.Plan = denseRows(plan)

	return rep, nil
}

func solveBarycenter[T matrix.Float](cfg cliconfig.Config, conv convergence.Options, be matrix.Backend[T], log zerolog.Logger, rep report.Report) (report.Report, error) {
	p := cfg.Problem
	m, err := marginalColumns[T](p.Marginals)
	if err != nil {
		return rep, err
	}
	c, err := costMatrix[T](p)
	if err != nil {
		return rep, err
	}
	k := m.Cols()
	cs := make([]*matrix.Dense[T], k)
	for i := range cs {
		cs[i] = c
	}
	w := uniformWeights[T](k)
	if len(p.Weights) > 0 {
		w = vec[T](p.Weights)
	}
	debias := map[string]barycenter.Debias{"auto": barycenter.DebiasAuto, "on": barycenter.DebiasOn, "off": barycenter.DebiasOff}[cfg.Debias]

	res, err := barycenter.Sinkhorn(m, cs, T(cfg.Epsilon), w, barycenter.Options[T]{
		Convergence:   conv,
		Debias:        debias,
		Concurrent:    cfg.Concurrent,
		Backend:       be,
		Logger:        log,
		RecordHistory: true,
	})
	if err != nil {
		return rep, err
	}
	fillDiagnostics(&rep, res.Diagnostics)
	rep.Barycenter = matrix.Convert[float64](res.Barycenter)

	return rep, nil
}

func fillDiagnostics(rep *report.Report, d convergence.Diagnostics) {
	rep.Iterations = d.Iterations
	rep.Residual = d.Residual
	rep.Converged = d.Converged
	rep.History = d.History
}
