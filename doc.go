// Package lvlot is a toolkit for regularized optimal transport between
// discrete distributions: Sinkhorn scaling and its stabilized,
// epsilon-scaled and unbalanced variants, entropic barycenters, the
// quadratically regularized solver, and an exact min-cost-flow baseline.
//
// 🚀 What is inside?
//
//	• matrix/       - generic Dense/CSR storage and swappable mat-vec backends
//	• convergence/  - tolerance + iteration-cap policy shared by every solver
//	• marginal/     - shape, sign and mass validation of problem inputs
//	• sinkhorn/     - entropic plans and costs (plain, log-domain, ε-scaled, unbalanced)
//	• barycenter/   - debiased iterative Bregman projections over k marginals
//	• quadreg/      - semismooth Newton on the quadratic dual, sparse plans
//	• exact/        - unregularized plans by successive shortest paths
//	• costs/        - ground costs from point clouds or 1-D grids
//	• cmd/otsolve   - CLI: solve or watch a TOML problem file
//
// ✨ Shared contract:
//
//   - float32 in, float32 out; float64 in, float64 out.
//   - Structural problems (shape, negative or unequal mass, bad ε) are errors.
//   - Running out of iterations is not: every result carries Diagnostics
//     with Iterations, Residual and Converged.
//   - Options are plain structs passed by value; zero fields mean defaults.
//
// Quick example:
//
//	mu := []float64{0.5, 0.5}
//	C, _ := matrix.FromRows([][]float64{{0, 1}, {1, 0}})
//	res, _ := sinkhorn.Plan(mu, mu, C, 0.1, sinkhorn.DefaultOptions[float64]())
//	fmt.Println(res.Plan, res.Converged)
//
//	go get github.com/katalvlaran/lvlot
package lvlot
