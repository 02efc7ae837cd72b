// SPDX-License-Identifier: MIT

// Package sinkhorn implements entropic optimal transport by Sinkhorn
// scaling: plain, log-domain stabilized, epsilon-scaled and unbalanced.
//
// 🚀 What is computed?
//
// For marginals mu (length M), nu (length N), cost C (M×N) and ε > 0, the
// plan P = diag(u)·K·diag(v) with K = exp(−C/ε) whose row sums are mu and
// column sums are nu. Costs report ⟨C, P⟩, optionally plus ε·Σ p·log p.
//
// ✨ One loop, two strategies:
//
//   - kernel representation: scaling (K stored once) or log-domain
//     (exp((f⊕g − C)/ε) with periodic absorption of u,v into f,g);
//   - update rule: balanced (u ← mu/Kv) or KL-relaxed
//     (u ← (mu/Kv)^(λ/(λ+ε))).
//
// Every entry point (Plan, Cost, StabilizedPlan, EpsilonScaledPlan,
// UnbalancedPlan, ...) picks one of each and runs the same iteration.
//
// ⚙️ Numeric policy:
//
//   - The element type of the inputs is the element type of the outputs.
//   - Non-convergence is never an error: see Result.Converged.
//   - The plain kernel underflows when C/ε is large (≈ 745 in float64,
//     ≈ 103 in float32) and the result turns NaN; use EpsilonScaledPlan.
//   - Matrix-vector products run on Options.Backend; CPU and Parallel
//     return bitwise identical plans.
//
// 📖 Usage:
//
//	mu := []float64{0.5, 0.5}
//	C, _ := matrix.FromRows([][]float64{{0, 1}, {1, 0}})
//	res, err := sinkhorn.Plan(mu, mu, C, 0.1, sinkhorn.DefaultOptions[float64]())
package sinkhorn
