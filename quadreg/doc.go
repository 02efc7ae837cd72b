// Package quadreg solves optimal transport with a quadratic regularizer:
//
//	min ⟨C, P⟩ + ε/2·‖P‖²   subject to   P·1 = mu, Pᵀ·1 = nu, P ≥ 0.
//
// Unlike the entropic plan, the optimum is sparse: most entries are exact
// zeros. The solver works on the dual
//
//	Φ(α, β) = 1/(2ε)·Σ [α_i + β_j − C_ij]₊² − ⟨α, mu⟩ − ⟨β, nu⟩,
//
// which is convex with a Lipschitz gradient (P·1 − mu, Pᵀ·1 − nu) where
// P = [α⊕β − C]₊/ε. Each iteration takes a semismooth Newton step: the
// generalized Hessian lives on the active set {α_i + β_j > C_ij} (stored as
// a CSR matrix), the direction comes from conjugate gradients on the
// Hessian plus a small ridge, and the step length from Armijo backtracking.
//
// The residual is ‖P·1 − mu‖₁ + ‖Pᵀ·1 − nu‖₁; termination follows package
// convergence. Dual variables are kept in float64; the plan is returned in
// the element type of the inputs.
package quadreg
