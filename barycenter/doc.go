// SPDX-License-Identifier: MIT

// Package barycenter computes entropic Wasserstein barycenters by iterative
// Bregman projections.
//
// Given k marginals a_1..a_k on a common support of size n (the columns of
// an n×k matrix), one n×N cost per marginal and convex weights w, the solver
// keeps a single barycenter b on N points and one scaling pair (u_k, v_k)
// per marginal. Every outer iteration:
//
//	u_k ← a_k / (K_k v_k)                      (independent per k)
//	b   ← d ⊙ Π_k (K_kᵀ u_k)^{w_k}             (barrier: needs every k)
//	v_k ← b / (K_kᵀ u_k)
//	d   ← √(d ⊙ b / (K̄ d))                      (debiasing only)
//
// With debiasing (K̄ = exp(−C̄/ε) for the N×N support cost C̄), the entropic
// blur is removed: k identical marginals are a fixed point of the iteration,
// so their barycenter is that marginal. Without it (d ≡ 1) the result is the
// classical blurred barycenter.
//
// The per-marginal half-steps may run concurrently (Options.Concurrent);
// results are combined after all of them finish, in index order, so the
// output does not depend on scheduling.
package barycenter
