// Package exact solves unregularized discrete optimal transport.
//
// The linear program
//
//	min ⟨C, P⟩  s.t.  P·1 = supply, Pᵀ·1 = demand, P ≥ 0
//
// is consumed through the Optimizer contract, so any LP backend can be
// plugged in. SuccessivePaths is the built-in implementation: a min-cost
// flow on the bipartite network
//
//	source → row i (cap supply_i) → column j (cap ∞, cost C_ij) → sink (cap demand_j)
//
// solved by successive shortest augmenting paths, with Bellman–Ford on the
// residual network because reverse arcs carry negative costs.
//
// Complexity of SuccessivePaths: O(A · (M+N) · M·N) for A augmentations;
// A ≤ M+N−1 + (number of cancelled arcs), small on the problem sizes the
// regularized solvers are compared against.
//
// Simplex is a second implementation on gonum's dense simplex method
// (optimize/convex/lp), practical for small problems and useful as an
// independent check of SuccessivePaths.
//
// Termination status is reported as a Status value, never as an error:
// errors are reserved for malformed inputs and context cancellation.
package exact
