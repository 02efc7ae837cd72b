// SPDX-License-Identifier: MIT

package sinkhorn

import (
	"errors"
	"fmt"
)

// Sentinel errors. Structural input errors are reported with the marginal
// package sentinels (marginal.ErrShape, marginal.ErrMassImbalance, ...).
var (
	// ErrBadEpsilon indicates a regularization strength that is not positive and finite.
	ErrBadEpsilon = errors.New("sinkhorn: epsilon must be positive and finite")

	// ErrBadSchedule indicates an epsilon schedule that is empty, non-positive
	// or not strictly decreasing.
	ErrBadSchedule = errors.New("sinkhorn: epsilon schedule must be non-empty, positive and strictly decreasing")

	// ErrBadLambda indicates a marginal relaxation strength that is not positive.
	ErrBadLambda = errors.New("sinkhorn: lambda must be positive (+Inf for a hard constraint)")

	// ErrBadOptions indicates an invalid AbsorbThreshold or StageTol.
	ErrBadOptions = errors.New("sinkhorn: invalid options")
)

// sinkhornErrorf tags err with the public entry point that rejected the call.
func sinkhornErrorf(op string, err error) error {
	return fmt.Errorf("sinkhorn.%s: %w", op, err)
}
