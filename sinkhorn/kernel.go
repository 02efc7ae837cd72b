// SPDX-License-Identifier: MIT

package sinkhorn

import (
	"fmt"

	"github.com/katalvlaran/lvlot/matrix"
)

// Kernel returns the Gibbs kernel K = exp(−C/ε) as a fresh matrix.
//
// Errors: ErrBadEpsilon, matrix.ErrNilMatrix.
// Complexity: O(M*N).
func Kernel[T matrix.Float](c *matrix.Dense[T], eps T) (*matrix.Dense[T], error) {
	if err := matrix.ValidateNotNil(c); err != nil {
		return nil, sinkhornErrorf("Kernel", err)
	}
	if err := checkEpsilon(eps); err != nil {
		return nil, sinkhornErrorf("Kernel", err)
	}
	k, err := matrix.NewDense[T](c.Rows(), c.Cols())
	if err != nil {
		return nil, sinkhornErrorf("Kernel", err)
	}
	gibbs(k.Raw(), c.Raw(), eps)

	return k, nil
}

// LogKernel writes the stabilized kernel exp((f_i + g_j − C_ij)/ε) into dst.
// Nil f or g count as zero potentials.
//
// Errors: ErrBadEpsilon, matrix.ErrDimensionMismatch.
// Complexity: O(M*N).
func LogKernel[T matrix.Float](dst, c *matrix.Dense[T], f, g []T, eps T) error {
	if err := matrix.ValidateShape(dst, c.Rows(), c.Cols()); err != nil {
		return sinkhornErrorf("LogKernel", err)
	}
	if err := checkEpsilon(eps); err != nil {
		return sinkhornErrorf("LogKernel", err)
	}
	if (f != nil && len(f) != c.Rows()) || (g != nil && len(g) != c.Cols()) {
		return sinkhornErrorf("LogKernel", fmt.Errorf("potentials: %w", matrix.ErrDimensionMismatch))
	}
	stabilizedGibbs(dst.Raw(), c.Raw(), f, g, c.Cols(), eps)

	return nil
}

// gibbs fills k[idx] = exp(−c[idx]/ε).
func gibbs[T matrix.Float](k, c []T, eps T) {
	for idx, cij := range c {
		k[idx] = matrix.Exp(-cij / eps)
	}
}

// stabilizedGibbs fills k with exp((f_i + g_j − C_ij)/ε) for an n-column layout.
func stabilizedGibbs[T matrix.Float](k, c, f, g []T, n int, eps T) {
	var i, j, base int
	var fi T
	rows := len(c) / n
	for i = 0; i < rows; i++ {
		fi = 0
		if f != nil {
			fi = f[i]
		}
		base = i * n
		for j = 0; j < n; j++ {
			gj := T(0)
			if g != nil {
				gj = g[j]
			}
			k[base+j] = matrix.Exp((fi + gj - c[base+j]) / eps)
		}
	}
}
