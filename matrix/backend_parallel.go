// SPDX-License-Identifier: MIT

package matrix

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// DefaultParallelMinWork is the r*c size below which Parallel falls back to
// the sequential kernels (goroutine start-up dominates for small operands).
const DefaultParallelMinWork = 1 << 14

// Parallel partitions matrix-vector products across goroutines.
//
// Behavior highlights:
//   - MulVec splits rows, MulTransVec splits columns; every output element is
//     accumulated by exactly one goroutine in the same order as CPU, so the
//     results are bitwise identical to the sequential backend.
//   - Dot and Sum stay sequential for the same reason.
//
// AI-Hints:
//   - Workers<=0 uses runtime.GOMAXPROCS(0).
type Parallel[T Float] struct {
	Workers int // goroutine cap; <=0 means GOMAXPROCS
	MinWork int // r*c threshold for going parallel; <=0 means DefaultParallelMinWork
}

var _ Backend[float64] = Parallel[float64]{}

// NewParallel returns a Parallel backend with the given worker cap.
func NewParallel[T Float](workers int) Parallel[T] {
	return Parallel[T]{Workers: workers, MinWork: DefaultParallelMinWork}
}

// Name implements Backend.
func (Parallel[T]) Name() string { return "parallel" }

func (p Parallel[T]) workers() int {
	if p.Workers > 0 {
		return p.Workers
	}

	return runtime.GOMAXPROCS(0)
}

func (p Parallel[T]) minWork() int {
	if p.MinWork > 0 {
		return p.MinWork
	}

	return DefaultParallelMinWork
}

// MulVec implements Backend with a row partition.
func (p Parallel[T]) MulVec(dst []T, a *Dense[T], x []T) {
	if a.r*a.c < p.minWork() {
		mulRows(dst, a, x, 0, a.r)
		return
	}
	p.split(a.r, func(lo, hi int) { mulRows(dst, a, x, lo, hi) })
}

// MulTransVec implements Backend with a column partition.
func (p Parallel[T]) MulTransVec(dst []T, a *Dense[T], x []T) {
	if a.r*a.c < p.minWork() {
		mulTransCols(dst, a, x, 0, a.c)
		return
	}
	p.split(a.c, func(lo, hi int) { mulTransCols(dst, a, x, lo, hi) })
}

// Dot implements Backend (sequential, see type doc).
func (Parallel[T]) Dot(x, y []T) T { return CPU[T]{}.Dot(x, y) }

// Sum implements Backend (sequential, see type doc).
func (Parallel[T]) Sum(x []T) T { return CPU[T]{}.Sum(x) }

// split runs fn over contiguous [lo,hi) chunks of [0,n) and waits for all.
func (p Parallel[T]) split(n int, fn func(lo, hi int)) {
	w := p.workers()
	if w > n {
		w = n
	}
	chunk := (n + w - 1) / w
	g, _ := errgroup.WithContext(context.Background())
	g.SetLimit(w)
	for lo := 0; lo < n; lo += chunk {
		lo, hi := lo, min(lo+chunk, n)
		g.Go(func() error {
			fn(lo, hi)
			return nil
		})
	}
	_ = g.Wait() // kernels never fail
}
