// SPDX-License-Identifier: MIT

// Package matrix - Dense storage (row-major) & safe accessors.
//
// Purpose:
//   - Provide a cache-friendly row-major buffer with the explicit index formula i*cols + j.
//   - Guarantee safety at the public surface: At/Set return errors instead of panicking.
//   - Keep algorithmic determinism (fixed loop orders, no map iteration).
//   - Enforce a numeric policy (optional rejection of NaN/Inf in Set) from a single flag.
//
// AI-Hints:
//   - Solvers operate on Raw() directly in hot loops; At/Set are for callers and tests.
//   - Cost matrices are immutable by convention once handed to a solver.
//
// Complexity quicksheet:
//   - NewDense: O(r*c) zero-init; At/Set: O(1); Clone: O(r*c); Transpose: O(r*c).

package matrix

import (
	"fmt"
	"math"
	"strings"
)

// ---------- error context tags ----------

const (
	ctxAt       = "At"       // method tag used in error wrappers
	ctxSet      = "Set"      // method tag used in error wrappers
	ctxApply    = "Apply"    // method tag used in error wrappers
	ctxFrom     = "From"     // ctor tag for NewDenseFrom
	ctxFromRows = "FromRows" // ctor tag for FromRows
)

// ---------- Formatting literals  ----------
const (
	_fmtRowOpen  = "["
	_fmtRowClose = "]\n"
	_fmtSep      = ", "
)

// DefaultValidateNaNInf toggles strict finite-value validation in Set.
const DefaultValidateNaNInf = true

// denseErrorf wraps an error with a uniform Dense context and callsite indices.
// Stable, human-friendly messages; preserves the sentinel via %w.
// Complexity: O(1).
func denseErrorf(method string, row, col int, err error) error {
	return fmt.Errorf("Dense.%s(%d,%d): %w", method, row, col, err)
}

// Dense is a concrete row-major matrix over T.
//   - r,c hold dimensions (rows, cols).
//   - data is a flat buffer of length r*c in row-major order (offset = i*c + j).
//   - validateNaNInf enables optional NaN/Inf rejection in Set.
type Dense[T Float] struct {
	r, c           int  // row and column counts (>0)
	data           []T  // contiguous row-major storage (len == r*c)
	validateNaNInf bool // numeric guard: reject NaN/Inf in Set when true
}

// Compile-time assertions for interface & fmt.Stringer conformance.
var (
	_ Matrix[float64] = (*Dense[float64])(nil)
	_ Matrix[float32] = (*Dense[float32])(nil)
	_ fmt.Stringer    = (*Dense[float64])(nil)
)

// NewDense creates an r×c zero matrix using row-major storage.
//
// Errors:
//   - ErrInvalidDimensions when rows<=0 or cols<=0.
//
// Complexity:
//   - Time O(r*c), Space O(r*c).
//
// AI-Hints:
//   - Use NewDenseFrom to adopt an existing row-major slice without copying.
func NewDense[T Float](rows, cols int) (*Dense[T], error) {
	// Validate shape.
	if rows <= 0 || cols <= 0 {
		return nil, ErrInvalidDimensions
	}
	// Allocate a contiguous flat buffer; make() zero-fills it deterministically.
	buf := make([]T, rows*cols)

	return &Dense[T]{
		r:              rows,
		c:              cols,
		data:           buf,
		validateNaNInf: DefaultValidateNaNInf,
	}, nil
}

// NewDenseFrom adopts data (row-major, len == rows*cols) as the backing buffer.
// The slice is NOT copied: later writes to data are visible through the matrix.
//
// Errors:
//   - ErrInvalidDimensions for non-positive shape.
//   - ErrDimensionMismatch when len(data) != rows*cols.
//
// Complexity: O(1).
func NewDenseFrom[T Float](rows, cols int, data []T) (*Dense[T], error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("Dense.%s: %w", ctxFrom, ErrInvalidDimensions)
	}
	if len(data) != rows*cols {
		return nil, fmt.Errorf("Dense.%s: len %d != %d*%d: %w", ctxFrom, len(data), rows, cols, ErrDimensionMismatch)
	}

	return &Dense[T]{r: rows, c: cols, data: data, validateNaNInf: DefaultValidateNaNInf}, nil
}

// FromRows copies a rectangular [][]T into a fresh Dense.
//
// Errors:
//   - ErrInvalidDimensions when there are no rows or the first row is empty.
//   - ErrRaggedRows when row lengths differ.
//
// Complexity: Time O(r*c), Space O(r*c).
func FromRows[T Float](rows [][]T) (*Dense[T], error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("Dense.%s: %w", ctxFromRows, ErrInvalidDimensions)
	}
	r, c := len(rows), len(rows[0])
	m, err := NewDense[T](r, c)
	if err != nil {
		return nil, err
	}
	var i int
	for i = 0; i < r; i++ { // fixed row order
		if len(rows[i]) != c {
			return nil, fmt.Errorf("Dense.%s: row %d has %d cols, want %d: %w", ctxFromRows, i, len(rows[i]), c, ErrRaggedRows)
		}
		copy(m.data[i*c:(i+1)*c], rows[i])
	}

	return m, nil
}

// Rows returns the row count. No side effects.
// Complexity: O(1).
func (m *Dense[T]) Rows() int { return m.r }

// Cols returns the column count. No side effects.
// Complexity: O(1).
func (m *Dense[T]) Cols() int { return m.c }

// Shape packs Rows() and Cols() into a single call for convenience.
// Complexity: O(1).
func (m *Dense[T]) Shape() (rows, cols int) { return m.r, m.c }

// Raw exposes the row-major backing slice (len == Rows*Cols).
// Kernels read and write it directly; the numeric policy is NOT applied.
// Complexity: O(1).
func (m *Dense[T]) Raw() []T { return m.data }

// Row returns a no-copy slice over row i, or nil when i is out of range.
// Complexity: O(1).
func (m *Dense[T]) Row(i int) []T {
	if i < 0 || i >= m.r {
		return nil
	}

	return m.data[i*m.c : (i+1)*m.c]
}

// indexOf computes the row-major offset or returns ErrOutOfRange.
// Public methods (At/Set) wrap the sentinel with coordinates and method name.
// Complexity: O(1).
func (m *Dense[T]) indexOf(row, col int) (int, error) {
	if row < 0 || row >= m.r {
		return 0, ErrOutOfRange
	}
	if col < 0 || col >= m.c {
		return 0, ErrOutOfRange
	}

	// Row-major offset: i*c + j.
	return row*m.c + col, nil
}

// At returns the value at (row, col) or ErrOutOfRange.
// Never panics on out-of-range; returns a wrapped sentinel.
// Complexity: O(1).
func (m *Dense[T]) At(row, col int) (T, error) {
	off, err := m.indexOf(row, col)
	if err != nil {
		return 0, denseErrorf(ctxAt, row, col, err) // wrap with context
	}

	return m.data[off], nil
}

// Set stores v at (row, col) or returns an error (bounds or numeric policy).
//
// Errors:
//   - ErrOutOfRange for bounds; ErrNaNInf for non-finite values when the policy is on.
//
// Complexity: O(1).
func (m *Dense[T]) Set(row, col int, v T) error {
	off, err := m.indexOf(row, col)
	if err != nil {
		return denseErrorf(ctxSet, row, col, err) // wrap with context
	}
	// Numeric policy: optional finite-only enforcement.
	if m.validateNaNInf && isNonFinite(float64(v)) {
		return denseErrorf(ctxSet, row, col, ErrNaNInf)
	}
	m.data[off] = v // direct flat write

	return nil
}

// Clone returns a deep copy (new buffer, same numeric policy).
// Complexity: Time O(r*c), Space O(r*c).
func (m *Dense[T]) Clone() Matrix[T] {
	return m.Copy()
}

// Copy is Clone with a concrete return type.
// Complexity: Time O(r*c), Space O(r*c).
func (m *Dense[T]) Copy() *Dense[T] {
	cp := make([]T, len(m.data)) // allocate same length
	copy(cp, m.data)             // deep copy

	return &Dense[T]{
		r:              m.r,
		c:              m.c,
		data:           cp,
		validateNaNInf: m.validateNaNInf, // preserve guard policy
	}
}

// Transpose returns a fresh c×r matrix holding mᵀ.
// Determinism: fixed i→j walk over the source.
// Complexity: Time O(r*c), Space O(r*c).
func (m *Dense[T]) Transpose() *Dense[T] {
	out := &Dense[T]{r: m.c, c: m.r, data: make([]T, len(m.data)), validateNaNInf: m.validateNaNInf}
	var i, j, base int
	for i = 0; i < m.r; i++ {
		base = i * m.c
		for j = 0; j < m.c; j++ {
			out.data[j*m.r+i] = m.data[base+j]
		}
	}

	return out
}

// String HUMAN-READABLE dump of rows for diagnostics.
// Not for hot paths; intended for logs and debugging.
// Complexity: Time O(r*c), Space O(r*c) for formatting.
func (m *Dense[T]) String() string {
	var b strings.Builder
	var i, j, base int
	for i = 0; i < m.r; i++ { // iterate rows deterministically
		b.WriteString(_fmtRowOpen) // open row
		base = i * m.c
		for j = 0; j < m.c; j++ { // iterate cols
			b.WriteString(fmt.Sprintf("%g", m.data[base+j]))
			if j+1 < m.c {
				b.WriteString(_fmtSep) // separate values with comma + space
			}
		}
		b.WriteString(_fmtRowClose) // close row
	}

	return b.String()
}

// Do visits each element (i,j) in row-major order and calls f(i,j,v).
// Read-only visitor; stops early when f returns false.
// Complexity: Time O(r*c), Space O(1).
func (m *Dense[T]) Do(f func(i, j int, v T) bool) {
	var i, j, base int // predeclare loop counters and base offset

	for i = 0; i < m.r; i++ { // iterate rows deterministically
		base = i * m.c            // compute flat base offset for row i
		for j = 0; j < m.c; j++ { // iterate columns
			if !f(i, j, m.data[base+j]) { // invoke callback; stop if it returns false
				return
			}
		}
	}
}

// Apply replaces each element with f(i,j,v) in-place.
//
// Behavior highlights:
//   - Deterministic row-major order; no extra allocations.
//   - Respects validateNaNInf (rejects NaN/±Inf when enabled).
//   - Early error aborts; elements written before the error remain updated.
//
// Complexity: Time O(r*c), Space O(1).
func (m *Dense[T]) Apply(f func(i, j int, v T) T) error {
	var i, j, base int // predeclare loop counters and base offset
	var nv T           // new value

	for i = 0; i < m.r; i++ { // iterate rows
		base = i * m.c            // base offset for row i
		for j = 0; j < m.c; j++ { // iterate columns
			nv = f(i, j, m.data[base+j])
			if m.validateNaNInf && isNonFinite(float64(nv)) {
				return denseErrorf(ctxApply, i, j, ErrNaNInf) // wrap with coordinates
			}
			m.data[base+j] = nv // write back new value
		}
	}

	return nil // success
}

// isNonFinite reports NaN or ±Inf.
func isNonFinite(x float64) bool {
	return math.IsNaN(x) || math.IsInf(x, 0)
}
