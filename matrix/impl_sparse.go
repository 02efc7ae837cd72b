// SPDX-License-Identifier: MIT

// Package matrix - Sparse storage in CSR (Compressed Sparse Row) layout.
//
// Purpose:
//   - Hold matrices whose entries are mostly exact zeros (quadratic-regularized
//     plans, active sets of semismooth Newton steps) without O(r*c) storage.
//   - rowPtr has r+1 entries; row i occupies colInd/values[rowPtr[i]:rowPtr[i+1]],
//     with strictly increasing column indices inside a row.
//
// AI-Hints:
//   - Build row-major with CSRBuilder (O(1) amortized per entry).
//   - Set supports random writes (binary search + shift), O(nnz) worst case.
//   - A value written as exact 0 through Set is removed from the structure.

package matrix

import (
	"fmt"
	"sort"
)

const (
	ctxSparseAt   = "Sparse.At"
	ctxSparseSet  = "Sparse.Set"
	ctxSparsePush = "CSRBuilder.Push"
)

// Sparse is a CSR matrix over T.
type Sparse[T Float] struct {
	rows, cols int
	rowPtr     []int // len rows+1; rowPtr[rows] == nnz
	colInd     []int // column index per stored entry
	values     []T   // stored entries, aligned with colInd
}

var _ Matrix[float64] = (*Sparse[float64])(nil)

// NewSparse returns an empty rows×cols CSR matrix.
//
// Errors: ErrInvalidDimensions when rows<=0 or cols<=0.
// Complexity: O(rows).
func NewSparse[T Float](rows, cols int) (*Sparse[T], error) {
	if rows <= 0 || cols <= 0 {
		return nil, ErrInvalidDimensions
	}

	return &Sparse[T]{
		rows:   rows,
		cols:   cols,
		rowPtr: make([]int, rows+1), // one extra slot for the end of the last row
	}, nil
}

// Rows returns the row count. Complexity: O(1).
func (s *Sparse[T]) Rows() int { return s.rows }

// Cols returns the column count. Complexity: O(1).
func (s *Sparse[T]) Cols() int { return s.cols }

// NNZ returns the number of stored entries. Complexity: O(1).
func (s *Sparse[T]) NNZ() int { return len(s.values) }

// search locates col inside row via binary search.
// Returns the insertion position and whether the entry exists.
func (s *Sparse[T]) search(row, col int) (int, bool) {
	start, end := s.rowPtr[row], s.rowPtr[row+1]
	pos := sort.Search(end-start, func(k int) bool {
		return s.colInd[start+k] >= col
	}) + start

	return pos, pos < end && s.colInd[pos] == col
}

// At returns the element at (row, col); absent entries read as 0.
// Complexity: O(log nnz(row)).
func (s *Sparse[T]) At(row, col int) (T, error) {
	if row < 0 || row >= s.rows || col < 0 || col >= s.cols {
		return 0, fmt.Errorf("%s(%d,%d): %w", ctxSparseAt, row, col, ErrOutOfRange)
	}
	if pos, ok := s.search(row, col); ok {
		return s.values[pos], nil
	}

	return 0, nil
}

// Set writes v at (row, col). Writing 0 deletes a stored entry; writing a
// non-zero into an absent slot inserts it and shifts the following rows.
//
// Errors: ErrOutOfRange, ErrNaNInf.
// Complexity: O(log nnz(row)) lookup + O(nnz) shift on insert/delete.
func (s *Sparse[T]) Set(row, col int, v T) error {
	if row < 0 || row >= s.rows || col < 0 || col >= s.cols {
		return fmt.Errorf("%s(%d,%d): %w", ctxSparseSet, row, col, ErrOutOfRange)
	}
	if isNonFinite(float64(v)) {
		return fmt.Errorf("%s(%d,%d): %w", ctxSparseSet, row, col, ErrNaNInf)
	}
	pos, ok := s.search(row, col)
	switch {
	case ok && v == 0:
		s.colInd = append(s.colInd[:pos], s.colInd[pos+1:]...)
		s.values = append(s.values[:pos], s.values[pos+1:]...)
		s.shiftRowPtr(row, -1)
	case ok:
		s.values[pos] = v
	case v != 0:
		s.colInd = append(s.colInd, 0)
		copy(s.colInd[pos+1:], s.colInd[pos:])
		s.colInd[pos] = col
		s.values = append(s.values, 0)
		copy(s.values[pos+1:], s.values[pos:])
		s.values[pos] = v
		s.shiftRowPtr(row, +1)
	}

	return nil
}

// shiftRowPtr moves the end pointers of row and every later row by delta.
func (s *Sparse[T]) shiftRowPtr(row, delta int) {
	for i := row + 1; i <= s.rows; i++ {
		s.rowPtr[i] += delta
	}
}

// Clone returns a deep copy. Complexity: O(rows + nnz).
func (s *Sparse[T]) Clone() Matrix[T] {
	cp := &Sparse[T]{
		rows:   s.rows,
		cols:   s.cols,
		rowPtr: append([]int(nil), s.rowPtr...),
		colInd: append([]int(nil), s.colInd...),
		values: append([]T(nil), s.values...),
	}

	return cp
}

// Do visits stored entries in row-major order; stops when f returns false.
// Complexity: O(rows + nnz).
func (s *Sparse[T]) Do(f func(i, j int, v T) bool) {
	var i, k int
	for i = 0; i < s.rows; i++ {
		for k = s.rowPtr[i]; k < s.rowPtr[i+1]; k++ {
			if !f(i, s.colInd[k], s.values[k]) {
				return
			}
		}
	}
}

// RowSums returns r[i] = Σ_j s[i,j]. Complexity: O(rows + nnz).
func (s *Sparse[T]) RowSums() []T {
	out := make([]T, s.rows)
	var i, k int
	for i = 0; i < s.rows; i++ {
		for k = s.rowPtr[i]; k < s.rowPtr[i+1]; k++ {
			out[i] += s.values[k]
		}
	}

	return out
}

// ColSums returns c[j] = Σ_i s[i,j]. Complexity: O(rows + nnz).
func (s *Sparse[T]) ColSums() []T {
	out := make([]T, s.cols)
	var i, k int
	for i = 0; i < s.rows; i++ {
		for k = s.rowPtr[i]; k < s.rowPtr[i+1]; k++ {
			out[s.colInd[k]] += s.values[k]
		}
	}

	return out
}

// MulVec computes dst = S·x (len(dst)==Rows, len(x)==Cols).
// Complexity: O(rows + nnz).
func (s *Sparse[T]) MulVec(dst, x []T) {
	var i, k int
	var acc T
	for i = 0; i < s.rows; i++ {
		acc = 0
		for k = s.rowPtr[i]; k < s.rowPtr[i+1]; k++ {
			acc += s.values[k] * x[s.colInd[k]]
		}
		dst[i] = acc
	}
}

// MulTransVec computes dst = Sᵀ·x (len(dst)==Cols, len(x)==Rows).
// Complexity: O(cols + nnz).
func (s *Sparse[T]) MulTransVec(dst, x []T) {
	Fill(dst, 0)
	var i, k int
	for i = 0; i < s.rows; i++ {
		for k = s.rowPtr[i]; k < s.rowPtr[i+1]; k++ {
			dst[s.colInd[k]] += s.values[k] * x[i]
		}
	}
}

// Dense materializes the matrix into a fresh *Dense (zeros where absent).
// Complexity: Time O(r*c), Space O(r*c).
func (s *Sparse[T]) Dense() *Dense[T] {
	d := &Dense[T]{r: s.rows, c: s.cols, data: make([]T, s.rows*s.cols), validateNaNInf: DefaultValidateNaNInf}
	s.Do(func(i, j int, v T) bool {
		d.data[i*s.cols+j] = v
		return true
	})

	return d
}

// CSRBuilder appends entries in row-major order and seals them into a Sparse.
// Entries must arrive with non-decreasing row and, within a row, strictly
// increasing column; zeros are skipped.
type CSRBuilder[T Float] struct {
	s       *Sparse[T]
	lastRow int
	lastCol int
}

// NewCSRBuilder starts a rows×cols builder.
// Errors: ErrInvalidDimensions.
func NewCSRBuilder[T Float](rows, cols int) (*CSRBuilder[T], error) {
	s, err := NewSparse[T](rows, cols)
	if err != nil {
		return nil, err
	}

	return &CSRBuilder[T]{s: s, lastRow: 0, lastCol: -1}, nil
}

// Push appends (i, j, v).
// A row-major sweep over in-range indices, with any subset of cells
// skipped, never fails; callers that generate entries that way may ignore
// the error.
// Errors: ErrOutOfRange when indices are outside the shape or out of order.
// Complexity: O(1) amortized, plus O(skipped rows) pointer fills.
func (b *CSRBuilder[T]) Push(i, j int, v T) error {
	s := b.s
	if i < 0 || i >= s.rows || j < 0 || j >= s.cols {
		return fmt.Errorf("%s(%d,%d): %w", ctxSparsePush, i, j, ErrOutOfRange)
	}
	if i < b.lastRow || (i == b.lastRow && j <= b.lastCol) {
		return fmt.Errorf("%s(%d,%d): entries out of row-major order: %w", ctxSparsePush, i, j, ErrOutOfRange)
	}
	if v == 0 {
		return nil
	}
	// Close every row between the last one touched and i.
	for r := b.lastRow; r < i; r++ {
		s.rowPtr[r+1] = len(s.values)
	}
	b.lastRow, b.lastCol = i, j
	s.colInd = append(s.colInd, j)
	s.values = append(s.values, v)

	return nil
}

// Build seals the remaining row pointers and returns the matrix.
// The builder must not be reused afterwards.
func (b *CSRBuilder[T]) Build() *Sparse[T] {
	s := b.s
	for r := b.lastRow; r < s.rows; r++ {
		s.rowPtr[r+1] = len(s.values)
	}

	return s
}
