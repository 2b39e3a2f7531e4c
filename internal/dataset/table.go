// Package dataset defines the in-memory tabular model shared by every stage
// of the reporting pipeline: the imputer, the row filter, the non-missing
// counter, and the longitudinal bucketizer.
//
// Design goals:
//
//   - One representation end to end: rows are []any slices positionally
//     aligned to a shared column list; nil means missing.
//   - Immutability by convention: stages never mutate a table they were
//     given. Filtering returns a new Table that shares row slices with its
//     source; the imputer copies rows before writing.
//   - Explicit schema errors: a lookup of an unknown column returns an error
//     wrapping ErrUnknownColumn instead of being silently skipped.
package dataset

import (
	"errors"
	"fmt"
)

// ErrUnknownColumn is wrapped by every schema-lookup failure so callers can
// classify the error with errors.Is.
var ErrUnknownColumn = errors.New("unknown column")

// Table is an ordered sequence of rows over named columns. Cell values are
// any; nil marks a missing value. Numeric cells are float64 or int64,
// categorical cells are string (the loaders guarantee this).
type Table struct {
	cols     []string
	colIndex map[string]int
	rows     [][]any
}

// New builds a Table from a column list and row slices. Every row must have
// exactly len(columns) cells.
func New(columns []string, rows [][]any) (*Table, error) {
	if len(columns) == 0 {
		return nil, fmt.Errorf("dataset: table must have at least one column")
	}
	idx := make(map[string]int, len(columns))
	for i, c := range columns {
		if _, dup := idx[c]; dup {
			return nil, fmt.Errorf("dataset: duplicate column %q", c)
		}
		idx[c] = i
	}
	for i, r := range rows {
		if len(r) != len(columns) {
			return nil, fmt.Errorf("dataset: row %d has %d cells, want %d", i, len(r), len(columns))
		}
	}
	return &Table{cols: columns, colIndex: idx, rows: rows}, nil
}

// Columns returns the column names in declaration order. Callers must not
// modify the returned slice.
func (t *Table) Columns() []string { return t.cols }

// NumRows returns the number of rows.
func (t *Table) NumRows() int { return len(t.rows) }

// Row returns the i-th row. Callers must not modify it.
func (t *Table) Row(i int) []any { return t.rows[i] }

// Index resolves a column name to its position, or an error wrapping
// ErrUnknownColumn.
func (t *Table) Index(name string) (int, error) {
	i, ok := t.colIndex[name]
	if !ok {
		return 0, fmt.Errorf("dataset: %w %q", ErrUnknownColumn, name)
	}
	return i, nil
}

// Select returns a new Table containing the rows for which keep returns
// true. Row slices are shared with the receiver; the receiver is not
// modified.
func (t *Table) Select(keep func(row []any) bool) *Table {
	out := make([][]any, 0, len(t.rows))
	for _, r := range t.rows {
		if keep(r) {
			out = append(out, r)
		}
	}
	return &Table{cols: t.cols, colIndex: t.colIndex, rows: out}
}

// CopyRows returns a new Table whose row slices are fresh copies, safe for
// in-place cell writes. Column metadata is shared.
func (t *Table) CopyRows() *Table {
	rows := make([][]any, len(t.rows))
	for i, r := range t.rows {
		c := make([]any, len(r))
		copy(c, r)
		rows[i] = c
	}
	return &Table{cols: t.cols, colIndex: t.colIndex, rows: rows}
}

// Missing reports whether a cell value counts as missing.
func Missing(v any) bool { return v == nil }

// AsFloat converts a numeric cell to float64. It returns false for missing
// and non-numeric values.
func AsFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	}
	return 0, false
}

// Key renders a cell as a stable string key for grouping and set membership.
// Integral floats format without a fraction so int64(1) and float64(1.0)
// collapse to the same key after mixed-type loads.
func Key(v any) string {
	switch n := v.(type) {
	case nil:
		return "\x00"
	case string:
		return n
	case int64:
		return fmt.Sprintf("%d", n)
	case int:
		return fmt.Sprintf("%d", n)
	case float64:
		if n == float64(int64(n)) {
			return fmt.Sprintf("%d", int64(n))
		}
		return fmt.Sprintf("%g", n)
	default:
		return fmt.Sprint(n)
	}
}
