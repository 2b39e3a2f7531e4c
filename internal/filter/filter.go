// Package filter applies demographic and clinical predicates to the subject
// record table and tallies the surviving non-missing values per outcome
// variable.
//
// Predicates are tagged variants attached explicitly to each column: a Range
// for numeric dimensions (age, time since surgery) and a Set for categorical
// dimensions. Which shape applies to a column is part of the predicate value
// itself, never inferred from the column's name. A PredicateSet is a fully
// constructed value object passed once per call; nothing here accumulates
// state between calls.
package filter

import (
	"fmt"
	"sort"

	"arrowdash/internal/count"
	"arrowdash/internal/dataset"
)

// Predicate is a single-column row predicate. Implementations must be pure.
type Predicate interface {
	// Match reports whether a cell value passes. Missing values never pass.
	Match(v any) bool
	// Skip reports whether the predicate is a declared no-op and should not
	// be applied at all (an empty Set means "no selection = select all").
	Skip() bool
}

// Range is a closed interval [Lo, Hi], inclusive on both ends. Lo > Hi is
// legal and matches nothing; boundary values are caller-supplied and may
// legitimately collapse to an empty selection.
type Range struct {
	Lo, Hi float64
}

// Match reports whether v is numeric and Lo <= v <= Hi.
func (r Range) Match(v any) bool {
	f, ok := dataset.AsFloat(v)
	if !ok {
		return false
	}
	return f >= r.Lo && f <= r.Hi
}

// Skip always returns false: a Range is always applied, even degenerate.
func (Range) Skip() bool { return false }

// Set is discrete membership over the column's values. An empty Set is
// skipped entirely rather than rejecting every row.
type Set struct {
	Values []any
}

// NewSet builds a Set from the given values.
func NewSet(values ...any) Set { return Set{Values: values} }

// Match reports whether v equals one of the accepted values. Comparison uses
// the dataset key form, so int64(1) matches float64(1.0).
func (s Set) Match(v any) bool {
	if dataset.Missing(v) {
		return false
	}
	k := dataset.Key(v)
	for _, accept := range s.Values {
		if dataset.Key(accept) == k {
			return true
		}
	}
	return false
}

// Skip reports whether the set is empty.
func (s Set) Skip() bool { return len(s.Values) == 0 }

// PredicateSet maps column name to the predicate applied to it.
type PredicateSet map[string]Predicate

// Options carries the knobs around the column predicates.
type Options struct {
	// OnlyLongTerm, when set, drops every subject (all rows for that
	// record key) lacking at least one non-missing value in MarkerColumn.
	// This subject-level filter runs before any column predicate.
	OnlyLongTerm bool
	// MarkerColumn is the long-term-outcome marker column.
	MarkerColumn string
	// RecordColumn is the subject key column used by the long-term filter.
	RecordColumn string
}

// Count applies preds to t (AND-composed, each predicate an independent
// pass), then counts non-missing rows per variable in vars. It returns the
// per-variable counts and the filtered table, which the bucketizer consumes.
//
// Every referenced column is resolved against the schema before any row is
// touched, so a bad predicate or variable name fails the whole call instead
// of being silently ignored. Zero surviving rows is a normal outcome: every
// count is simply zero.
func Count(t *dataset.Table, preds PredicateSet, vars []string, opts Options) (map[string]int, *dataset.Table, error) {
	// Resolve the full schema surface up front.
	cols := make([]string, 0, len(preds))
	for c := range preds {
		cols = append(cols, c)
	}
	sort.Strings(cols) // stable application order for reproducible traces
	for _, c := range cols {
		if _, err := t.Index(c); err != nil {
			return nil, nil, fmt.Errorf("filter: predicate column: %w", err)
		}
	}
	for _, v := range vars {
		if _, err := t.Index(v); err != nil {
			return nil, nil, fmt.Errorf("filter: variable: %w", err)
		}
	}

	filtered := t
	if opts.OnlyLongTerm {
		var err error
		filtered, err = keepLongTerm(filtered, opts.RecordColumn, opts.MarkerColumn)
		if err != nil {
			return nil, nil, err
		}
	}

	for _, c := range cols {
		p := preds[c]
		if p == nil || p.Skip() {
			continue
		}
		idx, _ := filtered.Index(c)
		pred := p
		filtered = filtered.Select(func(row []any) bool { return pred.Match(row[idx]) })
	}

	counts, err := count.NonMissing(filtered, vars)
	if err != nil {
		return nil, nil, err
	}
	return counts, filtered, nil
}

// keepLongTerm retains only rows belonging to subjects with at least one
// non-missing value in the marker column. Subjects failing the test lose all
// their rows, not just the blank ones.
func keepLongTerm(t *dataset.Table, recordCol, markerCol string) (*dataset.Table, error) {
	idIdx, err := t.Index(recordCol)
	if err != nil {
		return nil, fmt.Errorf("filter: long-term record column: %w", err)
	}
	mkIdx, err := t.Index(markerCol)
	if err != nil {
		return nil, fmt.Errorf("filter: long-term marker column: %w", err)
	}

	keep := make(map[string]bool)
	for i := 0; i < t.NumRows(); i++ {
		row := t.Row(i)
		if dataset.Missing(row[idIdx]) {
			continue
		}
		if !dataset.Missing(row[mkIdx]) {
			keep[dataset.Key(row[idIdx])] = true
		}
	}
	return t.Select(func(row []any) bool {
		id := row[idIdx]
		return !dataset.Missing(id) && keep[dataset.Key(id)]
	}), nil
}
