// Package impute broadcasts subject-level identifying attributes (sex, graft
// type, prior-surgery flag) across every row of the same subject. The source
// instrument records these once per subject, so repeated visit rows often
// carry blanks that would otherwise defeat categorical filtering.
package impute

import (
	"fmt"

	"arrowdash/internal/dataset"
)

// Fill returns a copy of t in which, for each named attribute, missing
// entries within a subject's rows are filled forward from the nearest
// preceding non-missing value and then backward for any still-missing
// leading entries. Row order within a subject is source order; it is never
// re-sorted. Subjects with no non-missing value for an attribute stay
// missing for that attribute. Fill is idempotent.
//
// recordCol names the subject key column (usually "record_id"). Rows whose
// subject key is itself missing are left untouched: they form no group.
func Fill(t *dataset.Table, recordCol string, attrs []string) (*dataset.Table, error) {
	idIdx, err := t.Index(recordCol)
	if err != nil {
		return nil, fmt.Errorf("impute: %w", err)
	}
	attrIdx := make([]int, len(attrs))
	for i, a := range attrs {
		idx, err := t.Index(a)
		if err != nil {
			return nil, fmt.Errorf("impute: %w", err)
		}
		attrIdx[i] = idx
	}

	out := t.CopyRows()

	// Group row positions by subject, preserving source order.
	groups := make(map[string][]int)
	for i := 0; i < out.NumRows(); i++ {
		id := out.Row(i)[idIdx]
		if dataset.Missing(id) {
			continue
		}
		k := dataset.Key(id)
		groups[k] = append(groups[k], i)
	}

	for _, col := range attrIdx {
		for _, rows := range groups {
			fillGroup(out, rows, col)
		}
	}
	return out, nil
}

// fillGroup runs a forward pass then a backward pass over one subject's row
// positions for a single column.
func fillGroup(t *dataset.Table, rows []int, col int) {
	var last any
	for _, i := range rows {
		v := t.Row(i)[col]
		if !dataset.Missing(v) {
			last = v
		} else if !dataset.Missing(last) {
			t.Row(i)[col] = last
		}
	}
	// Backward pass only matters for leading blanks before the first
	// non-missing value; everything after it was already filled.
	var next any
	for j := len(rows) - 1; j >= 0; j-- {
		i := rows[j]
		v := t.Row(i)[col]
		if !dataset.Missing(v) {
			next = v
		} else if !dataset.Missing(next) {
			t.Row(i)[col] = next
		}
	}
}
