// Package count implements the non-missing tally over outcome variables.
// Counting is row-level: repeated visits from the same subject each count
// independently, matching the reporting semantics of the source dashboard.
package count

import (
	"fmt"

	"arrowdash/internal/dataset"
)

// NonMissing returns, for each variable, the number of rows in t whose value
// for that column is not missing. A variable naming an unknown column is a
// schema error.
func NonMissing(t *dataset.Table, vars []string) (map[string]int, error) {
	idx := make([]int, len(vars))
	for i, v := range vars {
		j, err := t.Index(v)
		if err != nil {
			return nil, fmt.Errorf("count: %w", err)
		}
		idx[i] = j
	}

	counts := make(map[string]int, len(vars))
	for _, v := range vars {
		counts[v] = 0
	}
	for i := 0; i < t.NumRows(); i++ {
		row := t.Row(i)
		for j, v := range vars {
			if !dataset.Missing(row[idx[j]]) {
				counts[v]++
			}
		}
	}
	return counts, nil
}
