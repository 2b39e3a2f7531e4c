// Package bucket partitions a filtered table into labeled time-since-surgery
// windows and reports per-variable non-missing counts within each window.
//
// A Bucket is a half-open interval [Lo, Hi) in months. The canonical scheme
// declares each label's inclusive month range with Hi set one past the
// labeled upper bound, so a continuous value like 7.5 floors into
// "5-7 months" ([5,8)) instead of falling between buckets or landing in two.
// If bucket widths ever change, the one-past-the-end upper bounds must be
// re-derived from the new labels, not copied.
package bucket

import (
	"fmt"

	"arrowdash/internal/count"
	"arrowdash/internal/dataset"
)

// Bucket is a labeled half-open interval [Lo, Hi).
type Bucket struct {
	Label string
	Lo    float64
	Hi    float64
}

// Contains reports whether a numeric value falls in [Lo, Hi).
func (b Bucket) Contains(v float64) bool { return v >= b.Lo && v < b.Hi }

// Canonical is the default longitudinal scheme used by the dashboard.
// It is data, not logic: any ordered, non-overlapping scheme works.
var Canonical = []Bucket{
	{Label: "3-4 months", Lo: 3, Hi: 5},
	{Label: "5-7 months", Lo: 5, Hi: 8},
	{Label: "8-12 months", Lo: 8, Hi: 13},
	{Label: "13-24 months", Lo: 13, Hi: 25},
}

// Counts selects, for each bucket independently, the rows of t whose
// timeCol value lies in the bucket's half-open interval and tallies
// non-missing values per variable within that subset. Rows outside every
// declared bucket are excluded from all counts; that is not an error.
//
// Buckets share no state, so the map result carries no order; callers that
// display results iterate the declared bucket slice.
func Counts(t *dataset.Table, buckets []Bucket, timeCol string, vars []string) (map[string]map[string]int, error) {
	idx, err := t.Index(timeCol)
	if err != nil {
		return nil, fmt.Errorf("bucket: time column: %w", err)
	}
	for _, v := range vars {
		if _, err := t.Index(v); err != nil {
			return nil, fmt.Errorf("bucket: variable: %w", err)
		}
	}

	out := make(map[string]map[string]int, len(buckets))
	for _, b := range buckets {
		b := b
		sub := t.Select(func(row []any) bool {
			f, ok := dataset.AsFloat(row[idx])
			return ok && b.Contains(f)
		})
		counts, err := count.NonMissing(sub, vars)
		if err != nil {
			return nil, err
		}
		out[b.Label] = counts
	}
	return out, nil
}
