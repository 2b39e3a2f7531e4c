// Package metrics provides a small, backend-agnostic abstraction for
// recording operational metrics from the reporting service.
//
// The package is intentionally minimal and opinionated:
//
//   - It exposes a narrow interface (Backend) focused on counters and timing
//     data.
//   - It provides a global, pluggable backend that defaults to a no-op
//     implementation, so metrics are always safe to call even when no real
//     backend is configured.
//   - Concrete metric systems live in subpackages (e.g. prompush); the rest
//     of the codebase depends only on this interface.
//
// The primary use case is instrumentation of the query stages (load, impute,
// filter, bucketize) without coupling the reporting core to a specific
// metrics system.
package metrics

import "time"

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a value in a latency/duration style metric.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes or flushes metrics, if the backend needs it
	// (e.g. Pushgateway).
	Flush() error
}

// nopBackend is used by default so metrics are optional.
type nopBackend struct{}

func (nopBackend) IncCounter(name string, delta float64, labels Labels)       {}
func (nopBackend) ObserveHistogram(name string, value float64, labels Labels) {}
func (nopBackend) Flush() error                                               { return nil }

var backend Backend = nopBackend{}

// SetBackend installs a concrete backend. Passing nil keeps the existing
// backend.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	backend = b
}

// Flush delegates to the current backend.
func Flush() error {
	return backend.Flush()
}

// RecordStage measures one stage of a report query: latency plus a
// success/failure counter. Typical stages: "load", "impute", "filter",
// "bucketize".
func RecordStage(stage string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}

	lbls := Labels{
		"stage":  stage,
		"status": status,
	}

	backend.IncCounter("arrowdash_stage_total", 1, lbls)
	backend.ObserveHistogram("arrowdash_stage_duration_seconds", d.Seconds(), lbls)
}

// RecordRows increments a row-level counter for the given stage and kind.
//
// Typical kinds:
//   - "loaded"    rows read from the datasource
//   - "filtered"  rows surviving the predicate set
func RecordRows(stage, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter("arrowdash_rows_total", float64(delta), Labels{
		"stage": stage,
		"kind":  kind,
	})
}
