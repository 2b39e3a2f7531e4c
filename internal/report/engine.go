// Package report orchestrates one full recomputation pass per user request:
// load (cached), impute (cached with the load), filter, count, and
// optionally bucketize. It owns the only process-wide state in the program,
// the cached imputed table, and serializes recomputations so the pure stages
// below it never see concurrent callers.
package report

import (
	"context"
	"fmt"
	"sync"
	"time"

	"arrowdash/internal/bucket"
	"arrowdash/internal/config"
	"arrowdash/internal/dataset"
	"arrowdash/internal/datasource"
	"arrowdash/internal/filter"
	"arrowdash/internal/impute"
	"arrowdash/internal/metrics"
)

// Query is one analyst request: a fully constructed predicate set plus the
// toggles around it.
type Query struct {
	// Predicates is the complete predicate set for this request. Empty
	// Sets inside it are skipped by the filter (no selection = select all).
	Predicates filter.PredicateSet

	// OnlyLongTerm restricts to subjects with at least one non-missing
	// long-term-outcome marker value.
	OnlyLongTerm bool

	// Longitudinal additionally breaks counts down by time-since-surgery
	// bucket.
	Longitudinal bool
}

// Result is the reportable outcome of a query.
type Result struct {
	// Counts maps variable name to its non-missing row count under the
	// filters.
	Counts map[string]int

	// FilteredRows is the number of rows surviving the predicate set.
	FilteredRows int

	// Buckets maps bucket label -> variable -> count. Nil unless the query
	// asked for the longitudinal breakdown. Display order comes from the
	// engine's bucket scheme, not from this map.
	Buckets map[string]map[string]int

	// Epoch is the dataset fingerprint the result was computed against.
	Epoch uint64
}

// Engine computes reports against a cached, imputed snapshot of the
// datasource.
type Engine struct {
	src     datasource.Source
	columns config.Columns
	vars    []string
	buckets []bucket.Bucket

	mu     sync.Mutex
	cached *dataset.Table // imputed; nil until first load
	epoch  uint64
}

// NewEngine wires an engine from the validated application config.
func NewEngine(src datasource.Source, cfg config.App) *Engine {
	bs := make([]bucket.Bucket, len(cfg.Buckets))
	for i, b := range cfg.Buckets {
		bs[i] = bucket.Bucket{Label: b.Label, Lo: b.Lo, Hi: b.Hi}
	}
	return &Engine{
		src:     src,
		columns: cfg.Columns,
		vars:    append([]string(nil), cfg.Variables...),
		buckets: bs,
	}
}

// Variables returns the outcome variable list in display order.
func (e *Engine) Variables() []string { return e.vars }

// Buckets returns the longitudinal scheme in display order.
func (e *Engine) Buckets() []bucket.Bucket { return e.buckets }

// Run executes one full recomputation pass. Requests are serialized; each
// runs to completion against one immutable snapshot.
func (e *Engine) Run(ctx context.Context, q Query) (Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	tbl, err := e.snapshot(ctx)
	if err != nil {
		return Result{}, err
	}

	start := time.Now()
	counts, filtered, err := filter.Count(tbl, q.Predicates, e.vars, filter.Options{
		OnlyLongTerm: q.OnlyLongTerm,
		MarkerColumn: e.columns.LongTermMarker,
		RecordColumn: e.columns.RecordID,
	})
	metrics.RecordStage("filter", err, time.Since(start))
	if err != nil {
		return Result{}, fmt.Errorf("report: %w", err)
	}
	metrics.RecordRows("filter", "filtered", int64(filtered.NumRows()))

	res := Result{
		Counts:       counts,
		FilteredRows: filtered.NumRows(),
		Epoch:        e.epoch,
	}

	if q.Longitudinal {
		start = time.Now()
		res.Buckets, err = bucket.Counts(filtered, e.buckets, e.columns.TimeSince, e.vars)
		metrics.RecordStage("bucketize", err, time.Since(start))
		if err != nil {
			return Result{}, fmt.Errorf("report: %w", err)
		}
	}
	return res, nil
}

// snapshot returns the cached imputed table, reloading when the datasource
// fingerprint has moved. A fingerprint probe failure falls through to a full
// reload: the load path reports the real error if the source is down.
func (e *Engine) snapshot(ctx context.Context) (*dataset.Table, error) {
	if e.cached != nil {
		fp, err := e.src.Fingerprint(ctx)
		if err == nil && fp == e.epoch {
			return e.cached, nil
		}
	}

	start := time.Now()
	tbl, fp, err := e.src.Load(ctx)
	metrics.RecordStage("load", err, time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("report: load: %w", err)
	}
	metrics.RecordRows("load", "loaded", int64(tbl.NumRows()))

	start = time.Now()
	imputed, err := impute.Fill(tbl, e.columns.RecordID, e.columns.Impute)
	metrics.RecordStage("impute", err, time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("report: %w", err)
	}

	e.cached = imputed
	e.epoch = fp
	return e.cached, nil
}
