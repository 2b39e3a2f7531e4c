package metrics

import (
	"errors"
	"sync"
	"testing"
	"time"
)

// fakeBackend is a simple in-memory Backend implementation for tests.
type fakeBackend struct {
	mu sync.Mutex

	counters   []counterCall
	histograms []histCall
	flushCount int
}

type counterCall struct {
	name   string
	delta  float64
	labels Labels
}

type histCall struct {
	name   string
	value  float64
	labels Labels
}

func (f *fakeBackend) IncCounter(name string, delta float64, labels Labels) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counters = append(f.counters, counterCall{name, delta, labels})
}

func (f *fakeBackend) ObserveHistogram(name string, value float64, labels Labels) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.histograms = append(f.histograms, histCall{name, value, labels})
}

func (f *fakeBackend) Flush() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flushCount++
	return nil
}

func TestRecordStage_SuccessAndFailure(t *testing.T) {
	orig := backend
	defer func() { backend = orig }()

	fb := &fakeBackend{}
	backend = fb

	RecordStage("filter", nil, 2*time.Millisecond)
	RecordStage("load", errors.New("boom"), 1500*time.Millisecond)

	if len(fb.counters) != 2 {
		t.Fatalf("expected 2 counter calls, got %d", len(fb.counters))
	}
	if len(fb.histograms) != 2 {
		t.Fatalf("expected 2 histogram calls, got %d", len(fb.histograms))
	}
	if fb.counters[0].labels["status"] != "success" {
		t.Fatalf("first call status = %q, want success", fb.counters[0].labels["status"])
	}
	if fb.counters[1].labels["status"] != "failure" || fb.counters[1].labels["stage"] != "load" {
		t.Fatalf("second call labels = %v", fb.counters[1].labels)
	}
}

func TestRecordRows_IgnoresNonPositiveDeltas(t *testing.T) {
	orig := backend
	defer func() { backend = orig }()

	fb := &fakeBackend{}
	backend = fb

	RecordRows("load", "loaded", 0)
	RecordRows("load", "loaded", -3)
	RecordRows("filter", "filtered", 12)

	if len(fb.counters) != 1 {
		t.Fatalf("expected 1 counter call, got %d", len(fb.counters))
	}
	if fb.counters[0].delta != 12 {
		t.Fatalf("delta = %v, want 12", fb.counters[0].delta)
	}
}

func TestSetBackend_NilKeepsExisting(t *testing.T) {
	orig := backend
	defer func() { backend = orig }()

	fb := &fakeBackend{}
	SetBackend(fb)
	SetBackend(nil)
	if err := Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if fb.flushCount != 1 {
		t.Fatalf("flushCount = %d, want 1 (nil must not replace backend)", fb.flushCount)
	}
}
