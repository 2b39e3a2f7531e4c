package dataset

import (
	"errors"
	"strings"
	"testing"
)

func TestNew_WidthAndDuplicateChecks(t *testing.T) {
	t.Parallel()

	if _, err := New(nil, nil); err == nil {
		t.Fatalf("New with no columns: want error, got nil")
	}
	if _, err := New([]string{"a", "a"}, nil); err == nil {
		t.Fatalf("New with duplicate columns: want error, got nil")
	}
	if _, err := New([]string{"a", "b"}, [][]any{{1}}); err == nil {
		t.Fatalf("New with short row: want error, got nil")
	}
}

func TestIndex_UnknownColumn(t *testing.T) {
	t.Parallel()

	tbl, err := New([]string{"record_id", "age"}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := tbl.Index("age"); err != nil {
		t.Fatalf("Index(age): %v", err)
	}
	_, err = tbl.Index("nope")
	if !errors.Is(err, ErrUnknownColumn) {
		t.Fatalf("Index(nope) = %v, want ErrUnknownColumn", err)
	}
}

func TestSelect_SharesRowsAndLeavesSourceIntact(t *testing.T) {
	t.Parallel()

	rows := [][]any{
		{"A", int64(20)},
		{"B", int64(30)},
	}
	tbl, err := New([]string{"record_id", "age"}, rows)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	sub := tbl.Select(func(row []any) bool { return row[1].(int64) > 25 })
	if sub.NumRows() != 1 || tbl.NumRows() != 2 {
		t.Fatalf("Select rows = %d (src %d), want 1 (src 2)", sub.NumRows(), tbl.NumRows())
	}
	if sub.Row(0)[0] != "B" {
		t.Fatalf("Select kept %v, want row B", sub.Row(0))
	}
}

func TestCopyRows_WritesDoNotLeakBack(t *testing.T) {
	t.Parallel()

	tbl, _ := New([]string{"x"}, [][]any{{nil}})
	cp := tbl.CopyRows()
	cp.Row(0)[0] = "filled"
	if tbl.Row(0)[0] != nil {
		t.Fatalf("source table mutated through copy: %v", tbl.Row(0)[0])
	}
}

func TestKey_MixedNumericTypesCollapse(t *testing.T) {
	t.Parallel()

	cases := []struct {
		a, b any
	}{
		{int64(1), float64(1.0)},
		{int(0), int64(0)},
	}
	for _, c := range cases {
		if Key(c.a) != Key(c.b) {
			t.Fatalf("Key(%v) = %q, Key(%v) = %q; want equal", c.a, Key(c.a), c.b, Key(c.b))
		}
	}
	if Key(7.5) == Key(7) {
		t.Fatalf("Key(7.5) and Key(7) must differ")
	}
}

func TestFingerprint_ChangesWithContent(t *testing.T) {
	t.Parallel()

	a, err := Fingerprint(strings.NewReader("record_id,age\nA,20\n"))
	if err != nil {
		t.Fatalf("Fingerprint: %v", err)
	}
	b, err := Fingerprint(strings.NewReader("record_id,age\nA,21\n"))
	if err != nil {
		t.Fatalf("Fingerprint: %v", err)
	}
	if a == b {
		t.Fatalf("fingerprints equal for different content: %d", a)
	}
	a2, _ := Fingerprint(strings.NewReader("record_id,age\nA,20\n"))
	if a != a2 {
		t.Fatalf("fingerprint not stable: %d vs %d", a, a2)
	}
}
