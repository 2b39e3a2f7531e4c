package impute

import (
	"errors"
	"reflect"
	"testing"

	"arrowdash/internal/dataset"
)

func mustTable(t *testing.T, cols []string, rows [][]any) *dataset.Table {
	t.Helper()
	tbl, err := dataset.New(cols, rows)
	if err != nil {
		t.Fatalf("dataset.New: %v", err)
	}
	return tbl
}

func column(t *testing.T, tbl *dataset.Table, name string) []any {
	t.Helper()
	idx, err := tbl.Index(name)
	if err != nil {
		t.Fatalf("Index(%s): %v", name, err)
	}
	out := make([]any, tbl.NumRows())
	for i := range out {
		out[i] = tbl.Row(i)[idx]
	}
	return out
}

func TestFill_BroadcastsWithinSubject(t *testing.T) {
	t.Parallel()

	// Subject A: sex missing on the first visit, recorded on the second.
	tbl := mustTable(t,
		[]string{"record_id", "sex_dashboard"},
		[][]any{
			{"A", nil},
			{"A", "Female"},
		})

	got, err := Fill(tbl, "record_id", []string{"sex_dashboard"})
	if err != nil {
		t.Fatalf("Fill: %v", err)
	}
	want := []any{"Female", "Female"}
	if !reflect.DeepEqual(column(t, got, "sex_dashboard"), want) {
		t.Fatalf("sex_dashboard = %v, want %v", column(t, got, "sex_dashboard"), want)
	}
	// Source untouched.
	if tbl.Row(0)[1] != nil {
		t.Fatalf("source table mutated: %v", tbl.Row(0)[1])
	}
}

func TestFill_ForwardThenBackward(t *testing.T) {
	t.Parallel()

	tbl := mustTable(t,
		[]string{"record_id", "graft_dashboard2"},
		[][]any{
			{"A", nil},            // leading blank: backward-filled
			{"A", "Allograft"},    // anchor
			{"A", nil},            // forward-filled from Allograft
			{"A", "HS autograft"}, // new anchor
			{"A", nil},            // forward-filled from HS autograft
		})

	got, err := Fill(tbl, "record_id", []string{"graft_dashboard2"})
	if err != nil {
		t.Fatalf("Fill: %v", err)
	}
	want := []any{"Allograft", "Allograft", "Allograft", "HS autograft", "HS autograft"}
	if !reflect.DeepEqual(column(t, got, "graft_dashboard2"), want) {
		t.Fatalf("graft_dashboard2 = %v, want %v", column(t, got, "graft_dashboard2"), want)
	}
}

func TestFill_AllMissingGroupStaysMissing(t *testing.T) {
	t.Parallel()

	tbl := mustTable(t,
		[]string{"record_id", "prior_aclr"},
		[][]any{
			{"A", nil},
			{"A", nil},
			{"B", int64(1)},
		})

	got, err := Fill(tbl, "record_id", []string{"prior_aclr"})
	if err != nil {
		t.Fatalf("Fill: %v", err)
	}
	want := []any{nil, nil, int64(1)}
	if !reflect.DeepEqual(column(t, got, "prior_aclr"), want) {
		t.Fatalf("prior_aclr = %v, want %v", column(t, got, "prior_aclr"), want)
	}
}

func TestFill_DoesNotCrossSubjects(t *testing.T) {
	t.Parallel()

	tbl := mustTable(t,
		[]string{"record_id", "sex_dashboard"},
		[][]any{
			{"A", "Male"},
			{"B", nil},
		})

	got, err := Fill(tbl, "record_id", []string{"sex_dashboard"})
	if err != nil {
		t.Fatalf("Fill: %v", err)
	}
	if got.Row(1)[1] != nil {
		t.Fatalf("value leaked across subjects: %v", got.Row(1)[1])
	}
}

func TestFill_Idempotent(t *testing.T) {
	t.Parallel()

	tbl := mustTable(t,
		[]string{"record_id", "sex_dashboard", "prior_aclr"},
		[][]any{
			{"A", nil, int64(0)},
			{"A", "Female", nil},
			{"B", "Male", nil},
			{"B", nil, nil},
		})
	attrs := []string{"sex_dashboard", "prior_aclr"}

	once, err := Fill(tbl, "record_id", attrs)
	if err != nil {
		t.Fatalf("Fill: %v", err)
	}
	twice, err := Fill(once, "record_id", attrs)
	if err != nil {
		t.Fatalf("Fill (second): %v", err)
	}
	for i := 0; i < once.NumRows(); i++ {
		if !reflect.DeepEqual(once.Row(i), twice.Row(i)) {
			t.Fatalf("row %d changed on re-impute: %v vs %v", i, once.Row(i), twice.Row(i))
		}
	}
}

func TestFill_UnknownAttributeIsSchemaError(t *testing.T) {
	t.Parallel()

	tbl := mustTable(t, []string{"record_id"}, [][]any{{"A"}})
	_, err := Fill(tbl, "record_id", []string{"missing_col"})
	if !errors.Is(err, dataset.ErrUnknownColumn) {
		t.Fatalf("Fill(missing_col) = %v, want ErrUnknownColumn", err)
	}
}
