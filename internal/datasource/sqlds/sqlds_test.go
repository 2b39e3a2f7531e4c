package sqlds

import (
	"context"
	"database/sql"
	"testing"

	"arrowdash/internal/dataset"
)

// seedDB creates a shared in-memory database with a small visit table and
// returns its DSN. cache=shared keeps the data visible to the Source's own
// connection.
func seedDB(t *testing.T, name string) string {
	t.Helper()

	dsn := "file:" + name + "?mode=memory&cache=shared"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	stmts := []string{
		`CREATE TABLE visits (record_id TEXT, age REAL, ikdc REAL)`,
		`INSERT INTO visits VALUES ('A', 22.0, 61.0)`,
		`INSERT INTO visits VALUES ('A', 22.0, NULL)`,
		`INSERT INTO visits VALUES ('B', 30.0, 55.5)`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			t.Fatalf("exec %q: %v", s, err)
		}
	}
	return dsn
}

func TestNew_RejectsIncompleteConfig(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	if _, _, err := New(ctx, Config{Table: "visits", Columns: []string{"record_id"}}); err == nil {
		t.Fatalf("New without DSN: want error, got nil")
	}
	if _, _, err := New(ctx, Config{DSN: "file:x?mode=memory"}); err == nil {
		t.Fatalf("New without table/columns: want error, got nil")
	}
}

func TestLoad_MaterializesConfiguredColumns(t *testing.T) {
	dsn := seedDB(t, "load_test")

	ctx := context.Background()
	src, closeFn, err := New(ctx, Config{
		DSN:     dsn,
		Table:   "visits",
		Columns: []string{"record_id", "age", "ikdc"},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer closeFn()

	tbl, fp, err := src.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if tbl.NumRows() != 3 {
		t.Fatalf("rows = %d, want 3", tbl.NumRows())
	}

	row := tbl.Row(1)
	if row[0] != "A" {
		t.Fatalf("record_id = %v, want A", row[0])
	}
	if !dataset.Missing(row[2]) {
		t.Fatalf("NULL ikdc loaded as %v, want missing", row[2])
	}
	if f, ok := dataset.AsFloat(tbl.Row(2)[2]); !ok || f != 55.5 {
		t.Fatalf("ikdc = %v, want 55.5", tbl.Row(2)[2])
	}

	probe, err := src.Fingerprint(ctx)
	if err != nil {
		t.Fatalf("Fingerprint: %v", err)
	}
	if probe != fp {
		t.Fatalf("fingerprint = %d, load reported %d", probe, fp)
	}
}

func TestFingerprint_TracksAppends(t *testing.T) {
	dsn := seedDB(t, "fp_test")

	ctx := context.Background()
	src, closeFn, err := New(ctx, Config{
		DSN:     dsn,
		Table:   "visits",
		Columns: []string{"record_id", "age", "ikdc"},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer closeFn()

	before, err := src.Fingerprint(ctx)
	if err != nil {
		t.Fatalf("Fingerprint: %v", err)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("open writer: %v", err)
	}
	defer db.Close()
	if _, err := db.Exec(`INSERT INTO visits VALUES ('C', 19.0, 70.0)`); err != nil {
		t.Fatalf("insert: %v", err)
	}

	after, err := src.Fingerprint(ctx)
	if err != nil {
		t.Fatalf("Fingerprint: %v", err)
	}
	if after == before {
		t.Fatalf("fingerprint did not move after append")
	}
}
