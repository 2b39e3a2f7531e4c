// Package sqlds implements a SQLite-backed datasource using database/sql.
// It serves deployments where an upstream ETL has already landed the subject
// record table in a local SQLite file.
package sqlds

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	// SQLite driver; replace with your preferred driver if desired.
	_ "modernc.org/sqlite" // alternative: github.com/mattn/go-sqlite3

	"github.com/zeebo/xxh3"

	"arrowdash/internal/dataset"
)

// Config selects the table and column set to load.
type Config struct {
	// DSN is passed directly to database/sql; for example:
	//
	//	"file:arrow.db?cache=shared&_fk=1"
	//	"arrow.db"
	DSN string

	// Table is the table or view holding one row per visit/instrument.
	Table string

	// Columns enumerates the columns to select. The reporting schema is
	// explicit: no SELECT *.
	Columns []string
}

// Source is a SQLite-backed datasource.
type Source struct {
	db  *sql.DB
	cfg Config
}

// New opens a SQLite connection using the provided DSN and returns a Source
// plus a Close function for cleanup.
func New(ctx context.Context, cfg Config) (*Source, func(), error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, nil, fmt.Errorf("sqlds: DSN must not be empty")
	}
	if strings.TrimSpace(cfg.Table) == "" || len(cfg.Columns) == 0 {
		return nil, nil, fmt.Errorf("sqlds: table and columns must be configured")
	}

	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("sqlds: open: %w", err)
	}

	// Fail fast on invalid DSNs.
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("sqlds: ping: %w", err)
	}

	closeFn := func() { db.Close() }
	return &Source{db: db, cfg: cfg}, closeFn, nil
}

// Fingerprint is a coarse change signal: row count plus the maximum rowid.
// It catches appends and reloads, which is how the upstream ETL writes; it
// does not catch in-place cell edits. A deployment that edits cells in place
// should bounce the process after writing.
func (s *Source) Fingerprint(ctx context.Context) (uint64, error) {
	var n, maxID int64
	q := fmt.Sprintf("SELECT count(*), coalesce(max(rowid), 0) FROM %s", s.cfg.Table)
	if err := s.db.QueryRowContext(ctx, q).Scan(&n, &maxID); err != nil {
		return 0, fmt.Errorf("sqlds: fingerprint: %w", err)
	}
	return xxh3.HashString(fmt.Sprintf("%s|%d|%d", s.cfg.Table, n, maxID)), nil
}

// Load selects the configured columns and materializes the table.
func (s *Source) Load(ctx context.Context) (*dataset.Table, uint64, error) {
	fp, err := s.Fingerprint(ctx)
	if err != nil {
		return nil, 0, err
	}

	q := fmt.Sprintf("SELECT %s FROM %s", strings.Join(s.cfg.Columns, ", "), s.cfg.Table)
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, 0, fmt.Errorf("sqlds: query: %w", err)
	}
	defer rows.Close()

	var out [][]any
	for rows.Next() {
		cells := make([]any, len(s.cfg.Columns))
		ptrs := make([]any, len(cells))
		for i := range cells {
			ptrs[i] = &cells[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, 0, fmt.Errorf("sqlds: scan: %w", err)
		}
		for i, v := range cells {
			cells[i] = normalize(v)
		}
		out = append(out, cells)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("sqlds: rows: %w", err)
	}

	tbl, err := dataset.New(s.cfg.Columns, out)
	if err != nil {
		return nil, 0, fmt.Errorf("sqlds: %w", err)
	}
	return tbl, fp, nil
}

// normalize maps driver values onto the dataset conventions: []byte becomes
// string, empty strings become missing, NULL stays nil.
func normalize(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case []byte:
		s := strings.TrimSpace(string(t))
		if s == "" {
			return nil
		}
		return s
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return nil
		}
		return s
	default:
		return v
	}
}
