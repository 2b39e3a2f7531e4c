package datasource

import (
	"context"
	"fmt"

	"arrowdash/internal/config"
	"arrowdash/internal/datasource/csvfile"
	"arrowdash/internal/datasource/pgds"
	"arrowdash/internal/datasource/sqlds"
)

// FromConfig builds the Source selected by the dataset config. The returned
// close function releases any connection pool; it is never nil.
func FromConfig(ctx context.Context, d config.Dataset) (Source, func(), error) {
	switch d.Kind {
	case "csv":
		return csvfile.New(d.CSV.Path, d.CSV.Options), func() {}, nil
	case "sqlite":
		return sqlds.New(ctx, sqlds.Config{
			DSN:     d.SQLite.DSN,
			Table:   d.SQLite.Table,
			Columns: d.SQLite.Columns,
		})
	case "postgres":
		return pgds.New(ctx, pgds.Config{
			DSN:     d.Postgres.DSN,
			Table:   d.Postgres.Table,
			Columns: d.Postgres.Columns,
		})
	default:
		return nil, nil, fmt.Errorf("datasource: unknown kind %q", d.Kind)
	}
}
