// Package datasource defines the narrow boundary through which the subject
// record table enters the program. The reporting core never parses, loads,
// or persists anything itself; it consumes a *dataset.Table produced here
// exactly once per cache epoch.
package datasource

import (
	"context"

	"arrowdash/internal/dataset"
)

// Source produces the subject record table. Implementations must be safe for
// repeated calls; the report engine decides when to reload.
type Source interface {
	// Fingerprint cheaply identifies the current source contents. The
	// engine reloads when the fingerprint changes and otherwise serves the
	// cached imputed table.
	Fingerprint(ctx context.Context) (uint64, error)

	// Load reads the full table and returns it together with the
	// fingerprint of the contents actually read, so load-then-cache is one
	// pass over the source.
	Load(ctx context.Context) (*dataset.Table, uint64, error)
}
