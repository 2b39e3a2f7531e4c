// Package config defines the canonical, JSON-serializable configuration model
// for the reporting application. It is intentionally small, explicit, and
// dependency-free so that a deployment can be described by one file on disk
// and passed through the program without additional glue code.
//
// Design goals:
//
//  1. Stability: changes to this package should be additive and backwards-
//     compatible whenever possible.
//  2. Clarity: field names in Go mirror the JSON structure used in
//     configs/*.json.
//  3. Minimalism: no third-party config libraries; decoding is performed by
//     the standard library, with a light Options helper for the free-form
//     CSV parser knobs.
package config

import "encoding/json"

// App is the top-level object decoded from a config file
// (e.g. configs/arrowdash.json).
type App struct {
	// Dataset describes where the subject record table comes from.
	Dataset Dataset `json:"dataset"`

	// Columns names the structural columns of the table: the subject key,
	// the numeric filter dimensions, the long-term-outcome marker, and the
	// identifying attributes to impute.
	Columns Columns `json:"columns"`

	// Variables is the fixed list of outcome columns whose non-missing
	// density is reported. Order is display order.
	Variables []string `json:"variables"`

	// Filters declares the categorical filter widgets shown in the UI.
	Filters []Filter `json:"filters"`

	// Buckets is the ordered longitudinal scheme: labeled half-open
	// [lo, hi) intervals in months. Empty means the built-in canonical set.
	Buckets []Bucket `json:"buckets"`

	// Server configures the web UI.
	Server Server `json:"server"`
}

// Dataset selects the datasource implementation. Additional kinds can be
// added over time.
type Dataset struct {
	// Kind selects the source: "csv", "sqlite", or "postgres".
	Kind string `json:"kind"`

	// CSV carries options for the "csv" kind.
	CSV DatasetCSV `json:"csv"`

	// SQLite carries options for the "sqlite" kind.
	SQLite DatasetSQL `json:"sqlite"`

	// Postgres carries options for the "postgres" kind.
	Postgres DatasetSQL `json:"postgres"`
}

// DatasetCSV holds configuration for the "csv" dataset kind.
type DatasetCSV struct {
	// Path is the local filesystem path to the input file.
	Path string `json:"path"`

	// Options is a free-form map interpreted by the CSV loader. Typical
	// keys: has_header (bool), comma (string), trim_space (bool),
	// header_map (object), types (object: column -> "real"|"int"|"text").
	Options Options `json:"options"`
}

// DatasetSQL holds configuration for the SQL-backed dataset kinds.
type DatasetSQL struct {
	// DSN is the connection string (database/sql for sqlite, pgxpool for
	// postgres).
	DSN string `json:"dsn"`

	// Table is the table or view holding one row per visit/instrument.
	Table string `json:"table"`

	// Columns enumerates the columns to select, in table order. Empty is a
	// configuration error: the reporting schema must be explicit.
	Columns []string `json:"columns"`
}

// Columns names the structural columns of the subject record table.
type Columns struct {
	RecordID       string   `json:"record_id"`
	Age            string   `json:"age"`
	TimeSince      string   `json:"time_since_surgery"`
	LongTermMarker string   `json:"long_term_marker"`
	Impute         []string `json:"impute"`
}

// Filter declares one categorical filter widget: the label shown to the
// analyst, the column it restricts, and the selectable choices. Values
// optionally maps a displayed choice to the stored cell value (e.g.
// "Yes" -> 1); choices without an entry are matched as-is.
type Filter struct {
	Label   string         `json:"label"`
	Column  string         `json:"column"`
	Choices []string       `json:"choices"`
	Values  map[string]any `json:"values,omitempty"`
}

// Value resolves a displayed choice to the stored cell value.
func (f Filter) Value(choice string) any {
	if v, ok := f.Values[choice]; ok {
		return v
	}
	return choice
}

// Bucket is one labeled half-open interval [Lo, Hi) of the longitudinal
// scheme.
type Bucket struct {
	Label string  `json:"label"`
	Lo    float64 `json:"lo"`
	Hi    float64 `json:"hi"`
}

// Server configures the web UI and its password gate.
type Server struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string `json:"addr"`

	// PasswordEnv names the environment variable holding the shared
	// secret. Defaults to "PASSWORD". The variable being unset at startup
	// is a configuration error surfaced by the validator, not by the
	// reporting core.
	PasswordEnv string `json:"password_env"`
}

// Options is a small helper to fetch typed values from arbitrary JSON maps
// without introducing third-party configuration libraries. It purposefully
// performs only minimal type coercion and returns provided defaults when a
// key is absent or of an unexpected type.
type Options map[string]any

// String returns the string value for key or def if key is missing or not a
// string.
func (o Options) String(key, def string) string {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// Bool returns the bool value for key or def if key is missing or not a bool.
func (o Options) Bool(key string, def bool) bool {
	if v, ok := o[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// Rune returns the first rune of a string value for key, or def if key is
// missing or empty. Useful for single-character parser settings such as a
// CSV delimiter.
func (o Options) Rune(key string, def rune) rune {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok && len(s) > 0 {
			return []rune(s)[0]
		}
	}
	return def
}

// StringMap returns a map[string]string for key when the value is an object
// whose values are strings. Non-string values are ignored. Returns an empty
// map when the key is missing or the value is not an object.
func (o Options) StringMap(key string) map[string]string {
	res := map[string]string{}
	if v, ok := o[key]; ok {
		if m, ok := v.(map[string]any); ok {
			for k, vv := range m {
				if s, ok := vv.(string); ok {
					res[k] = s
				}
			}
		}
	}
	return res
}

// UnmarshalJSON implements json.Unmarshaler so that a missing or null
// "options" object in JSON decodes to a non-nil, empty Options map. This
// simplifies call sites by removing the need to nil-check Options values.
func (o *Options) UnmarshalJSON(b []byte) error {
	var tmp map[string]any
	if len(b) == 0 || string(b) == "null" {
		*o = Options{}
		return nil
	}
	if err := json.Unmarshal(b, &tmp); err != nil {
		return err
	}
	*o = Options(tmp)
	return nil
}
