// This file adds a lightweight linter/validator for App values. It performs
// static checks over a decoded App and returns a list of issues (errors and
// warnings) that callers can surface in a CLI or tests.

package config

import (
	"fmt"
	"os"
	"strings"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block
	// startup.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a configuration warning that should be
	// surfaced to users but may not necessarily block startup.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation/lint finding for an App.
//
// Path is a dotted path into the config (e.g. "dataset.kind",
// "buckets[1]"). Message is human-readable.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a
// single error in contexts that expect error.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// ValidateApp performs static validation / linting of an App. Run it after
// ApplyDefaults. It does not mutate the config; it returns a slice of Issue
// values and callers decide whether warnings are fatal.
func ValidateApp(a App) []Issue {
	var issues []Issue
	issues = append(issues, validateDataset(a.Dataset)...)
	issues = append(issues, validateColumns(a.Columns)...)
	if len(a.Variables) == 0 {
		issues = append(issues, Issue{SeverityError, "variables", "variable list must not be empty"})
	}
	issues = append(issues, validateFilters(a.Filters)...)
	issues = append(issues, validateBuckets(a.Buckets)...)
	issues = append(issues, validateServer(a.Server)...)
	return issues
}

func validateDataset(d Dataset) []Issue {
	var issues []Issue

	kind := strings.TrimSpace(d.Kind)
	if kind == "" {
		issues = append(issues, Issue{SeverityError, "dataset.kind", "dataset.kind must not be empty"})
		return issues
	}
	switch kind {
	case "csv":
		if strings.TrimSpace(d.CSV.Path) == "" {
			issues = append(issues, Issue{SeverityError, "dataset.csv.path", "csv dataset requires a path"})
		}
	case "sqlite":
		issues = append(issues, validateSQL("dataset.sqlite", d.SQLite)...)
	case "postgres":
		issues = append(issues, validateSQL("dataset.postgres", d.Postgres)...)
	default:
		// Unknown kinds are errors, not warnings: there is no registry of
		// sources to fall through to.
		issues = append(issues, Issue{SeverityError, "dataset.kind",
			fmt.Sprintf("unknown dataset kind %q (want csv, sqlite, or postgres)", kind)})
	}
	return issues
}

func validateSQL(path string, s DatasetSQL) []Issue {
	var issues []Issue
	if strings.TrimSpace(s.DSN) == "" {
		issues = append(issues, Issue{SeverityError, path + ".dsn", "dsn must not be empty"})
	}
	if strings.TrimSpace(s.Table) == "" {
		issues = append(issues, Issue{SeverityError, path + ".table", "table must not be empty"})
	}
	if len(s.Columns) == 0 {
		issues = append(issues, Issue{SeverityError, path + ".columns",
			"columns must enumerate the reporting schema explicitly"})
	}
	return issues
}

func validateColumns(c Columns) []Issue {
	var issues []Issue
	for path, v := range map[string]string{
		"columns.record_id":          c.RecordID,
		"columns.age":                c.Age,
		"columns.time_since_surgery": c.TimeSince,
		"columns.long_term_marker":   c.LongTermMarker,
	} {
		if strings.TrimSpace(v) == "" {
			issues = append(issues, Issue{SeverityError, path, "column name must not be empty"})
		}
	}
	if len(c.Impute) == 0 {
		issues = append(issues, Issue{SeverityWarning, "columns.impute",
			"no identifying attributes to impute; categorical filters will see raw blanks"})
	}
	return issues
}

func validateFilters(fs []Filter) []Issue {
	var issues []Issue
	for i, f := range fs {
		path := fmt.Sprintf("filters[%d]", i)
		if strings.TrimSpace(f.Column) == "" {
			issues = append(issues, Issue{SeverityError, path + ".column", "filter column must not be empty"})
		}
		if len(f.Choices) == 0 {
			issues = append(issues, Issue{SeverityWarning, path + ".choices",
				"filter has no choices and will never restrict anything"})
		}
		for choice := range f.Values {
			found := false
			for _, c := range f.Choices {
				if c == choice {
					found = true
					break
				}
			}
			if !found {
				issues = append(issues, Issue{SeverityWarning, path + ".values",
					fmt.Sprintf("value mapping for %q has no matching choice", choice)})
			}
		}
	}
	return issues
}

func validateBuckets(bs []Bucket) []Issue {
	var issues []Issue
	for i, b := range bs {
		path := fmt.Sprintf("buckets[%d]", i)
		if strings.TrimSpace(b.Label) == "" {
			issues = append(issues, Issue{SeverityError, path + ".label", "bucket label must not be empty"})
		}
		if b.Lo >= b.Hi {
			issues = append(issues, Issue{SeverityError, path,
				fmt.Sprintf("bucket interval [%g, %g) is empty", b.Lo, b.Hi)})
		}
		if i > 0 && b.Lo < bs[i-1].Hi {
			issues = append(issues, Issue{SeverityError, path,
				fmt.Sprintf("bucket %q overlaps %q; a value may belong to at most one bucket",
					b.Label, bs[i-1].Label)})
		}
	}
	return issues
}

func validateServer(s Server) []Issue {
	var issues []Issue
	if strings.TrimSpace(s.Addr) == "" {
		issues = append(issues, Issue{SeverityError, "server.addr", "listen address must not be empty"})
	}
	env := strings.TrimSpace(s.PasswordEnv)
	if env == "" {
		issues = append(issues, Issue{SeverityError, "server.password_env", "password_env must not be empty"})
	} else if os.Getenv(env) == "" {
		// Boundary error: the core never reads the secret, but an unset
		// gate would lock everyone out (or worse, compare against "").
		issues = append(issues, Issue{SeverityError, "server.password_env",
			fmt.Sprintf("environment variable %s is not set", env)})
	}
	return issues
}
