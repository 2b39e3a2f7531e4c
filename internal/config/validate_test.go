package config

import (
	"strings"
	"testing"
)

func hasIssue(issues []Issue, severity IssueSeverity, pathPrefix string) bool {
	for _, i := range issues {
		if i.Severity == severity && strings.HasPrefix(i.Path, pathPrefix) {
			return true
		}
	}
	return false
}

func validApp(t *testing.T) App {
	t.Helper()
	t.Setenv("ARROWDASH_TEST_PASSWORD", "hunter2")
	a := App{
		Dataset: Dataset{Kind: "csv", CSV: DatasetCSV{Path: "testdata/arrow.csv"}},
		Server:  Server{PasswordEnv: "ARROWDASH_TEST_PASSWORD"},
	}
	a.ApplyDefaults()
	return a
}

func TestValidateApp_ValidConfigHasNoErrors(t *testing.T) {
	a := validApp(t)
	for _, iss := range ValidateApp(a) {
		if iss.Severity == SeverityError {
			t.Fatalf("unexpected error issue: %v", iss)
		}
	}
}

func TestValidateApp_DatasetKind(t *testing.T) {
	a := validApp(t)
	a.Dataset.Kind = "excel"
	if !hasIssue(ValidateApp(a), SeverityError, "dataset.kind") {
		t.Fatalf("unknown dataset kind not flagged")
	}

	a = validApp(t)
	a.Dataset.Kind = "sqlite"
	issues := ValidateApp(a)
	for _, path := range []string{"dataset.sqlite.dsn", "dataset.sqlite.table", "dataset.sqlite.columns"} {
		if !hasIssue(issues, SeverityError, path) {
			t.Fatalf("empty sqlite config: missing error at %s; got %v", path, issues)
		}
	}
}

func TestValidateApp_BucketShape(t *testing.T) {
	a := validApp(t)
	a.Buckets = []Bucket{
		{Label: "3-4 months", Lo: 3, Hi: 5},
		{Label: "backwards", Lo: 9, Hi: 8},
	}
	if !hasIssue(ValidateApp(a), SeverityError, "buckets[1]") {
		t.Fatalf("empty bucket interval not flagged")
	}

	a.Buckets = []Bucket{
		{Label: "3-4 months", Lo: 3, Hi: 5},
		{Label: "4-7 months", Lo: 4, Hi: 8},
	}
	if !hasIssue(ValidateApp(a), SeverityError, "buckets[1]") {
		t.Fatalf("overlapping buckets not flagged")
	}
}

func TestValidateApp_UnsetSecretIsStartupError(t *testing.T) {
	a := validApp(t)
	a.Server.PasswordEnv = "ARROWDASH_TEST_UNSET_SECRET"
	if !hasIssue(ValidateApp(a), SeverityError, "server.password_env") {
		t.Fatalf("unset password env not flagged")
	}
}

func TestValidateApp_ImputeWarningOnly(t *testing.T) {
	a := validApp(t)
	a.Columns.Impute = nil
	issues := ValidateApp(a)
	if !hasIssue(issues, SeverityWarning, "columns.impute") {
		t.Fatalf("missing impute list should warn; got %v", issues)
	}
	if hasIssue(issues, SeverityError, "columns.impute") {
		t.Fatalf("missing impute list must not be an error")
	}
}
