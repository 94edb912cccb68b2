package model

import "fmt"

// Validation failure reasons.
const (
	reasonMissing    = "missing"
	reasonNotNumeric = "not numeric"
)

// Record kinds named in validation errors.
const (
	recordOSMatch = "osmatch"
	recordOSClass = "osclass"
)

// ValidationError reports a decoded record that cannot become a model
// object: a required field is absent, or a numeric field holds text that
// does not parse as an integer. An empty string in a required field is
// acceptable data; only literal absence (or unparseable numeric text)
// fails.
//
// Design decision: We use one typed error rather than per-field sentinel
// errors because:
//  1. Callers branch on "did validation fail", which errors.As answers
//     with a single type
//  2. Diagnostics still need the failing record and field, so the error
//     carries both
//  3. Construction is atomic: the first failure aborts the whole build,
//     so errors never accumulate into a list
type ValidationError struct {
	// Record is the record kind being validated ("osmatch", "osclass").
	Record string

	// Field is the field that failed validation.
	Field string

	// Reason describes the failure ("missing", "not numeric").
	Reason string

	// Value is the offending value; empty when the field was absent.
	Value string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("invalid %s record: %s %s", e.Record, e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid %s record: %s %s: %q", e.Record, e.Field, e.Reason, e.Value)
}

// missingField returns a ValidationError for a required field absent
// from the decoded record.
func missingField(record, field string) *ValidationError {
	return &ValidationError{Record: record, Field: field, Reason: reasonMissing}
}

// notNumeric returns a ValidationError for a numeric field whose decoded
// value does not parse as an integer.
func notNumeric(record, field, value string) *ValidationError {
	return &ValidationError{Record: record, Field: field, Reason: reasonNotNumeric, Value: value}
}
