package domain

import (
	"fmt"
	"strings"
)

// MissingFieldError reports a required field absent from a source row.
type MissingFieldError struct {
	Section SectionKind
	Field   string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing field %q in %s section", e.Field, e.Section)
}

// NoMatchingRecordError reports a selection key without any matching row.
type NoMatchingRecordError struct {
	Sheet string
	Key   string
}

func (e *NoMatchingRecordError) Error() string {
	return fmt.Sprintf("no record for %s in sheet %s", e.Key, e.Sheet)
}

// AmbiguousRecordError reports a selection key that matches more than one row.
type AmbiguousRecordError struct {
	Sheet string
	Key   string
	Count int
}

func (e *AmbiguousRecordError) Error() string {
	return fmt.Sprintf("%d records for %s in sheet %s, expected exactly one", e.Count, e.Key, e.Sheet)
}

// IncompleteContextError lists template placeholders without a context value.
type IncompleteContextError struct {
	Template string
	Missing  []string
}

func (e *IncompleteContextError) Error() string {
	return fmt.Sprintf("template %s is missing values for: %s", e.Template, strings.Join(e.Missing, ", "))
}

// AuthError is returned by the credential provider when no token is issued.
type AuthError struct {
	Status int
	Reason string
}

func (e *AuthError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("authentication failed: %s", e.Reason)
	}
	return fmt.Sprintf("authentication failed (status %d): %s", e.Status, e.Reason)
}

// InvalidValueError reports a source value outside the range its field allows.
type InvalidValueError struct {
	Section SectionKind
	Field   string
	Value   string
}

func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("invalid value %s for %q in %s section", e.Value, e.Field, e.Section)
}
