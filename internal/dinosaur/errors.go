package dinosaur

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidJSON    = errors.New("response is not valid JSON")
	ErrSchemaMismatch = errors.New("response does not match schema")
)

// Field issues reported by ValidationError.
const (
	IssueMissing   = "missing"
	IssueNotString = "not_string"
)

// ParseError is returned when the model output cannot be read as a JSON object.
type ParseError struct {
	// Offset is the byte offset of a syntax error, or 0 when unknown.
	Offset int64
	Err    error
}

func (e *ParseError) Error() string {
	if e.Offset > 0 {
		return fmt.Sprintf("%s: offset %d: %v", ErrInvalidJSON, e.Offset, e.Err)
	}
	return fmt.Sprintf("%s: %v", ErrInvalidJSON, e.Err)
}

func (e *ParseError) Unwrap() []error {
	return []error{ErrInvalidJSON, e.Err}
}

// FieldIssue names one required field and what is wrong with it.
type FieldIssue struct {
	Field string `json:"field"`
	Issue string `json:"issue"`
}

// ValidationError lists every required field that is absent or not a string.
type ValidationError struct {
	Issues []FieldIssue
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, is := range e.Issues {
		parts = append(parts, is.Field+" "+is.Issue)
	}
	return fmt.Sprintf("%s: %s", ErrSchemaMismatch, strings.Join(parts, ", "))
}

func (e *ValidationError) Unwrap() error {
	return ErrSchemaMismatch
}
