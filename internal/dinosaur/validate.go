package dinosaur

import (
	"bytes"
	"encoding/json"
	"errors"
)

// Parse reads the model output and returns the Info it describes.
//
// The output must be a JSON object carrying all four fields as JSON strings.
// Nothing is coerced, defaulted or repaired: a syntax problem yields a
// *ParseError, a missing or non-string field yields a *ValidationError, and
// in both cases the returned Info is zero. Unknown keys are ignored.
func Parse(raw []byte) (Info, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return Info{}, &ParseError{Err: errors.New("empty response")}
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) {
			return Info{}, &ParseError{Offset: syntaxErr.Offset, Err: err}
		}
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return Info{}, &ParseError{Err: errors.New("expected a JSON object, got " + typeErr.Value)}
		}
		return Info{}, &ParseError{Err: err}
	}
	if fields == nil {
		return Info{}, &ParseError{Err: errors.New("expected a JSON object, got null")}
	}

	var (
		info   Info
		issues []FieldIssue
	)
	for _, field := range Fields {
		value, ok := fields[field.Name]
		if !ok {
			issues = append(issues, FieldIssue{Field: field.Name, Issue: IssueMissing})
			continue
		}
		s, ok := decodeString(value)
		if !ok {
			issues = append(issues, FieldIssue{Field: field.Name, Issue: IssueNotString})
			continue
		}
		info.set(field.Name, s)
	}
	if len(issues) > 0 {
		return Info{}, &ValidationError{Issues: issues}
	}
	return info, nil
}

// FromValues validates a set of already-decoded field values, e.g. the fields
// of an export form. Absent keys are reported as missing.
func FromValues(values map[string]string) (Info, error) {
	payload, err := json.Marshal(values)
	if err != nil {
		return Info{}, err
	}
	return Parse(payload)
}

// decodeString accepts only JSON string literals; json.Unmarshal alone would
// turn null into "".
func decodeString(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '"' {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}
