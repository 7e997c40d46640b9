package model

import "strings"

// FieldError is a single data-validation failure at a field path.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Result is the outcome of validating a data document against a model.
// On success Data carries the input with defaults applied; on failure
// Errors lists every field-level problem in traversal order.
type Result struct {
	Valid  bool           `json:"isValid"`
	Data   map[string]any `json:"data,omitempty"`
	Errors []FieldError   `json:"errors,omitempty"`
}

// AddError records a validation failure and marks the result invalid.
func (r *Result) AddError(field, message string) {
	r.Valid = false
	r.Errors = append(r.Errors, FieldError{Field: field, Message: message})
}

// Error returns all failure messages joined, or "" for a valid result.
func (r Result) Error() string {
	if r.Valid {
		return ""
	}
	msgs := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		msgs[i] = e.Field + ": " + e.Message
	}
	return strings.Join(msgs, "; ")
}
