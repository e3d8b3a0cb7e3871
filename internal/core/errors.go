package core

import (
	"errors"
	"strings"
)

// NonFieldErrors is the field key used for errors not tied to one input.
const NonFieldErrors = "non_field_errors"

// ValidationError describes one rejected input field.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

func (e ValidationError) Unwrap() error {
	return e.Err
}

// ValidationErrors collects every field problem found before a write.
type ValidationErrors []ValidationError

func (v *ValidationErrors) Add(field string, err error, message string) {
	*v = append(*v, ValidationError{Field: field, Message: message, Err: err})
}

func (v ValidationErrors) Error() string {
	parts := make([]string, len(v))
	for i, e := range v {
		parts[i] = e.Error()
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (v ValidationErrors) Unwrap() []error {
	errs := make([]error, len(v))
	for i, e := range v {
		errs[i] = e
	}
	return errs
}

// Err returns nil when nothing was collected.
func (v ValidationErrors) Err() error {
	if len(v) == 0 {
		return nil
	}
	return v
}

// Fields groups messages by field name.
func (v ValidationErrors) Fields() map[string][]string {
	out := make(map[string][]string, len(v))
	for _, e := range v {
		out[e.Field] = append(out[e.Field], e.Message)
	}
	return out
}

// FieldError builds a single-field validation error.
func FieldError(field string, err error, message string) error {
	return ValidationErrors{{Field: field, Message: message, Err: err}}
}

// AsValidation reports whether err carries field-level detail.
func AsValidation(err error) (ValidationErrors, bool) {
	var verrs ValidationErrors
	if errors.As(err, &verrs) {
		return verrs, true
	}
	var verr ValidationError
	if errors.As(err, &verr) {
		return ValidationErrors{verr}, true
	}
	return nil, false
}
