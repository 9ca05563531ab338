// Package apperror defines the application's error taxonomy.
//
// Services return *AppError values; the HTTP layer matches the wrapped
// sentinel with errors.Is and picks the status code and JSON shape.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrValidation   = errors.New("Validation Error")
	ErrNotFound     = errors.New("not found")
)

type AppError struct {
	Err     error       // actual error
	Message string      // Human-readable error message
	Field   string      // Optional: field causing the error
	Details FieldErrors // Optional: structured schema failure
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// FieldErrors is a structured validation failure. Its JSON form is
//
//	{"_errors":["form level"],"title":{"_errors":["Title is required."]}}
//
// so clients can walk it field by field.
type FieldErrors struct {
	Form   []string
	Fields map[string][]string
}

// Add records msg against field. An empty field records a form-level error.
func (f *FieldErrors) Add(field, msg string) {
	if field == "" {
		f.Form = append(f.Form, msg)
		return
	}
	if f.Fields == nil {
		f.Fields = make(map[string][]string)
	}
	f.Fields[field] = append(f.Fields[field], msg)
}

// Empty reports whether no errors were recorded.
func (f FieldErrors) Empty() bool {
	return len(f.Form) == 0 && len(f.Fields) == 0
}

// Map renders the nested "_errors" shape sent to clients.
func (f FieldErrors) Map() map[string]any {
	form := f.Form
	if form == nil {
		form = []string{}
	}
	out := map[string]any{"_errors": form}
	for field, msgs := range f.Fields {
		out[field] = map[string]any{"_errors": msgs}
	}
	return out
}

func Unauthorized() *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: "valid authentication required",
	}
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

// NotFoundMessage is NotFound with a fixed client-facing message.
func NotFoundMessage(message string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: message,
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// SchemaFailed wraps a structured validation failure.
func SchemaFailed(details FieldErrors) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: "request body failed validation",
		Details: details,
	}
}
