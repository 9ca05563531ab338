// Package validate holds the request schemas for issues.
//
// Rules live in struct tags on the model types and are checked by
// go-playground/validator. Failures come back as an apperror.FieldErrors tree
// keyed by JSON field name, never as a flat message.
package validate

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/sakif/issue-tracker/internal/apperror"
	"github.com/sakif/issue-tracker/internal/model"
)

// Schema decodes and validates issue payloads.
type Schema struct {
	v *validator.Validate
}

// New builds a Schema. A single instance is safe for concurrent use.
func New() *Schema {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report JSON names ("assignedToUserId") instead of Go names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	return &Schema{v: v}
}

// DecodePatch parses and validates an update payload.
func (s *Schema) DecodePatch(body []byte) (model.IssuePatch, error) {
	var patch model.IssuePatch
	if err := json.Unmarshal(body, &patch); err != nil {
		return model.IssuePatch{}, apperror.SchemaFailed(decodeErrors(err))
	}
	if fe := s.check(patch); !fe.Empty() {
		return model.IssuePatch{}, apperror.SchemaFailed(fe)
	}
	return patch, nil
}

// DecodeDraft parses and validates a create payload.
func (s *Schema) DecodeDraft(body []byte) (model.IssueDraft, error) {
	var draft model.IssueDraft
	if err := json.Unmarshal(body, &draft); err != nil {
		return model.IssueDraft{}, apperror.SchemaFailed(decodeErrors(err))
	}
	if fe := s.check(draft); !fe.Empty() {
		return model.IssueDraft{}, apperror.SchemaFailed(fe)
	}
	return draft, nil
}

func (s *Schema) check(v any) apperror.FieldErrors {
	var fe apperror.FieldErrors

	err := s.v.Struct(v)
	if err == nil {
		return fe
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		fe.Add("", err.Error())
		return fe
	}
	for _, ve := range verrs {
		fe.Add(ve.Field(), message(ve.Field(), ve.Tag(), ve.Param()))
	}
	return fe
}

var fieldLabels = map[string]string{
	"title":            "Title",
	"description":      "Description",
	"assignedToUserId": "AssignedToUserId",
	"status":           "Status",
}

func message(field, tag, param string) string {
	label, ok := fieldLabels[field]
	if !ok {
		label = field
	}
	switch tag {
	case "required", "min":
		return label + " is required."
	case "max":
		return fmt.Sprintf("%s must be at most %s characters.", label, param)
	case "oneof":
		return fmt.Sprintf("%s must be one of %s.", label, strings.ReplaceAll(param, " ", ", "))
	}
	return fmt.Sprintf("%s failed the %q rule.", label, tag)
}

func decodeErrors(err error) apperror.FieldErrors {
	var fe apperror.FieldErrors

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		msg := fmt.Sprintf("Expected %s, received %s", jsonKind(typeErr.Type), typeName(typeErr.Value))
		fe.Add(typeErr.Field, msg)
		return fe
	}

	fe.Add("", "Invalid JSON body")
	return fe
}

func jsonKind(t reflect.Type) string {
	if t == nil {
		return "value"
	}
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Map, reflect.Struct:
		return "object"
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.Bool:
		return "boolean"
	case reflect.Pointer:
		return jsonKind(t.Elem())
	}
	return "number"
}

func typeName(v string) string {
	if v == "bool" {
		return "boolean"
	}
	return v
}
