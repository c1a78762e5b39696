package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const todoCreateSchema = `{
	"type": "object",
	"required": ["content"],
	"properties": {
		"content":  {"type": "string"},
		"status":   {"type": ["string", "null"]},
		"priority": {"type": ["integer", "null"], "minimum": 1, "maximum": 5},
		"due_date": {"type": ["string", "null"]}
	}
}`

const todoUpdateSchema = `{
	"type": "object",
	"properties": {
		"content":  {"type": ["string", "null"]},
		"status":   {"type": ["string", "null"]},
		"priority": {"type": ["integer", "null"], "minimum": 1, "maximum": 5},
		"due_date": {"type": ["string", "null"]}
	}
}`

var (
	createSchema = jsonschema.MustCompileString("todo_create.json", todoCreateSchema)
	updateSchema = jsonschema.MustCompileString("todo_update.json", todoUpdateSchema)
)

// CheckCreatePayload validates the shape of a raw create request body.
func CheckCreatePayload(raw []byte) error {
	return checkPayload(createSchema, raw)
}

// CheckUpdatePayload validates the shape of a raw update request body.
func CheckUpdatePayload(raw []byte) error {
	return checkPayload(updateSchema, raw)
}

func checkPayload(schema *jsonschema.Schema, raw []byte) error {
	if len(bytes.TrimSpace(raw)) == 0 {
		return NewValidationError("body", "field required")
	}

	var doc interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return NewValidationError("body", "invalid JSON: "+err.Error())
	}

	err := schema.Validate(doc)
	if err == nil {
		return nil
	}

	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return NewValidationError("body", err.Error())
	}

	var errs ValidationErrors
	collectSchemaErrors(&errs, ve)
	if len(errs) == 1 {
		return errs[0]
	}
	return errs
}

func collectSchemaErrors(errs *ValidationErrors, err *jsonschema.ValidationError) {
	if len(err.Causes) == 0 {
		*errs = append(*errs, NewValidationError(fieldFromPointer(err.InstanceLocation), err.Message))
		return
	}
	for _, cause := range err.Causes {
		collectSchemaErrors(errs, cause)
	}
}

func fieldFromPointer(ptr string) string {
	ptr = strings.TrimPrefix(ptr, "#")
	ptr = strings.TrimPrefix(ptr, "/")
	if ptr == "" {
		return "body"
	}
	return strings.ReplaceAll(ptr, "/", ".")
}

// IsValidationError reports whether err carries one or more validation
// failures.
func IsValidationError(err error) bool {
	var single *ValidationError
	var many ValidationErrors
	return errors.As(err, &single) || errors.As(err, &many)
}
