// Package schemas validates resume documents and scoring policies against JSON Schemas.
package schemas

import (
	"sync"

	schemafiles "github.com/jonathan/resume-builder/schemas"
	"github.com/xeipuuv/gojsonschema"
)

var (
	compiled   = make(map[string]*gojsonschema.Schema)
	compiledMu sync.Mutex
)

// ValidateDocument validates raw resume JSON against the embedded resume document schema.
func ValidateDocument(data []byte) error {
	return validateEmbedded(schemafiles.ResumeDocument, data)
}

// ValidatePolicy validates raw scoring-policy JSON against the embedded policy schema.
func ValidatePolicy(data []byte) error {
	return validateEmbedded(schemafiles.Policy, data)
}

func validateEmbedded(name string, data []byte) error {
	schema, err := embeddedSchema(name)
	if err != nil {
		return err
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return &SchemaError{Schema: name, Reason: "document is not valid JSON", Err: err}
	}

	return resultError(name, result)
}

// embeddedSchema compiles an embedded schema once and caches it.
func embeddedSchema(name string) (*gojsonschema.Schema, error) {
	compiledMu.Lock()
	defer compiledMu.Unlock()

	if schema, ok := compiled[name]; ok {
		return schema, nil
	}

	raw, err := schemafiles.Files.ReadFile(name)
	if err != nil {
		return nil, &SchemaError{Schema: name, Reason: "embedded schema not found", Err: err}
	}

	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, &SchemaError{Schema: name, Reason: "failed to compile schema", Err: err}
	}

	compiled[name] = schema
	return schema, nil
}

// resultError converts a failed result into a ValidationError, or nil when valid.
func resultError(name string, result *gojsonschema.Result) error {
	if result.Valid() {
		return nil
	}

	validationErr := &ValidationError{
		Schema: name,
		Errors: make([]FieldError, 0, len(result.Errors())),
	}

	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		validationErr.Errors = append(validationErr.Errors, FieldError{
			Field:   field,
			Message: desc.Description(),
		})
	}

	return validationErr
}
