package schemas

import (
	"fmt"
	"strings"
)

// ValidationError lists every field of a document that its schema rejected.
type ValidationError struct {
	Schema string
	Errors []FieldError
}

// FieldError is one rejected field. Field is a dotted path, or "(root)".
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return fmt.Sprintf("%s rejected %d field(s): %s", e.Schema, len(e.Errors), strings.Join(parts, "; "))
}

// Fields returns the rejected field paths in report order.
func (e *ValidationError) Fields() []string {
	fields := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		fields[i] = fe.Field
	}
	return fields
}

// SchemaError reports a schema that could not be loaded or a document that is not JSON.
type SchemaError struct {
	Schema string
	Reason string
	Err    error
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Schema, e.Reason, e.Err)
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}
