package ats

import "fmt"

// PolicyError represents an invalid scoring policy.
type PolicyError struct {
	Field   string
	Message string
	Cause   error
}

func (e *PolicyError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("invalid policy %s: %s: %v", e.Field, e.Message, e.Cause)
	}
	return fmt.Sprintf("invalid policy %s: %s", e.Field, e.Message)
}

func (e *PolicyError) Unwrap() error {
	return e.Cause
}
