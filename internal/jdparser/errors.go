package jdparser

import "fmt"

// Stages of LLM keyword extraction reported by ExtractionError.
const (
	StagePrompt   = "prompt"
	StageGenerate = "generate"
	StageDecode   = "decode"
)

// ExtractionError is an LLM extraction failure. Parse recovers from it by falling
// back to local extraction.
type ExtractionError struct {
	Stage string
	Model string
	Err   error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("keyword extraction with %s failed at %s: %v", e.Model, e.Stage, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// InputError is a job description that cannot be parsed at all.
type InputError struct {
	Message string
}

func (e *InputError) Error() string {
	return "invalid job description: " + e.Message
}
