// Package schemas holds the JSON Schemas for resume documents and scoring policies.
package schemas

import "embed"

// Files contains every *.schema.json in this directory.
//
//go:embed *.schema.json
var Files embed.FS

// Schema file names.
const (
	ResumeDocument = "resume_document.schema.json"
	Policy         = "policy.schema.json"
)
