package types

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// ScoreRequest is the body of a one-shot scoring call.
type ScoreRequest struct {
	Resume         ResumeDocument `json:"resume"`
	JobKeywords    []string       `json:"job_keywords,omitempty" validate:"max=200,dive,max=100"`
	JobDescription string         `json:"job_description,omitempty" validate:"max=50000"`
	ResumeID       string         `json:"resume_id,omitempty" validate:"omitempty,uuid"`
}

// KeywordsRequest asks for keyword extraction from a job description.
// Exactly one of JobDescription and JobURL must be set.
type KeywordsRequest struct {
	JobDescription string `json:"job_description,omitempty" validate:"required_without=JobURL,excluded_with=JobURL,max=50000"`
	JobURL         string `json:"job_url,omitempty" validate:"omitempty,url"`
	UseLLM         bool   `json:"use_llm,omitempty"`
	Limit          int    `json:"limit,omitempty" validate:"gte=0,lte=100"`
}

// RecalculateRequest feeds a new document revision into a live scoring session.
type RecalculateRequest struct {
	Resume      ResumeDocument `json:"resume"`
	JobKeywords []string       `json:"job_keywords,omitempty" validate:"max=200,dive,max=100"`
}

// SessionRequest opens a live scoring session. Keywords given here apply to every
// recalculation that does not carry its own.
type SessionRequest struct {
	JobKeywords    []string `json:"job_keywords,omitempty" validate:"max=200,dive,max=100"`
	JobDescription string   `json:"job_description,omitempty" validate:"max=50000"`
}

// SessionResponse describes a newly opened session.
type SessionResponse struct {
	ID          string   `json:"id"`
	JobKeywords []string `json:"job_keywords"`
}

// ScoreResponse is a scoring report plus the stored report ID when it was persisted.
type ScoreResponse struct {
	Report
	ReportID string `json:"reportId,omitempty"`
}

// KeywordsResponse is the result of keyword extraction.
type KeywordsResponse struct {
	Keywords []string `json:"keywords"`
	Source   string   `json:"source"`
}

// Validate validates the ScoreRequest using the validator.
func (r *ScoreRequest) Validate() error {
	return validate.Struct(r)
}

// Validate validates the KeywordsRequest using the validator.
func (r *KeywordsRequest) Validate() error {
	return validate.Struct(r)
}

// Validate validates the SessionRequest using the validator.
func (r *SessionRequest) Validate() error {
	return validate.Struct(r)
}

// Validate validates the RecalculateRequest using the validator.
func (r *RecalculateRequest) Validate() error {
	return validate.Struct(r)
}

var validate = validator.New()

// DescribeValidationError flattens validator errors into a single readable line.
func DescribeValidationError(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return err.Error()
	}
	fe := verrs[0]
	return fmt.Sprintf("%s failed on '%s'", fe.Namespace(), fe.Tag())
}
