package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/jonathan/resume-builder/internal/fetch"
	"github.com/jonathan/resume-builder/internal/jdparser"
	"github.com/jonathan/resume-builder/internal/recalc"
	"github.com/jonathan/resume-builder/internal/schemas"
)

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ErrSessionNotFound indicates the live scoring session does not exist or was closed
type ErrSessionNotFound struct {
	SessionID string
}

func (e *ErrSessionNotFound) Error() string {
	return fmt.Sprintf("session not found: %s", e.SessionID)
}

// ErrTooManySessions indicates the server is at its live session limit
type ErrTooManySessions struct {
	Limit int
}

func (e *ErrTooManySessions) Error() string {
	return fmt.Sprintf("too many live sessions (limit %d)", e.Limit)
}

// ErrReportNotFound indicates a stored report was not found for the caller
type ErrReportNotFound struct {
	ReportID uuid.UUID
}

func (e *ErrReportNotFound) Error() string {
	return fmt.Sprintf("report not found: %s", e.ReportID)
}

// ErrHistoryUnavailable indicates report history is not configured on this server
type ErrHistoryUnavailable struct{}

func (e *ErrHistoryUnavailable) Error() string {
	return "report history is not configured"
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		validationErr *ErrValidation
		schemaErr     *schemas.ValidationError
		inputErr      *jdparser.InputError
		sessionErr    *ErrSessionNotFound
		reportErr     *ErrReportNotFound
		tooManyErr    *ErrTooManySessions
		historyErr    *ErrHistoryUnavailable
		fetchErr      *fetch.Error
	)

	switch {
	case errors.As(err, &validationErr), errors.As(err, &schemaErr), errors.As(err, &inputErr):
		return http.StatusBadRequest
	case errors.As(err, &sessionErr), errors.As(err, &reportErr), errors.Is(err, recalc.ErrStopped):
		return http.StatusNotFound
	case errors.As(err, &tooManyErr), errors.As(err, &historyErr):
		return http.StatusServiceUnavailable
	case errors.As(err, &fetchErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
