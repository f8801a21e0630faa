package errorutil

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/grant-service/internal/domain"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError("VALIDATION_FAILED", message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewUnauthorized(message string) error {
	return NewDomainError("UNAUTHORIZED", message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError("FORBIDDEN", message, http.StatusForbidden, nil)
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError("CONFLICT", message, http.StatusConflict, details)
}

// NewInvalidActor reports an actor-scoped operation without an actor.
func NewInvalidActor() error {
	return &DomainError{Code: "INVALID_ACTOR", Message: "no current actor", HTTPStatus: http.StatusUnauthorized, Err: domain.ErrNoActor}
}

// NewMissingIdentifier reports an empty required identifier.
func NewMissingIdentifier(field string) error {
	return &DomainError{
		Code:       "MISSING_IDENTIFIER",
		Message:    fmt.Sprintf("%s is required", field),
		HTTPStatus: http.StatusBadRequest,
		Details:    map[string]any{"field": field},
		Err:        domain.ErrMissingIdentifier,
	}
}

// NewInvalidTransition reports a stage action called out of order.
func NewInvalidTransition(err error, details map[string]any) error {
	return &DomainError{
		Code:       "INVALID_TRANSITION",
		Message:    "invalid status transition",
		HTTPStatus: http.StatusConflict,
		Details:    details,
		Err:        err,
	}
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}

	var mapped error
	switch {
	case errors.Is(err, domain.ErrApplicationNotFound):
		mapped = NewNotFound("application", nil)
	case errors.Is(err, domain.ErrUserNotFound), errors.Is(err, pgx.ErrNoRows):
		mapped = NewNotFound("resource", nil)
	case errors.Is(err, domain.ErrNoActor):
		mapped = NewInvalidActor()
	case errors.Is(err, domain.ErrMissingIdentifier):
		mapped = NewMissingIdentifier("identifier")
	case errors.Is(err, domain.ErrInvalidTransition):
		mapped = NewInvalidTransition(err, nil)
	case errors.Is(err, domain.ErrBusy):
		mapped = NewConflict(err.Error(), nil)
	case errors.Is(err, domain.ErrInvalidRole),
		errors.Is(err, domain.ErrInvalidDecision),
		errors.Is(err, domain.ErrInvalidStatus),
		errors.Is(err, domain.ErrEmptyComment):
		mapped = &DomainError{Code: "VALIDATION_FAILED", Message: err.Error(), HTTPStatus: http.StatusBadRequest, Err: err}
	default:
		mapped = NewInternalError(err)
	}
	if de, ok := mapped.(*DomainError); ok {
		return de
	}
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// MapError converts err to a DomainError, preserving nil.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	return ToDomainError(err)
}
