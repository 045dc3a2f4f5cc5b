package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for common scenarios.
var (
	ErrInvalidCredentials = New("INVALID_CREDENTIALS", http.StatusUnauthorized, "invalid email or password")
	ErrInactiveAccount    = New("ACCOUNT_INACTIVE", http.StatusForbidden, "account is inactive")
	ErrNotFound           = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrForbidden          = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrUnauthorized       = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrConflict           = New("CONFLICT", http.StatusConflict, "conflict")
	ErrValidation         = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal           = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrCacheMiss          = New("CACHE_MISS", http.StatusNotFound, "cache miss")

	ErrChecklistIncomplete = New("CHECKLIST_INCOMPLETE", http.StatusUnprocessableEntity, "required documents are missing")
	ErrConflictingRule     = New("CONFLICTING_RULE", http.StatusInternalServerError, "conflicting checklist rules configured")
	ErrSubmissionLocked    = New("SUBMISSION_LOCKED", http.StatusConflict, "submission is locked")
	ErrInvalidDocType      = New("INVALID_DOC_TYPE", http.StatusBadRequest, "invalid document type")
	ErrInvalidTransition   = New("INVALID_TRANSITION", http.StatusConflict, "invalid status transition")
	ErrStorageUnavailable  = New("STORAGE_UNAVAILABLE", http.StatusServiceUnavailable, "document storage is unavailable, try again later")
)

// ChecklistIncomplete builds the finalize rejection naming the missing
// required document types.
func ChecklistIncomplete(missing []string) *Error {
	return New(
		ErrChecklistIncomplete.Code,
		ErrChecklistIncomplete.Status,
		fmt.Sprintf("required documents are missing: %s", strings.Join(missing, ", ")),
	)
}

// ConflictingRule reports an equal-specificity rule disagreement for a
// document type. This is a configuration integrity failure, never resolved
// silently.
func ConflictingRule(docType string) *Error {
	return New(
		ErrConflictingRule.Code,
		ErrConflictingRule.Status,
		fmt.Sprintf("conflicting checklist rules for document type %q", docType),
	)
}

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

// Is reports whether err carries the same error code as target.
func Is(err error, target *Error) bool {
	if err == nil || target == nil {
		return false
	}
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Code == target.Code
}
