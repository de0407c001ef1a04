package util

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes exposed to callers of the session and dispatcher surfaces.
const (
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeUsernameTaken      = "USERNAME_TAKEN"
	CodeDuplicateUsername  = "DUPLICATE_USERNAME"
	CodeNotFound           = "NOT_FOUND"
	CodeUnauthenticated    = "UNAUTHENTICATED"
	CodeUnsupportedRoute   = "UNSUPPORTED_ROUTE"
	CodeValidationFailed   = "VALIDATION_FAILED"
	CodeInternal           = "INTERNAL_ERROR"
)

// Sentinels for errors.Is. Detailed errors built by the constructors below
// match the sentinel carrying the same code.
var (
	ErrInvalidCredentials = NewDomainError(CodeInvalidCredentials, "invalid credentials", http.StatusUnauthorized, nil)
	ErrUsernameTaken      = NewDomainError(CodeUsernameTaken, "username already exists", http.StatusConflict, nil)
	ErrDuplicateUsername  = NewDomainError(CodeDuplicateUsername, "duplicate username", http.StatusConflict, nil)
	ErrNotFound           = NewDomainError(CodeNotFound, "not found", http.StatusNotFound, nil)
	ErrUnauthenticated    = NewDomainError(CodeUnauthenticated, "not authenticated", http.StatusUnauthorized, nil)
	ErrUnsupportedRoute   = NewDomainError(CodeUnsupportedRoute, "unsupported route", http.StatusMethodNotAllowed, nil)
	ErrValidationFailed   = NewDomainError(CodeValidationFailed, "validation failed", http.StatusBadRequest, nil)
)

// DomainError standardizes application errors.
type DomainError struct {
	Code    string
	Message string
	Status  int
	Details map[string]any
	Err     error
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

// Is reports whether target is a DomainError with the same code.
func (e *DomainError) Is(target error) bool {
	var other *DomainError
	if !errors.As(target, &other) {
		return false
	}
	return other.Code == e.Code
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, Status: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidationFailed, message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Status:  http.StatusNotFound,
		Details: details,
	}
}

func NewUnsupportedRoute(method, path string) error {
	return NewDomainError(CodeUnsupportedRoute,
		fmt.Sprintf("unsupported method %s for %s", method, path),
		http.StatusMethodNotAllowed,
		map[string]any{"method": method, "path": path})
}

func NewDuplicateUsername(username string) error {
	return NewDomainError(CodeDuplicateUsername, "duplicate username", http.StatusConflict,
		map[string]any{"username": username})
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:    CodeInternal,
		Message: "internal error",
		Status:  http.StatusInternalServerError,
		Err:     err,
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
	return &DomainError{
		Code:    CodeInternal,
		Message: "internal error",
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

// CodeOf returns the code of err, or INTERNAL_ERROR for non-domain errors.
func CodeOf(err error) string {
	if err == nil {
		return ""
	}
	return ToDomainError(err).Code
}
