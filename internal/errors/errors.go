package errors

import (
	"fmt"
	"net/http"

	"github.com/cockroachdb/errors"
)

// Common error types that can be used across the application
var (
	ErrNotFound         = new(ErrCodeNotFound, "resource not found")
	ErrValidation       = new(ErrCodeValidation, "validation error")
	ErrInvalidPlan      = new(ErrCodeInvalidPlan, "invalid plan")
	ErrInvalidSignature = new(ErrCodeInvalidSignature, "invalid webhook signature")
	ErrMalformedEvent   = new(ErrCodeMalformedEvent, "malformed webhook event")
	ErrGateway          = new(ErrCodeGateway, "payment gateway error")
	ErrMisconfiguration = new(ErrCodeMisconfiguration, "missing required configuration")
	ErrMethodNotAllowed = new(ErrCodeMethodNotAllowed, "method not allowed")
	ErrConflict         = new(ErrCodeConflict, "conflict")
	ErrSystem           = new(ErrCodeSystemError, "system error")
	// maps errors to http status codes, first match wins
	statusCodes = []struct {
		err    error
		status int
	}{
		{ErrMisconfiguration, http.StatusInternalServerError},
		{ErrSystem, http.StatusInternalServerError},
		{ErrMethodNotAllowed, http.StatusMethodNotAllowed},
		{ErrConflict, http.StatusConflict},
		{ErrInvalidSignature, http.StatusBadRequest},
		{ErrMalformedEvent, http.StatusBadRequest},
		{ErrValidation, http.StatusBadRequest},
		{ErrInvalidPlan, http.StatusBadRequest},
		{ErrGateway, http.StatusBadRequest},
		{ErrNotFound, http.StatusNotFound},
	}
)

const (
	ErrCodeSystemError      = "system_error"
	ErrCodeNotFound         = "not_found"
	ErrCodeValidation       = "validation_error"
	ErrCodeInvalidPlan      = "invalid_plan"
	ErrCodeInvalidSignature = "invalid_signature"
	ErrCodeMalformedEvent   = "malformed_event"
	ErrCodeGateway          = "gateway_error"
	ErrCodeMisconfiguration = "misconfiguration"
	ErrCodeMethodNotAllowed = "method_not_allowed"
	ErrCodeConflict         = "conflict"
)

// InternalError represents a domain error
type InternalError struct {
	Code    string // Machine-readable error code
	Message string // Human-readable error message
	Op      string // Logical operation name
	Err     error  // Underlying error
}

func (e *InternalError) Error() string {
	if e.Err == nil {
		return e.DisplayError()
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Err.Error())
}

func (e *InternalError) DisplayError() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *InternalError) Unwrap() error {
	return e.Err
}

// Is implements error matching for wrapped errors
func (e *InternalError) Is(target error) bool {
	if target == nil {
		return false
	}

	t, ok := target.(*InternalError)
	if !ok {
		return errors.Is(e.Err, target)
	}

	return e.Code == t.Code
}

// New creates a new InternalError
func new(code string, message string) *InternalError {
	return &InternalError{
		Code:    code,
		Message: message,
	}
}

func As(err error, target any) bool {
	return errors.As(err, target)
}

func Is(err, reference error) bool {
	return errors.Is(err, reference)
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation checks if an error is a validation error
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsInvalidPlan checks if an error is an invalid plan error
func IsInvalidPlan(err error) bool {
	return errors.Is(err, ErrInvalidPlan)
}

// IsInvalidSignature checks if an error is a webhook signature error
func IsInvalidSignature(err error) bool {
	return errors.Is(err, ErrInvalidSignature)
}

// IsMalformedEvent checks if an error is a malformed webhook event error
func IsMalformedEvent(err error) bool {
	return errors.Is(err, ErrMalformedEvent)
}

// IsGateway checks if an error came from the payment gateway
func IsGateway(err error) bool {
	return errors.Is(err, ErrGateway)
}

// IsConflict checks if an error is a conflict error
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsMisconfiguration checks if an error is a missing configuration error
func IsMisconfiguration(err error) bool {
	return errors.Is(err, ErrMisconfiguration)
}

func HTTPStatusFromErr(err error) int {
	for _, sc := range statusCodes {
		if errors.Is(err, sc.err) {
			return sc.status
		}
	}
	return http.StatusInternalServerError
}
