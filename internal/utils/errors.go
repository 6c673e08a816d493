package utils

import (
	"errors"
	"net/http"
)

// Domain-level errors used by the service layer to provide
// fine-grained failure reasons.
var (
	ErrPropertyNotFound       = errors.New("property_not_found")
	ErrViewingRequestNotFound = errors.New("viewing_request_not_found")

	// Uniqueness conflicts surfaced by database constraints.
	ErrViewingRequestExists = errors.New("viewing_request_exists")
	ErrPaymentExists        = errors.New("payment_exists")

	// For concurrency conflicts on versioned rows.
	ErrRowVersionConflict = errors.New("row_version_conflict")

	// For external service failures (e.g., Stripe, SendGrid).
	ErrExternalServiceFailure = errors.New("external_service_failure")
)

// AppError is the structured error the service layer hands to controllers.
type AppError struct {
	StatusCode int
	Code       string
	Message    string
	Err        error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError builds an AppError with the given status, code and public message.
func NewAppError(status int, code, message string, err error) *AppError {
	return &AppError{StatusCode: status, Code: code, Message: message, Err: err}
}

// HandleAppError centralizes responding to AppErrors.
func HandleAppError(w http.ResponseWriter, err error) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		RespondErrorWithCode(w, appErr.StatusCode, appErr.Code, appErr.Message, nil, appErr.Err)
	} else {
		RespondErrorWithCode(w, http.StatusInternalServerError, ErrCodeInternal, "An unexpected error occurred", nil, err)
	}
}
