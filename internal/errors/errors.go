package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a nextmeal error code.
type ErrorCode string

const (
	ErrInvalidRequest      ErrorCode = "INVALID_REQUEST"      // 400
	ErrFileNotFound        ErrorCode = "FILE_NOT_FOUND"       // 404
	ErrInferenceFailure    ErrorCode = "INFERENCE_FAILURE"    // 500
	ErrInternal            ErrorCode = "INTERNAL"             // 500
	ErrArtifactUnavailable ErrorCode = "ARTIFACT_UNAVAILABLE" // 503
)

// NextMealError represents a structured error with code, status, and details.
type NextMealError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *NextMealError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *NextMealError {
	return &NextMealError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewFileNotFound creates a 404 error for a missing artifact file.
func NewFileNotFound(path string) *NextMealError {
	return &NextMealError{
		Code:    ErrFileNotFound,
		Status:  404,
		Message: fmt.Sprintf("file not found: %s", path),
		Details: map[string]any{"path": path},
	}
}

// NewArtifactUnavailable creates a 503 error when the model or scaler could not be loaded.
// The prediction workflow stays disabled for the rest of the process lifetime.
func NewArtifactUnavailable(cause error) *NextMealError {
	msg := "prediction model is unavailable"
	details := map[string]any{}
	if cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, cause)
		details["cause"] = cause.Error()
	}
	return &NextMealError{
		Code:    ErrArtifactUnavailable,
		Status:  503,
		Message: msg,
		Details: details,
	}
}

// NewInferenceFailure creates a 500 error for a failed scaling or model invocation.
// The cause text is part of the user-facing message.
func NewInferenceFailure(cause error) *NextMealError {
	msg := "prediction failed"
	if cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, cause)
	}
	return &NextMealError{
		Code:    ErrInferenceFailure,
		Status:  500,
		Message: msg,
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
// The message stays generic; the cause is kept in Details for logging.
func NewInternal(err error) *NextMealError {
	details := map[string]any{}
	if err != nil {
		details["internal_error"] = err.Error()
	}
	return &NextMealError{
		Code:    ErrInternal,
		Status:  500,
		Message: "an internal error occurred",
		Details: details,
	}
}

// Is checks if an error (or any error it wraps) is a NextMealError with the given code.
func Is(err error, code ErrorCode) bool {
	var nErr *NextMealError
	if stderrors.As(err, &nErr) {
		return nErr.Code == code
	}
	return false
}
