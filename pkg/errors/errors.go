package errors

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	CodeUnauthorized               = "UNAUTHORIZED"
	CodeNotFound                   = "NOT_FOUND"
	CodeBadRequest                 = "BAD_REQUEST"
	CodeAlreadyAtFinalCheckpoint   = "ALREADY_AT_FINAL_CHECKPOINT"
	CodeTrackingIDGenerationFailed = "TRACKING_ID_GENERATION_FAILED"
	CodeConflict                   = "CONFLICT"
	CodeMethodNotAllowed           = "METHOD_NOT_ALLOWED"
	CodeUpstreamProviderFailure    = "UPSTREAM_PROVIDER_FAILURE"
	CodeRateLimited                = "RATE_LIMITED"
	CodeInternal                   = "INTERNAL"
)

var (
	ErrUnauthorized = errors.New("unauthorized access")
	ErrInvalidInput = errors.New("invalid input data")
)

type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}

	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewAppError(code, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func NotFound(message string, err error) *AppError {
	return NewAppError(CodeNotFound, message, err)
}

func BadRequest(message string, err error) *AppError {
	return NewAppError(CodeBadRequest, message, err)
}

func Internal(message string, err error) *AppError {
	return NewAppError(CodeInternal, message, err)
}

// HTTPStatus maps an error code to the status returned to API callers.
func HTTPStatus(code string) int {
	switch code {
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeNotFound:
		return http.StatusNotFound
	case CodeBadRequest, CodeAlreadyAtFinalCheckpoint:
		return http.StatusBadRequest
	case CodeConflict:
		return http.StatusConflict
	case CodeMethodNotAllowed:
		return http.StatusMethodNotAllowed
	case CodeUpstreamProviderFailure:
		return http.StatusBadGateway
	case CodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// As extracts the AppError from err. Anything else is reported as an internal error.
func As(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal("Internal server error", err)
}
