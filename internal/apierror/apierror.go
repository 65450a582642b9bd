package apierror

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"
)

type ErrorCode string

const (
	ErrNotFound        ErrorCode = "NOT_FOUND"
	ErrConflict        ErrorCode = "CONFLICT"
	ErrBadRequest      ErrorCode = "BAD_REQUEST"
	ErrValidation      ErrorCode = "VALIDATION_ERROR"
	ErrRateUnavailable ErrorCode = "RATE_UNAVAILABLE"
	ErrRateExpired     ErrorCode = "RATE_EXPIRED"
	ErrTransient       ErrorCode = "TRANSIENT_PROVIDER_ERROR"
	ErrFinalProvider   ErrorCode = "FINAL_PROVIDER_ERROR"
	ErrStorage         ErrorCode = "STORAGE_ERROR"
	ErrInternalServer  ErrorCode = "INTERNAL_SERVER_ERROR"
)

type APIError struct {
	Code    ErrorCode   `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func (e APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewAPIError(code ErrorCode, message string, details interface{}) APIError {
	logrus.Error(details)
	return APIError{
		Code:    code,
		Message: message,
		Details: details,
	}
}

// IsRetryable reports whether the error is worth retrying from the
// caller's perspective. Only transient provider and storage failures
// qualify; validation, rate, final-provider and not-found errors are
// settled on the first attempt.
func IsRetryable(err error) bool {
	var apiErr APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == ErrTransient || apiErr.Code == ErrStorage
	}
	return false
}

// CodeOf extracts the error code, defaulting to INTERNAL_SERVER_ERROR for
// unclassified errors.
func CodeOf(err error) ErrorCode {
	var apiErr APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return ErrInternalServer
}

func MapErrorToHTTPStatus(err error) int {
	var apiErr APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case ErrNotFound:
			return http.StatusNotFound
		case ErrConflict:
			return http.StatusConflict
		case ErrBadRequest, ErrValidation, ErrRateUnavailable, ErrRateExpired:
			return http.StatusBadRequest
		case ErrFinalProvider:
			return http.StatusUnprocessableEntity
		case ErrTransient, ErrStorage, ErrInternalServer:
			return http.StatusInternalServerError
		default:
			return http.StatusInternalServerError
		}
	}
	return http.StatusInternalServerError
}
