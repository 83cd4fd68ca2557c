package whatsapp

import (
	"errors"
	"net/http"
)

const (
	ErrCodeInvalidRequest = "INVALID_REQUEST"
	ErrCodeUnauthorized   = "UNAUTHORIZED"
	ErrCodeRateLimited    = "RATE_LIMITED"
	ErrCodeServerError    = "SERVER_ERROR"
	ErrCodeTimeout        = "TIMEOUT"
	ErrCodeNetworkError   = "NETWORK_ERROR"
)

var (
	ErrInvalidRequest = errors.New(ErrCodeInvalidRequest)
	ErrUnauthorized   = errors.New(ErrCodeUnauthorized)
	ErrRateLimited    = errors.New(ErrCodeRateLimited)
	ErrServerError    = errors.New(ErrCodeServerError)
	ErrTimeout        = errors.New(ErrCodeTimeout)
	ErrNetworkError   = errors.New(ErrCodeNetworkError)
)

var statusErrorMap = map[int]error{
	http.StatusBadRequest:      ErrInvalidRequest,
	http.StatusNotFound:        ErrInvalidRequest,
	http.StatusUnauthorized:    ErrUnauthorized,
	http.StatusForbidden:       ErrUnauthorized,
	http.StatusTooManyRequests: ErrRateLimited,
}

func MapStatusToError(statusCode int) error {
	if err, exists := statusErrorMap[statusCode]; exists {
		return err
	}

	return ErrServerError
}

// IsRetryable reports whether sending again may succeed.
func IsRetryable(err error) bool {
	return !errors.Is(err, ErrInvalidRequest) && !errors.Is(err, ErrUnauthorized)
}
