package constants

import "net/http"

const (
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeConflict           = "CONFLICT"
	ErrCodeStoreUnavailable   = "STORE_UNAVAILABLE"
	ErrCodeInvalidRequestBody = "INVALID_REQUEST_BODY"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeProviderError      = "PROVIDER_ERROR"
	ErrCodeInternalError      = "INTERNAL_ERROR"
)

const (
	ErrMsgValidation         = "request validation failed"
	ErrMsgNotFound           = "resource not found"
	ErrMsgConflict           = "request conflicts with stored state"
	ErrMsgStoreUnavailable   = "store temporarily unavailable"
	ErrMsgInvalidRequestBody = "failed to parse request body"
	ErrMsgUnauthorized       = "invalid or missing API key"
	ErrMsgProviderError      = "messaging provider rejected the request"
	ErrMsgInternalError      = "Internal server error"
)

var errorMessages = map[string]string{
	ErrCodeValidation:         ErrMsgValidation,
	ErrCodeNotFound:           ErrMsgNotFound,
	ErrCodeConflict:           ErrMsgConflict,
	ErrCodeStoreUnavailable:   ErrMsgStoreUnavailable,
	ErrCodeInvalidRequestBody: ErrMsgInvalidRequestBody,
	ErrCodeUnauthorized:       ErrMsgUnauthorized,
	ErrCodeProviderError:      ErrMsgProviderError,
	ErrCodeInternalError:      ErrMsgInternalError,
}

func GetErrorMessage(code string) string {
	if msg, exists := errorMessages[code]; exists {
		return msg
	}
	return ErrMsgInternalError
}

func GetHTTPStatus(code string) int {
	switch code {
	case ErrCodeValidation, ErrCodeInvalidRequestBody:
		return http.StatusBadRequest
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeConflict:
		return http.StatusConflict
	case ErrCodeProviderError:
		return http.StatusBadGateway
	case ErrCodeStoreUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
