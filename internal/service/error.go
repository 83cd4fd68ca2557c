package service

import (
	"errors"

	"github.com/Behyna/wa-inbox/internal/constants"
)

var (
	ErrMessageNotFound      = errors.New("message not found")
	ErrConversationNotFound = errors.New("conversation not found")
	ErrPairMismatch         = errors.New("provider message id belongs to another conversation")
	ErrProviderIDTaken      = errors.New("provider message id already attached to another message")
	ErrProviderIDImmutable  = errors.New("message already has a different provider message id")
	ErrTransitionNotAllowed = errors.New("conversation status transition not allowed")
	ErrNoCredentials        = errors.New("no provider credentials for business number")
)

type Error struct {
	Code  string
	Cause error
}

func NewServiceError(code string, cause error) error {
	return Error{Code: code, Cause: cause}
}

func (e Error) Error() string {
	return e.Code + ": " + e.Cause.Error()
}

func (e Error) Unwrap() error {
	return e.Cause
}

// ErrorCode returns the code carried by err, or INTERNAL_ERROR when err is not a service error.
func ErrorCode(err error) string {
	var serviceErr Error
	if errors.As(err, &serviceErr) {
		return serviceErr.Code
	}
	return constants.ErrCodeInternalError
}

func validationError(cause error) error {
	return NewServiceError(constants.ErrCodeValidation, cause)
}

func storeError(cause error) error {
	return NewServiceError(constants.ErrCodeStoreUnavailable, cause)
}
