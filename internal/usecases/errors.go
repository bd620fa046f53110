package usecases

import "fmt"

type ErrorCode string

const (
	ErrorInvalidInput       ErrorCode = "INVALID_INPUT"
	ErrorInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	ErrorRateLimited        ErrorCode = "RATE_LIMITED"
	ErrorSendFailed         ErrorCode = "SEND_FAILED"
	ErrorInternal           ErrorCode = "INTERNAL_ERROR"
)

// Error is returned to the HTTP layer, which maps Code to a status.
type Error struct {
	Code   ErrorCode
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err == nil {
		return fmt.Sprintf("usecase: %s (%s)", e.Code, e.Reason)
	}
	return fmt.Sprintf("usecase: %s (%s): %v", e.Code, e.Reason, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func newError(code ErrorCode, reason string, err error) *Error {
	return &Error{Code: code, Reason: reason, Err: err}
}
