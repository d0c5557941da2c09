package core

import "errors"

// Error codes for domain errors.
const (
	ErrCodeAuthFailed           = "auth_failed"
	ErrCodeAlreadyAuthenticated = "already_authenticated"
	ErrCodeBadRequest           = "bad_request"
)

var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrBadRequest       = errors.New("bad request")
)

// CoreError wraps a code and human-readable message. It is only ever
// delivered to the connection that caused it, never broadcast.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}

func coreError(code, msg string) *CoreError {
	return &CoreError{Code: code, Message: msg}
}
