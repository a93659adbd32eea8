// Package apperr defines the structured errors surfaced to API callers.
// Every failure carries a stable machine-readable code; anything without a
// code is treated as internal and must not leak details to the client.
package apperr

import "fmt"

type Code string

const (
	CodeInvalidRequest Code = "INVALID_REQUEST"
	CodeNotFound       Code = "NOT_FOUND"
	CodeRateLimited    Code = "RATE_LIMITED"
	CodeUnauthorized   Code = "UNAUTHORIZED"
	CodeInternal       Code = "INTERNAL"
)

type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Cause   error  `json:"-"`
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

func Wrap(code Code, message string, cause error) error {
	return &Error{Code: code, Message: message, Cause: cause}
}

func InvalidRequest(msg string) error { return New(CodeInvalidRequest, msg) }

func NotFound(msg string) error { return New(CodeNotFound, msg) }

func RateLimited(msg string) error { return New(CodeRateLimited, msg) }

func Unauthorized(msg string) error { return New(CodeUnauthorized, msg) }

func Internal(msg string) error { return New(CodeInternal, msg) }
