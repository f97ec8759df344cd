package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeNotFound            Code = "NOT_FOUND"
	CodeInvalidPath         Code = "INVALID_PATH"
	CodeInvalidRequest      Code = "INVALID_REQUEST"
	CodeSourceNotFound      Code = "SOURCE_NOT_FOUND"
	CodeNotSupported        Code = "NOT_SUPPORTED"
	CodeUnauthorized        Code = "UNAUTHORIZED"
	CodeInternalServerError Code = "INTERNAL_SERVER_ERROR"
)

var statusByCode = map[Code]int{
	CodeNotFound:            http.StatusNotFound,
	CodeInvalidPath:         http.StatusBadRequest,
	CodeInvalidRequest:      http.StatusBadRequest,
	CodeSourceNotFound:      http.StatusNotFound,
	CodeNotSupported:        http.StatusBadRequest,
	CodeUnauthorized:        http.StatusUnauthorized,
	CodeInternalServerError: http.StatusInternalServerError,
}

// Error is the error type shared by the store, the services and the HTTP layer.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error carrying the same code, so callers can write
// errors.Is(err, apperror.ErrNotFound).
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

func (e *Error) Status() int {
	if status, ok := statusByCode[e.Code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// Sentinels for errors.Is comparisons.
var (
	ErrNotFound       = &Error{Code: CodeNotFound, Message: "not found"}
	ErrInvalidPath    = &Error{Code: CodeInvalidPath, Message: "invalid path"}
	ErrInvalidRequest = &Error{Code: CodeInvalidRequest, Message: "invalid request"}
	ErrSourceNotFound = &Error{Code: CodeSourceNotFound, Message: "source not found"}
	ErrNotSupported   = &Error{Code: CodeNotSupported, Message: "not supported"}
	ErrInternal       = &Error{Code: CodeInternalServerError, Message: "internal server error"}
)

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Wrap(code Code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

func NotFound(format string, args ...interface{}) *Error {
	return New(CodeNotFound, fmt.Sprintf(format, args...))
}

func InvalidRequest(format string, args ...interface{}) *Error {
	return New(CodeInvalidRequest, fmt.Sprintf(format, args...))
}

func NotSupported(format string, args ...interface{}) *Error {
	return New(CodeNotSupported, fmt.Sprintf(format, args...))
}

// From converts any error into an *Error, defaulting to INTERNAL_SERVER_ERROR.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Wrap(CodeInternalServerError, "internal server error", err)
}
