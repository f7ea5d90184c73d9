package widget

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel kinds. Match them with errors.Is; every *Error returned by the
// service matches exactly one.
var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
	ErrInternal   = errors.New("internal error")
)

// Error is the only error type callers of the widget service ever see.
// It carries an HTTP-style code and a caller-safe message. The store error
// that caused an internal failure is logged, not wrapped.
type Error struct {
	Code    int
	Message string
	kind    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d: %s", e.Code, e.Message)
}

// Is lets errors.Is(err, ErrNotFound) and friends work on *Error.
func (e *Error) Is(target error) bool {
	return e.kind == target
}

func Validation(format string, args ...any) *Error {
	return &Error{Code: http.StatusBadRequest, Message: fmt.Sprintf(format, args...), kind: ErrValidation}
}

func NotFound(id string) *Error {
	return &Error{Code: http.StatusNotFound, Message: fmt.Sprintf("Widget with ID '%s' not found", id), kind: ErrNotFound}
}

func Internal(message string) *Error {
	return &Error{Code: http.StatusInternalServerError, Message: message, kind: ErrInternal}
}

// StatusCode maps any error onto the HTTP status of its kind. Errors that are
// not *Error are treated as internal.
func StatusCode(err error) int {
	var we *Error
	if errors.As(err, &we) {
		return we.Code
	}
	return http.StatusInternalServerError
}
