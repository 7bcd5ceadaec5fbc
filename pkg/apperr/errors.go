// Package apperr provides the coded error type shared by the render pipeline.
//
// Every failure that crosses a component boundary is an *Error carrying a
// Code. Callers test the category with errors.Is against the exported
// sentinels or with CodeOf.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Code categorizes an error.
type Code string

const (
	// CodeConfiguration marks a missing or malformed asset. Fatal for one format.
	CodeConfiguration Code = "CONFIGURATION"
	// CodeMediaRead marks undecodable user media or unreadable settings.
	// Fatal for the whole request.
	CodeMediaRead Code = "MEDIA_READ"
	// CodeIO marks a failure writing output. Fatal for one output file.
	CodeIO Code = "IO"
	// CodeValidation marks request fields that failed typed parsing.
	CodeValidation Code = "VALIDATION"
	// CodeNotFound marks a missing resource requested by the caller.
	CodeNotFound Code = "NOT_FOUND"
	// CodeInternal is used for anything else.
	CodeInternal Code = "INTERNAL"
)

// Sentinels for errors.Is comparisons.
var (
	ErrConfiguration = &Error{Code: CodeConfiguration}
	ErrMediaRead     = &Error{Code: CodeMediaRead}
	ErrIO            = &Error{Code: CodeIO}
	ErrValidation    = &Error{Code: CodeValidation}
	ErrNotFound      = &Error{Code: CodeNotFound}
)

// Error is a categorized error.
type Error struct {
	// Code is the error category.
	Code Code
	// Op is the operation that failed (e.g. "render.assets").
	Op string
	// Message is a human-readable description.
	Message string
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	if e.Code != "" {
		b.WriteString("[")
		b.WriteString(string(e.Code))
		b.WriteString("] ")
	}
	b.WriteString(e.Message)
	if e.Err != nil {
		if e.Message != "" {
			b.WriteString(": ")
		}
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// New creates an error with the given code.
func New(code Code, op, message string) *Error {
	return &Error{Code: code, Op: op, Message: message}
}

// Wrap creates an error with the given code around err.
func Wrap(err error, code Code, op, message string) *Error {
	return &Error{Code: code, Op: op, Message: message, Err: err}
}

// Configuration returns a ConfigurationError.
func Configuration(op, format string, args ...any) *Error {
	return New(CodeConfiguration, op, fmt.Sprintf(format, args...))
}

// MediaRead wraps err as a MediaReadError.
func MediaRead(err error, op, format string, args ...any) *Error {
	return Wrap(err, CodeMediaRead, op, fmt.Sprintf(format, args...))
}

// IO wraps err as an IOError.
func IO(err error, op, format string, args ...any) *Error {
	return Wrap(err, CodeIO, op, fmt.Sprintf(format, args...))
}

// CodeOf returns the code of the first *Error in err's chain, or
// CodeInternal when there is none.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	// Types outside this package may still match a sentinel through Is.
	for _, s := range []*Error{ErrConfiguration, ErrMediaRead, ErrIO, ErrValidation, ErrNotFound} {
		if errors.Is(err, s) {
			return s.Code
		}
	}
	return CodeInternal
}

// HTTPStatus maps err to an HTTP status code.
func HTTPStatus(err error) int {
	switch CodeOf(err) {
	case CodeValidation:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeMediaRead, CodeConfiguration:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
