package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain error so transport layers can map it to a
// response without inspecting message text.
type Code string

const (
	CodeValidation   Code = "validation_failed"
	CodeNotFound     Code = "not_found"
	CodeUnauthorized Code = "unauthorized"
	CodeBadRequest   Code = "bad_request"
	CodeConflict     Code = "conflict"
	CodeUnavailable  Code = "unavailable"
	CodeInternal     Code = "internal"
)

// Error is the coded error every service operation returns on failure.
// Fields is populated only for CodeValidation: field name mapped to the
// ordered violation kinds, suitable for per-field inline display.
type Error struct {
	Code    Code
	Message string
	Fields  map[string][]string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New creates a coded error with no underlying cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, cause: err}
}

// NewValidation creates a CodeValidation error carrying the per-field
// violation payload.
func NewValidation(message string, fields map[string][]string) *Error {
	return &Error{Code: CodeValidation, Message: message, Fields: fields}
}

// HasCode reports whether err is (or wraps) a domain error with the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf returns the code of err, or CodeInternal when err carries none.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// FieldsOf returns the validation field payload of err, or nil.
func FieldsOf(err error) map[string][]string {
	var de *Error
	if errors.As(err, &de) {
		return de.Fields
	}
	return nil
}
