// Package apperr defines application-layer errors that carry their HTTP status.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is an application-layer error that can be mapped to an HTTP response.
type Error struct {
	Status  int
	Code    string
	Message string
	Fields  map[string]string // per-field validation messages
	Err     error             // underlying cause, if any
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Message
	if msg == "" {
		msg = e.Code
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Validation returns a 400 error with optional per-field messages.
func Validation(msg string, fields map[string]string) *Error {
	return &Error{Status: http.StatusBadRequest, Code: "VALIDATION", Message: msg, Fields: fields}
}

// Permission returns a 403 error.
func Permission(msg string) *Error {
	return &Error{Status: http.StatusForbidden, Code: "FORBIDDEN", Message: msg}
}

// NotFound returns a 404 error.
func NotFound(msg string) *Error {
	return &Error{Status: http.StatusNotFound, Code: "NOT_FOUND", Message: msg}
}

// Conflict returns a 409 error, used for actions not permitted in the target's current state.
func Conflict(msg string) *Error {
	return &Error{Status: http.StatusConflict, Code: "CONFLICT", Message: msg}
}

// Collaborator returns a 502 error for failures of an external service
// (mail transport, OAuth provider, storage).
func Collaborator(msg string, err error) *Error {
	return &Error{Status: http.StatusBadGateway, Code: "UPSTREAM", Message: msg, Err: err}
}

// As extracts an *Error from err's chain.
func As(err error) (*Error, bool) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}
