// internal/app/system/apperr/apperr.go
//
// Package apperr is the error taxonomy shared by stores and handlers. Stores
// return sentinel errors; handlers translate them into *Error values, and
// respond.Error turns those into an HTTP status and JSON body.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for the client.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
	KindDuplicate
	KindInconsistency
)

var kindInfo = map[Kind]struct {
	status int
	code   string
}{
	KindInternal:      {http.StatusInternalServerError, "internal_error"},
	KindValidation:    {http.StatusBadRequest, "validation_error"},
	KindUnauthorized:  {http.StatusUnauthorized, "unauthorized"},
	KindForbidden:     {http.StatusForbidden, "forbidden"},
	KindNotFound:      {http.StatusNotFound, "not_found"},
	KindConflict:      {http.StatusConflict, "conflict"},
	KindDuplicate:     {http.StatusBadRequest, "duplicate_entry"},
	KindInconsistency: {http.StatusInternalServerError, "internal_inconsistency"},
}

// Error is a classified application error.
type Error struct {
	Kind    Kind
	Message string
	Field   string // set for validation errors tied to one input
	Err     error  // underlying cause, never shown to clients
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Status returns the HTTP status for the error's kind.
func (e *Error) Status() int { return kindInfo[e.Kind].status }

// Code returns the machine-readable error code.
func (e *Error) Code() string { return kindInfo[e.Kind].code }

// Validation reports bad input. field may be empty.
func Validation(field, msg string) *Error {
	return &Error{Kind: KindValidation, Field: field, Message: msg}
}

func Unauthorized(msg string) *Error { return &Error{Kind: KindUnauthorized, Message: msg} }

func Forbidden(msg string) *Error { return &Error{Kind: KindForbidden, Message: msg} }

func NotFound(msg string) *Error { return &Error{Kind: KindNotFound, Message: msg} }

// Conflict reports a write that lost a race with a concurrent change.
func Conflict(msg string) *Error { return &Error{Kind: KindConflict, Message: msg} }

// Duplicate reports a submission that repeats an existing entry.
func Duplicate(msg string) *Error { return &Error{Kind: KindDuplicate, Message: msg} }

// Inconsistency reports referenced data that is missing or malformed, such as
// a group whose course no longer exists.
func Inconsistency(msg string, cause error) *Error {
	return &Error{Kind: KindInconsistency, Message: msg, Err: cause}
}

// Internal wraps an unexpected failure.
func Internal(msg string, cause error) *Error {
	return &Error{Kind: KindInternal, Message: msg, Err: cause}
}

// From returns err as an *Error, wrapping unclassified errors as internal.
func From(err error) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return Internal("internal server error", err)
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, k Kind) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Kind == k
}
