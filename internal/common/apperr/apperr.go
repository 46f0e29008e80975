// Package apperr defines the coded errors shared by every flow of the client.
// Codes follow the failure classes the views react to: transport problems,
// rejected credentials, missing or expired staff sessions, client-side
// validation and errors reported by the backend itself.
package apperr

import (
	"errors"
	"strings"
)

type Code string

const (
	CodeTransport      Code = "transport"
	CodeAuthentication Code = "authentication"
	CodeAuthorization  Code = "authorization"
	CodeValidation     Code = "validation"
	CodeBusiness       Code = "business"
	CodeInternal       Code = "internal"
)

// Error is the coded error carried up to the views.
type Error struct {
	Code    Code
	Message string // user-facing text
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	if e.Message == "" {
		return e.Cause.Error()
	}
	return e.Message + ": " + e.Cause.Error()
}

func (e *Error) Unwrap() error { return e.Cause }

// Is reports whether target is an *Error with the same code. A target with a
// message must also match the message, so package-level sentinels stay distinct.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Code != e.Code {
		return false
	}
	return t.Message == "" || t.Message == e.Message
}

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// Kind returns a message-less error usable as an errors.Is target for a whole class.
func Kind(code Code) *Error { return &Error{Code: code} }

// CodeOf returns the code of the first *Error in the chain, or CodeInternal.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// UserMessage returns the text shown next to the action that failed.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) && strings.TrimSpace(e.Message) != "" {
		return e.Message
	}
	return "Something went wrong. Please try again."
}
