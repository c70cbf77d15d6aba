// internal/apperr/apperr.go

// Package apperr carries the error kinds the service layer reports and the
// HTTP boundary maps to status codes.
package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindForbidden
	KindConflict
	KindPrecondition
	KindInvalidCredential
	KindInvalidToken
	KindStorage
)

type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf returns the kind of err, or KindUnknown for errors that did not
// originate in the service layer.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func NotFound(msg string) *Error          { return New(KindNotFound, msg) }
func Forbidden(msg string) *Error         { return New(KindForbidden, msg) }
func Conflict(msg string) *Error          { return New(KindConflict, msg) }
func Precondition(msg string) *Error      { return New(KindPrecondition, msg) }
func InvalidCredential(msg string) *Error { return New(KindInvalidCredential, msg) }
func InvalidToken(msg string) *Error      { return New(KindInvalidToken, msg) }
func Storage(msg string, err error) *Error {
	return Wrap(KindStorage, msg, err)
}
