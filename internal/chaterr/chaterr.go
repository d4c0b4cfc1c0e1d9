// Package chaterr defines the closed set of failure kinds the chat engine
// can surface to callers. Every user-facing failure is an *Error carrying
// one Kind; transport status codes are derived from the kind, never stored
// on the error.
package chaterr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	// KindValidation covers missing or malformed input the user can fix.
	KindValidation Kind = iota
	// KindConflict covers uniqueness violations (taken email, username, room).
	KindConflict
	// KindPolicy covers forbidden-word rejections.
	KindPolicy
	// KindNotFound covers lookups of rooms that do not exist.
	KindNotFound
	// KindAuth covers bad or missing tokens.
	KindAuth
	// KindInternal covers backend failures; detail stays in the logs.
	KindInternal
)

type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf reports the kind of err. Errors that are not *Error are
// unanticipated failures and classify as KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// HTTPStatus maps a kind to its fixed transport status code.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindValidation, KindConflict, KindPolicy:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindAuth:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
