package domain

import (
	"errors"
	"fmt"
)

// Kind classifies an error for the transport layer.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindConflict
	KindNotFound
	KindAuth
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	case KindAuth:
		return "auth"
	default:
		return "internal"
	}
}

var (
	ErrFieldsRequired      = errors.New("all fields required")
	ErrPasswordMismatch    = errors.New("passwords do not match")
	ErrPasswordTooLong     = errors.New("password must be at most 72 bytes")
	ErrCredentialsRequired = errors.New("email and password required")
	ErrEmailTaken          = errors.New("email already registered")
	ErrUserNotFound        = errors.New("user not found")
	ErrIncorrectPassword   = errors.New("incorrect password")
)

var classified = []struct {
	err  error
	kind Kind
}{
	{ErrFieldsRequired, KindValidation},
	{ErrPasswordMismatch, KindValidation},
	{ErrPasswordTooLong, KindValidation},
	{ErrCredentialsRequired, KindValidation},
	{ErrEmailTaken, KindConflict},
	{ErrUserNotFound, KindNotFound},
	{ErrIncorrectPassword, KindAuth},
}

// KindOf reports the Kind of err. Anything not wrapping a known sentinel is
// KindInternal.
func KindOf(err error) Kind {
	k, _ := Classify(err)
	return k
}

// Classify returns the Kind of err and the message that may be shown to a
// client. For KindInternal the message is the InternalError's Msg, or empty.
func Classify(err error) (Kind, string) {
	for _, c := range classified {
		if errors.Is(err, c.err) {
			return c.kind, c.err.Error()
		}
	}
	var ie *InternalError
	if errors.As(err, &ie) {
		return KindInternal, ie.Msg
	}
	return KindInternal, ""
}

// InternalError wraps an infrastructure failure. Msg is safe to show to
// clients; Err carries the detail and is only logged.
type InternalError struct {
	Op  string
	Msg string
	Err error
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *InternalError) Unwrap() error { return e.Err }
