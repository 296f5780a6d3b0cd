package dbus

import (
	"fmt"
	"reflect"

	"github.com/danderson/dbus/fragments"
)

// TypeError is the error returned when a Go type cannot be
// represented in the DBus wire format. Unlike [WireError], a
// TypeError is a property of a type's shape and is independent of
// any particular value or byte stream.
type TypeError struct {
	// Type is the name of the type that caused the error.
	Type string
	// Reason is an explanation of why the type isn't representable by
	// DBus.
	Reason error
}

func (e TypeError) Error() string {
	return fmt.Sprintf("dbus cannot represent %s: %s", e.Type, e.Reason)
}

func (e TypeError) Unwrap() error {
	return e.Reason
}

func typeErr(t reflect.Type, reason string, args ...any) error {
	ts := ""
	if t != nil {
		ts = t.String()
	}
	return TypeError{ts, fmt.Errorf(reason, args...)}
}

// WireError is returned by [Marshal] and [Unmarshal] when a value or
// byte stream violates the DBus wire format, as opposed to a Go type
// simply having no DBus representation (see [TypeError]).
//
// WireError is an alias of [fragments.Error]; the two packages share
// one error type so that callers of either layer can match failures
// with the same set of Kind constants.
type WireError = fragments.Error

// WireErrorKind classifies the ways that marshaling or unmarshaling
// can fail at the wire level.
type WireErrorKind = fragments.ErrorKind

const (
	ErrOutOfBounds           = fragments.ErrOutOfBounds
	ErrNonZeroPadding        = fragments.ErrNonZeroPadding
	ErrStringTooLong         = fragments.ErrStringTooLong
	ErrSignatureTooLong      = fragments.ErrSignatureTooLong
	ErrArrayTooLong          = fragments.ErrArrayTooLong
	ErrArrayLengthMismatch   = fragments.ErrArrayLengthMismatch
	ErrInvalidUTF8           = fragments.ErrInvalidUTF8
	ErrEmbeddedNUL           = fragments.ErrEmbeddedNUL
	ErrMissingNULTerminator  = fragments.ErrMissingNULTerminator
	ErrInvalidObjectPath     = fragments.ErrInvalidObjectPath
	ErrInvalidSignature      = fragments.ErrInvalidSignature
	ErrUnknownEnumerator     = fragments.ErrUnknownEnumerator
	ErrUnsupportedShape      = fragments.ErrUnsupportedShape
)
