package fragments

import "fmt"

// ErrorKind classifies the ways that reading or writing a DBus wire
// fragment can fail. The kind is stable and intended to be matched by
// callers with [errors.As] against [Error].
type ErrorKind int

const (
	_ ErrorKind = iota

	// ErrOutOfBounds means a read ran past the end of the input.
	ErrOutOfBounds
	// ErrNonZeroPadding means a padding byte read back non-zero.
	ErrNonZeroPadding
	// ErrStringTooLong means a string or byte array exceeded the
	// 2^32-2 byte length that fits DBus's 32-bit length prefix.
	ErrStringTooLong
	// ErrSignatureTooLong means a signature exceeded 255 bytes.
	ErrSignatureTooLong
	// ErrArrayTooLong means an array payload exceeded the DBus
	// 64MiB (2^26 byte) cap.
	ErrArrayTooLong
	// ErrArrayLengthMismatch means an array's elements did not
	// exactly consume the byte range declared by its length prefix.
	ErrArrayLengthMismatch
	// ErrInvalidUTF8 means string content was not valid UTF-8.
	ErrInvalidUTF8
	// ErrEmbeddedNUL means string content contained an interior NUL
	// byte.
	ErrEmbeddedNUL
	// ErrMissingNULTerminator means a string's declared length was
	// not immediately followed by a NUL byte.
	ErrMissingNULTerminator
	// ErrInvalidObjectPath means an object path failed the DBus
	// object path grammar.
	ErrInvalidObjectPath
	// ErrInvalidSignature means a signature string failed to parse.
	ErrInvalidSignature
	// ErrUnknownEnumerator means a decoded string did not match any
	// enumerator of the target string-backed enum.
	ErrUnknownEnumerator
	// ErrUnsupportedShape means a value's shape has no DBus wire
	// representation.
	ErrUnsupportedShape
)

func (k ErrorKind) String() string {
	switch k {
	case ErrOutOfBounds:
		return "out_of_bounds"
	case ErrNonZeroPadding:
		return "non_zero_padding"
	case ErrStringTooLong:
		return "string_too_long"
	case ErrSignatureTooLong:
		return "signature_too_long"
	case ErrArrayTooLong:
		return "array_too_long"
	case ErrArrayLengthMismatch:
		return "array_length_mismatch"
	case ErrInvalidUTF8:
		return "invalid_utf8"
	case ErrEmbeddedNUL:
		return "embedded_nul"
	case ErrMissingNULTerminator:
		return "missing_nul_terminator"
	case ErrInvalidObjectPath:
		return "invalid_object_path"
	case ErrInvalidSignature:
		return "invalid_signature"
	case ErrUnknownEnumerator:
		return "unknown_enumerator"
	case ErrUnsupportedShape:
		return "unsupported_shape"
	default:
		return "unknown_error"
	}
}

// Error is the error returned by [Encoder] and [Decoder] methods when
// a value cannot be written to, or read from, the wire. Offset is the
// byte offset (relative to the start of the buffer the encoder or
// decoder is operating on) at which the failure was observed.
type Error struct {
	Kind   ErrorKind
	Offset int
	Reason error
}

func newError(kind ErrorKind, offset int, reason error) *Error {
	return &Error{Kind: kind, Offset: offset, Reason: reason}
}

func (e *Error) Error() string {
	if e.Reason == nil {
		return fmt.Sprintf("dbus wire: %s at offset %d", e.Kind, e.Offset)
	}
	return fmt.Sprintf("dbus wire: %s at offset %d: %s", e.Kind, e.Offset, e.Reason)
}

func (e *Error) Unwrap() error {
	return e.Reason
}

// Is reports whether target is an [*Error] with the same Kind.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == other.Kind
}
