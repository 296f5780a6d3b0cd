package fragments

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"unicode/utf8"
)

// maxArrayPayload is the largest number of bytes an array's element
// payload may occupy, per the DBus specification.
const maxArrayPayload = 1 << 26

// maxStringLen is the largest byte length a string or byte array can
// declare in its 32-bit length prefix.
const maxStringLen = 1<<32 - 2

// maxSignatureLen is the largest byte length a signature can declare
// in its 8-bit length prefix.
const maxSignatureLen = 255

// An EncoderFunc writes a value to the given encoder.
type EncoderFunc func(ctx context.Context, enc *Encoder, val reflect.Value) error

// An Encoder provides utilities to write a DBus wire format message
// to a byte slice.
//
// Methods insert padding as needed to conform to DBus alignment
// rules, except for [Encoder.Write] which outputs bytes verbatim.
//
// Alignment is computed relative to len(Out) at the time each method
// is called, not relative to the start of some message. This lets an
// Encoder be handed a buffer that already holds a prefix (for example
// a message header written by a higher layer) and still produce
// correctly aligned output for the remainder.
type Encoder struct {
	// Order is the byte order to use when encoding multi-byte values.
	Order ByteOrder
	// Mapper provides [EncoderFunc]s for types given to
	// [Encoder.Value]. If mapper is nil, the Encoder functions
	// normally except that [Encoder.Value] always returns an error.
	Mapper func(reflect.Type) (EncoderFunc, error)
	// Out is the encoded output.
	Out []byte
}

// Pad inserts padding bytes as needed to make the message a multiple
// of align bytes. If the message is already correctly aligned, no
// padding is inserted.
func (e *Encoder) Pad(align int) {
	extra := len(e.Out) % align
	if extra == 0 {
		return
	}
	var pad [8]byte
	e.Out = append(e.Out, pad[:align-extra]...)
}

// Write writes bs as-is to the output. It is the caller's
// responsibility to ensure correct padding and encoding.
func (e *Encoder) Write(bs []byte) {
	e.Out = append(e.Out, bs...)
}

// Bytes writes bs as a DBus byte array (ay).
func (e *Encoder) Bytes(bs []byte) error {
	if len(bs) > maxStringLen {
		return newError(ErrStringTooLong, len(e.Out), fmt.Errorf("byte array of %d bytes exceeds wire limit", len(bs)))
	}
	e.Pad(4)
	e.Uint32(uint32(len(bs)))
	e.Out = append(e.Out, bs...)
	return nil
}

// String writes s to the output as a DBus string: a 4-byte length,
// the UTF-8 bytes, and a trailing NUL. s must be valid UTF-8 and must
// not contain an interior NUL byte.
func (e *Encoder) String(s string) error {
	offset := len(e.Out)
	if len(s) > maxStringLen {
		return newError(ErrStringTooLong, offset, fmt.Errorf("string of %d bytes exceeds wire limit", len(s)))
	}
	if !utf8.ValidString(s) {
		return newError(ErrInvalidUTF8, offset, nil)
	}
	for i := 0; i < len(s); i++ {
		if s[i] == 0 {
			return newError(ErrEmbeddedNUL, offset, nil)
		}
	}
	e.Pad(4)
	e.Uint32(uint32(len(s)))
	e.Out = append(e.Out, s...)
	e.Out = append(e.Out, 0)
	return nil
}

// Signature writes s to the output as a DBus signature: a 1-byte
// length, the ASCII bytes, and a trailing NUL.
func (e *Encoder) Signature(s string) error {
	if len(s) > maxSignatureLen {
		return newError(ErrSignatureTooLong, len(e.Out), fmt.Errorf("signature of %d bytes exceeds 255 byte limit", len(s)))
	}
	e.Out = append(e.Out, byte(len(s)))
	e.Out = append(e.Out, s...)
	e.Out = append(e.Out, 0)
	return nil
}

// Uint8 writes a uint8.
func (e *Encoder) Uint8(u8 uint8) {
	e.Out = append(e.Out, u8)
}

// Uint16 writes uint16.
func (e *Encoder) Uint16(u16 uint16) {
	e.Pad(2)
	e.Out = e.Order.AppendUint16(e.Out, u16)
}

// Uint32 writes uint32.
func (e *Encoder) Uint32(u32 uint32) {
	e.Pad(4)
	e.Out = e.Order.AppendUint32(e.Out, u32)
}

// Uint64 writes uint64.
func (e *Encoder) Uint64(u64 uint64) {
	e.Pad(8)
	e.Out = e.Order.AppendUint64(e.Out, u64)
}

// Value writes v to the output, using the [EncoderFunc] provided by
// [Encoder.Mapper].
func (e *Encoder) Value(ctx context.Context, v any) error {
	if e.Mapper == nil {
		return errors.New("fragments: Mapper not provided to Encoder")
	}
	fn, err := e.Mapper(reflect.TypeOf(v))
	if err != nil {
		return err
	}
	return fn(ctx, e, reflect.ValueOf(v))
}

// Array writes an array to the output.
//
// Array elements must be added within the provided elements function,
// which is responsible for encoding one element per call in message
// order. elemAlign is the wire alignment of the array's element type;
// per the DBus specification, the array header is always padded out
// to elemAlign, even for an empty array.
func (e *Encoder) Array(elemAlign int, elements func() error) error {
	e.Pad(4)
	lenOffset := len(e.Out)
	e.Uint32(0)
	e.Pad(elemAlign)

	start := len(e.Out)
	if err := elements(); err != nil {
		return err
	}
	length := len(e.Out) - start
	if length > maxArrayPayload {
		return newError(ErrArrayTooLong, lenOffset, fmt.Errorf("array payload of %d bytes exceeds 64MiB limit", length))
	}
	e.Order.PutUint32(e.Out[lenOffset:], uint32(length))
	return nil
}

// Struct writes a struct to the output, aligning to an 8 byte
// boundary before invoking fields to encode the struct's fields in
// order.
func (e *Encoder) Struct(fields func() error) error {
	e.Pad(8)
	return fields()
}

// ByteOrderFlag writes the DBus byte order flag byte ('l' or 'B')
// that matches [Encoder.Order]. It exists for higher layers (such as
// a message header codec) composing on top of an Encoder; nothing in
// this package calls it directly.
func (e *Encoder) ByteOrderFlag() {
	e.Write([]byte{e.Order.dbusFlag()})
}
