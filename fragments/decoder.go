package fragments

import (
	"context"
	"errors"
	"fmt"
	"io"
	"reflect"
	"unicode/utf8"
)

// A DecoderFunc reads a value into val.
type DecoderFunc func(ctx context.Context, dec *Decoder, val reflect.Value) error

// A Decoder provides utilities to read a DBus wire format message
// from a byte slice.
//
// Methods advance the read cursor as needed to account for the
// padding required by DBus alignment rules, except for [Decoder.Read]
// which reads bytes verbatim.
type Decoder struct {
	// Order is the byte order to use when reading multi-byte values.
	Order ByteOrder
	// Mapper provides [DecoderFunc]s for types given to
	// [Decoder.Value]. If mapper is nil, the Decoder functions
	// normally except that [Decoder.Value] always returns an error.
	Mapper func(reflect.Type) (DecoderFunc, error)
	// In is the input stream to read.
	In io.Reader

	// offset is the number of bytes consumed off the front of In so
	// far, measured from the start of the buffer the Decoder was
	// handed. Alignment and array bounds are both computed from this
	// absolute count, not from a position local to whatever container
	// is currently being decoded.
	offset int
}

// Offset returns the number of bytes consumed so far.
func (d *Decoder) Offset() int {
	return d.offset
}

func (d *Decoder) ioErr(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return newError(ErrOutOfBounds, d.offset, err)
	}
	return err
}

// Pad consumes padding bytes as needed to make the next read happen
// at a multiple of align bytes. If the decoder is already correctly
// aligned, no bytes are consumed. Every consumed padding byte must be
// zero, or Pad fails with [ErrNonZeroPadding].
func (d *Decoder) Pad(align int) error {
	extra := d.offset % align
	if extra == 0 {
		return nil
	}
	skip := align - extra
	buf := make([]byte, skip)
	if _, err := io.ReadFull(d.In, buf); err != nil {
		return d.ioErr(err)
	}
	padOffset := d.offset
	d.offset += skip
	for _, b := range buf {
		if b != 0 {
			return newError(ErrNonZeroPadding, padOffset, fmt.Errorf("padding byte 0x%02x is not zero", b))
		}
	}
	return nil
}

// Read reads n bytes, with no framing or padding.
func (d *Decoder) Read(n int) ([]byte, error) {
	bs := make([]byte, n)
	if _, err := io.ReadFull(d.In, bs); err != nil {
		return nil, d.ioErr(err)
	}
	d.offset += n
	return bs, nil
}

// Bytes reads a DBus byte array (ay).
func (d *Decoder) Bytes() ([]byte, error) {
	ln, err := d.Uint32()
	if err != nil {
		return nil, err
	}
	return d.Read(int(ln))
}

// String reads a DBus string: a 4-byte length, that many bytes of
// UTF-8 content with no interior NUL, and a trailing NUL not counted
// in the length.
func (d *Decoder) String() (string, error) {
	ln, err := d.Uint32()
	if err != nil {
		return "", err
	}
	start := d.offset
	ret, err := d.Read(int(ln) + 1)
	if err != nil {
		return "", err
	}
	if ret[len(ret)-1] != 0 {
		return "", newError(ErrMissingNULTerminator, start, nil)
	}
	body := ret[:len(ret)-1]
	for _, b := range body {
		if b == 0 {
			return "", newError(ErrEmbeddedNUL, start, nil)
		}
	}
	if !utf8.Valid(body) {
		return "", newError(ErrInvalidUTF8, start, nil)
	}
	return string(body), nil
}

// Signature reads a DBus signature: a 1-byte length, that many bytes
// of ASCII content, and a trailing NUL.
func (d *Decoder) Signature() (string, error) {
	lnBytes, err := d.Read(1)
	if err != nil {
		return "", err
	}
	start := d.offset
	ret, err := d.Read(int(lnBytes[0]) + 1)
	if err != nil {
		return "", err
	}
	if ret[len(ret)-1] != 0 {
		return "", newError(ErrMissingNULTerminator, start, nil)
	}
	return string(ret[:len(ret)-1]), nil
}

// Uint8 reads a uint8.
func (d *Decoder) Uint8() (uint8, error) {
	bs, err := d.Read(1)
	if err != nil {
		return 0, err
	}
	return bs[0], nil
}

// Uint16 reads a uint16.
func (d *Decoder) Uint16() (uint16, error) {
	if err := d.Pad(2); err != nil {
		return 0, err
	}
	bs, err := d.Read(2)
	if err != nil {
		return 0, err
	}
	return d.Order.Uint16(bs), nil
}

// Uint32 reads a uint32.
func (d *Decoder) Uint32() (uint32, error) {
	if err := d.Pad(4); err != nil {
		return 0, err
	}
	bs, err := d.Read(4)
	if err != nil {
		return 0, err
	}
	return d.Order.Uint32(bs), nil
}

// Uint64 reads a uint64.
func (d *Decoder) Uint64() (uint64, error) {
	if err := d.Pad(8); err != nil {
		return 0, err
	}
	bs, err := d.Read(8)
	if err != nil {
		return 0, err
	}
	return d.Order.Uint64(bs), nil
}

// Value reads a value into v, using the [DecoderFunc] provided by
// [Decoder.Mapper]. v must be a non-nil pointer.
func (d *Decoder) Value(ctx context.Context, v any) error {
	if d.Mapper == nil {
		return errors.New("fragments: Mapper not provided to Decoder")
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer {
		return fmt.Errorf("outval of Decoder.Value must be a pointer, got %s", rv.Type())
	}
	if rv.IsNil() {
		return fmt.Errorf("outval of Decoder.Value must not be a nil pointer")
	}
	fn, err := d.Mapper(rv.Type().Elem())
	if err != nil {
		return err
	}
	return fn(ctx, d, rv.Elem())
}

// Array reads an array.
//
// readElement is called repeatedly while there is array data
// remaining to process, passing in the array index of the element to
// be decoded. readElement must completely consume exactly one element
// per call.
//
// Array returns the total number of array elements that were
// processed.
//
// elemAlign is the wire alignment of the array's element type. Per
// the DBus specification, the padding to elemAlign following the
// length word is inserted unconditionally, even for an empty array.
func (d *Decoder) Array(elemAlign int, readElement func(int) error) (int, error) {
	lenOffset := d.offset
	ln, err := d.Uint32()
	if err != nil {
		return 0, err
	}
	if ln > maxArrayPayload {
		return 0, newError(ErrArrayTooLong, lenOffset, fmt.Errorf("array length %d exceeds 64MiB limit", ln))
	}
	if err := d.Pad(elemAlign); err != nil {
		return 0, err
	}

	end := d.offset + int(ln)
	idx := 0
	for d.offset < end {
		if err := readElement(idx); err != nil {
			return idx, err
		}
		if d.offset > end {
			return idx + 1, newError(ErrArrayLengthMismatch, end, fmt.Errorf("element %d overran array bounds by %d bytes", idx, d.offset-end))
		}
		idx++
	}
	if d.offset != end {
		return idx, newError(ErrArrayLengthMismatch, end, fmt.Errorf("array left %d unconsumed bytes", end-d.offset))
	}
	return idx, nil
}

// Struct reads a struct, aligning to an 8 byte boundary before
// invoking fields to read the struct's fields in order.
func (d *Decoder) Struct(fields func() error) error {
	if err := d.Pad(8); err != nil {
		return err
	}
	return fields()
}

// ByteOrderFlag reads a DBus byte order flag byte, and sets
// [Decoder.Order] to match it. It exists for higher layers (such as a
// message header codec) composing on top of a Decoder; nothing in
// this package calls it directly.
func (d *Decoder) ByteOrderFlag() error {
	v, err := d.Uint8()
	if err != nil {
		return err
	}
	switch v {
	case 'B':
		d.Order = BigEndian
	case 'l':
		d.Order = LittleEndian
	default:
		return fmt.Errorf("unknown byte order flag %q", v)
	}
	return nil
}
