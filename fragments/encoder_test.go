package fragments_test

import (
	"bytes"
	"context"
	"reflect"
	"testing"

	"github.com/danderson/dbus/fragments"
)

func TestEncoder(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		in      func(*fragments.Encoder) error
		want    []byte
		wantErr fragments.ErrorKind
	}{
		{
			"raw bytes",
			func(e *fragments.Encoder) error {
				e.Write([]byte{1, 2, 3})
				return nil
			},
			[]byte{0x01, 0x02, 0x03},
			0,
		},

		{
			"byte array",
			func(e *fragments.Encoder) error {
				return e.Bytes([]byte{1, 2, 3})
			},
			[]byte{
				0x00, 0x00, 0x00, 0x03, // length
				0x01, 0x02, 0x03, // val
			},
			0,
		},

		{
			"string",
			func(e *fragments.Encoder) error {
				return e.String("foo")
			},
			[]byte{
				0x00, 0x00, 0x00, 0x03, // length
				0x66, 0x6f, 0x6f, // val
				0x00, // terminator
			},
			0,
		},

		{
			"string with embedded nul rejected",
			func(e *fragments.Encoder) error {
				return e.String("fo\x00o")
			},
			nil,
			fragments.ErrEmbeddedNUL,
		},

		{
			"string with invalid utf8 rejected",
			func(e *fragments.Encoder) error {
				return e.String("fo\xffo")
			},
			nil,
			fragments.ErrInvalidUTF8,
		},

		{
			"signature",
			func(e *fragments.Encoder) error {
				return e.Signature("a{sv}")
			},
			[]byte{
				0x05,
				'a', '{', 's', 'v', '}',
				0x00,
			},
			0,
		},

		{
			"signature too long rejected",
			func(e *fragments.Encoder) error {
				return e.Signature(string(make([]byte, 256)))
			},
			nil,
			fragments.ErrSignatureTooLong,
		},

		{
			"uints",
			func(e *fragments.Encoder) error {
				e.Uint8(42)
				e.Uint16(66)
				e.Uint32(42)
				e.Uint64(66)
				return nil
			},
			[]byte{
				0x2a,
				0x00, // pad
				0x00, 0x42,
				0x00, 0x00, 0x00, 0x2a,
				0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x42,
			},
			0,
		},

		{
			"uints padding",
			func(e *fragments.Encoder) error {
				e.Uint64(66)
				e.Write([]byte{0})
				e.Uint32(42)
				e.Write([]byte{0})
				e.Uint16(66)
				e.Write([]byte{0})
				e.Uint8(42)
				return nil
			},
			[]byte{
				0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x42,
				0x00,             // raw
				0x00, 0x00, 0x00, // pad
				0x00, 0x00, 0x00, 0x2a,
				0x00, // raw
				0x00, // pad
				0x00, 0x42,
				0x00, // raw
				0x2a,
			},
			0,
		},

		{
			"struct padding",
			func(e *fragments.Encoder) error {
				e.Struct(func() error {
					e.Uint64(66)
					return nil
				})
				e.Struct(func() error {
					e.Uint32(42)
					return nil
				})
				e.Struct(func() error {
					e.Uint16(66)
					return nil
				})
				return e.Struct(func() error {
					e.Uint8(42)
					return nil
				})
			},
			[]byte{
				0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x42,
				0x00, 0x00, 0x00, 0x2a,
				0x00, 0x00, 0x00, 0x00, // pad
				0x00, 0x42,
				0x00, 0x00, 0x00, 0x00, 0x00, 0x00, // pad
				0x2a,
			},
			0,
		},

		{
			"array of uint16",
			func(e *fragments.Encoder) error {
				return e.Array(2, func() error {
					e.Uint16(1)
					e.Uint16(2)
					return nil
				})
			},
			[]byte{
				0x00, 0x00, 0x00, 0x04, // length
				0x00, 0x01,
				0x00, 0x02,
			},
			0,
		},

		{
			"empty array of uint16 pads header to element alignment",
			func(e *fragments.Encoder) error {
				return e.Array(2, func() error { return nil })
			},
			[]byte{
				0x00, 0x00, 0x00, 0x00, // length
			},
			0,
		},

		{
			"empty array of structs still pads header to element alignment",
			func(e *fragments.Encoder) error {
				return e.Array(8, func() error { return nil })
			},
			[]byte{
				0x00, 0x00, 0x00, 0x00, // length
				0x00, 0x00, 0x00, 0x00, // pad to elem align
			},
			0,
		},

		{
			"array of structs",
			func(e *fragments.Encoder) error {
				return e.Array(8, func() error {
					e.Struct(func() error {
						e.Uint16(1)
						return nil
					})
					return e.Struct(func() error {
						e.Uint16(2)
						return nil
					})
				})
			},
			[]byte{
				0x00, 0x00, 0x00, 0x0a, // length
				0x00, 0x00, 0x00, 0x00, // pad
				0x00, 0x01,
				0x00, 0x00, 0x00, 0x00, 0x00, 0x00, // pad
				0x00, 0x02,
			},
			0,
		},

		{
			"array followed by other stuff",
			func(e *fragments.Encoder) error {
				if err := e.Array(2, func() error {
					e.Uint16(1)
					e.Uint16(2)
					return nil
				}); err != nil {
					return err
				}
				e.Uint16(3)
				return nil
			},
			[]byte{
				0x00, 0x00, 0x00, 0x04, // length
				0x00, 0x01,
				0x00, 0x02,
				0x00, 0x03,
			},
			0,
		},

		{
			"struct array followed by other stuff",
			func(e *fragments.Encoder) error {
				if err := e.Array(8, func() error {
					e.Struct(func() error {
						e.Uint16(1)
						return nil
					})
					return e.Struct(func() error {
						e.Uint16(2)
						return nil
					})
				}); err != nil {
					return err
				}
				e.Uint16(3)
				return nil
			},
			[]byte{
				0x00, 0x00, 0x00, 0x0a, // length
				0x00, 0x00, 0x00, 0x00, // pad to struct
				0x00, 0x01,
				0x00, 0x00, 0x00, 0x00, 0x00, 0x00, // pad to struct
				0x00, 0x02,
				0x00, 0x03,
			},
			0,
		},

		{
			"mapper",
			func(e *fragments.Encoder) error {
				e.Mapper = func(t reflect.Type) (fragments.EncoderFunc, error) {
					return func(ctx context.Context, e *fragments.Encoder, v reflect.Value) error {
						e.Write([]byte(v.Type().String()))
						return nil
					}, nil
				}
				if err := e.Value(ctx, "foo"); err != nil {
					return err
				}
				return e.Value(ctx, uint16(42))
			},
			[]byte{
				0x73, 0x74, 0x72, 0x69, 0x6e, 0x67, // "string"
				0x75, 0x69, 0x6e, 0x74, 0x31, 0x36, // "uint16"
			},
			0,
		},

		{
			"byte order flag",
			func(e *fragments.Encoder) error {
				e.Order = fragments.BigEndian
				e.ByteOrderFlag()
				e.Order = fragments.LittleEndian
				e.ByteOrderFlag()
				return nil
			},
			[]byte{'B', 'l'},
			0,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e := fragments.Encoder{
				Order: fragments.BigEndian,
			}
			err := tc.in(&e)
			if tc.wantErr != 0 {
				werr, ok := err.(*fragments.Error)
				if !ok {
					t.Fatalf("got err %v, want *fragments.Error with kind %s", err, tc.wantErr)
				}
				if werr.Kind != tc.wantErr {
					t.Fatalf("got error kind %s, want %s", werr.Kind, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := e.Out; !bytes.Equal(got, tc.want) {
				t.Errorf("incorrect encode:\n  got: % x\n want: % x", got, tc.want)
			} else if testing.Verbose() {
				t.Logf("encoder got: % x", got)
			}
		})
	}
}

func TestEncoderArrayTooLong(t *testing.T) {
	e := fragments.Encoder{Order: fragments.LittleEndian}
	big := make([]byte, 1<<26+1)
	err := e.Array(1, func() error {
		e.Write(big)
		return nil
	})
	werr, ok := err.(*fragments.Error)
	if !ok || werr.Kind != fragments.ErrArrayTooLong {
		t.Fatalf("got err %v, want ErrArrayTooLong", err)
	}
}
