package dbus

import (
	"context"
	"reflect"

	"github.com/danderson/dbus/fragments"
)

// FileDescriptor is a DBus Unix file descriptor value: an index into
// an out-of-band array of file descriptors accompanying a message.
//
// This module implements only the wire-level acknowledgement of type
// "h": FileDescriptor marshals and unmarshals the index itself, and
// never touches an OS-level file descriptor or duplicates one across
// a transport. Associating indices with real descriptors is the
// responsibility of a transport layer built on top of this codec.
type FileDescriptor uint32

func (f FileDescriptor) MarshalDBus(ctx context.Context, e *fragments.Encoder) error {
	e.Uint32(uint32(f))
	return nil
}

func (f *FileDescriptor) UnmarshalDBus(ctx context.Context, d *fragments.Decoder) error {
	u, err := d.Uint32()
	if err != nil {
		return err
	}
	*f = FileDescriptor(u)
	return nil
}

func (f FileDescriptor) IsDBusStruct() bool { return false }

var fileDescriptorSignature = mkSignature(reflect.TypeFor[FileDescriptor](), "h")

func (f FileDescriptor) SignatureDBus() Signature { return fileDescriptorSignature }
