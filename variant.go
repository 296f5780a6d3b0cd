package dbus

import (
	"context"
	"fmt"
	"reflect"

	"github.com/danderson/dbus/fragments"
)

// Variant carries a value of any DBus-representable type, together
// with its DBus signature. Variant marshals and unmarshals as the
// DBus "v" type: a signature followed by the value it describes.
type Variant struct {
	Value any
}

var variantType = reflect.TypeFor[Variant]()

func (v Variant) MarshalDBus(ctx context.Context, e *fragments.Encoder) error {
	sig, err := SignatureOf(v.Value)
	if err != nil {
		return err
	}
	if err := e.Value(ctx, sig); err != nil {
		return err
	}
	return e.Value(ctx, v.Value)
}

func (v *Variant) UnmarshalDBus(ctx context.Context, d *fragments.Decoder) error {
	var sig Signature
	if err := d.Value(ctx, &sig); err != nil {
		return fmt.Errorf("reading Variant signature: %w", err)
	}
	innerValue := sig.Value()
	if !innerValue.IsValid() {
		return fmt.Errorf("unsupported Variant type signature %q", sig)
	}
	if err := d.Value(ctx, innerValue.Interface()); err != nil {
		return fmt.Errorf("reading Variant value (signature %q): %w", sig, err)
	}
	v.Value = innerValue.Elem().Interface()
	return nil
}

func (v Variant) IsDBusStruct() bool { return false }

var variantSignature = mkSignature(variantType, "v")

func (v Variant) SignatureDBus() Signature { return variantSignature }
