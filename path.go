package dbus

import (
	"context"
	"fmt"
	"reflect"

	"github.com/danderson/dbus/fragments"
)

// ObjectPath is a DBus object path: a slash-separated identifier
// naming an object exported by a peer, such as
// "/org/freedesktop/NetworkManager". ObjectPath marshals and
// unmarshals as the DBus "o" type.
type ObjectPath string

func (p ObjectPath) MarshalDBus(ctx context.Context, st *fragments.Encoder) error {
	if err := validateObjectPath(string(p)); err != nil {
		return err
	}
	return st.String(string(p))
}

func (p *ObjectPath) UnmarshalDBus(ctx context.Context, st *fragments.Decoder) error {
	s, err := st.String()
	if err != nil {
		return err
	}
	if err := validateObjectPath(s); err != nil {
		return err
	}
	*p = ObjectPath(s)
	return nil
}

func (p ObjectPath) IsDBusStruct() bool { return false }

var objectPathSignature = mkSignature(reflect.TypeFor[ObjectPath](), "o")

func (p ObjectPath) SignatureDBus() Signature { return objectPathSignature }

// validateObjectPath reports whether s follows the DBus object path
// grammar: either the root path "/", or a sequence of one or more
// "/"-separated segments, each consisting of one or more
// [A-Za-z0-9_] characters, with no trailing slash.
func validateObjectPath(s string) error {
	if s == "" || s[0] != '/' {
		return &fragments.Error{
			Kind:   ErrInvalidObjectPath,
			Reason: fmt.Errorf("object path %q must start with /", s),
		}
	}
	if s == "/" {
		return nil
	}
	if s[len(s)-1] == '/' {
		return &fragments.Error{
			Kind:   ErrInvalidObjectPath,
			Reason: fmt.Errorf("object path %q must not end with /", s),
		}
	}

	segStart := 1
	for i := 1; i <= len(s); i++ {
		if i == len(s) || s[i] == '/' {
			if i == segStart {
				return &fragments.Error{
					Kind:   ErrInvalidObjectPath,
					Reason: fmt.Errorf("object path %q has an empty segment", s),
				}
			}
			segStart = i + 1
			continue
		}
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		case c == '_':
		default:
			return &fragments.Error{
				Kind:   ErrInvalidObjectPath,
				Reason: fmt.Errorf("object path %q contains invalid character %q", s, c),
			}
		}
	}
	return nil
}
