package dbus

import "reflect"

// emptyStructType is the reflect.Type of struct{}, used to detect
// map[K]struct{} values that should marshal as DBus sets (bare arrays
// of keys) rather than dictionaries.
var emptyStructType = reflect.TypeFor[struct{}]()

// StringEnum is implemented by string-backed types that only ever
// take one of a fixed set of values on the wire. Marshal rejects
// values that aren't one of DBusEnumValues, and Unmarshal rejects
// wire strings that don't match one of them, returning an error with
// [ErrUnknownEnumerator].
//
// Integer-backed enums need no special handling: they marshal and
// unmarshal like any other fixed-width integer, since DBus has no
// concept of enumeration and the wire value is the same either way.
type StringEnum interface {
	DBusEnumValues() []string
}

var stringEnumType = reflect.TypeFor[StringEnum]()
