// Package dbgfmt provides a verbose value formatter for test failure
// output, used where a plain %#v dump is too flat to spot which field
// of a nested struct or Variant diverged from the expected value.
package dbgfmt

import "github.com/kr/pretty"

// Verbose formats v for a human to read: one field per line, with
// struct, slice and map contents expanded rather than collapsed into
// a single line of %#v.
func Verbose(v any) string {
	return pretty.Sprint(v)
}
