package canon

import (
	"slices"
	"unicode/utf16"
)

// Value is a sealed interface over the value types that have a canonical
// encoding. Only String, Int, Bool, Array and Object implement it.
type Value interface {
	canonValue()
}

// String is a string value.
type String string

func (String) canonValue() {}

// Int is an integer value. Always int64, never float.
type Int int64

func (Int) canonValue() {}

// Bool is a boolean value.
type Bool bool

func (Bool) canonValue() {}

// Array is an ordered list of values. Order is significant and preserved.
type Array []Value

func (Array) canonValue() {}

// Object maps string keys to values. Use SortedKeys for deterministic iteration.
type Object map[string]Value

func (Object) canonValue() {}

// SortedKeys returns keys in RFC 8785 order (UTF-16 code units).
// Go's string comparison orders by UTF-8 bytes, which differs for
// characters outside the BMP.
func (obj Object) SortedKeys() []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareUTF16)
	return keys
}

func compareUTF16(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))
	n := min(len(a16), len(b16))
	for i := 0; i < n; i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a16) < len(b16):
		return -1
	case len(a16) > len(b16):
		return 1
	}
	return 0
}

// FromAny converts plain Go values (as produced by yaml or json decoding)
// into a Value. Floats and nil are rejected.
func FromAny(v any) (Value, error) {
	return toValue(v)
}
