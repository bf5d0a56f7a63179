package reflection

import (
	"fmt"
	"unsafe"

	"github.com/TheBitDrifter/bark"
)

// Compare reports whether two values of the same type are equal. It
// recurses structurally through Fields, Array and Dictionary traits, then
// falls back to StringConversion, and last to a bitwise compare of the
// value's bytes when the type has only a ConstructibleTrait. If none of
// these traits are present, Compare fails with ErrMissingTrait.
func Compare(t *Type, a, b unsafe.Pointer) (bool, error) {
	if fields, ok := Trait[FieldsTrait](t); ok {
		for _, f := range fields.Fields {
			eq, err := Compare(f.Type, f.At(a), f.At(b))
			if err != nil {
				return false, err
			}
			if !eq {
				return false, nil
			}
		}
		return true, nil
	}

	if arr, ok := Trait[ArrayTrait](t); ok {
		lenA := arr.Length(a)
		lenB := arr.Length(b)
		if lenA != lenB {
			return false, nil
		}
		for i := 0; i < lenA; i++ {
			eq, err := Compare(arr.ElementType, arr.ElementAt(a, i), arr.ElementAt(b, i))
			if err != nil {
				return false, err
			}
			if !eq {
				return false, nil
			}
		}
		return true, nil
	}

	if dict, ok := Trait[DictionaryTrait](t); ok {
		entriesA := dict.Iterate(a)
		if len(entriesA) != dict.Length(b) {
			return false, nil
		}
		for _, entry := range entriesA {
			otherValue, ok := dict.Find(b, entry.Key)
			if !ok {
				return false, nil
			}
			eq, err := Compare(dict.ValueType, entry.Value, otherValue)
			if err != nil {
				return false, err
			}
			if !eq {
				return false, nil
			}
		}
		return true, nil
	}

	if str, ok := Trait[StringConversionTrait](t); ok {
		return str.Into(a) == str.Into(b), nil
	}

	if con, ok := Trait[ConstructibleTrait](t); ok {
		return bitwiseEqual(a, b, con.Size), nil
	}

	return false, bark.AddTrace(fmt.Errorf("%w: type %q is not comparable", ErrMissingTrait, t.name))
}

func bitwiseEqual(a, b unsafe.Pointer, size uintptr) bool {
	sa := unsafe.Slice((*byte)(a), size)
	sb := unsafe.Slice((*byte)(b), size)
	for i := range sa {
		if sa[i] != sb[i] {
			return false
		}
	}
	return true
}
