package reflection

import (
	"encoding/json"
	"reflect"
	"unsafe"
)

// typeCache memoizes Reflect[T] per Go type so repeated calls (e.g. from a
// generic component factory invoked once per call site) return the same
// *Type pointer, which Registry.Register relies on for its idempotency
// check.
var typeCache = struct {
	m map[reflect.Type]*Type
}{m: make(map[reflect.Type]*Type)}

// Reflect builds a *Type for T, deriving a ConstructibleTrait from the Go
// type's layout and a FieldsTrait by walking its exported struct fields
// (recursively reflecting each field's type). Named after the cubos
// "Reflect" entry point; this is the Go realization of spec §9's design
// note: a generic helper populates function-pointer traits at registration
// time instead of requiring virtual dispatch.
func Reflect[T any]() *Type {
	var zero T
	gt := reflect.TypeOf(zero)
	return reflectGoType(gt)
}

func reflectGoType(gt reflect.Type) *Type {
	if t, ok := typeCache.m[gt]; ok {
		return t
	}

	t := NewType(qualifiedName(gt))
	typeCache.m[gt] = t // insert before recursing, to break cycles

	With(t, constructibleFor(gt))
	With(t, JSONTrait{Unmarshal: func(dst unsafe.Pointer, data []byte) error {
		return json.Unmarshal(data, reflect.NewAt(gt, dst).Interface())
	}})

	if gt.Kind() == reflect.Struct {
		fields := make([]Field, 0, gt.NumField())
		for i := 0; i < gt.NumField(); i++ {
			sf := gt.Field(i)
			if !sf.IsExported() {
				continue
			}
			fields = append(fields, Field{
				Name:   sf.Name,
				Type:   reflectGoType(sf.Type),
				Offset: sf.Offset,
			})
		}
		With(t, FieldsTrait{Fields: fields})
	}

	return t
}

func qualifiedName(gt reflect.Type) string {
	if gt.PkgPath() == "" {
		return gt.String()
	}
	return gt.PkgPath() + "." + gt.Name()
}

// constructibleFor derives a ConstructibleTrait whose Copy/Move/Destruct
// funcs go through reflect.NewAt, which is the idiomatic way to perform a
// generic construct/copy/destruct over an unsafe.Pointer without the
// compile-time type parameter.
func constructibleFor(gt reflect.Type) ConstructibleTrait {
	return ConstructibleTrait{
		Size:  gt.Size(),
		Align: uintptr(gt.Align()),
		Default: func(dst unsafe.Pointer) {
			reflect.NewAt(gt, dst).Elem().Set(reflect.Zero(gt))
		},
		Copy: func(dst, src unsafe.Pointer) {
			srcVal := reflect.NewAt(gt, src).Elem()
			reflect.NewAt(gt, dst).Elem().Set(srcVal)
		},
		Move: func(dst, src unsafe.Pointer) {
			srcPtr := reflect.NewAt(gt, src).Elem()
			reflect.NewAt(gt, dst).Elem().Set(srcPtr)
			srcPtr.Set(reflect.Zero(gt))
		},
		Destruct: func(value unsafe.Pointer) {
			reflect.NewAt(gt, value).Elem().Set(reflect.Zero(gt))
		},
	}
}
