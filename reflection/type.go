// Package reflection provides runtime type descriptors for values whose
// concrete Go type is only known through an interface, without relying on
// virtual dispatch. A Type carries a unique name and an open set of traits
// attached at registration time.
package reflection

import (
	"fmt"
	"reflect"

	"github.com/TheBitDrifter/bark"
)

// traitKey identifies a trait kind independently of the trait's own type
// parameters, so e.g. every FieldsTrait shares one key regardless of which
// concrete struct it describes.
type traitKey string

// Type is an opaque record carrying a unique name and a set of traits.
// Traits describe the shape of the underlying value (Fields, Array,
// Dictionary, Enum, Mask, StringConversion, Nullable, Inherits); the
// Constructible trait is the only one required for a Type to be usable by
// memory.AnyValue/AnyVector.
type Type struct {
	name   string
	traits map[traitKey]any
}

// NewType constructs a bare Type with the given unique name and no traits.
// Use With to attach traits before registering it.
func NewType(name string) *Type {
	return &Type{name: name, traits: make(map[traitKey]any)}
}

// Name returns the type's globally unique name.
func (t *Type) Name() string {
	return t.name
}

// With attaches a trait to the type and returns the type for chaining.
// Attaching a trait of a kind that is already present overwrites it.
func With[T any](t *Type, trait T) *Type {
	t.traits[traitKeyOf[T]()] = trait
	return t
}

// Has reports whether the type carries a trait of kind T.
func Has[T any](t *Type) bool {
	_, ok := t.traits[traitKeyOf[T]()]
	return ok
}

// Trait looks up the trait of kind T attached to the type.
func Trait[T any](t *Type) (T, bool) {
	var zero T
	v, ok := t.traits[traitKeyOf[T]()]
	if !ok {
		return zero, false
	}
	trait, ok := v.(T)
	return trait, ok
}

// MustTrait looks up the trait of kind T, panicking with a traced error if
// absent. Intended for call sites that already validated the trait exists.
func MustTrait[T any](t *Type) T {
	trait, ok := Trait[T](t)
	if !ok {
		panic(bark.AddTrace(fmt.Errorf("%w: type %q has no trait %T", ErrMissingTrait, t.name, trait)))
	}
	return trait
}

func traitKeyOf[T any]() traitKey {
	var zero T
	return traitKey(reflect.TypeOf(&zero).Elem().String())
}

func (t *Type) String() string {
	return t.name
}
