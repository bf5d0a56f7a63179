// Package memory provides movable, type-erased value containers built on
// top of the reflection package's ConstructibleTrait: AnyValue holds a
// single boxed value, AnyVector holds a densely packed growable array of
// values of one type. Neither knows the concrete Go type of what it
// stores; both operate entirely through function pointers attached to a
// reflection.Type.
package memory

import (
	"fmt"
	"unsafe"

	"github.com/TheBitDrifter/bark"
	"github.com/cindervane/forge/reflection"
)

// AnyValue is a heap-allocated, movable single value carrying the
// descriptor of its type. It owns the memory for its payload; Destroy runs
// the descriptor's destructor unless Release has already marked the value
// as moved out.
type AnyValue struct {
	typ   *reflection.Type
	value unsafe.Pointer
	moved bool
}

func allocate(t *reflection.Type) (*reflection.ConstructibleTrait, unsafe.Pointer, error) {
	con, ok := reflection.Trait[reflection.ConstructibleTrait](t)
	if !ok {
		return nil, nil, bark.AddTrace(fmt.Errorf("%w: type %q has no ConstructibleTrait", reflection.ErrMissingTrait, t.Name()))
	}
	size := con.Size
	if size == 0 {
		size = 1 // zero-sized types still need a valid address
	}
	buf := make([]byte, size)
	return &con, unsafe.Pointer(&buf[0]), nil
}

// DefaultConstruct default-constructs a value of the given type.
func DefaultConstruct(t *reflection.Type) (AnyValue, error) {
	con, ptr, err := allocate(t)
	if err != nil {
		return AnyValue{}, err
	}
	if con.Default == nil {
		return AnyValue{}, bark.AddTrace(fmt.Errorf("%w: type %q is not default-constructible", reflection.ErrUnsupportedOperation, t.Name()))
	}
	con.Default(ptr)
	return AnyValue{typ: t, value: ptr}, nil
}

// CopyConstruct copy-constructs a value of the given type from src.
func CopyConstruct(t *reflection.Type, src unsafe.Pointer) (AnyValue, error) {
	con, ptr, err := allocate(t)
	if err != nil {
		return AnyValue{}, err
	}
	if con.Copy == nil {
		return AnyValue{}, bark.AddTrace(fmt.Errorf("%w: type %q is not copy-constructible", reflection.ErrUnsupportedOperation, t.Name()))
	}
	con.Copy(ptr, src)
	return AnyValue{typ: t, value: ptr}, nil
}

// MoveConstruct move-constructs a value of the given type from src,
// running src's destructor afterwards semantics are delegated to the
// caller since src is an arbitrary external pointer, not an AnyValue.
func MoveConstruct(t *reflection.Type, src unsafe.Pointer) (AnyValue, error) {
	con, ptr, err := allocate(t)
	if err != nil {
		return AnyValue{}, err
	}
	if con.Move == nil {
		return AnyValue{}, bark.AddTrace(fmt.Errorf("%w: type %q is not move-constructible", reflection.ErrUnsupportedOperation, t.Name()))
	}
	con.Move(ptr, src)
	return AnyValue{typ: t, value: ptr}, nil
}

// Type returns the value's type.
func (v *AnyValue) Type() *reflection.Type {
	return v.typ
}

// Get returns a pointer to the underlying value.
func (v *AnyValue) Get() unsafe.Pointer {
	return v.value
}

// Release marks the value as moved out without running the descriptor's
// destructor, so a later Destroy (e.g. via a defer) is a no-op. Callers that hand
// the raw pointer off to another owner (e.g. an AnyVector via PushMove)
// must call Release afterwards.
func (v *AnyValue) Release() {
	v.moved = true
}

// Destroy runs the descriptor's destructor unless the value was already
// released via Release. Safe to call multiple times.
func (v *AnyValue) Destroy() {
	if v.moved || v.value == nil {
		return
	}
	if con, ok := reflection.Trait[reflection.ConstructibleTrait](v.typ); ok {
		con.Destruct(v.value)
	}
	v.moved = true
}
