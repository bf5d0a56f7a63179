package memory

import (
	"fmt"
	"unsafe"

	"github.com/TheBitDrifter/bark"
	"github.com/cindervane/forge/reflection"
)

// AnyVector is a densely-packed growable array of values of a single
// reflection.Type. Growth, SwapMove and friends use the type's move
// constructor when present, falling back to copy, and fail outright if
// neither is available for an operation that must relocate existing
// elements (spec §9: "do not bitwise-copy non-trivially-movable payloads").
type AnyVector struct {
	elementType *reflection.Type
	con         reflection.ConstructibleTrait
	data        []byte
	size        int
}

// NewAnyVector constructs an empty vector of the given element type.
func NewAnyVector(elementType *reflection.Type) (*AnyVector, error) {
	con, ok := reflection.Trait[reflection.ConstructibleTrait](elementType)
	if !ok {
		return nil, bark.AddTrace(fmt.Errorf("%w: type %q has no ConstructibleTrait", reflection.ErrMissingTrait, elementType.Name()))
	}
	return &AnyVector{elementType: elementType, con: con}, nil
}

// ElementType returns the type of the elements stored in the vector.
func (v *AnyVector) ElementType() *reflection.Type {
	return v.elementType
}

// Size returns the number of elements currently stored.
func (v *AnyVector) Size() int { return v.size }

// Capacity returns how many elements the vector can hold without
// reallocating.
func (v *AnyVector) Capacity() int {
	if v.con.Size == 0 {
		return 0
	}
	return len(v.data) / int(v.con.Size)
}

// Reserve grows the backing storage to hold at least capacity elements,
// relocating existing elements with the move constructor (falling back to
// copy) if a reallocation is needed.
func (v *AnyVector) Reserve(capacity int) error {
	if v.con.Size == 0 || capacity <= v.Capacity() {
		return nil
	}
	stride := int(v.con.Size)
	newData := make([]byte, capacity*stride)
	if v.size > 0 {
		if err := v.relocateAll(newData, stride); err != nil {
			return err
		}
	}
	v.data = newData
	return nil
}

func (v *AnyVector) relocateAll(newData []byte, stride int) error {
	for i := 0; i < v.size; i++ {
		src := v.elementPtr(i)
		dst := unsafe.Pointer(&newData[i*stride])
		switch {
		case v.con.Move != nil:
			v.con.Move(dst, src)
		case v.con.Copy != nil:
			v.con.Copy(dst, src)
			v.con.Destruct(src)
		default:
			return bark.AddTrace(fmt.Errorf("%w: type %q cannot be relocated (no move or copy constructor)", reflection.ErrUnsupportedOperation, v.elementType.Name()))
		}
	}
	return nil
}

func (v *AnyVector) growIfNeeded() error {
	if v.size < v.Capacity() {
		return nil
	}
	next := v.Capacity() * 2
	if next < 4 {
		next = 4
	}
	return v.Reserve(next)
}

func (v *AnyVector) elementPtr(index int) unsafe.Pointer {
	stride := int(v.con.Size)
	if stride == 0 {
		// Zero-sized elements need no storage; they all share one address.
		return unsafe.Pointer(&zeroSizedElement)
	}
	return unsafe.Pointer(&v.data[index*stride])
}

var zeroSizedElement [1]byte

// PushDefault appends a default-constructed element.
func (v *AnyVector) PushDefault() error {
	if v.con.Default == nil {
		return bark.AddTrace(fmt.Errorf("%w: type %q is not default-constructible", reflection.ErrUnsupportedOperation, v.elementType.Name()))
	}
	if err := v.growIfNeeded(); err != nil {
		return err
	}
	v.con.Default(v.elementPtr(v.size))
	v.size++
	return nil
}

// PushCopy appends a copy of the value at src.
func (v *AnyVector) PushCopy(src unsafe.Pointer) error {
	if v.con.Copy == nil {
		return bark.AddTrace(fmt.Errorf("%w: type %q is not copy-constructible", reflection.ErrUnsupportedOperation, v.elementType.Name()))
	}
	if err := v.growIfNeeded(); err != nil {
		return err
	}
	v.con.Copy(v.elementPtr(v.size), src)
	v.size++
	return nil
}

// PushMove appends an element by moving it out of src.
func (v *AnyVector) PushMove(src unsafe.Pointer) error {
	if v.con.Move == nil {
		return bark.AddTrace(fmt.Errorf("%w: type %q is not move-constructible", reflection.ErrUnsupportedOperation, v.elementType.Name()))
	}
	if err := v.growIfNeeded(); err != nil {
		return err
	}
	v.con.Move(v.elementPtr(v.size), src)
	v.size++
	return nil
}

// Pop destructs and removes the last element.
func (v *AnyVector) Pop() error {
	if v.size == 0 {
		return bark.AddTrace(fmt.Errorf("memory: pop on empty AnyVector of type %q", v.elementType.Name()))
	}
	v.size--
	v.con.Destruct(v.elementPtr(v.size))
	return nil
}

// At returns a pointer to the element at index.
func (v *AnyVector) At(index int) (unsafe.Pointer, error) {
	if index < 0 || index >= v.size {
		return nil, bark.AddTrace(fmt.Errorf("memory: index %d out of bounds (size %d)", index, v.size))
	}
	return v.elementPtr(index), nil
}

// Clear destructs every element and empties the vector, keeping capacity.
func (v *AnyVector) Clear() {
	for i := 0; i < v.size; i++ {
		v.con.Destruct(v.elementPtr(i))
	}
	v.size = 0
}

// SwapErase destructs the element at i and moves the last element into
// its place, preserving density. Used by dense tables to remove a row
// without leaving a hole.
func (v *AnyVector) SwapErase(i int) error {
	if i < 0 || i >= v.size {
		return bark.AddTrace(fmt.Errorf("memory: index %d out of bounds (size %d)", i, v.size))
	}
	last := v.size - 1
	dst := v.elementPtr(i)
	v.con.Destruct(dst)
	if i != last {
		src := v.elementPtr(last)
		switch {
		case v.con.Move != nil:
			v.con.Move(dst, src)
		case v.con.Copy != nil:
			v.con.Copy(dst, src)
			v.con.Destruct(src)
		default:
			return bark.AddTrace(fmt.Errorf("%w: type %q cannot be relocated (no move or copy constructor)", reflection.ErrUnsupportedOperation, v.elementType.Name()))
		}
	}
	v.size--
	return nil
}

// SwapMove moves the element at index i of this vector into a newly
// reserved slot of dst, which must share this vector's element type.
// Afterwards, i is swap-erased from this vector.
func (v *AnyVector) SwapMove(i int, dst *AnyVector) error {
	if dst.elementType != v.elementType {
		return bark.AddTrace(fmt.Errorf("memory: SwapMove element type mismatch: %q vs %q", v.elementType.Name(), dst.elementType.Name()))
	}
	src, err := v.At(i)
	if err != nil {
		return err
	}
	if v.con.Move != nil {
		if err := dst.PushMove(src); err != nil {
			return err
		}
	} else if v.con.Copy != nil {
		if err := dst.PushCopy(src); err != nil {
			return err
		}
	} else {
		return bark.AddTrace(fmt.Errorf("%w: type %q cannot be relocated (no move or copy constructor)", reflection.ErrUnsupportedOperation, v.elementType.Name()))
	}
	// The element was already relocated logically; destruct without a
	// second move by clearing the slot directly rather than calling
	// SwapErase's own Destruct+move-last dance.
	last := v.size - 1
	if i != last {
		srcLast := v.elementPtr(last)
		dstSlot := v.elementPtr(i)
		if v.con.Move != nil {
			v.con.Move(dstSlot, srcLast)
		} else {
			v.con.Copy(dstSlot, srcLast)
			v.con.Destruct(srcLast)
		}
	}
	v.size--
	return nil
}
