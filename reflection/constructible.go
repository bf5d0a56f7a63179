package reflection

import "unsafe"

// ConstructibleTrait is the one trait required of any type manipulated
// generically at runtime: it supplies size, alignment, and the function
// pointers needed to bring a value in and out of existence without the
// caller knowing its concrete Go type.
//
// Any of the constructor functions may be nil, in which case the operation
// that would need it fails with ErrUnsupportedOperation rather than being
// silently skipped.
type ConstructibleTrait struct {
	Size  uintptr
	Align uintptr

	// Default constructs a zero value of the type at dst.
	Default func(dst unsafe.Pointer)
	// Copy constructs a copy of src at dst. dst and src never alias.
	Copy func(dst, src unsafe.Pointer)
	// Move constructs a value at dst by taking ownership of src's value,
	// leaving src in a state that Destruct can still be safely called on.
	Move func(dst, src unsafe.Pointer)
	// Destruct runs the type's destructor on value. Required.
	Destruct func(value unsafe.Pointer)
}

// DefaultConstructible reports whether Default is usable.
func (c ConstructibleTrait) DefaultConstructible() bool { return c.Default != nil }

// CopyConstructible reports whether Copy is usable.
func (c ConstructibleTrait) CopyConstructible() bool { return c.Copy != nil }

// MoveConstructible reports whether Move is usable.
func (c ConstructibleTrait) MoveConstructible() bool { return c.Move != nil }
