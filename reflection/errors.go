package reflection

import "errors"

// ErrMissingTrait is returned (or wrapped) when an operation requires a
// trait the type's descriptor does not carry.
var ErrMissingTrait = errors.New("reflection: type does not carry the required trait")

// ErrUnsupportedOperation is returned when a trait is present but the
// specific optional function it would need (e.g. a copy constructor) is nil.
var ErrUnsupportedOperation = errors.New("reflection: operation unsupported by this type's trait")

// ErrNameCollision is returned by Registry.Register when two distinct
// descriptors claim the same name.
var ErrNameCollision = errors.New("reflection: type name already registered to a different descriptor")
