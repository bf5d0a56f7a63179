package ecs

import (
	"unsafe"

	"github.com/TheBitDrifter/bark"
	"github.com/cindervane/forge/memory"
)

// Resources holds at most one instance of each registered resource type,
// keyed by DataTypeId. Mirrors cubos's World-level resource map.
type Resources struct {
	types  *Types
	values map[DataTypeId]memory.AnyValue
}

// NewResources constructs an empty resource store.
func NewResources(types *Types) *Resources {
	return &Resources{types: types, values: make(map[DataTypeId]memory.AnyValue)}
}

// Init default-constructs id's resource if it doesn't already exist.
func (r *Resources) Init(id DataTypeId) error {
	if _, ok := r.values[id]; ok {
		return nil
	}
	dt, err := r.types.DataType(id)
	if err != nil {
		return err
	}
	v, err := memory.DefaultConstruct(dt.Type)
	if err != nil {
		return bark.AddTrace(err)
	}
	r.values[id] = v
	return nil
}

// Ptr returns the raw pointer to id's resource value, initializing it
// with its default constructor on first access.
func (r *Resources) Ptr(id DataTypeId) (unsafe.Pointer, error) {
	if err := r.Init(id); err != nil {
		return nil, err
	}
	v := r.values[id]
	return v.Get(), nil
}

// Has reports whether id has been initialized.
func (r *Resources) Has(id DataTypeId) bool {
	_, ok := r.values[id]
	return ok
}
