package ecs

import (
	"fmt"

	"github.com/TheBitDrifter/bark"
	"github.com/cindervane/forge/reflection"
)

// DataTypeId identifies a registered data type (resource, component, or
// relation) inside a World. Grounded on cubos's core/ecs/types.hpp.
type DataTypeId uint32

// InvalidDataTypeId never identifies a registered type.
const InvalidDataTypeId DataTypeId = 0

// DataTypeKind classifies what a registered data type is used for.
type DataTypeKind uint8

const (
	KindComponent DataTypeKind = iota
	KindRelation
	KindResource
)

// DataTypeFlags carries the relation sub-flags from spec §3. Symmetric and
// Tree are mutually exclusive.
type DataTypeFlags uint8

const (
	FlagSymmetric DataTypeFlags = 1 << iota
	FlagTree
	FlagEphemeral
)

// DataType is the registered record for one component, relation, or
// resource type: its reflection descriptor, kind, and flags. Component
// storage is built directly from Type's ConstructibleTrait (see
// memory.AnyVector) rather than from a separately-typed table column
// handle — see DESIGN.md for why the dense-table package's statically
// typed ElementType model doesn't fit runtime-registered component types.
type DataType struct {
	ID    DataTypeId
	Name  string
	Kind  DataTypeKind
	Flags DataTypeFlags
	Type  *reflection.Type
}

// Symmetric reports whether this is a symmetric relation.
func (d DataType) Symmetric() bool { return d.Flags&FlagSymmetric != 0 }

// Tree reports whether this is a tree relation.
func (d DataType) Tree() bool { return d.Flags&FlagTree != 0 }

// Ephemeral reports whether the type is marked ephemeral. The flag is only
// recorded: nothing in this package clears ephemeral data at the end of a
// frame or otherwise treats it differently from other data.
func (d DataType) Ephemeral() bool { return d.Flags&FlagEphemeral != 0 }

// Types is the per-World registry mapping unique names to DataTypeIds.
// Mirrors cubos's Types class.
type Types struct {
	byName map[string]DataTypeId
	byID   []DataType // index 0 unused (InvalidDataTypeId)
}

// NewTypes constructs an empty registry. Index 0 is reserved so
// InvalidDataTypeId never aliases a real entry.
func NewTypes() *Types {
	return &Types{
		byName: make(map[string]DataTypeId),
		byID:   []DataType{{}},
	}
}

func (t *Types) register(name string, kind DataTypeKind, flags DataTypeFlags, rt *reflection.Type) (DataTypeId, error) {
	if flags&FlagSymmetric != 0 && flags&FlagTree != 0 {
		return InvalidDataTypeId, bark.AddTrace(ErrFlagConflict)
	}
	if id, ok := t.byName[name]; ok {
		return id, nil
	}
	id := DataTypeId(len(t.byID))
	t.byID = append(t.byID, DataType{
		ID: id, Name: name, Kind: kind, Flags: flags, Type: rt,
	})
	t.byName[name] = id
	return id, nil
}

// RegisterComponent registers rt as a component type, idempotent on name.
func (t *Types) RegisterComponent(rt *reflection.Type) (DataTypeId, error) {
	return t.register(rt.Name(), KindComponent, 0, rt)
}

// RegisterRelation registers rt as a relation type with the given flags.
func (t *Types) RegisterRelation(rt *reflection.Type, flags DataTypeFlags) (DataTypeId, error) {
	return t.register(rt.Name(), KindRelation, flags, rt)
}

// RegisterResource registers rt as a resource type.
func (t *Types) RegisterResource(rt *reflection.Type) (DataTypeId, error) {
	return t.register(rt.Name(), KindResource, 0, rt)
}

// ID returns the id of a registered type by name.
func (t *Types) ID(name string) (DataTypeId, bool) {
	id, ok := t.byName[name]
	return id, ok
}

// DataType returns the registered record for id.
func (t *Types) DataType(id DataTypeId) (DataType, error) {
	if int(id) <= 0 || int(id) >= len(t.byID) {
		return DataType{}, bark.AddTrace(fmt.Errorf("%w: id %d", ErrUnknownDataType, id))
	}
	return t.byID[id], nil
}

// Lookup returns the registered record by name.
func (t *Types) Lookup(name string) (DataType, bool) {
	id, ok := t.byName[name]
	if !ok {
		return DataType{}, false
	}
	return t.byID[id], true
}

// All returns every registered data type.
func (t *Types) All() []DataType {
	return t.byID[1:]
}
