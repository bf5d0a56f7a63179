package ecs

import (
	"errors"
	"fmt"
)

// SetupError wraps failures that must abort Builder.Run before any system
// executes: duplicate type names, missing plugin dependencies, cyclic tag
// graphs, cyclic inheritance.
type SetupError struct {
	Reason string
}

func (e SetupError) Error() string {
	return fmt.Sprintf("ecs: setup error: %s", e.Reason)
}

var (
	// ErrInvalidEntity marks an operation against a destroyed or
	// never-reserved entity. World.Add and World.Remove on an unlocked
	// world return it (wrapped) for such an entity; nothing is logged.
	ErrInvalidEntity = errors.New("ecs: invalid entity")

	// ErrInvalidHandle marks dereferencing a null or stale resource handle.
	ErrInvalidHandle = errors.New("ecs: invalid handle")

	// ErrUnknownDataType marks a lookup against an unregistered type name.
	ErrUnknownDataType = errors.New("ecs: unknown data type")

	// ErrLocked marks a structural mutation attempted while the storage is
	// locked by an in-progress query iteration.
	ErrLocked = errors.New("ecs: storage is locked")

	// ErrFlagConflict marks registering a relation as both Symmetric and
	// Tree, which the spec forbids.
	ErrFlagConflict = errors.New("ecs: symmetric and tree flags are mutually exclusive")

	// ErrTreeCycle marks a tree relation insert that would make an entity
	// its own ancestor.
	ErrTreeCycle = errors.New("ecs: tree relation would introduce a cycle")

	// ErrRelationNotFound marks a lookup against a (from, to) pair that
	// has no edge for the given relation type.
	ErrRelationNotFound = errors.New("ecs: relation edge not found")
)
