// Package query implements the query engine: a small node graph compiled
// from a list of terms, driven left-to-right in alternating
// iterate/validate modes, with O(1) pinning for already-known entities.
// Grounded on cubos's core/include/cubos/core/ecs/query/node/{node,related}.hpp.
package query

import "github.com/cindervane/forge/ecs"

// MaxTargetCount bounds how many distinct entities a single query can
// range over (the primary entity plus relation targets reached via
// Traversal). Matches cubos's query target limit.
const MaxTargetCount = 8

// TargetMask marks which of the up to MaxTargetCount targets have been
// pinned to a concrete entity, either by an earlier driving node or by
// View.Pin.
type TargetMask uint8

// Set returns a copy of m with target bit set.
func (m TargetMask) Set(target int) TargetMask { return m | (1 << uint(target)) }

// Has reports whether target's bit is set.
func (m TargetMask) Has(target int) bool { return m&(1<<uint(target)) != 0 }

// Clear returns a copy of m with target's bit cleared.
func (m TargetMask) Clear(target int) TargetMask { return m &^ (1 << uint(target)) }

// TermKind distinguishes what a Term matches against.
type TermKind uint8

const (
	TermComponent TermKind = iota
	TermEntity
	TermRelation
)

// Access declares whether a term's column is read-only or mutated.
type Access uint8

const (
	AccessRead Access = iota
	AccessWrite
)

// Traversal declares whether a relation term walks toward ancestors,
// descendants, or doesn't traverse at all.
type Traversal uint8

const (
	TraversalNone Traversal = iota
	TraversalUp
	TraversalDown
)

// Term is one clause of a query: match a component/relation on a given
// target, optionally requiring write access, optionally making absence
// acceptable, optionally following a tree relation edge to a different
// target entity. Grounded on spec §4.9's query term table.
type Term struct {
	Kind      TermKind
	Component ecs.DataTypeId
	Access    Access
	Optional  bool
	Traversal Traversal

	// Target is the query-local target slot this term's primary match
	// binds (0 is always the query's main entity).
	Target int

	// RelatesTo is, for TermRelation terms, the target slot the relation
	// edge's other endpoint binds. Unused otherwise.
	RelatesTo int
}
