package query

import "github.com/cindervane/forge/ecs"

// Iterator holds the query's current binding: one entity per target
// slot, and which slots are currently bound (either pinned externally or
// driven by a node earlier in the plan).
type Iterator struct {
	targets [MaxTargetCount]ecs.Entity
	pinned  TargetMask
	bound   TargetMask
}

// NewIterator constructs an iterator with no target bound.
func NewIterator() *Iterator {
	return &Iterator{}
}

// Pin fixes target to entity for the lifetime of this iterator, giving
// any node touching that target an O(1) validate instead of a scan —
// this is the mechanism behind View.Pin.
func (it *Iterator) Pin(target int, entity ecs.Entity) {
	it.targets[target] = entity
	it.pinned = it.pinned.Set(target)
	it.bound = it.bound.Set(target)
}

// Entity returns the entity currently bound to target.
func (it *Iterator) Entity(target int) ecs.Entity {
	return it.targets[target]
}

// bind assigns entity to target unless target is pinned, in which case
// it instead reports whether entity matches the pinned value.
func (it *Iterator) bind(target int, entity ecs.Entity) bool {
	if it.pinned.Has(target) {
		return it.targets[target] == entity
	}
	it.targets[target] = entity
	it.bound = it.bound.Set(target)
	return true
}

// unbind clears target's bound bit, unless target is pinned, so the next
// call to its driving node's Next dispatches into drive() again instead of
// re-validating the candidate bound on the previous pass. Called by Run
// before every attempt to advance a target's driver.
func (it *Iterator) unbind(target int) {
	if it.pinned.Has(target) {
		return
	}
	it.bound = it.bound.Clear(target)
}

// Node is one compiled query clause: it contributes to binding one (or,
// for a relation, two) target entities, either by driving (enumerating
// candidates) or validating (checking the currently bound entity)
// depending on whether its target is already bound when Next is called.
// Grounded on cubos's core/include/cubos/core/ecs/query/node/node.hpp.
type Node interface {
	// Cursor is the target slot this node primarily drives/validates.
	Cursor() int
	// Pins reports every target this node can bind when driving.
	Pins() TargetMask
	// Estimate gives the planner a relative cost (entity count) used to
	// sort nodes so cheaper drivers run first.
	Estimate(world *ecs.World) uint64
	// Update refreshes any world-derived state cached by the node (the
	// matching archetype list, in ArchetypeNode's case) — called once
	// per query execution, before the first Next.
	Update(world *ecs.World)
	// Next advances the node: if its Cursor target isn't yet bound on
	// it, Next drives (walks to the next candidate, binding it.targets);
	// if it is already bound, Next validates that binding against this
	// node's own constraint. Returns false when driving is exhausted or
	// validation fails.
	Next(world *ecs.World, it *Iterator) bool
}

// ArchetypeNode matches a component term: while driving, it walks every
// archetype containing Component row by row; while validating, it checks
// the bound entity's archetype contains Component.
type ArchetypeNode struct {
	term Term

	archetypes []ecs.ArchetypeId
	ai         int
	table      *ecs.DenseTable
	row        int
}

// NewArchetypeNode constructs a node for a component/entity term.
func NewArchetypeNode(term Term) *ArchetypeNode {
	return &ArchetypeNode{term: term}
}

func (n *ArchetypeNode) Cursor() int      { return n.term.Target }
func (n *ArchetypeNode) Pins() TargetMask { return TargetMask(0).Set(n.term.Target) }

// Estimate sums the entity count across every archetype containing the
// term's component, giving the planner a real, if coarse, selectivity
// signal — cheap archetypes (few matching entities) sort first.
func (n *ArchetypeNode) Estimate(world *ecs.World) uint64 {
	if n.term.Kind == TermEntity {
		return ^uint64(0) // always the most expensive: matches everything
	}
	var total uint64
	for _, a := range world.Archetypes().ArchetypesWith(n.term.Component) {
		if t, ok := world.Dense().Existing(a); ok {
			total += uint64(t.Len())
		}
	}
	return total
}

func (n *ArchetypeNode) Update(world *ecs.World) {
	if n.term.Kind == TermEntity {
		return
	}
	n.archetypes = world.Archetypes().ArchetypesWith(n.term.Component)
	n.ai, n.row = 0, -1
	n.table = nil
}

func (n *ArchetypeNode) Next(world *ecs.World, it *Iterator) bool {
	target := n.term.Target
	if !it.bound.Has(target) {
		return n.drive(world, it)
	}
	return n.validate(world, it)
}

func (n *ArchetypeNode) drive(world *ecs.World, it *Iterator) bool {
	if n.term.Kind == TermEntity {
		return false // an entity term never drives on its own: it needs another term to enumerate
	}
	for {
		if n.table == nil {
			if n.ai >= len(n.archetypes) {
				return false
			}
			t, err := world.Dense().Get(n.archetypes[n.ai])
			if err != nil {
				return false
			}
			n.table = t
			n.row = 0
		}
		if n.row >= n.table.Len() {
			n.ai++
			n.table = nil
			continue
		}
		e := n.table.EntityAt(n.row)
		n.row++
		if it.bind(target, e) {
			return true
		}
	}
}

func (n *ArchetypeNode) validate(world *ecs.World, it *Iterator) bool {
	e := it.Entity(target(n.term))
	if n.term.Kind == TermEntity {
		return world.Alive(e)
	}
	ok := world.Has(e, n.term.Component)
	if !ok && n.term.Optional {
		return true
	}
	return ok
}

func target(t Term) int { return t.Target }

// RelatedNode matches a relation term between two targets. For Traversal
// None and Up the edge's "from" slot is RelatesTo and its "to" slot is
// Target; for Traversal Down the two swap, so Target receives the
// descendants of the entity bound at RelatesTo.
// Grounded on cubos's core/include/cubos/core/ecs/query/node/related.hpp.
type RelatedNode struct {
	term  Term
	rel   *ecs.RelationTable
	edges []ecs.Entity
	ei    int
}

// NewRelatedNode constructs a node for a relation term.
func NewRelatedNode(term Term) *RelatedNode {
	return &RelatedNode{term: term}
}

func (n *RelatedNode) Cursor() int { return n.term.Target }
func (n *RelatedNode) Pins() TargetMask {
	return TargetMask(0).Set(n.term.Target).Set(n.term.RelatesTo)
}

// Estimate is not cheaply computable without pinning one side first, so
// related terms sort after plain component terms by returning a high,
// fixed cost; the planner still runs component terms first whenever one
// is present on the shared target, which pins the side this node needs.
func (n *RelatedNode) Estimate(world *ecs.World) uint64 {
	return ^uint64(0) / 2
}

func (n *RelatedNode) Update(world *ecs.World) {
	t, err := world.Relations().Get(n.term.Component)
	if err != nil {
		t = nil
	}
	n.rel = t
	n.edges = nil
	n.ei = 0
}

func (n *RelatedNode) Next(world *ecs.World, it *Iterator) bool {
	if n.rel == nil {
		return false
	}
	from, to := n.term.RelatesTo, n.term.Target
	if n.term.Traversal == TraversalDown {
		from, to = to, from
	}
	switch {
	case it.bound.Has(from) && !it.bound.Has(to):
		return n.driveForward(it, from, to)
	case !it.bound.Has(from) && it.bound.Has(to):
		return n.driveBackward(it, from, to)
	case it.bound.Has(from) && it.bound.Has(to):
		_, ok := n.rel.Get(false, it.Entity(from), it.Entity(to))
		return ok
	default:
		return false // neither side bound: related terms never originate a scan
	}
}

// driveForward binds to from the entity already bound at from. A plain
// term (Traversal None) walks a single hop; Traversal Up instead walks
// the full ancestor chain, one tuple per ancestor, nearest first.
func (n *RelatedNode) driveForward(it *Iterator, from, to int) bool {
	if n.edges == nil && n.ei == 0 {
		if n.term.Traversal == TraversalUp {
			n.edges = n.rel.Ancestors(it.Entity(from))
		} else {
			n.edges = n.rel.From(it.Entity(from))
		}
	}
	for n.ei < len(n.edges) {
		e := n.edges[n.ei]
		n.ei++
		if it.bind(to, e) {
			return true
		}
	}
	return false
}

// driveBackward binds from from the entity already bound at to. A plain
// term (Traversal None) walks a single hop; Traversal Down instead walks
// the full descendant subtree, one tuple per descendant, nearest depth
// first.
func (n *RelatedNode) driveBackward(it *Iterator, from, to int) bool {
	if n.edges == nil && n.ei == 0 {
		if n.term.Traversal == TraversalDown {
			n.edges = n.rel.Descendants(it.Entity(to))
		} else {
			n.edges = n.rel.To(it.Entity(to))
		}
	}
	for n.ei < len(n.edges) {
		e := n.edges[n.ei]
		n.ei++
		if it.bind(from, e) {
			return true
		}
	}
	return false
}
