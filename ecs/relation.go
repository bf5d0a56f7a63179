package ecs

import (
	"unsafe"

	"github.com/TheBitDrifter/bark"
	"github.com/cindervane/forge/memory"
)

// relationEdge is one stored (from, to) pair for a single relation type,
// plus the row of its data inside that type's AnyVector.
type relationEdge struct {
	from Entity
	to   Entity
	row  int
}

// RelationTable is the sparse storage for one relation type: unlike a
// component's DenseTable, rows are keyed by an (from, to) entity pair
// rather than by archetype membership, since the number of edges per
// entity is unbounded and usually small. Grounded on cubos's
// core/ecs/table.hpp SparseRelationTable and on spec §3's sparse-relation
// requirements.
type RelationTable struct {
	dataType DataTypeId
	data     *memory.AnyVector
	edges    []relationEdge         // row-indexed by AnyVector row
	byFrom   map[uint32][]int       // entity index -> edge rows
	byTo     map[uint32][]int       // entity index -> edge rows
	depth    map[uint32]int         // tree relations only: depth of entity as a child
	children map[uint32][]uint32    // tree relations only: parent index -> child indices
}

// NewRelationTable allocates empty sparse storage for a relation type.
func NewRelationTable(types *Types, dataType DataTypeId) (*RelationTable, error) {
	record, err := types.DataType(dataType)
	if err != nil {
		return nil, err
	}
	vec, err := memory.NewAnyVector(record.Type)
	if err != nil {
		return nil, bark.AddTrace(err)
	}
	rt := &RelationTable{
		dataType: dataType,
		data:     vec,
		byFrom:   make(map[uint32][]int),
		byTo:     make(map[uint32][]int),
	}
	if record.Tree() {
		rt.depth = make(map[uint32]int)
		rt.children = make(map[uint32][]uint32)
	}
	return rt, nil
}

// canonicalOrder returns (from, to) reordered so that, for a symmetric
// relation, the entity with the smaller Index is always stored as "from".
// Per the decided Open Question: ties (equal Index, impossible for
// distinct live entities) are not special-cased.
func canonicalOrder(symmetric bool, from, to Entity) (Entity, Entity, bool) {
	if !symmetric || from.Index <= to.Index {
		return from, to, false
	}
	return to, from, true
}

// find returns the edge row for (from, to), accounting for symmetric
// canonicalization.
func (rt *RelationTable) find(symmetric bool, from, to Entity) (int, bool) {
	cfrom, cto, _ := canonicalOrder(symmetric, from, to)
	for _, row := range rt.byFrom[cfrom.Index] {
		if rt.edges[row].to == cto {
			return row, true
		}
	}
	return 0, false
}

// wouldCycle reports whether inserting a tree edge parent->child would
// make child an ancestor of parent (i.e. parent is already a descendant
// of child).
func (rt *RelationTable) wouldCycle(parent, child Entity) bool {
	if parent == child {
		return true
	}
	stack := []uint32{parent.Index}
	seen := map[uint32]bool{}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[n] {
			continue
		}
		seen[n] = true
		if n == child.Index {
			return true
		}
		for _, row := range rt.byTo[n] {
			stack = append(stack, rt.edges[row].from.Index)
		}
	}
	return false
}

// Insert adds the edge from -> to with a default-constructed relation
// value and returns a pointer to it; if the edge already exists, its
// current value is kept and a pointer to it is returned.
// isTree indicates whether the owning DataType carries FlagTree. Per
// spec's relate contract, a tree relation allows at most one outgoing
// edge per "from" entity: inserting a second edge from the same entity
// first drops the existing one.
func (rt *RelationTable) Insert(symmetric, isTree bool, from, to Entity) (unsafe.Pointer, error) {
	if isTree && rt.wouldCycle(from, to) {
		return nil, bark.AddTrace(ErrTreeCycle)
	}
	cfrom, cto, _ := canonicalOrder(symmetric, from, to)
	if row, ok := rt.find(symmetric, from, to); ok {
		ptr, err := rt.data.At(row)
		if err != nil {
			return nil, bark.AddTrace(err)
		}
		return ptr, nil
	}
	if isTree {
		for len(rt.byFrom[cfrom.Index]) > 0 {
			if err := rt.removeRow(rt.byFrom[cfrom.Index][0]); err != nil {
				return nil, err
			}
		}
	}
	if err := rt.data.PushDefault(); err != nil {
		return nil, bark.AddTrace(err)
	}
	row := rt.data.Size() - 1
	rt.edges = append(rt.edges, relationEdge{from: cfrom, to: cto, row: row})
	rt.byFrom[cfrom.Index] = append(rt.byFrom[cfrom.Index], row)
	rt.byTo[cto.Index] = append(rt.byTo[cto.Index], row)
	if isTree {
		rt.depth[cto.Index] = rt.depth[cfrom.Index] + 1
		rt.children[cfrom.Index] = append(rt.children[cfrom.Index], cto.Index)
	}
	ptr, err := rt.data.At(row)
	if err != nil {
		return nil, bark.AddTrace(err)
	}
	return ptr, nil
}

// Get returns a pointer to the relation value stored for (from, to).
func (rt *RelationTable) Get(symmetric bool, from, to Entity) (unsafe.Pointer, bool) {
	row, ok := rt.find(symmetric, from, to)
	if !ok {
		return nil, false
	}
	ptr, err := rt.data.At(row)
	if err != nil {
		return nil, false
	}
	return ptr, true
}

// Remove deletes the edge (from, to) if present.
func (rt *RelationTable) Remove(symmetric bool, from, to Entity) error {
	row, ok := rt.find(symmetric, from, to)
	if !ok {
		return nil
	}
	return rt.removeRow(row)
}

func (rt *RelationTable) removeRow(row int) error {
	edge := rt.edges[row]
	if err := rt.data.SwapErase(row); err != nil {
		return bark.AddTrace(err)
	}
	rt.byFrom[edge.from.Index] = removeInt(rt.byFrom[edge.from.Index], row)
	rt.byTo[edge.to.Index] = removeInt(rt.byTo[edge.to.Index], row)
	delete(rt.depth, edge.to.Index)
	if rt.children != nil {
		rt.children[edge.from.Index] = removeUint32(rt.children[edge.from.Index], edge.to.Index)
	}

	last := len(rt.edges) - 1
	if row != last {
		moved := rt.edges[last]
		rt.edges[row] = moved
		rt.byFrom[moved.from.Index] = replaceInt(rt.byFrom[moved.from.Index], last, row)
		rt.byTo[moved.to.Index] = replaceInt(rt.byTo[moved.to.Index], last, row)
	}
	rt.edges = rt.edges[:last]
	return nil
}

// RemoveAllFor deletes every edge touching entity e, from either side —
// used when e is destroyed.
func (rt *RelationTable) RemoveAllFor(e Entity) {
	for {
		rows := append([]int(nil), rt.byFrom[e.Index]...)
		rows = append(rows, rt.byTo[e.Index]...)
		if len(rows) == 0 {
			return
		}
		_ = rt.removeRow(rows[0])
	}
}

// Depth returns the tree depth of e (0 for a root or non-tree relation).
func (rt *RelationTable) Depth(e Entity) int {
	if rt.depth == nil {
		return 0
	}
	return len(rt.Ancestors(e))
}

// From returns every "to" entity related from e.
func (rt *RelationTable) From(e Entity) []Entity {
	rows := rt.byFrom[e.Index]
	out := make([]Entity, 0, len(rows))
	for _, row := range rows {
		out = append(out, rt.edges[row].to)
	}
	return out
}

// To returns every "from" entity related to e.
func (rt *RelationTable) To(e Entity) []Entity {
	rows := rt.byTo[e.Index]
	out := make([]Entity, 0, len(rows))
	for _, row := range rows {
		out = append(out, rt.edges[row].from)
	}
	return out
}

func removeInt(s []int, v int) []int {
	for i, x := range s {
		if x == v {
			return append(s[:i], s[i+1:]...)
		}
	}
	return s
}

func replaceInt(s []int, old, new int) []int {
	for i, x := range s {
		if x == old {
			s[i] = new
			return s
		}
	}
	return s
}

func removeUint32(s []uint32, v uint32) []uint32 {
	for i, x := range s {
		if x == v {
			return append(s[:i], s[i+1:]...)
		}
	}
	return s
}

// Ancestors returns every ancestor of e reachable by repeatedly following
// outgoing edges, nearest first — e.g. for a ChildOf relation, e's
// parent, then grandparent, and so on. Since Insert enforces at most one
// outgoing edge per entity for tree relations, this is a single
// deterministic chain. Used by RelatedNode for Traversal Up.
func (rt *RelationTable) Ancestors(e Entity) []Entity {
	var out []Entity
	seen := map[uint32]bool{e.Index: true}
	cur := e
	for {
		next := rt.From(cur)
		if len(next) == 0 {
			break
		}
		n := next[0]
		if seen[n.Index] {
			break // Insert's cycle check already prevents this; defensive only
		}
		seen[n.Index] = true
		out = append(out, n)
		cur = n
	}
	return out
}

// Descendants returns every descendant of e reachable by repeatedly
// following incoming edges, breadth-first (nearest depth first) — e.g.
// for a ChildOf relation, e's direct children, then grandchildren, and
// so on. Unlike Ancestors this can branch, since several entities may
// share the same outgoing target. Used by RelatedNode for Traversal
// Down.
func (rt *RelationTable) Descendants(e Entity) []Entity {
	var out []Entity
	seen := map[uint32]bool{e.Index: true}
	queue := []Entity{e}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, child := range rt.To(cur) {
			if seen[child.Index] {
				continue
			}
			seen[child.Index] = true
			out = append(out, child)
			queue = append(queue, child)
		}
	}
	return out
}

// RelationTables indexes one RelationTable per registered relation
// DataTypeId, created lazily.
type RelationTables struct {
	types  *Types
	tables map[DataTypeId]*RelationTable
}

// NewRelationTables constructs an index bound to the given type registry.
func NewRelationTables(types *Types) *RelationTables {
	return &RelationTables{types: types, tables: make(map[DataTypeId]*RelationTable)}
}

// Get returns (creating if necessary) the relation table for id.
func (rt *RelationTables) Get(id DataTypeId) (*RelationTable, error) {
	if t, ok := rt.tables[id]; ok {
		return t, nil
	}
	t, err := NewRelationTable(rt.types, id)
	if err != nil {
		return nil, err
	}
	rt.tables[id] = t
	return t, nil
}

// RemoveEntity purges every edge touching e across every relation type,
// called when e is destroyed.
func (rt *RelationTables) RemoveEntity(e Entity) {
	for _, t := range rt.tables {
		t.RemoveAllFor(e)
	}
}
