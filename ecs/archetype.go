package ecs

import (
	"github.com/TheBitDrifter/mask"
)

// ArchetypeId names an interned component-set. Two entities with the same
// set of component DataTypeIds always share an ArchetypeId. Grounded on
// cubos's core/ecs/archetype_graph.hpp and the teacher's idsGroupedByMask
// interning scheme in storage.go.
type ArchetypeId uint32

// EmptyArchetypeId is the archetype with no components, the root of the
// archetype graph and the archetype every new entity starts in before any
// component is added.
const EmptyArchetypeId ArchetypeId = 0

type archetypeRecord struct {
	id         ArchetypeId
	components []DataTypeId // sorted ascending, defines column order
	mask       mask.Mask
	add        map[DataTypeId]ArchetypeId
	remove     map[DataTypeId]ArchetypeId
}

// ArchetypeGraph interns component sets into ArchetypeIds and caches the
// With/Without transition edges between them, the same transition-cache
// idea lazyecs uses in its addTransitions/removeTransitions maps, adapted
// here to key on DataTypeId instead of a reflect.Type.
type ArchetypeGraph struct {
	byMask   map[mask.Mask]ArchetypeId
	records  []archetypeRecord // index 0 is EmptyArchetypeId
	colIndex map[DataTypeId][]ArchetypeId
}

// NewArchetypeGraph constructs a graph seeded with the empty archetype.
func NewArchetypeGraph() *ArchetypeGraph {
	g := &ArchetypeGraph{
		byMask:   make(map[mask.Mask]ArchetypeId),
		colIndex: make(map[DataTypeId][]ArchetypeId),
	}
	root := archetypeRecord{
		id:     EmptyArchetypeId,
		add:    make(map[DataTypeId]ArchetypeId),
		remove: make(map[DataTypeId]ArchetypeId),
	}
	g.records = append(g.records, root)
	g.byMask[mask.Mask{}] = EmptyArchetypeId
	return g
}

func maskFor(components []DataTypeId) mask.Mask {
	var m mask.Mask
	for _, c := range components {
		m.Mark(uint32(c))
	}
	return m
}

func sortedUnique(ids []DataTypeId) []DataTypeId {
	out := append([]DataTypeId(nil), ids...)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1] > out[j]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	deduped := out[:0]
	for i, id := range out {
		if i == 0 || id != out[i-1] {
			deduped = append(deduped, id)
		}
	}
	return deduped
}

// intern returns the ArchetypeId for an exact component set, creating it
// (and indexing it by every one of its columns) if it doesn't exist yet.
func (g *ArchetypeGraph) intern(components []DataTypeId) ArchetypeId {
	sorted := sortedUnique(components)
	m := maskFor(sorted)
	if id, ok := g.byMask[m]; ok {
		return id
	}
	id := ArchetypeId(len(g.records))
	g.records = append(g.records, archetypeRecord{
		id:         id,
		components: sorted,
		mask:       m,
		add:        make(map[DataTypeId]ArchetypeId),
		remove:     make(map[DataTypeId]ArchetypeId),
	})
	g.byMask[m] = id
	for _, c := range sorted {
		g.colIndex[c] = append(g.colIndex[c], id)
	}
	return id
}

// With returns the archetype reached by adding component to from, caching
// the edge for future calls.
func (g *ArchetypeGraph) With(from ArchetypeId, component DataTypeId) ArchetypeId {
	rec := &g.records[from]
	if to, ok := rec.add[component]; ok {
		return to
	}
	if contains(rec.components, component) {
		rec.add[component] = from
		return from
	}
	next := append(append([]DataTypeId(nil), rec.components...), component)
	to := g.intern(next)
	g.records[from].add[component] = to
	g.records[to].remove[component] = from
	return to
}

// Without returns the archetype reached by removing component from from,
// caching the edge for future calls.
func (g *ArchetypeGraph) Without(from ArchetypeId, component DataTypeId) ArchetypeId {
	rec := &g.records[from]
	if to, ok := rec.remove[component]; ok {
		return to
	}
	if !contains(rec.components, component) {
		rec.remove[component] = from
		return from
	}
	next := make([]DataTypeId, 0, len(rec.components)-1)
	for _, c := range rec.components {
		if c != component {
			next = append(next, c)
		}
	}
	to := g.intern(next)
	g.records[from].remove[component] = to
	g.records[to].add[component] = from
	return to
}

// Columns returns the component set of an archetype, in canonical sorted
// order — the dense table's column order.
func (g *ArchetypeGraph) Columns(id ArchetypeId) []DataTypeId {
	return g.records[id].components
}

// Contains reports whether archetype id has component among its columns.
func (g *ArchetypeGraph) Contains(id ArchetypeId, component DataTypeId) bool {
	return contains(g.records[id].components, component)
}

// ArchetypesWith returns every interned archetype that contains component,
// the index the query planner uses to avoid scanning archetypes that can
// never match a term.
func (g *ArchetypeGraph) ArchetypesWith(component DataTypeId) []ArchetypeId {
	return g.colIndex[component]
}

func contains(ids []DataTypeId, target DataTypeId) bool {
	for _, id := range ids {
		if id == target {
			return true
		}
	}
	return false
}
