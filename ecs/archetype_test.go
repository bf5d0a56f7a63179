package ecs

import "testing"

func TestArchetypeGraphWithWithoutRoundTrip(t *testing.T) {
	g := NewArchetypeGraph()
	a := g.With(EmptyArchetypeId, 1)
	b := g.With(a, 2)

	if !g.Contains(b, 1) || !g.Contains(b, 2) {
		t.Fatalf("expected archetype b to contain both components")
	}

	back := g.Without(b, 2)
	if back != a {
		t.Fatalf("expected Without to return to the interned archetype a, got %d want %d", back, a)
	}

	// Re-adding the same component from the empty archetype must return
	// the same interned id, not a new one.
	again := g.With(EmptyArchetypeId, 1)
	if again != a {
		t.Fatalf("expected archetype interning to dedupe identical sets")
	}
}

func TestArchetypeGraphTransitionIsNoOpWhenAlreadyPresent(t *testing.T) {
	g := NewArchetypeGraph()
	a := g.With(EmptyArchetypeId, 1)
	same := g.With(a, 1)
	if same != a {
		t.Fatalf("adding an already-present component should be a no-op transition")
	}
}

func TestArchetypesWithIndexesByColumn(t *testing.T) {
	g := NewArchetypeGraph()
	a := g.With(EmptyArchetypeId, 1)
	b := g.With(a, 2)
	c := g.With(EmptyArchetypeId, 2)

	withTwo := g.ArchetypesWith(2)
	found := map[ArchetypeId]bool{}
	for _, id := range withTwo {
		found[id] = true
	}
	if !found[b] || !found[c] {
		t.Fatalf("expected both archetypes containing component 2 to be indexed, got %v", withTwo)
	}
}
