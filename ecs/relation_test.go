package ecs_test

import (
	"testing"

	"github.com/cindervane/forge/ecs"
)

type childOf struct{}
type friendOf struct{ Since int }

func TestSymmetricRelationCanonicalOrdering(t *testing.T) {
	w := ecs.NewWorld()
	friend, err := ecs.BindRelation[friendOf](w, ecs.FlagSymmetric)
	if err != nil {
		t.Fatalf("BindRelation: %v", err)
	}
	a := w.Create()
	b := w.Create()

	if _, err := friend.Add(a, b); err != nil {
		t.Fatalf("Add: %v", err)
	}
	// Lookup from either direction must see the same edge.
	if _, ok := friend.Get(a, b); !ok {
		t.Fatalf("expected edge a->b visible")
	}
	if _, ok := friend.Get(b, a); !ok {
		t.Fatalf("expected edge b->a visible (symmetric)")
	}
}

func TestTreeRelationRejectsCycle(t *testing.T) {
	w := ecs.NewWorld()
	parent, err := ecs.BindRelation[childOf](w, ecs.FlagTree)
	if err != nil {
		t.Fatalf("BindRelation: %v", err)
	}
	root := w.Create()
	child := w.Create()
	grandchild := w.Create()

	if _, err := parent.Add(root, child); err != nil {
		t.Fatalf("Add root->child: %v", err)
	}
	if _, err := parent.Add(child, grandchild); err != nil {
		t.Fatalf("Add child->grandchild: %v", err)
	}
	if _, err := parent.Add(grandchild, root); err == nil {
		t.Fatalf("expected cycle rejection for grandchild->root")
	}
}

func TestTreeRelationKeepsOnlyOneOutgoingEdge(t *testing.T) {
	w := ecs.NewWorld()
	parent, err := ecs.BindRelation[childOf](w, ecs.FlagTree)
	if err != nil {
		t.Fatalf("BindRelation: %v", err)
	}
	c := w.Create()
	p1 := w.Create()
	p2 := w.Create()

	if _, err := parent.Add(c, p1); err != nil {
		t.Fatalf("Add c->p1: %v", err)
	}
	if _, err := parent.Add(c, p2); err != nil {
		t.Fatalf("Add c->p2: %v", err)
	}

	if _, ok := parent.Get(c, p1); ok {
		t.Fatalf("expected the c->p1 edge to be replaced")
	}
	if _, ok := parent.Get(c, p2); !ok {
		t.Fatalf("expected the c->p2 edge to remain")
	}
}

func TestRelationRemovedWhenEntityDestroyed(t *testing.T) {
	w := ecs.NewWorld()
	rel, _ := ecs.BindRelation[childOf](w, 0)
	a := w.Create()
	b := w.Create()
	_, _ = rel.Add(a, b)

	if err := w.Destroy(a); err != nil {
		t.Fatalf("Destroy: %v", err)
	}
	if _, ok := rel.Get(a, b); ok {
		t.Fatalf("expected edge purged after endpoint destroyed")
	}
}
