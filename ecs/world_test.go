package ecs_test

import (
	"testing"

	"github.com/cindervane/forge/ecs"
)

type position struct{ X, Y float64 }
type velocity struct{ X, Y float64 }

func TestCreateDestroyEntity(t *testing.T) {
	w := ecs.NewWorld()
	e := w.Create()
	if !w.Alive(e) {
		t.Fatalf("expected entity alive right after Create")
	}
	if err := w.Destroy(e); err != nil {
		t.Fatalf("Destroy: %v", err)
	}
	if w.Alive(e) {
		t.Fatalf("expected entity dead after Destroy")
	}
}

func TestAddRemoveComponentMovesArchetype(t *testing.T) {
	w := ecs.NewWorld()
	pos, err := ecs.Bind[position](w)
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	e := w.Create()
	if pos.Has(e) {
		t.Fatalf("fresh entity should not have position")
	}

	if _, err := pos.Add(e); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if !pos.Has(e) {
		t.Fatalf("expected position attached")
	}
	if err := pos.Set(e, position{X: 1, Y: 2}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got := pos.Get(e)
	if got == nil || got.X != 1 || got.Y != 2 {
		t.Fatalf("expected position{1,2}, got %+v", got)
	}

	if err := pos.Remove(e); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if pos.Has(e) {
		t.Fatalf("expected position detached")
	}
}

func TestMoveEntityPreservesOtherComponents(t *testing.T) {
	w := ecs.NewWorld()
	pos, _ := ecs.Bind[position](w)
	vel, _ := ecs.Bind[velocity](w)

	e := w.Create()
	_ = pos.Set(e, position{X: 5, Y: 6})
	_ = vel.Set(e, velocity{X: 1, Y: 1})

	if err := pos.Remove(e); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	got := vel.Get(e)
	if got == nil || got.X != 1 || got.Y != 1 {
		t.Fatalf("expected velocity preserved across archetype move, got %+v", got)
	}
}

func TestLockedWorldQueuesStructuralOps(t *testing.T) {
	w := ecs.NewWorld()
	pos, _ := ecs.Bind[position](w)
	e := w.Create()

	w.Lock()
	if _, err := pos.Add(e); err != nil {
		t.Fatalf("Add while locked: %v", err)
	}
	if pos.Has(e) {
		t.Fatalf("expected add to be deferred while locked")
	}
	if err := w.Unlock(); err != nil {
		t.Fatalf("Unlock: %v", err)
	}
	if !pos.Has(e) {
		t.Fatalf("expected queued add applied after unlock")
	}
}

func TestResourceDefaultConstructedThenMutable(t *testing.T) {
	type clock struct{ Frame int }
	w := ecs.NewWorld()
	res, err := ecs.BindResource[clock](w)
	if err != nil {
		t.Fatalf("BindResource: %v", err)
	}
	if res.Get().Frame != 0 {
		t.Fatalf("expected zero-valued default resource")
	}
	res.Get().Frame = 7
	if res.Get().Frame != 7 {
		t.Fatalf("expected mutation through pointer to persist")
	}
}
