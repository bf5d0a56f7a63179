package ecs

import "testing"

func TestEntityPoolReservedIsNotAlive(t *testing.T) {
	p := NewEntityPool()
	e := p.Reserve()
	if p.Alive(e) {
		t.Fatalf("reserved-but-uncreated entity should not be alive")
	}
	p.CreateAt(e)
	if !p.Alive(e) {
		t.Fatalf("expected entity alive after CreateAt")
	}
}

func TestEntityPoolRecyclesIndexWithBumpedGeneration(t *testing.T) {
	p := NewEntityPool()
	e := p.Create()
	if !p.Destroy(e) {
		t.Fatalf("expected Destroy to succeed on a live entity")
	}
	recycled := p.Create()
	if recycled.Index != e.Index {
		t.Fatalf("expected index reuse, got %d want %d", recycled.Index, e.Index)
	}
	if recycled.Generation == e.Generation {
		t.Fatalf("expected generation bump on recycled index")
	}
	if p.Alive(e) {
		t.Fatalf("stale handle must not read as alive after recycling")
	}
}

func TestEntityPoolDestroyTwiceIsNoOp(t *testing.T) {
	p := NewEntityPool()
	e := p.Create()
	if !p.Destroy(e) {
		t.Fatalf("first Destroy should succeed")
	}
	if p.Destroy(e) {
		t.Fatalf("second Destroy on the same handle should be a no-op")
	}
}
