package scheduler

import "testing"

func TestTopologicalOrderRespectsBeforeAfter(t *testing.T) {
	g := NewTagGraph()
	g.Declare("input")
	g.Declare("physics")
	g.Declare("render")
	g.Before("input", "physics")
	g.After("render", "physics")

	order, err := g.TopologicalOrder()
	if err != nil {
		t.Fatalf("TopologicalOrder: %v", err)
	}
	pos := map[string]int{}
	for i, tag := range order {
		pos[tag] = i
	}
	if pos["input"] >= pos["physics"] {
		t.Fatalf("expected input before physics, got order %v", order)
	}
	if pos["physics"] >= pos["render"] {
		t.Fatalf("expected physics before render, got order %v", order)
	}
}

func TestTopologicalOrderDetectsCycle(t *testing.T) {
	g := NewTagGraph()
	g.Before("a", "b")
	g.Before("b", "a")

	if _, err := g.TopologicalOrder(); err == nil {
		t.Fatalf("expected cycle detection to fail")
	}
}
