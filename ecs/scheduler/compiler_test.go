package scheduler

import "testing"

func TestLayerizeSplitsConflictingSystemsAcrossLayers(t *testing.T) {
	var writeA, readA AccessSet
	writeA.WritesComponent(1)
	readA.ReadsComponent(1)

	registry := NewRegistry()
	s1 := registry.RegisterSystem("writer", "update", writeA, nil)
	s2 := registry.RegisterSystem("reader", "update", readA, nil)

	layers := layerize([]systemRecord{
		{id: s1, access: writeA},
		{id: s2, access: readA},
	})
	if len(layers) != 2 {
		t.Fatalf("expected writer/reader to be split into 2 layers, got %d", len(layers))
	}
}

func TestLayerizePacksNonConflictingSystemsTogether(t *testing.T) {
	var readA, readB AccessSet
	readA.ReadsComponent(1)
	readB.ReadsComponent(2)

	registry := NewRegistry()
	s1 := registry.RegisterSystem("reader-a", "update", readA, nil)
	s2 := registry.RegisterSystem("reader-b", "update", readB, nil)

	layers := layerize([]systemRecord{
		{id: s1, access: readA},
		{id: s2, access: readB},
	})
	if len(layers) != 1 || len(layers[0]) != 2 {
		t.Fatalf("expected both readers packed into a single layer, got %v", layers)
	}
}

func TestCompileOrdersStagesByTag(t *testing.T) {
	registry := NewRegistry()
	var access AccessSet
	registry.RegisterSystem("move", "physics", access, nil)
	registry.RegisterSystem("draw", "render", access, nil)

	tags := NewTagGraph()
	tags.Before("physics", "render")

	schedule, err := NewCompiler(registry, tags).Compile(nil)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if len(schedule.Stages) != 2 {
		t.Fatalf("expected 2 stages, got %d", len(schedule.Stages))
	}
	if schedule.Stages[0].Tag != "physics" || schedule.Stages[1].Tag != "render" {
		t.Fatalf("expected physics before render, got %+v", schedule.Stages)
	}
}
