package app

import "testing"

type health struct{ HP int }
type childOf struct{}

func TestLoadBlueprintSpawnsEntitiesWithComponentsAndRelations(t *testing.T) {
	b := NewBuilder()
	hp := Component[health](b)
	rel := Relation[childOf](b, Tree())

	data := []byte(`{
		"~/": {
			"github.com/cindervane/forge/app.health": {"HP": 10}
		},
		"child": {
			"github.com/cindervane/forge/app.health": {"HP": 5},
			"relations": {
				"github.com/cindervane/forge/app.childOf": {"~/": {}}
			}
		}
	}`)

	bp, err := LoadBlueprint(b.World().Types(), data)
	if err != nil {
		t.Fatalf("LoadBlueprint: %v", err)
	}

	buffer := b.World().Buffer()
	named := buffer.Spawn(bp)
	if err := buffer.Drain(); err != nil {
		t.Fatalf("Drain: %v", err)
	}

	root, child := named["~/"], named["child"]
	if got := hp.Get(root); got == nil || got.HP != 10 {
		t.Fatalf("expected root HP 10, got %+v", got)
	}
	if got := hp.Get(child); got == nil || got.HP != 5 {
		t.Fatalf("expected child HP 5, got %+v", got)
	}
	if _, ok := rel.Get(child, root); !ok {
		t.Fatalf("expected a childOf edge from child to root")
	}
}

func TestLoadBlueprintRejectsUnknownTypeName(t *testing.T) {
	b := NewBuilder()
	Component[health](b)

	data := []byte(`{"~/": {"nonexistent.Type": {}}}`)
	if _, err := LoadBlueprint(b.World().Types(), data); err == nil {
		t.Fatalf("expected an unknown type name to fail the load")
	}
}

func TestLoadSceneRenamesImportedEntitiesByPrefix(t *testing.T) {
	b := NewBuilder()
	hp := Component[health](b)

	inner := []byte(`{
		"~/": {"github.com/cindervane/forge/app.health": {"HP": 7}}
	}`)
	outer := []byte(`{
		"imports": {"npc": "inner-scene"},
		"~/": {"github.com/cindervane/forge/app.health": {"HP": 1}}
	}`)

	resolve := func(ref string) ([]byte, error) {
		if ref == "inner-scene" {
			return inner, nil
		}
		t.Fatalf("unexpected scene reference %q", ref)
		return nil, nil
	}

	bp, err := LoadScene(b.World().Types(), outer, resolve)
	if err != nil {
		t.Fatalf("LoadScene: %v", err)
	}
	if _, ok := bp.Entities["npc"]; !ok {
		t.Fatalf("expected the imported root to be renamed to the bare prefix %q, got %v", "npc", bp.Entities)
	}

	buffer := b.World().Buffer()
	named := buffer.Spawn(bp)
	if err := buffer.Drain(); err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if got := hp.Get(named["npc"]); got == nil || got.HP != 7 {
		t.Fatalf("expected imported root HP 7, got %+v", got)
	}
	if got := hp.Get(named["~/"]); got == nil || got.HP != 1 {
		t.Fatalf("expected outer root HP 1, got %+v", got)
	}
}

func TestLoadSceneRejectsImportCycle(t *testing.T) {
	b := NewBuilder()
	Component[health](b)

	a := []byte(`{"imports": {"b": "scene-b"}, "~/": {}}`)
	c := []byte(`{"imports": {"a": "scene-a"}, "~/": {}}`)

	resolve := func(ref string) ([]byte, error) {
		switch ref {
		case "scene-a":
			return a, nil
		case "scene-b":
			return c, nil
		}
		t.Fatalf("unexpected scene reference %q", ref)
		return nil, nil
	}

	if _, err := LoadScene(b.World().Types(), a, resolve); err == nil {
		t.Fatalf("expected a mutually-importing pair of scenes to fail with a cycle error")
	}
}
