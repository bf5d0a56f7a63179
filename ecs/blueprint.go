package ecs

import (
	"fmt"

	"github.com/TheBitDrifter/bark"
	"github.com/cindervane/forge/memory"
	"github.com/cindervane/forge/reflection"
)

// BlueprintEntity is one named entity template within a Blueprint: a
// component value per DataTypeId, plus relation edges to other
// blueprint-local entity names (resolved to real entities only once the
// blueprint is spawned).
type BlueprintEntity struct {
	Components map[DataTypeId]memory.AnyValue
	Relations  map[DataTypeId]map[string]memory.AnyValue
}

// Blueprint is a self-contained, World-like template: named entities,
// each with its own components and relations to other blueprint-local
// names. Spawning it (via CommandBuffer.Spawn) reserves one fresh
// entity per name and copies every component/relation value into the
// live World, renaming relation targets from blueprint-local names to
// the freshly reserved entities. Names starting with "~/" have no
// special handling here — the spec's root-name preservation is a
// naming convention scene-asset imports rely on (see app.LoadScene),
// not a distinct code path in the Blueprint itself. Grounded on spec
// §4.4/§6 and cubos's reflection-driven scene instantiation.
type Blueprint struct {
	Entities map[string]*BlueprintEntity
	Order    []string
}

// NewBlueprint constructs an empty Blueprint.
func NewBlueprint() *Blueprint {
	return &Blueprint{Entities: map[string]*BlueprintEntity{}}
}

// Entity returns the named template, creating it (and recording name in
// Order) on first reference.
func (bp *Blueprint) Entity(name string) *BlueprintEntity {
	e, ok := bp.Entities[name]
	if !ok {
		e = &BlueprintEntity{
			Components: map[DataTypeId]memory.AnyValue{},
			Relations:  map[DataTypeId]map[string]memory.AnyValue{},
		}
		bp.Entities[name] = e
		bp.Order = append(bp.Order, name)
	}
	return e
}

// SetComponent attaches value as this template's value for component id.
func (be *BlueprintEntity) SetComponent(id DataTypeId, value memory.AnyValue) {
	be.Components[id] = value
}

// SetRelation records an edge from this template to the blueprint-local
// entity named other, carrying value.
func (be *BlueprintEntity) SetRelation(id DataTypeId, other string, value memory.AnyValue) {
	edges, ok := be.Relations[id]
	if !ok {
		edges = map[string]memory.AnyValue{}
		be.Relations[id] = edges
	}
	edges[other] = value
}

// spawnNow instantiates bp against w: named already carries one reserved
// Entity per blueprint-local name (from CommandBuffer.Spawn). Runs only
// during a command buffer drain, with the world already unlocked, so
// every World.Add/relation insert below applies immediately rather than
// re-queueing.
func (w *World) spawnNow(bp *Blueprint, named map[string]Entity) error {
	for name, e := range named {
		w.entities.CreateAt(e)
		w.entities.SetArchetype(e, EmptyArchetypeId)
		if _, err := w.dense.mustGet(EmptyArchetypeId).Insert(e); err != nil {
			return bark.AddTrace(err)
		}

		tmpl := bp.Entities[name]
		for id, value := range tmpl.Components {
			ptr, err := w.Add(e, id)
			if err != nil {
				return err
			}
			dt, err := w.types.DataType(id)
			if err != nil {
				return err
			}
			reflection.MustTrait[reflection.ConstructibleTrait](dt.Type).Copy(ptr, value.Get())
		}
	}

	for name, e := range named {
		tmpl := bp.Entities[name]
		for relID, edges := range tmpl.Relations {
			dt, err := w.types.DataType(relID)
			if err != nil {
				return err
			}
			table, err := w.relations.Get(relID)
			if err != nil {
				return err
			}
			for otherName, value := range edges {
				other, ok := named[otherName]
				if !ok {
					return bark.AddTrace(fmt.Errorf("%w: blueprint relation target %q not found", ErrUnknownDataType, otherName))
				}
				ptr, err := table.Insert(dt.Symmetric(), dt.Tree(), e, other)
				if err != nil {
					return err
				}
				reflection.MustTrait[reflection.ConstructibleTrait](dt.Type).Copy(ptr, value.Get())
			}
		}
	}
	return nil
}
