package app

import (
	"encoding/json"
	"fmt"

	"github.com/TheBitDrifter/bark"
	"github.com/cindervane/forge/ecs"
	"github.com/cindervane/forge/memory"
	"github.com/cindervane/forge/reflection"
	"github.com/google/uuid"
)

// LoadBlueprint parses data as the blueprint wire format — an
// entity-name-keyed JSON object, each entity a type-name-keyed object of
// field values plus an optional "relations" sub-object — into an
// *ecs.Blueprint, resolving every type name against types. Unknown type
// names fail the load with ErrFormatError, matching spec §6.
func LoadBlueprint(types *ecs.Types, data []byte) (*ecs.Blueprint, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, bark.AddTrace(fmt.Errorf("%w: %v", ErrFormatError, err))
	}
	bp := ecs.NewBlueprint()
	if err := loadEntities(types, bp, doc, ""); err != nil {
		return nil, err
	}
	return bp, nil
}

// SceneResolver fetches the raw JSON bytes of a referenced scene asset by
// name, letting the caller pick the storage medium (filesystem,
// embed.FS, network) an import reference resolves against — the
// blueprint format itself says nothing about where a scene asset lives.
type SceneResolver func(ref string) ([]byte, error)

// LoadScene parses data as a scene asset: identical to the blueprint
// format, plus a top-level "imports" map from local prefix to another
// scene asset reference. Each import is resolved via resolve, loaded
// recursively, and merged in with every one of its entities renamed
// "<prefix>.<inner-name>" — except an inner name of "~/" (the imported
// scene's preserved root), which becomes exactly "<prefix>" so the
// importing scene can address it directly.
//
// The whole call is stamped with a fresh correlation id (one per
// top-level LoadScene invocation, not per import) so a cycle error or a
// downstream log line can be tied back to the run that produced it.
func LoadScene(types *ecs.Types, data []byte, resolve SceneResolver) (*ecs.Blueprint, error) {
	return loadScene(types, data, resolve, uuid.NewString(), map[string]bool{})
}

// loadScene is LoadScene's recursive worker. path holds the import refs
// currently on the ancestor chain of this call — not every ref ever
// seen, since two sibling imports legitimately sharing a common
// dependency (e.g. two entities both importing a "base-npc" scene) is
// not a cycle; only a ref reappearing on its own ancestor chain is.
func loadScene(types *ecs.Types, data []byte, resolve SceneResolver, runID string, path map[string]bool) (*ecs.Blueprint, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, bark.AddTrace(fmt.Errorf("%w: %v", ErrFormatError, err))
	}

	bp := ecs.NewBlueprint()
	if raw, ok := doc["imports"]; ok {
		var imports map[string]string
		if err := json.Unmarshal(raw, &imports); err != nil {
			return nil, bark.AddTrace(fmt.Errorf("%w: imports: %v", ErrFormatError, err))
		}
		for prefix, ref := range imports {
			if resolve == nil {
				return nil, bark.AddTrace(fmt.Errorf("%w: scene references imports but no SceneResolver was given", ErrFormatError))
			}
			if path[ref] {
				return nil, bark.AddTrace(fmt.Errorf("%w (run %s): %q imports itself", ErrSceneImportCycle, runID, ref))
			}
			raw, err := resolve(ref)
			if err != nil {
				return nil, bark.AddTrace(err)
			}
			childPath := make(map[string]bool, len(path)+1)
			for k := range path {
				childPath[k] = true
			}
			childPath[ref] = true
			imported, err := loadScene(types, raw, resolve, runID, childPath)
			if err != nil {
				return nil, err
			}
			mergeImport(bp, imported, prefix)
		}
	}

	if err := loadEntities(types, bp, doc, ""); err != nil {
		return nil, err
	}
	return bp, nil
}

func mergeImport(dst, imported *ecs.Blueprint, prefix string) {
	for _, name := range imported.Order {
		tmpl := imported.Entities[name]
		out := dst.Entity(prefixName(prefix, name))
		for id, v := range tmpl.Components {
			out.SetComponent(id, v)
		}
		for id, edges := range tmpl.Relations {
			for other, v := range edges {
				out.SetRelation(id, prefixName(prefix, other), v)
			}
		}
	}
}

func prefixName(prefix, name string) string {
	if prefix == "" {
		return name
	}
	if name == "~/" {
		return prefix
	}
	return prefix + "." + name
}

func loadEntities(types *ecs.Types, bp *ecs.Blueprint, doc map[string]json.RawMessage, prefix string) error {
	for name, raw := range doc {
		if name == "imports" {
			continue
		}
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(raw, &fields); err != nil {
			return bark.AddTrace(fmt.Errorf("%w: entity %q: %v", ErrFormatError, name, err))
		}
		tmpl := bp.Entity(prefixName(prefix, name))
		for key, value := range fields {
			if key == "relations" {
				if err := loadRelations(types, tmpl, prefix, value); err != nil {
					return err
				}
				continue
			}
			dt, ok := types.Lookup(key)
			if !ok {
				return bark.AddTrace(fmt.Errorf("%w: unknown type %q on entity %q", ErrFormatError, key, name))
			}
			av, err := decodeValue(dt, value)
			if err != nil {
				return err
			}
			tmpl.SetComponent(dt.ID, av)
		}
	}
	return nil
}

func loadRelations(types *ecs.Types, tmpl *ecs.BlueprintEntity, prefix string, raw json.RawMessage) error {
	var relations map[string]map[string]json.RawMessage
	if err := json.Unmarshal(raw, &relations); err != nil {
		return bark.AddTrace(fmt.Errorf("%w: relations: %v", ErrFormatError, err))
	}
	for relName, edges := range relations {
		dt, ok := types.Lookup(relName)
		if !ok {
			return bark.AddTrace(fmt.Errorf("%w: unknown relation type %q", ErrFormatError, relName))
		}
		for otherName, value := range edges {
			av, err := decodeValue(dt, value)
			if err != nil {
				return err
			}
			tmpl.SetRelation(dt.ID, prefixName(prefix, otherName), av)
		}
	}
	return nil
}

// decodeValue default-constructs a value of dt's type, then overwrites it
// from raw via the type's JSONTrait (every reflection.Reflect[T]() type
// carries one — see reflection/builder.go).
func decodeValue(dt ecs.DataType, raw json.RawMessage) (memory.AnyValue, error) {
	av, err := memory.DefaultConstruct(dt.Type)
	if err != nil {
		return memory.AnyValue{}, bark.AddTrace(err)
	}
	unmarshal, ok := reflection.Trait[reflection.JSONTrait](dt.Type)
	if !ok {
		return memory.AnyValue{}, bark.AddTrace(fmt.Errorf("%w: type %q has no JSON decoding support", ErrFormatError, dt.Name))
	}
	if err := unmarshal.Unmarshal(av.Get(), raw); err != nil {
		return memory.AnyValue{}, bark.AddTrace(fmt.Errorf("%w: decoding %q: %v", ErrFormatError, dt.Name, err))
	}
	return av, nil
}
