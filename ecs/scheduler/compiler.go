package scheduler

// Stage is one tag's compiled execution plan: its systems split into
// parallel-safe layers, conditions gating whether it runs this pass.
type Stage struct {
	Tag        string
	Repeat     bool
	Conditions []ConditionId
	Layers     [][]SystemId
}

// Schedule is a fully compiled, ordered list of stages ready for a
// Dispatcher to run.
type Schedule struct {
	Stages []Stage
}

// Compiler turns a Registry plus a TagGraph into a Schedule: stages in
// topological tag order, with each stage's systems greedily packed into
// the fewest conflict-free parallel layers. Grounded on spec §4.10's
// "topological stage ordering, conflict-free parallel layering"
// requirement.
type Compiler struct {
	registry *Registry
	tags     *TagGraph
}

// NewCompiler binds a Compiler to a registry and tag graph.
func NewCompiler(registry *Registry, tags *TagGraph) *Compiler {
	return &Compiler{registry: registry, tags: tags}
}

// Compile produces a Schedule. Conditions attached to a tag (via the app
// package's TagBuilder.RunIf) are passed in by the caller (the app package's Builder
// tracks the tag->condition mapping since Registry itself only knows
// about systems and bare condition bodies).
func (c *Compiler) Compile(tagConditions map[string][]ConditionId) (*Schedule, error) {
	order, err := c.tags.TopologicalOrder()
	if err != nil {
		return nil, err
	}

	byTag := make(map[string][]systemRecord)
	for _, s := range c.registry.systems {
		byTag[s.tag] = append(byTag[s.tag], s)
	}

	var stages []Stage
	for _, tag := range order {
		systems := byTag[tag]
		if len(systems) == 0 && len(tagConditions[tag]) == 0 {
			continue
		}
		stages = append(stages, Stage{
			Tag:        tag,
			Repeat:     c.tags.Repeats(tag),
			Conditions: tagConditions[tag],
			Layers:     layerize(systems),
		})
	}
	return &Schedule{Stages: stages}, nil
}

// layerize greedily packs systems into the fewest layers such that no
// two systems in the same layer conflict, preserving registration order
// within each layer for determinism. Membership is checked pairwise
// against every system already placed in a candidate layer, rather than
// against a running union mask, since mask.Mask256 only needs to support
// Mark/ContainsAny here, not a full bitwise-OR API.
func layerize(systems []systemRecord) [][]SystemId {
	var layers [][]SystemId
	var layerMembers [][]systemRecord

	for _, s := range systems {
		placed := false
		for i := range layers {
			conflicts := false
			for _, member := range layerMembers[i] {
				if s.access.ConflictsWith(member.access) {
					conflicts = true
					break
				}
			}
			if !conflicts {
				layers[i] = append(layers[i], s.id)
				layerMembers[i] = append(layerMembers[i], s)
				placed = true
				break
			}
		}
		if !placed {
			layers = append(layers, []SystemId{s.id})
			layerMembers = append(layerMembers, []systemRecord{s})
		}
	}
	return layers
}
