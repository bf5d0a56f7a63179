package ecs

// Config holds process-wide ECS configuration, following the teacher's
// package-level var + setter-method pattern (see the original warehouse
// config.go) rather than file-scope singletons initialized implicitly.
var Config config = config{}

type config struct {
	onArchetypeCreated func(ArchetypeId, []DataTypeId)
}

// SetArchetypeCreatedHook installs a callback invoked every time a new
// archetype's DenseTable is lazily allocated, the generalized successor
// to the teacher's table.TableEvents hook — this repo's dense storage is
// AnyVector-backed (see DESIGN.md), so there's no table.Table to emit
// events of its own; DenseTables.Get fires this one instead.
func (c *config) SetArchetypeCreatedHook(fn func(ArchetypeId, []DataTypeId)) {
	c.onArchetypeCreated = fn
}
