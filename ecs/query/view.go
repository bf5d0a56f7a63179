package query

import "github.com/cindervane/forge/ecs"

// View is the user-facing handle for one compiled query: a Plan plus the
// Iterator bindings (including any pins) that parameterize a run of it.
// Systems obtain a View through a Fetcher (see Query in the app package)
// and either call Pin for an O(1) single-entity lookup or Each to walk
// every match.
type View struct {
	plan *Plan
	it   *Iterator
}

// NewView binds plan to a fresh, unpinned Iterator.
func NewView(plan *Plan) *View {
	return &View{plan: plan, it: NewIterator()}
}

// Pin fixes target to entity, turning every node touching it from an
// O(archetype-scan) driver into an O(1) validator for the rest of this
// View's lifetime.
func (v *View) Pin(target int, entity ecs.Entity) {
	v.it.Pin(target, entity)
}

// Each runs the query against world, calling fn once per matching
// combination with a function that resolves the entity bound to a given
// target. Stops early if fn returns false.
func (v *View) Each(world *ecs.World, fn func(entityAt func(target int) ecs.Entity) bool) {
	run := v.plan.NewRun(world, v.it)
	for run.Next() {
		if !fn(run.Entity) {
			return
		}
	}
}

// Matches reports whether the query matches at least one combination,
// without materializing all of them — the common case after Pin(0, e)
// for a single-entity existence check.
func (v *View) Matches(world *ecs.World) bool {
	run := v.plan.NewRun(world, v.it)
	return run.Next()
}
