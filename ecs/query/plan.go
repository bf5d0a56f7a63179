package query

import "github.com/cindervane/forge/ecs"

// Plan is a compiled query: every term's Node, grouped by the target
// slot it primarily binds, with exactly one driver per target (the
// lowest-estimate node touching that target) and the rest kept as
// validators. Grounded on cubos's query/node/node.hpp "cheapest first"
// ordering plus the dual iterate/validate role every node already
// implements in node.go.
type Plan struct {
	order      []int
	drivers    map[int]Node
	validators map[int][]Node
}

// Planner builds Plans from term lists.
type Planner struct{}

// NewPlanner constructs a Planner. It carries no state of its own; every
// Plan it builds is independent.
func NewPlanner() *Planner { return &Planner{} }

// Build compiles terms into a Plan. Component/Entity terms become
// ArchetypeNodes; Relation terms become RelatedNodes. Nodes are sorted
// ascending by Estimate() (computed once, against world, at build time),
// with Cursor() as a tiebreak, then grouped by target so each target
// gets exactly one driver (its cheapest node) and zero or more
// validators.
func (p *Planner) Build(world *ecs.World, terms []Term) *Plan {
	nodes := make([]Node, 0, len(terms))
	for _, term := range terms {
		if term.Kind == TermRelation {
			nodes = append(nodes, NewRelatedNode(term))
		} else {
			nodes = append(nodes, NewArchetypeNode(term))
		}
	}

	costs := make([]uint64, len(nodes))
	for i, n := range nodes {
		costs[i] = n.Estimate(world)
	}
	// Stable insertion sort: small node counts (query terms rarely
	// exceed single digits), ascending cost, Cursor() tiebreak.
	for i := 1; i < len(nodes); i++ {
		for j := i; j > 0; j-- {
			a, b := nodes[j-1], nodes[j]
			less := costs[j] < costs[j-1] || (costs[j] == costs[j-1] && b.Cursor() < a.Cursor())
			if !less {
				break
			}
			nodes[j-1], nodes[j] = nodes[j], nodes[j-1]
			costs[j-1], costs[j] = costs[j], costs[j-1]
		}
	}

	plan := &Plan{drivers: make(map[int]Node), validators: make(map[int][]Node)}
	seenTarget := map[int]bool{}
	for _, n := range nodes {
		t := n.Cursor()
		if !seenTarget[t] {
			seenTarget[t] = true
			plan.drivers[t] = n
			plan.order = append(plan.order, t)
		} else {
			plan.validators[t] = append(plan.validators[t], n)
		}
	}
	return plan
}

// Run is one execution of a Plan against an Iterator, yielding each
// matching combination of bound targets via repeated Next calls.
type Run struct {
	plan     *Plan
	world    *ecs.World
	it       *Iterator
	pos      int
	started  bool
	consumed map[int]bool
}

// NewRun starts an execution of plan against it (which may already carry
// pinned targets from View.Pin).
func (p *Plan) NewRun(world *ecs.World, it *Iterator) *Run {
	return &Run{plan: p, world: world, it: it, consumed: make(map[int]bool)}
}

// Next advances to the next matching combination, returning false once
// every combination has been produced.
func (r *Run) Next() bool {
	if !r.started {
		r.started = true
		if len(r.plan.order) == 0 {
			return false
		}
		r.resetTarget(r.plan.order[0])
	}
	for {
		if r.pos < 0 {
			return false
		}
		if r.pos == len(r.plan.order) {
			r.pos--
			return true
		}
		target := r.plan.order[r.pos]
		if r.advanceOne(target) {
			r.pos++
			if r.pos < len(r.plan.order) {
				r.resetTarget(r.plan.order[r.pos])
			}
		} else {
			r.pos--
		}
	}
}

// resetTarget reinitializes every node touching target for a fresh scan,
// called whenever we enter target from a lower-position target that just
// produced a new binding.
func (r *Run) resetTarget(target int) {
	r.plan.drivers[target].Update(r.world)
	for _, v := range r.plan.validators[target] {
		v.Update(r.world)
	}
	delete(r.consumed, target)
}

// advanceOne drives target's node forward, candidate by candidate, until
// one passes every validator for that target — only then does it report
// success. A validator rejecting a candidate does not backtrack to an
// earlier target: control stays on target and the driver is asked for
// its next candidate, per the iteration contract. Only once the driver
// itself is exhausted does advanceOne report false, which is what tells
// Next to back up to the previous target. A pinned target never
// enumerates past its one bound value (see the consumed guard), so a
// validator rejection there is terminal for this target on this pass.
func (r *Run) advanceOne(target int) bool {
	for {
		if r.it.pinned.Has(target) {
			if r.consumed[target] {
				return false
			}
			r.consumed[target] = true
		} else {
			// Clear target's binding from any prior candidate so the driver
			// dispatches into drive() again instead of re-validating the
			// candidate it already bound on the previous pass.
			r.it.unbind(target)
		}
		driver := r.plan.drivers[target]
		if !driver.Next(r.world, r.it) {
			return false
		}
		ok := true
		for _, v := range r.plan.validators[target] {
			if !v.Next(r.world, r.it) {
				ok = false
				break
			}
		}
		if ok {
			return true
		}
	}
}

// Entity returns the entity currently bound to target within this run.
func (r *Run) Entity(target int) ecs.Entity {
	return r.it.Entity(target)
}
