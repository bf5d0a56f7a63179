package scheduler

import "github.com/TheBitDrifter/bark"

// tagNode is one declared ordering tag: systems registered under it run
// as a stage, constrained to come before/after other tags' stages.
type tagNode struct {
	name    string
	before  []string
	after   []string
	repeat  bool
	visited int // 0 unvisited, 1 in-progress (cycle detection), 2 done
}

// TagGraph is the DAG of ordering tags a Builder declares, compiled into
// a linear stage order by Compiler. Grounded on spec §4.10's Tag
// DAG; it supports Before/After ordering and Repeat, and a tag cannot
// inherit from another tag.
type TagGraph struct {
	nodes map[string]*tagNode
	order []string // declaration order, used as a stable tiebreak
}

// NewTagGraph constructs an empty tag graph.
func NewTagGraph() *TagGraph {
	return &TagGraph{nodes: make(map[string]*tagNode)}
}

// Declare registers tag name if it doesn't already exist.
func (g *TagGraph) Declare(name string) {
	if _, ok := g.nodes[name]; ok {
		return
	}
	g.nodes[name] = &tagNode{name: name}
	g.order = append(g.order, name)
}

// Before declares that tag must run before other.
func (g *TagGraph) Before(tag, other string) {
	g.Declare(tag)
	g.Declare(other)
	g.nodes[tag].before = append(g.nodes[tag].before, other)
}

// After declares that tag must run after other.
func (g *TagGraph) After(tag, other string) {
	g.Declare(tag)
	g.Declare(other)
	g.nodes[tag].after = append(g.nodes[tag].after, other)
}

// SetRepeat marks tag's stage as re-entrant: within the same schedule
// invocation, the Dispatcher re-evaluates the tag's conditions after each
// pass and runs the stage again for as long as they all hold (used for
// fixed-timestep-style catch-up stages).
func (g *TagGraph) SetRepeat(tag string) {
	g.Declare(tag)
	g.nodes[tag].repeat = true
}

// Repeats reports whether tag was declared repeat.
func (g *TagGraph) Repeats(tag string) bool {
	n, ok := g.nodes[tag]
	return ok && n.repeat
}

// TopologicalOrder returns every declared tag in an order satisfying
// every Before/After constraint, using declaration order as a tiebreak
// among tags with no remaining ordering constraint between them (stable,
// deterministic output). Returns ErrCyclicTags if no such order exists.
func (g *TagGraph) TopologicalOrder() ([]string, error) {
	// Normalize After into the equivalent Before edges so only one
	// direction needs visiting.
	edges := make(map[string][]string, len(g.nodes))
	for name, n := range g.nodes {
		edges[name] = append(edges[name], n.before...)
	}
	for name, n := range g.nodes {
		for _, other := range n.after {
			if _, ok := g.nodes[other]; !ok {
				return nil, bark.AddTrace(ErrUnknownTag)
			}
			edges[other] = append(edges[other], name)
		}
	}

	var result []string
	var visit func(name string) error
	visiting := make(map[string]int) // 0 unvisited, 1 active, 2 done
	visit = func(name string) error {
		switch visiting[name] {
		case 2:
			return nil
		case 1:
			return bark.AddTrace(ErrCyclicTags)
		}
		visiting[name] = 1
		for _, next := range edges[name] {
			if _, ok := g.nodes[next]; !ok {
				return bark.AddTrace(ErrUnknownTag)
			}
			if err := visit(next); err != nil {
				return err
			}
		}
		visiting[name] = 2
		result = append(result, name)
		return nil
	}

	for _, name := range g.order {
		if err := visit(name); err != nil {
			return nil, err
		}
	}

	// visit appends a tag only after all its successors are placed, so
	// the raw result is in reverse topological order.
	for i, j := 0, len(result)-1; i < j; i, j = i+1, j-1 {
		result[i], result[j] = result[j], result[i]
	}
	return result, nil
}
