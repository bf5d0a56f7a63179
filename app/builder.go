// Package app is the embedding surface described in spec §6: a Builder
// that registers types, tags, systems, and observers against a single
// World, then compiles and runs a startup schedule once followed by a
// main schedule looped until ecs.ShouldQuit is set. Grounded on the
// teacher's own top-level entry points (api.go's World/Storage
// constructors) generalized from a fixed set of factories into the
// registration surface spec §6 calls for.
package app

import (
	"context"
	"log"
	"os"
	"reflect"
	"runtime"
	"time"

	"github.com/TheBitDrifter/bark"
	"github.com/cindervane/forge/ecs"
	"github.com/cindervane/forge/ecs/scheduler"
)

// Plugin is a reusable bundle of Builder registration calls — the
// components, resources, tags, systems, and observers one feature needs
// — applied via Builder.Plugin.
type Plugin func(*Builder) error

// Builder assembles a World plus two compiled schedules (startup, main)
// from registered components/relations/resources, tags, systems, and
// observers.
type Builder struct {
	world *ecs.World

	startupRegistry *scheduler.Registry
	startupTags     *scheduler.TagGraph
	startupConds    map[string][]scheduler.ConditionId

	mainRegistry *scheduler.Registry
	mainTags     *scheduler.TagGraph
	mainConds    map[string][]scheduler.ConditionId

	plugins []string
	err     error
}

// NewBuilder constructs an empty Builder: a fresh World with DeltaTime,
// ShouldQuit, and Arguments already registered.
func NewBuilder() *Builder {
	b := &Builder{
		world:           ecs.NewWorld(),
		startupRegistry: scheduler.NewRegistry(),
		startupTags:     scheduler.NewTagGraph(),
		startupConds:    map[string][]scheduler.ConditionId{},
		mainRegistry:    scheduler.NewRegistry(),
		mainTags:        scheduler.NewTagGraph(),
		mainConds:       map[string][]scheduler.ConditionId{},
	}
	if _, err := ecs.RegisterResource[ecs.DeltaTime](b.world); err != nil {
		b.fail(err)
	}
	if _, err := ecs.RegisterResource[ecs.ShouldQuit](b.world); err != nil {
		b.fail(err)
	}
	args, err := ecs.BindResource[Arguments](b.world)
	if err != nil {
		b.fail(err)
	} else {
		*args.Get() = Arguments{Values: append([]string(nil), os.Args[1:]...)}
	}
	return b
}

func (b *Builder) fail(err error) {
	if b.err == nil {
		b.err = bark.AddTrace(err)
	}
}

// World exposes the Builder's World, mostly for tests constructing
// entities directly rather than through a system.
func (b *Builder) World() *ecs.World { return b.world }

// Plugin applies fn to b, recording its function name for the Plugins
// fetcher. A failing plugin aborts Run() with a setup error, same as any
// other registration failure.
func (b *Builder) Plugin(fn Plugin) *Builder {
	name := runtime.FuncForPC(reflect.ValueOf(fn).Pointer()).Name()
	b.plugins = append(b.plugins, name)
	if err := fn(b); err != nil {
		b.fail(err)
	}
	return b
}

// Component registers T as a component type against b's world.
func Component[T any](b *Builder) ecs.Component[T] {
	c, err := ecs.Bind[T](b.world)
	if err != nil {
		b.fail(err)
	}
	return c
}

// RelationOption configures a relation registered via Relation[T].
type RelationOption func(*ecs.DataTypeFlags)

// Symmetric marks a relation as symmetric: (a, b) and (b, a) denote the
// same edge.
func Symmetric() RelationOption {
	return func(f *ecs.DataTypeFlags) { *f |= ecs.FlagSymmetric }
}

// Tree marks a relation as a tree: inserting an edge that would make an
// entity its own ancestor fails.
func Tree() RelationOption {
	return func(f *ecs.DataTypeFlags) { *f |= ecs.FlagTree }
}

// RelationEphemeral marks a relation as ephemeral (consumed rather than
// long-lived; see ecs.DataType.Ephemeral).
func RelationEphemeral() RelationOption {
	return func(f *ecs.DataTypeFlags) { *f |= ecs.FlagEphemeral }
}

// Relation registers T as a relation type against b's world with opts
// applied.
func Relation[T any](b *Builder, opts ...RelationOption) ecs.Relation[T] {
	var flags ecs.DataTypeFlags
	for _, opt := range opts {
		opt(&flags)
	}
	r, err := ecs.BindRelation[T](b.world, flags)
	if err != nil {
		b.fail(err)
	}
	return r
}

// Resource registers T as a resource type against b's world,
// default-constructing its initial value.
func Resource[T any](b *Builder) ecs.Resource[T] {
	r, err := ecs.BindResource[T](b.world)
	if err != nil {
		b.fail(err)
	}
	return r
}

// TagBuilder configures one declared ordering tag: its position relative
// to other tags, whether its stage repeats, and the conditions gating it.
type TagBuilder struct {
	tags     *scheduler.TagGraph
	registry *scheduler.Registry
	conds    map[string][]scheduler.ConditionId
	name     string
}

// StartupTag declares (or returns the builder for) a tag in the startup
// schedule.
func (b *Builder) StartupTag(name string) *TagBuilder {
	b.startupTags.Declare(name)
	return &TagBuilder{tags: b.startupTags, registry: b.startupRegistry, conds: b.startupConds, name: name}
}

// Tag declares (or returns the builder for) a tag in the main schedule.
func (b *Builder) Tag(name string) *TagBuilder {
	b.mainTags.Declare(name)
	return &TagBuilder{tags: b.mainTags, registry: b.mainRegistry, conds: b.mainConds, name: name}
}

// Before requires this tag's stage to run before other's.
func (t *TagBuilder) Before(other string) *TagBuilder {
	t.tags.Before(t.name, other)
	return t
}

// After requires this tag's stage to run after other's.
func (t *TagBuilder) After(other string) *TagBuilder {
	t.tags.After(t.name, other)
	return t
}

// Repeat marks this tag's stage as re-entrant: it runs again immediately
// as long as its conditions (see RunIf) keep holding.
func (t *TagBuilder) Repeat() *TagBuilder {
	t.tags.SetRepeat(t.name)
	return t
}

// RunIf registers cond, named name, as a gate on this tag's stage.
func (t *TagBuilder) RunIf(name string, cond scheduler.Condition) *TagBuilder {
	id := t.registry.RegisterCondition(name, cond)
	t.conds[t.name] = append(t.conds[t.name], id)
	return t
}

// SystemBuilder configures one registered system before binding its
// closure via Call.
type SystemBuilder struct {
	b        *Builder
	registry *scheduler.Registry
	tags     *scheduler.TagGraph
	name     string
	tag      string
}

// StartupSystem begins registering a system that runs once, in the
// startup schedule.
func (b *Builder) StartupSystem(name string) *SystemBuilder {
	return &SystemBuilder{b: b, registry: b.startupRegistry, tags: b.startupTags, name: name}
}

// System begins registering a system that runs every main-loop frame.
func (b *Builder) System(name string) *SystemBuilder {
	return &SystemBuilder{b: b, registry: b.mainRegistry, tags: b.mainTags, name: name}
}

// Tag assigns this system to tag's stage. If never called, the system
// gets its own stage named after itself.
func (s *SystemBuilder) Tag(tag string) *SystemBuilder {
	s.tag = tag
	return s
}

// Call binds fn as the system's body: fetchers are matched positionally
// to fn's parameters, each supplying one argument via its Fetch method
// and declaring its access via Analyze (read by the Compiler's
// conflict-free layering pass). fn's final return value, if it
// implements error, propagates to the Dispatcher.
func (s *SystemBuilder) Call(fn any, fetchers ...Fetcher) *Builder {
	if s.tag == "" {
		s.tag = s.name
	}
	s.tags.Declare(s.tag)

	var access scheduler.AccessSet
	for _, f := range fetchers {
		f.Analyze(&access)
	}
	run := func(world *ecs.World, commands *ecs.CommandBuffer) error {
		return call(fn, commands, fetchers)
	}
	s.registry.RegisterSystem(s.name, s.tag, access, run)
	return s.b
}

// ObserverBuilder registers a callback against one of the World's
// observer channels.
type ObserverBuilder struct {
	b *Builder
}

// Observer begins registering an observer, named name purely for
// DESIGN/debugging purposes (observer registration has no id of its
// own in ecs.Observers).
func (b *Builder) Observer(name string) *ObserverBuilder {
	_ = name
	return &ObserverBuilder{b: b}
}

// OnAdd registers fn to run synchronously whenever component C is added
// to any entity. Relation edges do not fire observers.
func OnAdd[C any](ob *ObserverBuilder, fn func(ecs.Entity)) *Builder {
	c, err := ecs.Bind[C](ob.b.world)
	if err != nil {
		ob.b.fail(err)
		return ob.b
	}
	ob.b.world.Observers().OnAdd(c.ID(), func(e ecs.Entity, _ ecs.DataTypeId) { fn(e) })
	return ob.b
}

// OnRemove registers fn to run synchronously whenever component C is
// removed from any entity. Relation edges do not fire observers.
func OnRemove[C any](ob *ObserverBuilder, fn func(ecs.Entity)) *Builder {
	c, err := ecs.Bind[C](ob.b.world)
	if err != nil {
		ob.b.fail(err)
		return ob.b
	}
	ob.b.world.Observers().OnRemove(c.ID(), func(e ecs.Entity, _ ecs.DataTypeId) { fn(e) })
	return ob.b
}

// OnDestroy registers fn to run synchronously whenever any entity is
// destroyed.
func OnDestroy(ob *ObserverBuilder, fn func(ecs.Entity)) *Builder {
	ob.b.world.Observers().OnDestroy(func(e ecs.Entity, _ ecs.DataTypeId) { fn(e) })
	return ob.b
}

// Run compiles the startup and main schedules, aborting immediately if
// any registration recorded a setup error. It runs the startup schedule
// once, then loops the main schedule — updating ecs.DeltaTime before
// each pass — until ecs.ShouldQuit.Flag is set.
func (b *Builder) Run() error {
	if b.err != nil {
		log.Printf("app: setup failed: %v", b.err)
		return b.err
	}

	startupSchedule, err := scheduler.NewCompiler(b.startupRegistry, b.startupTags).Compile(b.startupConds)
	if err != nil {
		return bark.AddTrace(err)
	}
	mainSchedule, err := scheduler.NewCompiler(b.mainRegistry, b.mainTags).Compile(b.mainConds)
	if err != nil {
		return bark.AddTrace(err)
	}

	quit, err := ecs.BindResource[ecs.ShouldQuit](b.world)
	if err != nil {
		return bark.AddTrace(err)
	}
	deltaTime, err := ecs.BindResource[ecs.DeltaTime](b.world)
	if err != nil {
		return bark.AddTrace(err)
	}

	ctx := context.Background()
	if err := scheduler.NewDispatcher(b.startupRegistry, b.world).Run(ctx, startupSchedule); err != nil {
		return bark.AddTrace(err)
	}

	mainDispatcher := scheduler.NewDispatcher(b.mainRegistry, b.world)
	last := time.Now()
	for !quit.Get().Flag {
		now := time.Now()
		dt := deltaTime.Get()
		dt.Value = float32(now.Sub(last).Seconds())
		last = now
		if err := mainDispatcher.Run(ctx, mainSchedule); err != nil {
			return bark.AddTrace(err)
		}
	}
	return nil
}
