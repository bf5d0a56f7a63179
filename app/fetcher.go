package app

import (
	"reflect"

	"github.com/cindervane/forge/ecs"
	"github.com/cindervane/forge/ecs/query"
	"github.com/cindervane/forge/ecs/scheduler"
)

// Fetcher supplies one argument to a system's .Call closure: it declares
// the access it needs (so the Compiler can tell whether two systems may
// share a parallel layer) and produces the argument value fresh each
// time the system runs. Grounded on spec §6.12; ConsumesOptions marks a
// fetcher built from caller-supplied configuration (a Query's term list,
// an EventReader's channel) rather than purely from its static type.
// SystemBuilder.Call binds fetchers to the closure's parameters by
// position and does not consult ConsumesOptions.
type Fetcher interface {
	ConsumesOptions() bool
	Analyze(access *scheduler.AccessSet)
	Fetch(commands *ecs.CommandBuffer) any
}

// commandsFetcher hands the system its own CommandBuffer argument
// directly — the one mutation path that's always safe to use from
// inside a parallel layer, since every CommandBuffer op is replayed
// once the layer finishes and the world lock is released.
type commandsFetcher struct{}

// Commands supplies the running system's CommandBuffer.
func Commands() Fetcher { return commandsFetcher{} }

func (commandsFetcher) ConsumesOptions() bool { return false }
func (commandsFetcher) Analyze(a *scheduler.AccessSet) { a.UsesCommands = true }
func (commandsFetcher) Fetch(commands *ecs.CommandBuffer) any { return commands }

// resourceFetcher supplies a pointer to a registered resource, either
// for reading or writing.
type resourceFetcher[R any] struct {
	res   ecs.Resource[R]
	write bool
}

// Read supplies a read-only pointer to resource R, registering it in b's
// world if it isn't already.
func Read[R any](b *Builder) Fetcher {
	res, err := ecs.BindResource[R](b.world)
	if err != nil {
		b.fail(err)
		return resourceFetcher[R]{}
	}
	return resourceFetcher[R]{res: res}
}

// Write supplies a mutable pointer to resource R, registering it in b's
// world if it isn't already.
func Write[R any](b *Builder) Fetcher {
	res, err := ecs.BindResource[R](b.world)
	if err != nil {
		b.fail(err)
		return resourceFetcher[R]{}
	}
	return resourceFetcher[R]{res: res, write: true}
}

func (f resourceFetcher[R]) ConsumesOptions() bool { return false }

func (f resourceFetcher[R]) Analyze(a *scheduler.AccessSet) {
	if f.write {
		a.WritesResource(uint32(f.res.ID()))
	} else {
		a.ReadsResource(uint32(f.res.ID()))
	}
}

func (f resourceFetcher[R]) Fetch(commands *ecs.CommandBuffer) any {
	return f.res.Get()
}

// DeltaTime supplies a read-only pointer to the frame's ecs.DeltaTime
// resource.
func DeltaTime(b *Builder) Fetcher { return Read[ecs.DeltaTime](b) }

// queryFetcher supplies a fresh *query.View over a compiled Plan each
// call, the argument Query-driven systems iterate with View.Each.
type queryFetcher struct {
	plan  *query.Plan
	terms []query.Term
}

// Query compiles terms once against b's world and supplies a fresh
// *query.View per call.
func Query(b *Builder, terms ...query.Term) Fetcher {
	plan := query.NewPlanner().Build(b.world, terms)
	return &queryFetcher{plan: plan, terms: terms}
}

func (f *queryFetcher) ConsumesOptions() bool { return true }

func (f *queryFetcher) Analyze(a *scheduler.AccessSet) {
	for _, t := range f.terms {
		if t.Kind != query.TermComponent && t.Kind != query.TermRelation {
			continue
		}
		if t.Access == query.AccessWrite {
			a.WritesComponent(uint32(t.Component))
		} else {
			a.ReadsComponent(uint32(t.Component))
		}
	}
}

func (f *queryFetcher) Fetch(commands *ecs.CommandBuffer) any {
	return query.NewView(f.plan)
}

// eventReaderFetcher supplies a []E of events unread by this system's
// registered reader, draining the channel's cursor for it.
type eventReaderFetcher[E any] struct {
	channel *ecs.EventChannel[E]
	reader  ecs.ReaderId
}

// EventReader registers a fresh reader on channel and supplies its
// unread events each call.
func EventReader[E any](channel *ecs.EventChannel[E]) Fetcher {
	return &eventReaderFetcher[E]{channel: channel, reader: channel.NewReader()}
}

func (f *eventReaderFetcher[E]) ConsumesOptions() bool          { return true }
func (f *eventReaderFetcher[E]) Analyze(a *scheduler.AccessSet) {}
func (f *eventReaderFetcher[E]) Fetch(commands *ecs.CommandBuffer) any {
	return f.channel.Read(f.reader)
}

// eventWriterFetcher supplies the channel itself, for Write calls.
type eventWriterFetcher[E any] struct {
	channel *ecs.EventChannel[E]
}

// EventWriter supplies channel directly, for a system to call Write on.
func EventWriter[E any](channel *ecs.EventChannel[E]) Fetcher {
	return &eventWriterFetcher[E]{channel: channel}
}

func (f *eventWriterFetcher[E]) ConsumesOptions() bool        { return true }
func (f *eventWriterFetcher[E]) Analyze(a *scheduler.AccessSet) {}
func (f *eventWriterFetcher[E]) Fetch(commands *ecs.CommandBuffer) any {
	return f.channel
}

// Plugins supplies the ordered list of plugin names applied to b so far,
// mostly useful for a diagnostics system or an about screen.
func Plugins(b *Builder) Fetcher { return pluginsFetcher{b: b} }

type pluginsFetcher struct{ b *Builder }

func (f pluginsFetcher) ConsumesOptions() bool         { return false }
func (f pluginsFetcher) Analyze(a *scheduler.AccessSet) {}
func (f pluginsFetcher) Fetch(commands *ecs.CommandBuffer) any {
	out := make([]string, len(f.b.plugins))
	copy(out, f.b.plugins)
	return out
}

// call invokes fn (any function value) with fetchers' Fetch results
// bound positionally to its parameters, via reflect.Value.Call. Returns
// fn's error result, if it has one.
func call(fn any, commands *ecs.CommandBuffer, fetchers []Fetcher) error {
	fv := reflect.ValueOf(fn)
	args := make([]reflect.Value, len(fetchers))
	for i, f := range fetchers {
		args[i] = reflect.ValueOf(f.Fetch(commands))
	}
	out := fv.Call(args)
	if len(out) == 0 {
		return nil
	}
	last := out[len(out)-1]
	if err, ok := last.Interface().(error); ok {
		return err
	}
	return nil
}
