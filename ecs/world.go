package ecs

import (
	"fmt"
	"unsafe"

	"github.com/TheBitDrifter/bark"
	"github.com/cindervane/forge/reflection"
)

// World owns every entity, component, relation, and resource for one
// simulation. Mirrors cubos's core/ecs/world.hpp, with the teacher's
// lock/operation-queue pattern (storage.go's AddLock/RemoveLock) reused
// for gating structural mutation during query iteration.
type World struct {
	types      *Types
	entities   *EntityPool
	archetypes *ArchetypeGraph
	dense      *DenseTables
	relations  *RelationTables
	resources  *Resources
	buffer     *CommandBuffer
	observers  *Observers

	lockDepth int
	nameType  DataTypeId
}

// NewWorld constructs an empty World with the built-in Name component
// already registered.
func NewWorld() *World {
	w := &World{
		types:      NewTypes(),
		entities:   NewEntityPool(),
		archetypes: NewArchetypeGraph(),
		observers:  NewObservers(),
	}
	w.dense = NewDenseTables(w.types, w.archetypes)
	w.relations = NewRelationTables(w.types)
	w.resources = NewResources(w.types)
	w.buffer = NewCommandBuffer(w)
	id, err := w.types.RegisterComponent(reflection.Reflect[Name]())
	if err != nil {
		panic(bark.AddTrace(err))
	}
	w.nameType = id
	return w
}

// Types exposes the world's type registry (for blueprint loading and the
// scheduler's access-conflict analysis).
func (w *World) Types() *Types { return w.types }

// Archetypes exposes the world's archetype graph (for the query planner).
func (w *World) Archetypes() *ArchetypeGraph { return w.archetypes }

// Dense exposes the dense table index (for the query engine).
func (w *World) Dense() *DenseTables { return w.dense }

// Relations exposes the sparse relation table index (for the query
// engine).
func (w *World) Relations() *RelationTables { return w.relations }

// Buffer exposes the world's own command buffer, the one every deferred
// World.Add/Remove/Destroy call (issued while locked) is queued onto.
// Systems are also handed this same buffer as their explicit Commands
// argument, so direct mutation and Commands-mediated mutation replay in
// one consistent submission order.
func (w *World) Buffer() *CommandBuffer { return w.buffer }

// Observers exposes the world's observer set (for Builder.Observer
// registration).
func (w *World) Observers() *Observers { return w.observers }

// Locked reports whether structural mutation is currently deferred
// because a query iteration holds the world open.
func (w *World) Locked() bool {
	return w.lockDepth > 0
}

// Lock increments the lock depth; structural operations performed while
// locked are queued on the command buffer instead of applied immediately.
func (w *World) Lock() { w.lockDepth++ }

// Unlock decrements the lock depth and, once it reaches zero, drains the
// command buffer — mirroring storage.go's RemoveLock.
func (w *World) Unlock() error {
	if w.lockDepth == 0 {
		return nil
	}
	w.lockDepth--
	if w.lockDepth == 0 {
		return w.buffer.Drain()
	}
	return nil
}

// RegisterComponent registers T as a component type, idempotent.
func RegisterComponent[T any](w *World) (DataTypeId, error) {
	return w.types.RegisterComponent(reflection.Reflect[T]())
}

// RegisterRelation registers T as a relation type with the given flags.
func RegisterRelation[T any](w *World, flags DataTypeFlags) (DataTypeId, error) {
	return w.types.RegisterRelation(reflection.Reflect[T](), flags)
}

// RegisterResource registers T as a resource type and default-constructs
// its initial value.
func RegisterResource[T any](w *World) (DataTypeId, error) {
	id, err := w.types.RegisterResource(reflection.Reflect[T]())
	if err != nil {
		return InvalidDataTypeId, err
	}
	return id, w.resources.Init(id)
}

// Create allocates a new entity in the empty archetype.
func (w *World) Create() Entity {
	e := w.entities.Create()
	w.entities.SetArchetype(e, EmptyArchetypeId)
	if _, err := w.dense.mustGet(EmptyArchetypeId).Insert(e); err != nil {
		panic(bark.AddTrace(err))
	}
	return e
}

func (dt *DenseTables) mustGet(id ArchetypeId) *DenseTable {
	t, err := dt.Get(id)
	if err != nil {
		panic(bark.AddTrace(err))
	}
	return t
}

// Alive reports whether e refers to a currently-alive entity.
func (w *World) Alive(e Entity) bool {
	return w.entities.Alive(e)
}

// Destroy removes e, its components and every relation edge touching it.
// Entities related to e, such as its children in a tree relation, are not
// destroyed; only their edges to e are removed. If the world is locked,
// the destruction is queued.
func (w *World) Destroy(e Entity) error {
	if w.Locked() {
		w.buffer.QueueDestroy(e)
		return nil
	}
	return w.destroyNow(e)
}

func (w *World) destroyNow(e Entity) error {
	if !w.entities.Alive(e) {
		return nil
	}
	archetype := w.entities.Archetype(e)
	table := w.dense.mustGet(archetype)
	row, ok := table.RowOf(e)
	if !ok {
		return bark.AddTrace(fmt.Errorf("%w: entity missing from its own archetype table", ErrInvalidEntity))
	}
	if _, err := table.Remove(row); err != nil {
		return bark.AddTrace(err)
	}
	w.relations.RemoveEntity(e)
	w.entities.Destroy(e)
	w.observers.fireDestroy(e)
	return nil
}

// componentPtr returns the pointer to e's value for component id,
// requiring e to already carry it.
func (w *World) componentPtr(e Entity, id DataTypeId) (unsafe.Pointer, bool) {
	if !w.entities.Alive(e) {
		return nil, false
	}
	archetype := w.entities.Archetype(e)
	table := w.dense.mustGet(archetype)
	row, ok := table.RowOf(e)
	if !ok {
		return nil, false
	}
	return table.Component(row, id)
}

// Has reports whether e currently carries component id.
func (w *World) Has(e Entity, id DataTypeId) bool {
	_, ok := w.componentPtr(e, id)
	return ok
}

// Add attaches component id to e, moving it into the archetype with that
// column added. If the world is locked the mutation is queued on the
// command buffer instead. Returns a pointer to the (default-constructed)
// new component value — nil if the world is locked, since no value
// exists yet.
func (w *World) Add(e Entity, id DataTypeId) (unsafe.Pointer, error) {
	if w.Locked() {
		w.buffer.QueueAdd(e, id)
		return nil, nil
	}
	if !w.entities.Alive(e) {
		return nil, bark.AddTrace(ErrInvalidEntity)
	}
	from := w.entities.Archetype(e)
	if w.archetypes.Contains(from, id) {
		ptr, _ := w.componentPtr(e, id)
		return ptr, nil
	}
	to := w.archetypes.With(from, id)
	if err := w.moveEntity(e, from, to); err != nil {
		return nil, err
	}
	w.entities.SetArchetype(e, to)
	w.observers.fireAdd(e, id)
	ptr, _ := w.componentPtr(e, id)
	return ptr, nil
}

// Remove detaches component id from e, moving it into the archetype
// without that column. No-op if e doesn't carry id.
func (w *World) Remove(e Entity, id DataTypeId) error {
	if w.Locked() {
		w.buffer.QueueRemove(e, id)
		return nil
	}
	if !w.entities.Alive(e) {
		return bark.AddTrace(ErrInvalidEntity)
	}
	from := w.entities.Archetype(e)
	if !w.archetypes.Contains(from, id) {
		return nil
	}
	to := w.archetypes.Without(from, id)
	w.observers.fireRemove(e, id)
	if err := w.moveEntity(e, from, to); err != nil {
		return err
	}
	w.entities.SetArchetype(e, to)
	return nil
}

// moveEntity transfers e's row from archetype `from`'s dense table into
// `to`'s, copying every column the two archetypes share and
// default/leaving the rest, then removes the old row. Mirrors the
// teacher's TransferEntries, adapted to AnyVector-backed columns instead
// of table.Table columns.
func (w *World) moveEntity(e Entity, from, to ArchetypeId) error {
	fromTable := w.dense.mustGet(from)
	toTable := w.dense.mustGet(to)
	fromRow, ok := fromTable.RowOf(e)
	if !ok {
		return bark.AddTrace(fmt.Errorf("%w: entity missing from its archetype table", ErrInvalidEntity))
	}

	toRow, err := toTable.Insert(e)
	if err != nil {
		return bark.AddTrace(err)
	}
	for _, col := range toTable.Columns() {
		srcPtr, ok := fromTable.Component(fromRow, col)
		if !ok {
			continue // newly added column: leave its default value
		}
		dstPtr, _ := toTable.Component(toRow, col)
		dt, err := w.types.DataType(col)
		if err != nil {
			return err
		}
		con := reflection.MustTrait[reflection.ConstructibleTrait](dt.Type)
		con.Copy(dstPtr, srcPtr)
	}
	if _, err := fromTable.Remove(fromRow); err != nil {
		return bark.AddTrace(err)
	}
	return nil
}

// Component is a typed handle bound to a World and a registered
// DataTypeId, the generic analogue of the teacher's AccessibleComponent.
type Component[T any] struct {
	world *World
	id    DataTypeId
}

// Bind resolves T's DataTypeId in w, registering it if necessary.
func Bind[T any](w *World) (Component[T], error) {
	id, err := RegisterComponent[T](w)
	if err != nil {
		return Component[T]{}, err
	}
	return Component[T]{world: w, id: id}, nil
}

// ID returns the bound DataTypeId.
func (c Component[T]) ID() DataTypeId { return c.id }

// Get returns a pointer to e's value of T, or nil if e doesn't carry it.
func (c Component[T]) Get(e Entity) *T {
	ptr, ok := c.world.componentPtr(e, c.id)
	if !ok {
		return nil
	}
	return (*T)(ptr)
}

// Has reports whether e carries T.
func (c Component[T]) Has(e Entity) bool {
	return c.world.Has(e, c.id)
}

// Add attaches a default-constructed T to e.
func (c Component[T]) Add(e Entity) (*T, error) {
	ptr, err := c.world.Add(e, c.id)
	if err != nil || ptr == nil {
		return nil, err
	}
	return (*T)(ptr), nil
}

// Set attaches (or overwrites) e's T value with v.
func (c Component[T]) Set(e Entity, v T) error {
	ptr, err := c.Add(e)
	if err != nil {
		return err
	}
	if ptr != nil {
		*ptr = v
	}
	return nil
}

// Remove detaches T from e.
func (c Component[T]) Remove(e Entity) error {
	return c.world.Remove(e, c.id)
}

// Relation is a typed handle bound to a World and a registered relation
// DataTypeId.
type Relation[T any] struct {
	world     *World
	id        DataTypeId
	symmetric bool
	tree      bool
}

// BindRelation resolves T's DataTypeId in w, registering it with flags if
// necessary.
func BindRelation[T any](w *World, flags DataTypeFlags) (Relation[T], error) {
	id, err := RegisterRelation[T](w, flags)
	if err != nil {
		return Relation[T]{}, err
	}
	return Relation[T]{world: w, id: id, symmetric: flags&FlagSymmetric != 0, tree: flags&FlagTree != 0}, nil
}

// ID returns the bound DataTypeId, for callers building query.Term values
// that reference this relation directly.
func (r Relation[T]) ID() DataTypeId { return r.id }

// Add creates (or returns the existing) edge from -> to, returning a
// pointer to its value.
func (r Relation[T]) Add(from, to Entity) (*T, error) {
	table, err := r.world.relations.Get(r.id)
	if err != nil {
		return nil, err
	}
	ptr, err := table.Insert(r.symmetric, r.tree, from, to)
	if err != nil {
		return nil, err
	}
	return (*T)(ptr), nil
}

// Get returns the value of the edge (from, to), if it exists.
func (r Relation[T]) Get(from, to Entity) (*T, bool) {
	table, err := r.world.relations.Get(r.id)
	if err != nil {
		return nil, false
	}
	ptr, ok := table.Get(r.symmetric, from, to)
	if !ok {
		return nil, false
	}
	return (*T)(ptr), true
}

// Remove deletes the edge (from, to).
func (r Relation[T]) Remove(from, to Entity) error {
	table, err := r.world.relations.Get(r.id)
	if err != nil {
		return err
	}
	return table.Remove(r.symmetric, from, to)
}

// From returns every entity related from e.
func (r Relation[T]) From(e Entity) []Entity {
	table, err := r.world.relations.Get(r.id)
	if err != nil {
		return nil
	}
	return table.From(e)
}

// To returns every entity related to e.
func (r Relation[T]) To(e Entity) []Entity {
	table, err := r.world.relations.Get(r.id)
	if err != nil {
		return nil
	}
	return table.To(e)
}

// Resource is a typed handle to a registered resource value.
type Resource[T any] struct {
	world *World
	id    DataTypeId
}

// BindResource resolves T's resource DataTypeId in w, registering (and
// default-constructing) it if necessary.
func BindResource[T any](w *World) (Resource[T], error) {
	id, err := RegisterResource[T](w)
	if err != nil {
		return Resource[T]{}, err
	}
	return Resource[T]{world: w, id: id}, nil
}

// Get returns a pointer to the resource's current value.
func (r Resource[T]) Get() *T {
	ptr, err := r.world.resources.Ptr(r.id)
	if err != nil {
		panic(bark.AddTrace(err))
	}
	return (*T)(ptr)
}

// ID returns the bound DataTypeId, for fetchers that need to declare
// resource access against a scheduler.AccessSet.
func (r Resource[T]) ID() DataTypeId { return r.id }
