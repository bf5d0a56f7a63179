package ecs

import "sync"

// bufferOp is one deferred structural mutation, applied in submission
// order once the World unlocks. Mirrors the teacher's EntityOperation /
// operation_queue.go, generalized from per-operation structs to a single
// closure-free op type since every mutation here already routes through
// World's own Add/Remove/destroyNow.
type bufferOp struct {
	kind   bufferOpKind
	entity Entity
	to     Entity // opRelate/opUnrelate's other endpoint
	data   DataTypeId
	spawn  *spawnRecord
}

type bufferOpKind uint8

const (
	opAdd bufferOpKind = iota
	opRemove
	opDestroy
	opSpawn
	opRelate
	opUnrelate
)

// spawnRecord carries the blueprint and the already-reserved entities a
// queued Spawn will populate once the buffer drains.
type spawnRecord struct {
	blueprint *Blueprint
	named     map[string]Entity
}

// CommandBuffer queues structural mutations recorded while a World is
// locked by an in-progress query, draining them in submission order the
// moment the lock count returns to zero. Grounded on cubos's
// core/ecs/command_buffer.hpp and the teacher's entityOperationsQueue.
type CommandBuffer struct {
	mu    sync.Mutex
	world *World
	ops   []bufferOp
}

// NewCommandBuffer constructs a buffer bound to world.
func NewCommandBuffer(world *World) *CommandBuffer {
	return &CommandBuffer{world: world}
}

// World returns the buffer's bound World, so a Fetcher handed only a
// CommandBuffer (per the Fetcher interface's Fetch signature) can still
// reach world state such as resources and query views.
func (b *CommandBuffer) World() *World { return b.world }

// QueueAdd records a deferred component add.
func (b *CommandBuffer) QueueAdd(e Entity, id DataTypeId) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ops = append(b.ops, bufferOp{kind: opAdd, entity: e, data: id})
}

// QueueRemove records a deferred component remove.
func (b *CommandBuffer) QueueRemove(e Entity, id DataTypeId) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ops = append(b.ops, bufferOp{kind: opRemove, entity: e, data: id})
}

// QueueDestroy records a deferred entity destroy.
func (b *CommandBuffer) QueueDestroy(e Entity) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ops = append(b.ops, bufferOp{kind: opDestroy, entity: e})
}

// QueueRelate records a deferred relation edge insert.
func (b *CommandBuffer) QueueRelate(id DataTypeId, from, to Entity) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ops = append(b.ops, bufferOp{kind: opRelate, entity: from, to: to, data: id})
}

// QueueUnrelate records a deferred relation edge removal.
func (b *CommandBuffer) QueueUnrelate(id DataTypeId, from, to Entity) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ops = append(b.ops, bufferOp{kind: opUnrelate, entity: from, to: to, data: id})
}

// Spawn reserves a fresh entity for every name in bp and queues their
// population (components, then relations) for the next drain, returning
// the name-to-entity map immediately — the reserved entities are valid
// identifiers right away, since EntityPool.Reserve is guarded by its own
// mutex and safe to call while the world is locked.
func (b *CommandBuffer) Spawn(bp *Blueprint) map[string]Entity {
	named := make(map[string]Entity, len(bp.Entities))
	for name := range bp.Entities {
		named[name] = b.world.entities.Reserve()
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ops = append(b.ops, bufferOp{kind: opSpawn, spawn: &spawnRecord{blueprint: bp, named: named}})
	return named
}

// Pending returns the number of queued operations.
func (b *CommandBuffer) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.ops)
}

// Drain applies every queued operation against the bound World in
// submission order, then clears the queue. Operations against an entity
// that was destroyed earlier in the same batch are skipped, matching the
// teacher's Valid()/Recycled() guards in operation_queue.go.
func (b *CommandBuffer) Drain() error {
	b.mu.Lock()
	ops := b.ops
	b.ops = nil
	b.mu.Unlock()

	for _, op := range ops {
		if op.kind == opSpawn {
			if err := b.world.spawnNow(op.spawn.blueprint, op.spawn.named); err != nil {
				return err
			}
			continue
		}
		if !b.world.entities.Alive(op.entity) {
			continue
		}
		var err error
		switch op.kind {
		case opAdd:
			_, err = b.world.Add(op.entity, op.data)
		case opRemove:
			err = b.world.Remove(op.entity, op.data)
		case opDestroy:
			err = b.world.destroyNow(op.entity)
		case opRelate:
			err = b.relateNow(op.data, op.entity, op.to)
		case opUnrelate:
			err = b.unrelateNow(op.data, op.entity, op.to)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (b *CommandBuffer) relateNow(id DataTypeId, from, to Entity) error {
	if !b.world.entities.Alive(to) {
		return nil
	}
	dt, err := b.world.types.DataType(id)
	if err != nil {
		return err
	}
	table, err := b.world.relations.Get(id)
	if err != nil {
		return err
	}
	_, err = table.Insert(dt.Symmetric(), dt.Tree(), from, to)
	return err
}

func (b *CommandBuffer) unrelateNow(id DataTypeId, from, to Entity) error {
	dt, err := b.world.types.DataType(id)
	if err != nil {
		return err
	}
	table, err := b.world.relations.Get(id)
	if err != nil {
		return err
	}
	return table.Remove(dt.Symmetric(), from, to)
}
