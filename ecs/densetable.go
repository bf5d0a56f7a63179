package ecs

import (
	"unsafe"

	"github.com/TheBitDrifter/bark"
	"github.com/cindervane/forge/memory"
)

// DenseTable is the contiguous, per-archetype storage for every entity
// that shares an exact component set: one memory.AnyVector per component
// column, plus a parallel entity slice so a row index recovers the entity
// that owns it. Grounded on cubos's core/ecs/table.hpp (itself AnyVector
// columns keyed by a component id) rather than on the teacher's
// table.Table, whose columns are pinned to a concrete Go type per column
// at build time — see DESIGN.md.
type DenseTable struct {
	archetype ArchetypeId
	columns   []DataTypeId
	byColumn  map[DataTypeId]*memory.AnyVector
	entities  []Entity
	rowOf     map[uint32]int // entity index -> row
}

// NewDenseTable allocates an empty table for the given archetype's
// columns.
func NewDenseTable(types *Types, archetype ArchetypeId, columns []DataTypeId) (*DenseTable, error) {
	dt := &DenseTable{
		archetype: archetype,
		columns:   columns,
		byColumn:  make(map[DataTypeId]*memory.AnyVector, len(columns)),
		rowOf:     make(map[uint32]int),
	}
	for _, col := range columns {
		record, err := types.DataType(col)
		if err != nil {
			return nil, err
		}
		vec, err := memory.NewAnyVector(record.Type)
		if err != nil {
			return nil, bark.AddTrace(err)
		}
		dt.byColumn[col] = vec
	}
	return dt, nil
}

// Len returns the number of entities currently stored.
func (dt *DenseTable) Len() int {
	return len(dt.entities)
}

// Columns returns the table's component set.
func (dt *DenseTable) Columns() []DataTypeId {
	return dt.columns
}

// RowOf returns the row index owning e, if e is present in this table.
func (dt *DenseTable) RowOf(e Entity) (int, bool) {
	row, ok := dt.rowOf[e.Index]
	return row, ok
}

// EntityAt returns the entity occupying row.
func (dt *DenseTable) EntityAt(row int) Entity {
	return dt.entities[row]
}

// Insert appends a new row for e with every column default-constructed,
// returning the new row index.
func (dt *DenseTable) Insert(e Entity) (int, error) {
	for _, col := range dt.columns {
		if err := dt.byColumn[col].PushDefault(); err != nil {
			return 0, bark.AddTrace(err)
		}
	}
	row := len(dt.entities)
	dt.entities = append(dt.entities, e)
	dt.rowOf[e.Index] = row
	return row, nil
}

// Remove swap-erases row, returning the entity that was moved into its
// place (NullEntity if row was the last one).
func (dt *DenseTable) Remove(row int) (Entity, error) {
	for _, col := range dt.columns {
		if err := dt.byColumn[col].SwapErase(row); err != nil {
			return NullEntity, bark.AddTrace(err)
		}
	}
	removed := dt.entities[row]
	delete(dt.rowOf, removed.Index)

	last := len(dt.entities) - 1
	if row == last {
		dt.entities = dt.entities[:last]
		return NullEntity, nil
	}
	moved := dt.entities[last]
	dt.entities[row] = moved
	dt.entities = dt.entities[:last]
	dt.rowOf[moved.Index] = row
	return moved, nil
}

// Component returns a pointer to the value of column col at row, or false
// if col isn't part of this table.
func (dt *DenseTable) Component(row int, col DataTypeId) (unsafe.Pointer, bool) {
	vec, ok := dt.byColumn[col]
	if !ok {
		return nil, false
	}
	ptr, err := vec.At(row)
	if err != nil {
		return nil, false
	}
	return ptr, true
}

// DenseTables indexes one DenseTable per interned archetype, created
// lazily the first time an entity needs it.
type DenseTables struct {
	types  *Types
	graph  *ArchetypeGraph
	tables map[ArchetypeId]*DenseTable
}

// NewDenseTables constructs an index bound to the given type registry and
// archetype graph.
func NewDenseTables(types *Types, graph *ArchetypeGraph) *DenseTables {
	return &DenseTables{
		types:  types,
		graph:  graph,
		tables: make(map[ArchetypeId]*DenseTable),
	}
}

// Get returns (creating if necessary) the dense table for archetype id.
func (dt *DenseTables) Get(id ArchetypeId) (*DenseTable, error) {
	if t, ok := dt.tables[id]; ok {
		return t, nil
	}
	columns := dt.graph.Columns(id)
	t, err := NewDenseTable(dt.types, id, columns)
	if err != nil {
		return nil, err
	}
	dt.tables[id] = t
	if Config.onArchetypeCreated != nil {
		Config.onArchetypeCreated(id, columns)
	}
	return t, nil
}

// Existing returns the dense table for id only if it has already been
// created, without allocating one.
func (dt *DenseTables) Existing(id ArchetypeId) (*DenseTable, bool) {
	t, ok := dt.tables[id]
	return t, ok
}
