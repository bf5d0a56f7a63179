package scheduler

import "github.com/TheBitDrifter/mask"

// AccessSet declares everything a system touches: which component/
// relation DataTypeIds it reads or writes, which resource DataTypeIds it
// reads or writes, and whether it records structural mutation via a
// Commands fetcher (which conflicts with every other system in its
// stage, since command buffer replay order must stay deterministic).
// Grounded on spec §4.10's conflict model and on the teacher's own use
// of mask.Mask256 for its storage-wide lock bitmap (storage.go's `locks
// mask.Mask256`), reused here for the scheduler's much larger
// registered-type space instead of a handful of lock bits.
type AccessSet struct {
	ReadComponents  mask.Mask256
	WriteComponents mask.Mask256
	ReadResources   mask.Mask256
	WriteResources  mask.Mask256
	UsesCommands    bool
}

// ReadsComponent marks id as read by this set.
func (a *AccessSet) ReadsComponent(id uint32) { a.ReadComponents.Mark(id) }

// WritesComponent marks id as written by this set.
func (a *AccessSet) WritesComponent(id uint32) { a.WriteComponents.Mark(id) }

// ReadsResource marks id as read by this set.
func (a *AccessSet) ReadsResource(id uint32) { a.ReadResources.Mark(id) }

// WritesResource marks id as written by this set.
func (a *AccessSet) WritesResource(id uint32) { a.WriteResources.Mark(id) }

// ConflictsWith reports whether a and b cannot safely run in the same
// parallel layer: a write overlapping any access of the other set on the
// same id space, or either side using Commands (command buffer replay
// must stay deterministic, so Commands-using systems never share a
// layer with anything else).
func (a AccessSet) ConflictsWith(b AccessSet) bool {
	if a.UsesCommands || b.UsesCommands {
		return true
	}
	if overlaps(a.WriteComponents, b.ReadComponents) || overlaps(a.WriteComponents, b.WriteComponents) {
		return true
	}
	if overlaps(a.ReadComponents, b.WriteComponents) {
		return true
	}
	if overlaps(a.WriteResources, b.ReadResources) || overlaps(a.WriteResources, b.WriteResources) {
		return true
	}
	if overlaps(a.ReadResources, b.WriteResources) {
		return true
	}
	return false
}

func overlaps(a, b mask.Mask256) bool {
	return a.ContainsAny(b)
}
