package reflection

import (
	"fmt"
	"sync"

	"github.com/TheBitDrifter/bark"
)

// Registry is a set of Types keyed by their unique name. Insertion is
// idempotent when the identical *Type is registered twice, and fails if a
// different descriptor tries to claim an already-used name.
type Registry struct {
	mu    sync.RWMutex
	types map[string]*Type
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	return &Registry{types: make(map[string]*Type)}
}

// Register inserts t into the registry. Registering the same *Type twice
// is a no-op; registering a distinct *Type under a name already in use
// returns ErrNameCollision.
func (r *Registry) Register(t *Type) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.types[t.name]
	if !ok {
		r.types[t.name] = t
		return nil
	}
	if existing == t {
		return nil
	}
	return bark.AddTrace(fmt.Errorf("%w: %q", ErrNameCollision, t.name))
}

// Lookup finds a registered type by name.
func (r *Registry) Lookup(name string) (*Type, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.types[name]
	return t, ok
}

// All returns every registered type. The slice is a snapshot copy.
func (r *Registry) All() []*Type {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Type, 0, len(r.types))
	for _, t := range r.types {
		out = append(out, t)
	}
	return out
}
