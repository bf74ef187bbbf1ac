package capability

import (
	"fmt"
	"sync"

	"github.com/vinayprograms/agentkit/logging"
)

// Registry holds all registered capabilities keyed by id.
// Registration order is preserved so that category lookups iterate
// deterministically; selection tie-breaks depend on it.
type Registry struct {
	mu     sync.RWMutex
	caps   map[string]Capability
	order  []string
	logger *logging.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		caps:   make(map[string]Capability),
		logger: logging.New().WithComponent("registry"),
	}
}

// Register adds a capability. Registering an id twice is an error;
// callers must Remove first to replace.
func (r *Registry) Register(c Capability) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := c.ID()
	if id == "" {
		return fmt.Errorf("capability id must not be empty")
	}
	if _, ok := r.caps[id]; ok {
		return fmt.Errorf("capability already registered: %s", id)
	}
	r.caps[id] = c
	r.order = append(r.order, id)
	r.logger.Debug("capability registered", map[string]interface{}{
		"id":       id,
		"category": string(c.Category()),
	})
	return nil
}

// Remove deletes a capability by id. Removing an unknown id is a no-op.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.caps[id]; !ok {
		return
	}
	delete(r.caps, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// Get returns a capability by id, or nil if not registered.
func (r *Registry) Get(id string) Capability {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.caps[id]
}

// IDs returns all registered ids in registration order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// ByCategory returns capabilities in the given category, in registration order.
func (r *Registry) ByCategory(cat Category) []Capability {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Capability
	for _, id := range r.order {
		if c := r.caps[id]; c.Category() == cat {
			out = append(out, c)
		}
	}
	return out
}

// Descriptors returns metadata for all registered capabilities in order.
func (r *Registry) Descriptors() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Descriptor, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, Describe(r.caps[id]))
	}
	return out
}

// Len returns the number of registered capabilities.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.caps)
}
