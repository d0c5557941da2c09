package core

import "sync"

// Registry is the bookkeeping of live connections, independent of room
// semantics. All methods are safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

// NewRegistry returns an empty connection registry.
func NewRegistry() *Registry {
	return &Registry{clients: make(map[string]*Client)}
}

// Add records a new connection. Re-adding the same connection id is a no-op.
func (r *Registry) Add(c *Client) {
	r.mu.Lock()
	if _, exists := r.clients[c.ID]; !exists {
		r.clients[c.ID] = c
	}
	r.mu.Unlock()
}

// Remove deletes the connection's bookkeeping. Returns false if it was
// already gone.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.clients[id]; !exists {
		return false
	}
	delete(r.clients, id)
	return true
}

// Get returns the live client for a connection id.
func (r *Registry) Get(id string) (*Client, bool) {
	r.mu.RLock()
	c, ok := r.clients[id]
	r.mu.RUnlock()
	return c, ok
}

// Snapshot returns the current set of live clients.
func (r *Registry) Snapshot() []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Client, 0, len(r.clients))
	for _, c := range r.clients {
		out = append(out, c)
	}
	return out
}

// Len returns the number of live connections.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}
