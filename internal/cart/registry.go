package cart

import "sync"

// Registry owns one Cart per client for the lifetime of the process.
type Registry struct {
	mu    sync.Mutex
	carts map[string]*Cart
}

func NewRegistry() *Registry {
	return &Registry{carts: make(map[string]*Cart)}
}

// With runs fn against clientID's cart, creating an empty one on first use.
// Calls for all clients are serialized, so fn must not block on I/O.
func (r *Registry) With(clientID string, fn func(c *Cart) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.carts[clientID]
	if !ok {
		c = New()
		r.carts[clientID] = c
	}
	return fn(c)
}

// Snapshot returns a detached copy of clientID's cart.
func (r *Registry) Snapshot(clientID string) *Cart {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.carts[clientID]
	if !ok {
		return New()
	}
	return &Cart{lines: c.Lines()}
}
