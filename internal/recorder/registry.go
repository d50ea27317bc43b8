package recorder

import (
	"sync"
	"sync/atomic"
)

// Registry issues process-lifetime-unique connection IDs and retains the
// origin URL for each connection. IDs start at 1, only ever increase and
// are never reused. The counter is a bare atomic because every producer
// hits it; the URL table is read-mostly and sits behind an RWMutex.
type Registry struct {
	counter atomic.Int64

	mu   sync.RWMutex
	urls map[int64]string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		urls: make(map[int64]string),
	}
}

// Register allocates the next connection ID and captures the origin URL.
func (r *Registry) Register(url string) int64 {
	id := r.counter.Add(1)
	r.mu.Lock()
	r.urls[id] = url
	r.mu.Unlock()
	return id
}

// URL returns the origin URL captured when the connection was registered,
// or empty for an unknown ID.
func (r *Registry) URL(id int64) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.urls[id]
}

// Count reports how many connections have been registered.
func (r *Registry) Count() int64 {
	return r.counter.Load()
}
