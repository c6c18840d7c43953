package dnsengine

import (
	"sync"

	"github.com/cuemby/netresolved/pkg/resolvconf"
)

// HostUpstreams is the mutex-protected, supervisor-wide list of host
// upstream resolver endpoints, refreshed whenever the resolver file
// changes. Every listener holds the same instance; critical sections are
// limited to copy-in/copy-out so no lock is ever held across a socket
// operation.
type HostUpstreams struct {
	mu  sync.RWMutex
	eps []resolvconf.Endpoint
}

// NewHostUpstreams creates a cell seeded with the given endpoints.
func NewHostUpstreams(initial []resolvconf.Endpoint) *HostUpstreams {
	h := &HostUpstreams{}
	h.Set(initial)
	return h
}

// Get returns a copy of the current endpoint list.
func (h *HostUpstreams) Get() []resolvconf.Endpoint {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]resolvconf.Endpoint, len(h.eps))
	copy(out, h.eps)
	return out
}

// Set replaces the endpoint list wholesale.
func (h *HostUpstreams) Set(eps []resolvconf.Endpoint) {
	next := make([]resolvconf.Endpoint, len(eps))
	copy(next, eps)

	h.mu.Lock()
	h.eps = next
	h.mu.Unlock()
}
