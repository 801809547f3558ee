package adapters

import (
	"context"
	"sync"

	"moduleshim/internal/ports"
	"moduleshim/internal/types"
)

type hostResolver struct {
	id string
	fn ports.ResolveFunc
}

// ProcessHost is an in-process stand-in for the host's module resolution
// event. Resolvers are consulted in registration order.
type ProcessHost struct {
	mu        sync.RWMutex
	resolvers []hostResolver
}

func NewProcessHost() *ProcessHost {
	return &ProcessHost{}
}

// RegisterResolver adds fn under id, replacing any resolver already
// registered under the same id in place.
func (h *ProcessHost) RegisterResolver(id string, fn ports.ResolveFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i := range h.resolvers {
		if h.resolvers[i].id == id {
			h.resolvers[i].fn = fn
			return
		}
	}
	h.resolvers = append(h.resolvers, hostResolver{id: id, fn: fn})
}

func (h *ProcessHost) UnregisterResolver(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i := range h.resolvers {
		if h.resolvers[i].id == id {
			h.resolvers = append(h.resolvers[:i], h.resolvers[i+1:]...)
			return
		}
	}
}

func (h *ProcessHost) Registered() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.resolvers)
}

// Resolve raises a resolution request; the first resolver that answers wins.
func (h *ProcessHost) Resolve(ctx context.Context, requestedName string) (types.LoadedModule, bool) {
	h.mu.RLock()
	resolvers := make([]hostResolver, len(h.resolvers))
	copy(resolvers, h.resolvers)
	h.mu.RUnlock()
	for _, resolver := range resolvers {
		if module, ok := resolver.fn(ctx, requestedName); ok {
			return module, true
		}
	}
	return types.LoadedModule{}, false
}

var _ ports.HostPort = (*ProcessHost)(nil)
