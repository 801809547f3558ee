package core

import (
	"sync"

	"moduleshim/internal/ports"
	"moduleshim/internal/types"
)

// Registry maps module identities to the first module loaded under them.
// It is written during the load phase and read by the resolver afterwards.
type Registry struct {
	mu      sync.RWMutex
	modules map[types.ModuleIdentity]types.LoadedModule
	order   []types.ModuleIdentity
}

func NewRegistry() *Registry {
	return &Registry{modules: map[types.ModuleIdentity]types.LoadedModule{}}
}

// Register adds the module unless its identity is already present, in
// which case the existing entry is kept and false is returned.
func (r *Registry) Register(module types.LoadedModule) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.modules[module.Identity]; ok {
		return false
	}
	r.modules[module.Identity] = module
	r.order = append(r.order, module.Identity)
	return true
}

func (r *Registry) Contains(identity types.ModuleIdentity) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.modules[identity]
	return ok
}

func (r *Registry) Lookup(identity types.ModuleIdentity) (types.LoadedModule, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	module, ok := r.modules[identity]
	return module, ok
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.modules)
}

// Modules returns every registered module in registration order.
func (r *Registry) Modules() []types.LoadedModule {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]types.LoadedModule, 0, len(r.order))
	for _, identity := range r.order {
		out = append(out, r.modules[identity])
	}
	return out
}

var _ ports.ModuleSourcePort = (*Registry)(nil)
