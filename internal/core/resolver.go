package core

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"moduleshim/internal/ports"
	"moduleshim/internal/types"
)

// Resolver answers host requests for a module name with the highest
// version registered under the requested identity. Answers, including
// "no match", are memoized per identity for the life of the resolver.
// Resolve is safe for concurrent use.
type Resolver struct {
	source   ports.ModuleSourcePort
	observer ports.ResolverObserver

	mu    sync.RWMutex
	cache map[types.ModuleIdentity]resolution
	group singleflight.Group
}

type resolution struct {
	module types.LoadedModule
	found  bool
}

func NewResolver(source ports.ModuleSourcePort) *Resolver {
	return &Resolver{
		source: source,
		cache:  map[types.ModuleIdentity]resolution{},
	}
}

// WithObserver attaches an observer notified of each resolution outcome.
func (r *Resolver) WithObserver(observer ports.ResolverObserver) *Resolver {
	r.observer = observer
	return r
}

func (r *Resolver) Resolve(ctx context.Context, requestedName string) (types.LoadedModule, bool) {
	identity, _ := NormalizeName(requestedName)
	if cached, ok := r.cached(identity); ok {
		r.observe(identity, types.ResolveOutcomeCacheHit)
		return cached.module, cached.found
	}

	value, _, _ := r.group.Do(string(identity), func() (any, error) {
		if cached, ok := r.cached(identity); ok {
			return cached, nil
		}
		return r.store(identity, r.selectHighest(identity)), nil
	})
	result := value.(resolution)

	if !result.found {
		r.observe(identity, types.ResolveOutcomeUnresolved)
		log.Ctx(ctx).Debug().Str("request", requestedName).Msg("module request unresolved")
		return types.LoadedModule{}, false
	}
	r.observe(identity, types.ResolveOutcomeMatched)
	log.Ctx(ctx).Debug().
		Str("request", requestedName).
		Str("version", result.module.Version).
		Msg("module request resolved")
	return result.module, true
}

// Func exposes Resolve for registration with a host.
func (r *Resolver) Func() ports.ResolveFunc {
	return r.Resolve
}

// CacheSize reports how many identities have a memoized answer.
func (r *Resolver) CacheSize() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.cache)
}

func (r *Resolver) cached(identity types.ModuleIdentity) (resolution, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cached, ok := r.cache[identity]
	return cached, ok
}

// store records result unless an answer already exists, and returns the
// answer that is now cached.
func (r *Resolver) store(identity types.ModuleIdentity, result resolution) resolution {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.cache[identity]; ok {
		return existing
	}
	r.cache[identity] = result
	return result
}

func (r *Resolver) selectHighest(identity types.ModuleIdentity) resolution {
	if r.source == nil {
		return resolution{}
	}
	versions := newVersionCache()
	var best resolution
	for _, module := range r.source.Modules() {
		if module.Identity != identity {
			continue
		}
		if !best.found || versions.compare(module.Version, best.module.Version) > 0 {
			best = resolution{module: module, found: true}
		}
	}
	return best
}

func (r *Resolver) observe(identity types.ModuleIdentity, outcome types.ResolveOutcome) {
	if r.observer != nil {
		r.observer.ObserveResolve(identity, outcome)
	}
}
