package core

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moduleshim/internal/types"
)

// moduleList is a module source that, unlike Registry, may hold several
// entries under one identity.
type moduleList struct {
	modules []types.LoadedModule
	scans   atomic.Int32
}

func (m *moduleList) Modules() []types.LoadedModule {
	m.scans.Add(1)
	return m.modules
}

type recordingObserver struct {
	mu       sync.Mutex
	outcomes []types.ResolveOutcome
}

func (o *recordingObserver) ObserveResolve(_ types.ModuleIdentity, outcome types.ResolveOutcome) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.outcomes = append(o.outcomes, outcome)
}

func fooModules() *moduleList {
	return &moduleList{modules: []types.LoadedModule{
		{Identity: "Foo", Version: "1.0", Path: "foo-1.0.wasm"},
		{Identity: "Foo", Version: "2.3", Path: "foo-2.3.wasm"},
		{Identity: "Foo", Version: "2.1", Path: "foo-2.1.wasm"},
		{Identity: "Bar", Version: "9.9", Path: "bar.wasm"},
	}}
}

func TestResolverSelectsHighestVersion(t *testing.T) {
	resolver := NewResolver(fooModules())

	module, ok := resolver.Resolve(t.Context(), "Foo, Version=1.0")
	require.True(t, ok)
	assert.Equal(t, "foo-2.3.wasm", module.Path)
}

func TestResolverComparesNumerically(t *testing.T) {
	source := &moduleList{modules: []types.LoadedModule{
		{Identity: "Foo", Version: "2.10", Path: "ten"},
		{Identity: "Foo", Version: "2.9", Path: "nine"},
		{Identity: "Foo", Version: "", Path: "unversioned"},
	}}
	module, ok := NewResolver(source).Resolve(t.Context(), "Foo")
	require.True(t, ok)
	assert.Equal(t, "ten", module.Path)
}

func TestResolverUnversionedOnlyStillMatches(t *testing.T) {
	source := &moduleList{modules: []types.LoadedModule{
		{Identity: "Foo", Version: "garbage", Path: "only"},
	}}
	module, ok := NewResolver(source).Resolve(t.Context(), "Foo, Version=3.0")
	require.True(t, ok)
	assert.Equal(t, "only", module.Path)
}

func TestResolverCachesPerIdentity(t *testing.T) {
	source := fooModules()
	resolver := NewResolver(source)

	first, ok := resolver.Resolve(t.Context(), "Foo, Version=1.0")
	require.True(t, ok)
	second, ok := resolver.Resolve(t.Context(), "Foo, Version=2.1")
	require.True(t, ok)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), source.scans.Load())
	assert.Equal(t, 1, resolver.CacheSize())
}

func TestResolverOrderIndependent(t *testing.T) {
	a := NewResolver(fooModules())
	b := NewResolver(fooModules())

	a1, _ := a.Resolve(t.Context(), "Foo, Version=1.0")
	a2, _ := a.Resolve(t.Context(), "Foo, Version=2.1")
	b2, _ := b.Resolve(t.Context(), "Foo, Version=2.1")
	b1, _ := b.Resolve(t.Context(), "Foo, Version=1.0")

	assert.Equal(t, a1, b1)
	assert.Equal(t, a2, b2)
	assert.Equal(t, a1, a2)
}

func TestResolverCachesNoMatch(t *testing.T) {
	source := fooModules()
	observer := &recordingObserver{}
	resolver := NewResolver(source).WithObserver(observer)

	_, ok := resolver.Resolve(t.Context(), "Missing, Version=1.0")
	assert.False(t, ok)
	_, ok = resolver.Resolve(t.Context(), "Missing, Version=2.0")
	assert.False(t, ok)

	assert.Equal(t, int32(1), source.scans.Load())
	assert.Equal(t, []types.ResolveOutcome{
		types.ResolveOutcomeUnresolved,
		types.ResolveOutcomeCacheHit,
	}, observer.outcomes)
}

func TestResolverCacheIsMonotonic(t *testing.T) {
	source := &moduleList{}
	resolver := NewResolver(source)

	_, ok := resolver.Resolve(t.Context(), "Foo")
	require.False(t, ok)

	source.modules = append(source.modules, types.LoadedModule{Identity: "Foo", Version: "1.0"})
	_, ok = resolver.Resolve(t.Context(), "Foo")
	assert.False(t, ok)
}

func TestResolverDoesNotMutateRegistry(t *testing.T) {
	registry := NewRegistry()
	registry.Register(types.LoadedModule{Identity: "Foo", Version: "1.0"})
	resolver := NewResolver(registry)

	_, _ = resolver.Resolve(t.Context(), "Foo")
	_, _ = resolver.Resolve(t.Context(), "Bar")
	assert.Equal(t, 1, registry.Len())
}

func TestResolverConcurrentRequests(t *testing.T) {
	source := fooModules()
	resolver := NewResolver(source)

	var wg sync.WaitGroup
	results := make([]types.LoadedModule, 64)
	for i := range results {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			name := "Foo, Version=1.0"
			if idx%2 == 0 {
				name = "Foo, Version=2.1"
			}
			module, ok := resolver.Resolve(t.Context(), name)
			assert.True(t, ok)
			results[idx] = module
		}(i)
	}
	wg.Wait()

	for _, module := range results {
		assert.Equal(t, "foo-2.3.wasm", module.Path)
	}
	assert.Equal(t, 1, resolver.CacheSize())
}

func TestResolverFunc(t *testing.T) {
	resolver := NewResolver(fooModules())
	fn := resolver.Func()
	module, ok := fn(t.Context(), "Bar")
	require.True(t, ok)
	assert.Equal(t, "bar.wasm", module.Path)
}
