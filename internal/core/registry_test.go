package core

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"moduleshim/internal/types"
)

func TestRegistryFirstRegisteredWins(t *testing.T) {
	registry := NewRegistry()
	first := types.LoadedModule{Identity: "Foo", Version: "1.0", Path: "a.wasm"}
	second := types.LoadedModule{Identity: "Foo", Version: "2.0", Path: "b.wasm"}

	assert.True(t, registry.Register(first))
	assert.False(t, registry.Register(second))
	assert.Equal(t, 1, registry.Len())

	got, ok := registry.Lookup("Foo")
	assert.True(t, ok)
	assert.Equal(t, "a.wasm", got.Path)
}

func TestRegistryModulesKeepsOrder(t *testing.T) {
	registry := NewRegistry()
	registry.Register(types.LoadedModule{Identity: "B"})
	registry.Register(types.LoadedModule{Identity: "A"})
	registry.Register(types.LoadedModule{Identity: "C"})

	var got []types.ModuleIdentity
	for _, module := range registry.Modules() {
		got = append(got, module.Identity)
	}
	if diff := cmp.Diff([]types.ModuleIdentity{"B", "A", "C"}, got); diff != "" {
		t.Fatalf("unexpected order (-want +got):\n%s", diff)
	}
}

func TestRegistryLookupMissing(t *testing.T) {
	registry := NewRegistry()
	_, ok := registry.Lookup("Missing")
	assert.False(t, ok)
	assert.False(t, registry.Contains("Missing"))
}
