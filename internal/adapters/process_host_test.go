package adapters

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moduleshim/internal/types"
)

func fixedResolver(answer string, matchName string) func(context.Context, string) (types.LoadedModule, bool) {
	return func(_ context.Context, requested string) (types.LoadedModule, bool) {
		if requested != matchName {
			return types.LoadedModule{}, false
		}
		return types.LoadedModule{FullName: answer}, true
	}
}

func TestProcessHostDispatchesInRegistrationOrder(t *testing.T) {
	host := NewProcessHost()
	host.RegisterResolver("first", fixedResolver("from first", "Foo"))
	host.RegisterResolver("second", fixedResolver("from second", "Foo"))
	host.RegisterResolver("bar", fixedResolver("bar", "Bar"))

	module, ok := host.Resolve(t.Context(), "Foo")
	require.True(t, ok)
	assert.Equal(t, "from first", module.FullName)

	module, ok = host.Resolve(t.Context(), "Bar")
	require.True(t, ok)
	assert.Equal(t, "bar", module.FullName)

	_, ok = host.Resolve(t.Context(), "Missing")
	assert.False(t, ok)
}

func TestProcessHostUnregister(t *testing.T) {
	host := NewProcessHost()
	host.RegisterResolver("first", fixedResolver("from first", "Foo"))
	host.RegisterResolver("second", fixedResolver("from second", "Foo"))
	assert.Equal(t, 2, host.Registered())

	host.UnregisterResolver("first")
	host.UnregisterResolver("unknown")
	assert.Equal(t, 1, host.Registered())

	module, ok := host.Resolve(t.Context(), "Foo")
	require.True(t, ok)
	assert.Equal(t, "from second", module.FullName)
}

func TestProcessHostReRegisterReplacesInPlace(t *testing.T) {
	host := NewProcessHost()
	host.RegisterResolver("shim", fixedResolver("old", "Foo"))
	host.RegisterResolver("shim", fixedResolver("new", "Foo"))
	assert.Equal(t, 1, host.Registered())

	module, ok := host.Resolve(t.Context(), "Foo")
	require.True(t, ok)
	assert.Equal(t, "new", module.FullName)
}
