package ports

import (
	"context"

	"moduleshim/internal/types"
)

// ModuleReaderPort turns raw module bytes into a module loaded into the
// process. The returned module has Identity, Version, FullName and Handle
// set; Path is left to the caller.
type ModuleReaderPort interface {
	ReadModule(ctx context.Context, fileName string, data []byte) (types.LoadedModule, error)
}

// ResolveFunc answers a host request for a fully qualified module name.
type ResolveFunc func(ctx context.Context, requestedName string) (types.LoadedModule, bool)

// HostPort is the host's module-resolution registration point.
type HostPort interface {
	RegisterResolver(id string, fn ResolveFunc)
	UnregisterResolver(id string)
}

// HookPort installs and removes process-wide interception patches.
type HookPort interface {
	Install(ctx context.Context) error
	Uninstall(ctx context.Context) error
}

// ResolverObserver is notified of every resolution outcome.
type ResolverObserver interface {
	ObserveResolve(identity types.ModuleIdentity, outcome types.ResolveOutcome)
}

// ModuleSourcePort lists the modules a resolver may choose from.
type ModuleSourcePort interface {
	Modules() []types.LoadedModule
}
