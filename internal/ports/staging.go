package ports

import (
	"context"

	"moduleshim/internal/types"
)

// JSONLibraryStagerPort patches the host's bundled JSON library with the
// copy shipped in the shim's own directory.
type JSONLibraryStagerPort interface {
	Stage(ctx context.Context, ownDir string, hostDir string) error
}

type PolicyFilePort interface {
	LoadPolicy(path string) (types.CompatibilityLists, error)
}
