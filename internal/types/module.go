package types

import "context"

// ModuleIdentity is the version-independent name of a module. Two modules
// that differ only in their Version token share one identity.
type ModuleIdentity string

// ModuleHandle is the opaque reference to a module loaded into the process.
type ModuleHandle interface {
	Close(ctx context.Context) error
}

// LoadedModule is one module successfully loaded into the process.
type LoadedModule struct {
	Identity ModuleIdentity
	Version  string
	FullName string
	Path     string
	Handle   ModuleHandle
}

type ClassifiedEntry struct {
	Name           string
	Classification Classification
}

type ScanResult struct {
	Decision Decision
	Entries  []ClassifiedEntry
	Offender string
}

type LoadReport struct {
	Directory string
	Loaded    []ModuleIdentity
	Skipped   []string
}
