package app

import (
	"context"
	"os"
	"sync"

	"github.com/spf13/afero"

	"moduleshim/internal/adapters"
	"moduleshim/internal/core"
	"moduleshim/internal/policies"
	"moduleshim/internal/ports"
	"moduleshim/internal/types"
)

// ResolverID is the name the shim's resolver is registered under.
const ResolverID = "moduleshim"

// Shim owns the loaded-module state of one process and the effects it
// installs into it.
type Shim struct {
	Fs           afero.Fs
	Config       types.ShimConfig
	Reader       ports.ModuleReaderPort
	Policy       ports.CompatibilityPolicyPort
	Reporter     ports.ScanReporterPort
	Host         ports.HostPort
	Hooks        ports.HookPort
	Stager       ports.JSONLibraryStagerPort
	Slot         ports.ValidationSlotPort
	ChainBuilder ports.ChainBuilderPort
	Observer     ports.ResolverObserver

	mu                 sync.Mutex
	registry           *core.Registry
	resolver           *core.Resolver
	tlsShim            *core.TLSShim
	ownDir             string
	hooksInstalled     bool
	resolverRegistered bool
}

// NewShim wires the default in-process adapters for config.
func NewShim(ctx context.Context, config types.ShimConfig) *Shim {
	config = withDefaults(config)
	fs := afero.NewOsFs()
	reader := adapters.NewWasmModuleReader(ctx)
	slot := adapters.NewTLSConfigSlot(nil)
	return &Shim{
		Fs:           fs,
		Config:       config,
		Reader:       reader,
		Policy:       policies.NewCompatibilityPolicy(config.Compatibility),
		Reporter:     adapters.NewConsoleScanReporter(os.Stderr, ResolverID),
		Host:         adapters.NewProcessHost(),
		Hooks:        adapters.NewPatchSet(adapters.NewDefaultTransportPatch(slot.Config())),
		Stager:       core.NewJSONLibraryStager(fs, reader, config.JSONLibrary),
		Slot:         slot,
		ChainBuilder: adapters.NewOCSPChainBuilder(),
	}
}

func withDefaults(config types.ShimConfig) types.ShimConfig {
	defaults := types.DefaultShimConfig()
	if config.MarkerFile == "" {
		config.MarkerFile = defaults.MarkerFile
	}
	if config.ModuleExtension == "" {
		config.ModuleExtension = defaults.ModuleExtension
	}
	if config.JSONLibrary.FileName == "" {
		config.JSONLibrary.FileName = defaults.JSONLibrary.FileName
	}
	if config.JSONLibrary.ReplaceRange == "" {
		config.JSONLibrary.ReplaceRange = defaults.JSONLibrary.ReplaceRange
	}
	if config.RevocationWait <= 0 {
		config.RevocationWait = defaults.RevocationWait
	}
	return config
}

// Modules lists the registered modules in load order.
func (s *Shim) Modules() []types.LoadedModule {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.registry == nil {
		return nil
	}
	return s.registry.Modules()
}

// Resolver returns the resolver built by Initialize, or nil before it.
func (s *Shim) Resolver() *core.Resolver {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolver
}

// OwnDirectory is the directory holding the marker file, once located.
func (s *Shim) OwnDirectory() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ownDir
}

type runtimeCloser interface {
	Close(ctx context.Context) error
}

// Close releases loaded module handles and the module runtime. It is meant
// for process exit, after Shutdown.
func (s *Shim) Close(ctx context.Context) error {
	s.mu.Lock()
	registry := s.registry
	s.mu.Unlock()
	var firstErr error
	if registry != nil {
		firstErr = core.NewLoader(s.Fs, s.Reader, registry, s.Config.ModuleExtension).Close(ctx)
	}
	if closer, ok := s.Reader.(runtimeCloser); ok {
		if err := closer.Close(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
