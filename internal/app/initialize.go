package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	assert "github.com/ZanzyTHEbar/assert-lib"
	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"

	"moduleshim/internal/core"
	"moduleshim/internal/types"
)

var errMarkerFound = errors.New("marker found")

// Initialize runs the startup sequence. It returns false without error when
// the compatibility scan decides to abort.
func (s *Shim) Initialize(ctx context.Context, req InitializeRequest) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	check, err := s.check(ctx)
	if err != nil {
		return false, err
	}
	if check.Scan.Decision == types.DecisionAbort {
		log.Ctx(ctx).Warn().Str("offender", check.Scan.Offender).Msg("initialization aborted")
		return false, nil
	}
	s.ownDir = check.OwnDirectory

	if s.Hooks != nil && !s.hooksInstalled {
		if err := s.Hooks.Install(ctx); err != nil {
			return false, err
		}
		s.hooksInstalled = true
	}
	if s.Stager != nil {
		if err := s.Stager.Stage(ctx, s.ownDir, s.Config.JSONLibrary.HostDir); err != nil {
			return false, err
		}
	}

	if s.registry == nil {
		s.registry = core.NewRegistry()
	}
	if s.resolver == nil {
		s.resolver = core.NewResolver(s.registry).WithObserver(s.Observer)
	}
	if !req.IsDynamicLoad {
		if s.tlsShim == nil {
			s.tlsShim = core.NewTLSShim(ctx, s.Slot, s.ChainBuilder, s.Config.RevocationWait)
		}
		s.tlsShim.Install()
	}

	loader := core.NewLoader(s.Fs, s.Reader, s.registry, s.Config.ModuleExtension)
	report, err := loader.LoadDirectory(ctx, s.ownDir)
	if err != nil {
		return false, err
	}

	if !req.IsDynamicLoad && s.Host != nil && !s.resolverRegistered {
		s.Host.RegisterResolver(ResolverID, s.resolver.Func())
		s.resolverRegistered = true
	}
	log.Ctx(ctx).Info().
		Str("dir", s.ownDir).
		Int("modules", len(report.Loaded)).
		Bool("dynamic", req.IsDynamicLoad).
		Msg("shim initialized")
	return true, nil
}

// OnPostInitialize is called by the host once every module finished
// initializing. The shim has nothing left to do at that point.
func (s *Shim) OnPostInitialize(ctx context.Context) {
	log.Ctx(ctx).Debug().Msg("post initialize")
}

// Shutdown reverses whatever Initialize installed. It is safe to call more
// than once and after a partial or skipped Initialize.
func (s *Shim) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tlsShim != nil {
		s.tlsShim.Uninstall()
	}
	if s.resolverRegistered {
		s.Host.UnregisterResolver(ResolverID)
		s.resolverRegistered = false
	}
	if s.hooksInstalled {
		s.hooksInstalled = false
		if err := s.Hooks.Uninstall(ctx); err != nil {
			return err
		}
	}
	log.Ctx(ctx).Debug().Msg("shim shut down")
	return nil
}

// Check locates the own directory and runs the compatibility scan without
// touching the process.
func (s *Shim) Check(ctx context.Context) (CheckResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.check(ctx)
}

func (s *Shim) check(ctx context.Context) (CheckResult, error) {
	installRoot := strings.TrimSpace(s.Config.InstallRoot)
	if installRoot == "" {
		return CheckResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("install root is required")
	}
	installRoot = filepath.Clean(installRoot)
	ownDir, err := s.locateOwnDirectory(ctx, installRoot)
	if err != nil {
		return CheckResult{}, err
	}
	scanner := core.NewScanner(s.Fs, s.Policy, s.Reporter)
	scan, err := scanner.Scan(ctx, installRoot, selfName(installRoot, ownDir))
	if err != nil {
		return CheckResult{}, err
	}
	return CheckResult{OwnDirectory: ownDir, Scan: scan}, nil
}

// locateOwnDirectory walks installRoot in lexical order and returns the
// directory of the first marker file found.
func (s *Shim) locateOwnDirectory(ctx context.Context, installRoot string) (string, error) {
	marker := s.Config.MarkerFile
	assert.NotEmpty(ctx, marker, "marker file name must be set")

	var found string
	err := afero.Walk(s.Fs, installRoot, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && strings.EqualFold(info.Name(), marker) {
			found = filepath.Dir(path)
			return errMarkerFound
		}
		return nil
	})
	if err != nil && !errors.Is(err, errMarkerFound) {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg(fmt.Sprintf("install root not readable: %s", installRoot)).
			WithCause(err)
	}
	if found == "" {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg(fmt.Sprintf("failed to find install directory: no %s below %s", marker, installRoot))
	}
	log.Ctx(ctx).Debug().Str("dir", found).Msg("install directory located")
	return found, nil
}

// selfName is the entry of installRoot that contains ownDir.
func selfName(installRoot string, ownDir string) string {
	rel, err := filepath.Rel(installRoot, ownDir)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return filepath.Base(ownDir)
	}
	return strings.SplitN(filepath.ToSlash(rel), "/", 2)[0]
}
