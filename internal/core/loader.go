package core

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"

	"moduleshim/internal/ports"
	"moduleshim/internal/types"
)

// Loader reads module binaries from storage, loads them into the process
// and registers each first-seen identity.
type Loader struct {
	Fs        afero.Fs
	Reader    ports.ModuleReaderPort
	Registry  *Registry
	Extension string
}

func NewLoader(fs afero.Fs, reader ports.ModuleReaderPort, registry *Registry, extension string) Loader {
	if strings.TrimSpace(extension) == "" {
		extension = types.DefaultModuleExtension
	}
	return Loader{
		Fs:        fs,
		Reader:    reader,
		Registry:  registry,
		Extension: extension,
	}
}

// LoadModule loads baseDir/fileName. It is a no-op when the resolved path
// is baseDir itself or when a module with the same identity is already
// registered. Read and format failures are returned.
func (l Loader) LoadModule(ctx context.Context, baseDir string, fileName string) error {
	_, err := l.loadModule(ctx, baseDir, fileName)
	return err
}

// LoadDirectory loads every module file directly inside dir in file-name
// order. The first failure stops the loop.
func (l Loader) LoadDirectory(ctx context.Context, dir string) (types.LoadReport, error) {
	if l.Fs == nil || l.Reader == nil || l.Registry == nil {
		return types.LoadReport{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("loader requires filesystem, reader and registry")
	}
	entries, err := afero.ReadDir(l.Fs, dir)
	if err != nil {
		return types.LoadReport{}, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg(fmt.Sprintf("module directory not readable: %s", dir)).
			WithCause(err)
	}
	report := types.LoadReport{Directory: dir}
	for _, entry := range entries {
		if entry.IsDir() || !l.isModuleFile(entry.Name()) {
			continue
		}
		identity, err := l.loadModule(ctx, dir, entry.Name())
		if err != nil {
			return report, err
		}
		if identity == "" {
			report.Skipped = append(report.Skipped, entry.Name())
			continue
		}
		report.Loaded = append(report.Loaded, identity)
	}
	log.Ctx(ctx).Debug().
		Str("dir", dir).
		Int("loaded", len(report.Loaded)).
		Int("skipped", len(report.Skipped)).
		Msg("module directory loaded")
	return report, nil
}

// loadModule returns the registered identity, or "" when the file was
// skipped.
func (l Loader) loadModule(ctx context.Context, baseDir string, fileName string) (types.ModuleIdentity, error) {
	fullPath := resolveModulePath(baseDir, fileName)
	if strings.EqualFold(filepath.Clean(baseDir), fullPath) {
		return "", nil
	}

	data, err := afero.ReadFile(l.Fs, fullPath)
	if err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg(fmt.Sprintf("failed to read module %s", fullPath)).
			WithCause(err)
	}
	module, err := l.Reader.ReadModule(ctx, filepath.Base(fullPath), data)
	if err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("invalid module binary %s", fullPath)).
			WithCause(err)
	}
	module.Path = fullPath

	if !l.Registry.Register(module) {
		log.Ctx(ctx).Debug().
			Str("identity", string(module.Identity)).
			Str("path", fullPath).
			Msg("module identity already registered")
		if module.Handle != nil {
			_ = module.Handle.Close(ctx)
		}
		return "", nil
	}
	log.Ctx(ctx).Debug().
		Str("identity", string(module.Identity)).
		Str("version", module.Version).
		Msg("module loaded")
	return module.Identity, nil
}

// Close releases the handles of every registered module. Only the process
// owner calls it, on exit.
func (l Loader) Close(ctx context.Context) error {
	if l.Registry == nil {
		return nil
	}
	var firstErr error
	for _, module := range l.Registry.Modules() {
		if module.Handle == nil {
			continue
		}
		if err := module.Handle.Close(ctx); err != nil && firstErr == nil {
			firstErr = errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg(fmt.Sprintf("failed to release module %s", module.Identity)).
				WithCause(err)
		}
	}
	return firstErr
}

func (l Loader) isModuleFile(name string) bool {
	return strings.EqualFold(filepath.Ext(name), l.Extension)
}

func resolveModulePath(baseDir string, fileName string) string {
	if filepath.IsAbs(fileName) {
		return filepath.Clean(fileName)
	}
	return filepath.Clean(filepath.Join(baseDir, fileName))
}
