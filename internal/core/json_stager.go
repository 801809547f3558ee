package core

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"

	"moduleshim/internal/ports"
	"moduleshim/internal/types"
)

const backupSuffix = ".bak"

// JSONLibraryStager swaps the host's bundled JSON library for the copy
// shipped next to the shim, together with the companion libraries that
// copy depends on.
type JSONLibraryStager struct {
	Fs     afero.Fs
	Reader ports.ModuleReaderPort
	Config types.JSONLibraryConfig
}

func NewJSONLibraryStager(fs afero.Fs, reader ports.ModuleReaderPort, config types.JSONLibraryConfig) JSONLibraryStager {
	if config.FileName == "" {
		config.FileName = types.DefaultJSONLibrary
	}
	if config.ReplaceRange == "" {
		config.ReplaceRange = types.DefaultReplaceRange
	}
	return JSONLibraryStager{Fs: fs, Reader: reader, Config: config}
}

// Stage copies missing companions into hostDir and replaces the host's JSON
// library when its version falls inside the replace range. An empty hostDir
// falls back to the configured one; with neither set nothing happens.
func (s JSONLibraryStager) Stage(ctx context.Context, ownDir string, hostDir string) error {
	if strings.TrimSpace(hostDir) == "" {
		hostDir = s.Config.HostDir
	}
	if strings.TrimSpace(hostDir) == "" {
		log.Ctx(ctx).Debug().Msg("json library staging disabled")
		return nil
	}

	for _, companion := range s.Config.Companions {
		if err := s.stageCompanion(ctx, ownDir, hostDir, companion); err != nil {
			return err
		}
	}

	hostFile := filepath.Join(hostDir, s.Config.FileName)
	stagedFile := filepath.Join(ownDir, s.Config.FileName)
	if !s.exists(hostFile) {
		log.Ctx(ctx).Debug().Str("path", hostFile).Msg("host json library not present")
		return nil
	}
	if !s.exists(stagedFile) {
		log.Ctx(ctx).Debug().Str("path", stagedFile).Msg("no staged json library shipped")
		return nil
	}

	version, err := s.hostVersion(ctx, hostFile)
	if err != nil {
		return err
	}
	inRange, err := VersionInRange(version, s.Config.ReplaceRange)
	if err != nil {
		return err
	}
	if !inRange {
		log.Ctx(ctx).Debug().
			Str("version", version).
			Str("range", s.Config.ReplaceRange).
			Msg("host json library kept")
		return nil
	}

	backup := hostFile + backupSuffix
	if s.exists(backup) {
		if err := s.Fs.Remove(backup); err != nil {
			return errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg(fmt.Sprintf("failed to remove stale backup %s", backup)).
				WithCause(err)
		}
	}
	if err := s.Fs.Rename(hostFile, backup); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg(fmt.Sprintf("failed to back up %s", hostFile)).
			WithCause(err)
	}
	if err := copyFile(s.Fs, stagedFile, hostFile); err != nil {
		if restoreErr := s.restore(backup, hostFile); restoreErr != nil {
			log.Ctx(ctx).Error().Err(restoreErr).Str("path", hostFile).Msg("failed to restore json library backup")
		}
		return err
	}
	log.Ctx(ctx).Info().
		Str("replaced", version).
		Str("path", hostFile).
		Msg("staged json library")
	return nil
}

// restore puts the backup back in place of a partially written host file.
func (s JSONLibraryStager) restore(backup string, hostFile string) error {
	if s.exists(hostFile) {
		if err := s.Fs.Remove(hostFile); err != nil {
			return err
		}
	}
	return s.Fs.Rename(backup, hostFile)
}

func (s JSONLibraryStager) stageCompanion(ctx context.Context, ownDir string, hostDir string, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	dest := filepath.Join(hostDir, name)
	if s.exists(dest) {
		return nil
	}
	src := filepath.Join(ownDir, name)
	if !s.exists(src) {
		log.Ctx(ctx).Debug().Str("companion", name).Msg("companion not shipped")
		return nil
	}
	return copyFile(s.Fs, src, dest)
}

func (s JSONLibraryStager) hostVersion(ctx context.Context, path string) (string, error) {
	data, err := afero.ReadFile(s.Fs, path)
	if err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg(fmt.Sprintf("failed to read %s", path)).
			WithCause(err)
	}
	module, err := s.Reader.ReadModule(ctx, filepath.Base(path), data)
	if err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("invalid module binary %s", path)).
			WithCause(err)
	}
	if module.Handle != nil {
		_ = module.Handle.Close(ctx)
	}
	return module.Version, nil
}

func (s JSONLibraryStager) exists(path string) bool {
	ok, err := afero.Exists(s.Fs, path)
	return err == nil && ok
}

func copyFile(fs afero.Fs, srcPath string, destPath string) error {
	srcFile, err := fs.Open(srcPath)
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg(fmt.Sprintf("failed to open %s", srcPath)).
			WithCause(err)
	}
	defer srcFile.Close()
	destFile, err := fs.Create(destPath)
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg(fmt.Sprintf("failed to create %s", destPath)).
			WithCause(err)
	}
	defer destFile.Close()
	if _, err := io.Copy(destFile, srcFile); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg(fmt.Sprintf("failed to copy %s", srcPath)).
			WithCause(err)
	}
	return nil
}

var _ ports.JSONLibraryStagerPort = JSONLibraryStager{}
