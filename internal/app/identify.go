package app

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/spf13/afero"
)

// Identify reads each module file and reports its identity and version
// without registering anything.
func (s *Shim) Identify(ctx context.Context, paths []string) ([]IdentifyResult, error) {
	results := make([]IdentifyResult, 0, len(paths))
	for _, path := range paths {
		data, err := afero.ReadFile(s.Fs, path)
		if err != nil {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeNotFound).
				WithMsg(fmt.Sprintf("failed to read module %s", path)).
				WithCause(err)
		}
		module, err := s.Reader.ReadModule(ctx, filepath.Base(path), data)
		if err != nil {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("invalid module binary %s", path)).
				WithCause(err)
		}
		if module.Handle != nil {
			_ = module.Handle.Close(ctx)
		}
		results = append(results, IdentifyResult{
			Path:     path,
			Identity: module.Identity,
			Version:  module.Version,
			FullName: module.FullName,
		})
	}
	return results, nil
}
