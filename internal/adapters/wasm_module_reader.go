package adapters

import (
	"context"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/tetratelabs/wazero"

	"moduleshim/internal/ports"
	"moduleshim/internal/shared"
	"moduleshim/internal/types"
)

// IdentitySectionName is the custom section holding a module's fully
// qualified name.
const IdentitySectionName = "module.identity"

// WasmModuleReader compiles WebAssembly module binaries into a shared
// in-process runtime. Compiled modules stay resident until the reader is
// closed.
type WasmModuleReader struct {
	runtime wazero.Runtime
}

func NewWasmModuleReader(ctx context.Context) *WasmModuleReader {
	config := wazero.NewRuntimeConfig().WithCustomSections(true)
	return &WasmModuleReader{runtime: wazero.NewRuntimeWithConfig(ctx, config)}
}

func (r *WasmModuleReader) ReadModule(ctx context.Context, fileName string, data []byte) (types.LoadedModule, error) {
	compiled, err := r.runtime.CompileModule(ctx, data)
	if err != nil {
		return types.LoadedModule{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("failed to compile module").
			WithCause(err)
	}
	fullName, err := moduleFullName(compiled, fileName)
	if err != nil {
		_ = compiled.Close(ctx)
		return types.LoadedModule{}, err
	}
	name, version := shared.SplitModuleName(fullName)
	if name == "" {
		_ = compiled.Close(ctx)
		return types.LoadedModule{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("module identity is empty")
	}
	return types.LoadedModule{
		Identity: types.ModuleIdentity(name),
		Version:  version,
		FullName: fullName,
		Handle:   compiled,
	}, nil
}

// Close releases every module compiled by this reader.
func (r *WasmModuleReader) Close(ctx context.Context) error {
	return r.runtime.Close(ctx)
}

// moduleFullName prefers the identity section, then the module's declared
// name, then the file name stem.
func moduleFullName(compiled wazero.CompiledModule, fileName string) (string, error) {
	for _, section := range compiled.CustomSections() {
		if section.Name() != IdentitySectionName {
			continue
		}
		data := section.Data()
		if !utf8.Valid(data) {
			return "", errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("module identity section is not valid UTF-8")
		}
		return strings.TrimSpace(string(data)), nil
	}
	if name := strings.TrimSpace(compiled.Name()); name != "" {
		return name, nil
	}
	base := filepath.Base(fileName)
	return strings.TrimSuffix(base, filepath.Ext(base)), nil
}

var _ ports.ModuleReaderPort = (*WasmModuleReader)(nil)
