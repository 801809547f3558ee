package core

import (
	"context"
	"errors"
	"strings"
	"sync"

	"moduleshim/internal/types"
)

// textModuleReader treats the file contents as the module's fully
// qualified name. Contents starting with "corrupt" fail to load.
type textModuleReader struct {
	mu     sync.Mutex
	reads  []string
	closed []types.ModuleIdentity
}

type textHandle struct {
	reader   *textModuleReader
	identity types.ModuleIdentity
}

func (h textHandle) Close(context.Context) error {
	h.reader.mu.Lock()
	defer h.reader.mu.Unlock()
	h.reader.closed = append(h.reader.closed, h.identity)
	return nil
}

func (r *textModuleReader) ReadModule(_ context.Context, fileName string, data []byte) (types.LoadedModule, error) {
	r.mu.Lock()
	r.reads = append(r.reads, fileName)
	r.mu.Unlock()
	fullName := strings.TrimSpace(string(data))
	if strings.HasPrefix(fullName, "corrupt") {
		return types.LoadedModule{}, errors.New("bad magic number")
	}
	identity, version := NormalizeName(fullName)
	return types.LoadedModule{
		Identity: identity,
		Version:  version,
		FullName: fullName,
		Handle:   textHandle{reader: r, identity: identity},
	}, nil
}
