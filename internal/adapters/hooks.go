package adapters

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"sync"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"moduleshim/internal/ports"
)

// Patch is one reversible process-wide change.
type Patch struct {
	Name   string
	Apply  func(ctx context.Context) error
	Revert func(ctx context.Context) error
}

// PatchSet applies its patches in order and reverts them in reverse order.
// A patch failing to apply rolls back the ones already applied.
type PatchSet struct {
	mu      sync.Mutex
	patches []Patch
	applied int
}

func NewPatchSet(patches ...Patch) *PatchSet {
	return &PatchSet{patches: patches}
}

func (p *PatchSet) Install(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.applied > 0 {
		return nil
	}
	for i, patch := range p.patches {
		if patch.Apply == nil {
			p.applied = i + 1
			continue
		}
		if err := patch.Apply(ctx); err != nil {
			p.applied = i
			if rollbackErr := p.revertLocked(ctx); rollbackErr != nil {
				log.Ctx(ctx).Error().Err(rollbackErr).Msg("hook rollback failed")
			}
			return errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg(fmt.Sprintf("failed to install hook %s", patch.Name)).
				WithCause(err)
		}
		p.applied = i + 1
		log.Ctx(ctx).Debug().Str("hook", patch.Name).Msg("hook installed")
	}
	return nil
}

func (p *PatchSet) Uninstall(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.revertLocked(ctx)
}

// Installed reports how many patches are currently applied.
func (p *PatchSet) Installed() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.applied
}

func (p *PatchSet) revertLocked(ctx context.Context) error {
	var firstErr error
	for i := p.applied - 1; i >= 0; i-- {
		patch := p.patches[i]
		if patch.Revert == nil {
			continue
		}
		if err := patch.Revert(ctx); err != nil && firstErr == nil {
			firstErr = errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg(fmt.Sprintf("failed to uninstall hook %s", patch.Name)).
				WithCause(err)
		}
	}
	p.applied = 0
	return firstErr
}

// NewDefaultTransportPatch points http.DefaultTransport at a clone that
// uses config, so outbound HTTPS from the process goes through the shim's
// certificate validation. Revert restores the original transport.
func NewDefaultTransportPatch(config *tls.Config) Patch {
	var original http.RoundTripper
	return Patch{
		Name: "default-transport-tls",
		Apply: func(context.Context) error {
			base, ok := http.DefaultTransport.(*http.Transport)
			if !ok {
				return errbuilder.New().
					WithCode(errbuilder.CodeFailedPrecondition).
					WithMsg("default transport is not an *http.Transport")
			}
			original = http.DefaultTransport
			patched := base.Clone()
			patched.TLSClientConfig = config
			http.DefaultTransport = patched
			return nil
		},
		Revert: func(context.Context) error {
			if original != nil {
				http.DefaultTransport = original
				original = nil
			}
			return nil
		},
	}
}

var _ ports.HookPort = (*PatchSet)(nil)
