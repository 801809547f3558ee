package core

import (
	"context"
	"crypto/x509"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"moduleshim/internal/ports"
	"moduleshim/internal/types"
)

// TLSShim replaces the process certificate validator with one that only
// tolerates "revocation status unknown". Every other chain status is
// re-validated with revocation checking forced online.
type TLSShim struct {
	slot    ports.ValidationSlotPort
	builder ports.ChainBuilderPort
	timeout time.Duration
	logger  *zerolog.Logger

	mu        sync.Mutex
	installed bool
	previous  types.CertificateValidator
}

// NewTLSShim logs rejections through the logger carried by ctx.
func NewTLSShim(ctx context.Context, slot ports.ValidationSlotPort, builder ports.ChainBuilderPort, timeout time.Duration) *TLSShim {
	if timeout <= 0 {
		timeout = types.DefaultRevocationWait
	}
	return &TLSShim{slot: slot, builder: builder, timeout: timeout, logger: log.Ctx(ctx)}
}

// Install captures the active validator and installs the override.
// Calling it again while installed does nothing.
func (s *TLSShim) Install() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.installed || s.slot == nil {
		return
	}
	s.previous = s.slot.Validator()
	s.slot.SetValidator(s.Validate)
	s.installed = true
}

// Uninstall restores the validator captured by Install. Without a prior
// Install the slot is left untouched.
func (s *TLSShim) Uninstall() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.installed {
		return
	}
	s.slot.SetValidator(s.previous)
	s.previous = nil
	s.installed = false
}

func (s *TLSShim) Installed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.installed
}

// Validate is the override validator.
func (s *TLSShim) Validate(cert *x509.Certificate, chain *types.CertificateChain, errs types.PolicyErrors) bool {
	if errs == types.PolicyErrorsNone {
		return true
	}
	if errs.Has(types.PolicyErrorRemoteCertificateNotAvailable) || errs.Has(types.PolicyErrorRemoteCertificateNameMismatch) {
		return false
	}
	if chain == nil || s.builder == nil {
		return false
	}
	policy := s.strictPolicy()
	ok := true
	for _, status := range chain.Statuses {
		if status == types.ChainStatusRevocationStatusUnknown {
			continue
		}
		if err := s.builder.Build(context.Background(), cert, chain, policy); err != nil {
			s.logger.Warn().Err(err).Str("status", string(status)).Msg("certificate chain rejected")
			ok = false
		}
	}
	return ok
}

func (s *TLSShim) strictPolicy() types.ChainPolicy {
	return types.ChainPolicy{
		RevocationMode:    types.RevocationModeOnline,
		RevocationFlag:    types.RevocationFlagEntireChain,
		Timeout:           s.timeout,
		VerificationFlags: types.VerificationFlagsAll,
	}
}
