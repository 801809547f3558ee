package adapters

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"sync"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"moduleshim/internal/ports"
	"moduleshim/internal/types"
)

// TLSConfigSlot routes peer certificate decisions of a tls.Config through
// a CertificateValidator. The config is taken over once at construction:
// its own verification is switched to VerifyConnection, which consults the
// current validator on every handshake. Without a validator the config's
// original verification settings apply. SetValidator never writes to the
// config, so the config can be shared with live transports.
type TLSConfigSlot struct {
	config     *tls.Config
	skipVerify bool
	next       func(tls.ConnectionState) error

	mu        sync.RWMutex
	validator types.CertificateValidator
}

func NewTLSConfigSlot(config *tls.Config) *TLSConfigSlot {
	if config == nil {
		config = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	slot := &TLSConfigSlot{
		config:     config,
		skipVerify: config.InsecureSkipVerify,
		next:       config.VerifyConnection,
	}
	config.InsecureSkipVerify = true
	config.VerifyConnection = slot.verifyConnection
	return slot
}

// Config returns the tls.Config this slot drives.
func (s *TLSConfigSlot) Config() *tls.Config {
	return s.config
}

func (s *TLSConfigSlot) Validator() types.CertificateValidator {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.validator
}

func (s *TLSConfigSlot) SetValidator(validator types.CertificateValidator) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.validator = validator
}

func (s *TLSConfigSlot) verifyConnection(state tls.ConnectionState) error {
	validator := s.Validator()
	if validator == nil {
		return s.verifyDefault(state)
	}
	cert, chain, policyErrors := EvaluatePeerChain(state.PeerCertificates, s.config.RootCAs, state.ServerName)
	if validator(cert, chain, policyErrors) {
		return nil
	}
	return errbuilder.New().
		WithCode(errbuilder.CodePermissionDenied).
		WithMsg("peer certificate rejected")
}

// verifyDefault applies the verification the config had before the slot
// took it over.
func (s *TLSConfigSlot) verifyDefault(state tls.ConnectionState) error {
	if !s.skipVerify {
		_, _, policyErrors := EvaluatePeerChain(state.PeerCertificates, s.config.RootCAs, state.ServerName)
		if policyErrors != types.PolicyErrorsNone {
			return errbuilder.New().
				WithCode(errbuilder.CodePermissionDenied).
				WithMsg(fmt.Sprintf("peer certificate verification failed: %s", policyErrors))
		}
	}
	if s.next != nil {
		return s.next(state)
	}
	return nil
}

// EvaluatePeerChain runs the standard verification of a presented peer
// chain and reports the outcome as policy errors plus chain statuses.
func EvaluatePeerChain(peers []*x509.Certificate, roots *x509.CertPool, serverName string) (*x509.Certificate, *types.CertificateChain, types.PolicyErrors) {
	if len(peers) == 0 || peers[0] == nil {
		return nil, nil, types.PolicyErrorRemoteCertificateNotAvailable
	}
	leaf := peers[0]
	chain := &types.CertificateChain{
		Certificates: peers,
		Roots:        roots,
		DNSName:      serverName,
	}
	policyErrors := types.PolicyErrorsNone

	_, err := leaf.Verify(x509.VerifyOptions{
		Roots:         roots,
		Intermediates: intermediatePool(peers),
	})
	if err != nil {
		policyErrors |= types.PolicyErrorRemoteCertificateChainErrors
		chain.Statuses = append(chain.Statuses, chainStatusFor(err))
	}
	if serverName != "" {
		if err := leaf.VerifyHostname(serverName); err != nil {
			policyErrors |= types.PolicyErrorRemoteCertificateNameMismatch
		}
	}
	return leaf, chain, policyErrors
}

func intermediatePool(peers []*x509.Certificate) *x509.CertPool {
	pool := x509.NewCertPool()
	for _, cert := range peers[1:] {
		if cert != nil {
			pool.AddCert(cert)
		}
	}
	return pool
}

func chainStatusFor(err error) types.ChainStatus {
	var unknownAuthority x509.UnknownAuthorityError
	if errors.As(err, &unknownAuthority) {
		return types.ChainStatusUntrustedRoot
	}
	var invalid x509.CertificateInvalidError
	if errors.As(err, &invalid) {
		switch invalid.Reason {
		case x509.Expired:
			return types.ChainStatusNotTimeValid
		case x509.CANotAuthorizedForThisName:
			return types.ChainStatusInvalidNameConstraints
		case x509.NotAuthorizedToSign, x509.IncompatibleUsage, x509.CANotAuthorizedForExtKeyUsage:
			return types.ChainStatusNotValidForUsage
		default:
			return types.ChainStatusPartialChain
		}
	}
	return types.ChainStatusNotSignatureValid
}

var _ ports.ValidationSlotPort = (*TLSConfigSlot)(nil)
