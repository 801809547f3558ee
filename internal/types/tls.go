package types

import (
	"crypto/x509"
	"strings"
	"time"
)

// PolicyErrors mirrors the coarse outcome of the platform's own peer
// certificate check.
type PolicyErrors uint8

const (
	PolicyErrorsNone                         PolicyErrors = 0
	PolicyErrorRemoteCertificateNotAvailable PolicyErrors = 1 << 0
	PolicyErrorRemoteCertificateNameMismatch PolicyErrors = 1 << 1
	PolicyErrorRemoteCertificateChainErrors  PolicyErrors = 1 << 2
)

func (p PolicyErrors) Has(flag PolicyErrors) bool {
	return p&flag != 0
}

func (p PolicyErrors) String() string {
	if p == PolicyErrorsNone {
		return "none"
	}
	var names []string
	if p.Has(PolicyErrorRemoteCertificateNotAvailable) {
		names = append(names, "certificate-not-available")
	}
	if p.Has(PolicyErrorRemoteCertificateNameMismatch) {
		names = append(names, "name-mismatch")
	}
	if p.Has(PolicyErrorRemoteCertificateChainErrors) {
		names = append(names, "chain-errors")
	}
	return strings.Join(names, "|")
}

type ChainStatus string

const (
	ChainStatusNotTimeValid            ChainStatus = "not_time_valid"
	ChainStatusRevoked                 ChainStatus = "revoked"
	ChainStatusNotSignatureValid       ChainStatus = "not_signature_valid"
	ChainStatusNotValidForUsage        ChainStatus = "not_valid_for_usage"
	ChainStatusUntrustedRoot           ChainStatus = "untrusted_root"
	ChainStatusRevocationStatusUnknown ChainStatus = "revocation_status_unknown"
	ChainStatusPartialChain            ChainStatus = "partial_chain"
	ChainStatusInvalidNameConstraints  ChainStatus = "invalid_name_constraints"
)

type RevocationMode string

const (
	RevocationModeNoCheck RevocationMode = "no_check"
	RevocationModeOffline RevocationMode = "offline"
	RevocationModeOnline  RevocationMode = "online"
)

type RevocationFlag string

const (
	RevocationFlagEndCertificateOnly RevocationFlag = "end_certificate_only"
	RevocationFlagEntireChain        RevocationFlag = "entire_chain"
	RevocationFlagExcludeRoot        RevocationFlag = "exclude_root"
)

type VerificationFlags uint8

const (
	VerificationFlagsNone                       VerificationFlags = 0
	VerificationFlagIgnoreEndRevocationUnknown  VerificationFlags = 1 << 0
	VerificationFlagIgnoreCARevocationUnknown   VerificationFlags = 1 << 1
	VerificationFlagIgnoreRootRevocationUnknown VerificationFlags = 1 << 2
	VerificationFlagsAll                        VerificationFlags = VerificationFlagIgnoreEndRevocationUnknown |
		VerificationFlagIgnoreCARevocationUnknown |
		VerificationFlagIgnoreRootRevocationUnknown
)

func (v VerificationFlags) Has(flag VerificationFlags) bool {
	return v&flag != 0
}

type ChainPolicy struct {
	RevocationMode    RevocationMode
	RevocationFlag    RevocationFlag
	Timeout           time.Duration
	VerificationFlags VerificationFlags
}

// CertificateChain is the peer chain as presented, plus the statuses the
// initial verification produced.
type CertificateChain struct {
	Certificates []*x509.Certificate
	Statuses     []ChainStatus
	Roots        *x509.CertPool
	DNSName      string
}

// CertificateValidator decides whether a peer certificate is acceptable.
type CertificateValidator func(cert *x509.Certificate, chain *CertificateChain, errs PolicyErrors) bool
