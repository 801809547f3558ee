package ports

import (
	"context"
	"crypto/x509"

	"moduleshim/internal/types"
)

// ChainBuilderPort rebuilds and validates a certificate chain under the
// given policy. A nil error means the chain is valid.
type ChainBuilderPort interface {
	Build(ctx context.Context, cert *x509.Certificate, chain *types.CertificateChain, policy types.ChainPolicy) error
}

// ValidationSlotPort holds the process's active certificate validator.
// A nil validator means no override is installed.
type ValidationSlotPort interface {
	Validator() types.CertificateValidator
	SetValidator(validator types.CertificateValidator)
}
