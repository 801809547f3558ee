package adapters

import (
	"bytes"
	"context"
	"crypto/x509"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/ocsp"

	"moduleshim/internal/ports"
	"moduleshim/internal/shared"
	"moduleshim/internal/types"
)

const maxOCSPResponseBytes = 1 << 20

// OCSPChainBuilder rebuilds a peer chain with crypto/x509 and, in online
// revocation mode, asks each certificate's OCSP responders for its status.
type OCSPChainBuilder struct {
	Client *http.Client
	Now    func() time.Time
}

func NewOCSPChainBuilder() OCSPChainBuilder {
	return OCSPChainBuilder{Client: &http.Client{}, Now: time.Now}
}

func (b OCSPChainBuilder) Build(ctx context.Context, cert *x509.Certificate, chain *types.CertificateChain, policy types.ChainPolicy) error {
	if cert == nil || chain == nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("certificate and chain are required")
	}
	now := time.Now()
	if b.Now != nil {
		now = b.Now()
	}
	peers := chain.Certificates
	if len(peers) == 0 {
		peers = []*x509.Certificate{cert}
	}
	verified, err := cert.Verify(x509.VerifyOptions{
		Roots:         chain.Roots,
		Intermediates: intermediatePool(peers),
		CurrentTime:   now,
	})
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodePermissionDenied).
			WithMsg(fmt.Sprintf("certificate chain invalid: %s", chainStatusFor(err))).
			WithCause(err)
	}
	if policy.RevocationMode != types.RevocationModeOnline {
		return nil
	}

	if policy.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, policy.Timeout)
		defer cancel()
	}
	path := verified[0]
	for idx := 0; idx < len(path); idx++ {
		if !revocationApplies(policy.RevocationFlag, idx, len(path)) {
			continue
		}
		status := b.revocationStatus(ctx, path, idx)
		switch status {
		case "":
			continue
		case types.ChainStatusRevoked:
			return errbuilder.New().
				WithCode(errbuilder.CodePermissionDenied).
				WithMsg(fmt.Sprintf("certificate revoked: %s", path[idx].Subject.CommonName))
		case types.ChainStatusRevocationStatusUnknown:
			if policy.VerificationFlags.Has(ignoreFlagFor(idx, len(path))) {
				continue
			}
			return errbuilder.New().
				WithCode(errbuilder.CodePermissionDenied).
				WithMsg(fmt.Sprintf("revocation status unknown: %s", path[idx].Subject.CommonName))
		}
	}
	return nil
}

// revocationStatus returns "" for a good certificate, or the chain status
// describing why it is not.
func (b OCSPChainBuilder) revocationStatus(ctx context.Context, path []*x509.Certificate, idx int) types.ChainStatus {
	cert := path[idx]
	if idx == len(path)-1 {
		// A trust anchor has no issuer to vouch for it.
		return types.ChainStatusRevocationStatusUnknown
	}
	issuer := path[idx+1]
	if len(cert.OCSPServer) == 0 {
		return types.ChainStatusRevocationStatusUnknown
	}
	request, err := ocsp.CreateRequest(cert, issuer, nil)
	if err != nil {
		return types.ChainStatusRevocationStatusUnknown
	}
	for _, server := range cert.OCSPServer {
		response, err := b.query(ctx, server, request, cert, issuer)
		if err != nil {
			log.Ctx(ctx).Debug().Err(err).Str("responder", server).Msg("ocsp query failed")
			continue
		}
		switch response.Status {
		case ocsp.Good:
			return ""
		case ocsp.Revoked:
			return types.ChainStatusRevoked
		}
	}
	return types.ChainStatusRevocationStatusUnknown
}

func (b OCSPChainBuilder) query(ctx context.Context, server string, request []byte, cert *x509.Certificate, issuer *x509.Certificate) (*ocsp.Response, error) {
	client := b.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, server, bytes.NewReader(request))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/ocsp-request")
	req.Header.Set("Accept", "application/ocsp-response")
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, shared.HTTPStatusError(resp.StatusCode, server)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxOCSPResponseBytes))
	if err != nil {
		return nil, err
	}
	return ocsp.ParseResponseForCert(body, cert, issuer)
}

func revocationApplies(flag types.RevocationFlag, idx int, length int) bool {
	switch flag {
	case types.RevocationFlagEndCertificateOnly:
		return idx == 0
	case types.RevocationFlagExcludeRoot:
		return idx < length-1
	default:
		return true
	}
}

func ignoreFlagFor(idx int, length int) types.VerificationFlags {
	switch {
	case idx == 0:
		return types.VerificationFlagIgnoreEndRevocationUnknown
	case idx == length-1:
		return types.VerificationFlagIgnoreRootRevocationUnknown
	default:
		return types.VerificationFlagIgnoreCARevocationUnknown
	}
}

var _ ports.ChainBuilderPort = OCSPChainBuilder{}
