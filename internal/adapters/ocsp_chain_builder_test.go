package adapters

import (
	"crypto/x509"
	"testing"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ocsp"

	"moduleshim/internal/types"
	"moduleshim/tests/testutil"
)

func onlinePolicy(flags types.VerificationFlags) types.ChainPolicy {
	return types.ChainPolicy{
		RevocationMode:    types.RevocationModeOnline,
		RevocationFlag:    types.RevocationFlagEntireChain,
		Timeout:           5 * time.Second,
		VerificationFlags: flags,
	}
}

func chainFor(pki *testutil.TestPKI, leaf *x509.Certificate) *types.CertificateChain {
	return &types.CertificateChain{
		Certificates: []*x509.Certificate{leaf, pki.CA},
		Roots:        pki.Roots,
	}
}

func TestOCSPChainBuilderAcceptsGoodStatus(t *testing.T) {
	pki := testutil.NewTestPKI(t, "Test Root")
	responder := pki.OCSPResponder(t, ocsp.Good)
	leaf := pki.Leaf(t, "modules.example.test", responder.Server.URL)

	err := NewOCSPChainBuilder().Build(t.Context(), leaf, chainFor(pki, leaf), onlinePolicy(types.VerificationFlagsAll))
	require.NoError(t, err)
	assert.Equal(t, int64(1), responder.Hits.Load())
}

func TestOCSPChainBuilderRejectsRevoked(t *testing.T) {
	pki := testutil.NewTestPKI(t, "Test Root")
	responder := pki.OCSPResponder(t, ocsp.Revoked)
	leaf := pki.Leaf(t, "modules.example.test", responder.Server.URL)

	err := NewOCSPChainBuilder().Build(t.Context(), leaf, chainFor(pki, leaf), onlinePolicy(types.VerificationFlagsAll))
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodePermissionDenied, errbuilder.CodeOf(err))
	assert.Contains(t, err.Error(), "revoked")
}

func TestOCSPChainBuilderUnreachableResponder(t *testing.T) {
	pki := testutil.NewTestPKI(t, "Test Root")
	server := testutil.FailingResponder(t)
	leaf := pki.Leaf(t, "modules.example.test", server.URL)

	err := NewOCSPChainBuilder().Build(t.Context(), leaf, chainFor(pki, leaf), onlinePolicy(types.VerificationFlagsAll))
	assert.NoError(t, err, "unknown revocation status is ignored when every ignore flag is set")

	err = NewOCSPChainBuilder().Build(t.Context(), leaf, chainFor(pki, leaf), onlinePolicy(types.VerificationFlagsNone))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "revocation status unknown")
}

func TestOCSPChainBuilderRejectsUntrustedChain(t *testing.T) {
	pki := testutil.NewTestPKI(t, "Test Root")
	other := testutil.NewTestPKI(t, "Other Root")
	leaf := pki.Leaf(t, "modules.example.test")

	chain := &types.CertificateChain{Certificates: []*x509.Certificate{leaf}, Roots: other.Roots}
	err := NewOCSPChainBuilder().Build(t.Context(), leaf, chain, onlinePolicy(types.VerificationFlagsAll))
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodePermissionDenied, errbuilder.CodeOf(err))
	assert.Contains(t, err.Error(), string(types.ChainStatusUntrustedRoot))
}

func TestOCSPChainBuilderSkipsRevocationOffline(t *testing.T) {
	pki := testutil.NewTestPKI(t, "Test Root")
	responder := pki.OCSPResponder(t, ocsp.Revoked)
	leaf := pki.Leaf(t, "modules.example.test", responder.Server.URL)

	policy := onlinePolicy(types.VerificationFlagsNone)
	policy.RevocationMode = types.RevocationModeNoCheck
	require.NoError(t, NewOCSPChainBuilder().Build(t.Context(), leaf, chainFor(pki, leaf), policy))
	assert.Equal(t, int64(0), responder.Hits.Load())
}

func TestOCSPChainBuilderEndCertificateOnly(t *testing.T) {
	pki := testutil.NewTestPKI(t, "Test Root")
	responder := pki.OCSPResponder(t, ocsp.Good)
	leaf := pki.Leaf(t, "modules.example.test", responder.Server.URL)

	// The root has no responder; only checking the leaf keeps the unknown
	// root status out of the decision.
	policy := onlinePolicy(types.VerificationFlagsNone)
	policy.RevocationFlag = types.RevocationFlagEndCertificateOnly
	require.NoError(t, NewOCSPChainBuilder().Build(t.Context(), leaf, chainFor(pki, leaf), policy))
}
