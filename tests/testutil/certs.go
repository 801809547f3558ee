package testutil

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"io"
	"math/big"
	"net"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/crypto/ocsp"
)

// TestPKI is a throwaway certificate authority for TLS tests.
type TestPKI struct {
	CA    *x509.Certificate
	CAKey *ecdsa.PrivateKey
	Roots *x509.CertPool

	serial atomic.Int64
}

func NewTestPKI(t *testing.T, commonName string) *TestPKI {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generate ca key: %v", err)
	}
	now := time.Now()
	template := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: commonName},
		NotBefore:             now.Add(-time.Hour),
		NotAfter:              now.Add(24 * time.Hour),
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageDigitalSignature,
		BasicConstraintsValid: true,
		IsCA:                  true,
	}
	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("create ca certificate: %v", err)
	}
	ca, err := x509.ParseCertificate(der)
	if err != nil {
		t.Fatalf("parse ca certificate: %v", err)
	}
	roots := x509.NewCertPool()
	roots.AddCert(ca)
	pki := &TestPKI{CA: ca, CAKey: key, Roots: roots}
	pki.serial.Store(1)
	return pki
}

// Leaf issues a server certificate for dnsName, optionally naming OCSP
// responders.
func (p *TestPKI) Leaf(t *testing.T, dnsName string, ocspServers ...string) *x509.Certificate {
	t.Helper()
	cert, _ := p.leaf(t, dnsName, time.Now().Add(-time.Hour), time.Now().Add(24*time.Hour), ocspServers)
	return cert
}

// ServerCertificate issues a leaf for dnsName and 127.0.0.1 and returns it
// with its key and the CA, ready for a tls.Config.
func (p *TestPKI) ServerCertificate(t *testing.T, dnsName string, ocspServers ...string) tls.Certificate {
	t.Helper()
	cert, key := p.leaf(t, dnsName, time.Now().Add(-time.Hour), time.Now().Add(24*time.Hour), ocspServers)
	return tls.Certificate{
		Certificate: [][]byte{cert.Raw, p.CA.Raw},
		PrivateKey:  key,
		Leaf:        cert,
	}
}

// ExpiredLeaf issues a certificate whose validity ended an hour ago.
func (p *TestPKI) ExpiredLeaf(t *testing.T, dnsName string) *x509.Certificate {
	t.Helper()
	cert, _ := p.leaf(t, dnsName, time.Now().Add(-48*time.Hour), time.Now().Add(-time.Hour), nil)
	return cert
}

func (p *TestPKI) leaf(t *testing.T, dnsName string, notBefore, notAfter time.Time, ocspServers []string) (*x509.Certificate, *ecdsa.PrivateKey) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generate leaf key: %v", err)
	}
	template := &x509.Certificate{
		SerialNumber: big.NewInt(p.serial.Add(1)),
		Subject:      pkix.Name{CommonName: dnsName},
		DNSNames:     []string{dnsName},
		IPAddresses:  []net.IP{net.IPv4(127, 0, 0, 1)},
		NotBefore:    notBefore,
		NotAfter:     notAfter,
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		OCSPServer:   ocspServers,
	}
	der, err := x509.CreateCertificate(rand.Reader, template, p.CA, &key.PublicKey, p.CAKey)
	if err != nil {
		t.Fatalf("create leaf certificate: %v", err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		t.Fatalf("parse leaf certificate: %v", err)
	}
	return cert, key
}

// OCSPResponder answers every request with status (ocsp.Good, ocsp.Revoked
// or ocsp.Unknown), signed by the CA. Hits counts served requests.
type OCSPResponder struct {
	Server *httptest.Server
	Hits   atomic.Int64
}

func (p *TestPKI) OCSPResponder(t *testing.T, status int) *OCSPResponder {
	t.Helper()
	responder := &OCSPResponder{}
	responder.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		responder.Hits.Add(1)
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		request, err := ocsp.ParseRequest(body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		now := time.Now()
		template := ocsp.Response{
			Status:       status,
			SerialNumber: request.SerialNumber,
			ThisUpdate:   now.Add(-time.Minute),
			NextUpdate:   now.Add(time.Hour),
		}
		if status == ocsp.Revoked {
			template.RevokedAt = now.Add(-time.Minute)
			template.RevocationReason = ocsp.KeyCompromise
		}
		var signer crypto.Signer = p.CAKey
		der, err := ocsp.CreateResponse(p.CA, p.CA, template, signer)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/ocsp-response")
		_, _ = w.Write(der)
	}))
	t.Cleanup(responder.Server.Close)
	return responder
}

// FailingResponder is an OCSP endpoint that always answers 500.
func FailingResponder(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "unavailable", http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)
	return server
}

// TLSServer serves "ok" over TLS with the given certificate.
func TLSServer(t *testing.T, cert tls.Certificate) *httptest.Server {
	t.Helper()
	server := httptest.NewUnstartedServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "ok")
	}))
	server.TLS = &tls.Config{Certificates: []tls.Certificate{cert}, MinVersion: tls.VersionTLS12}
	server.StartTLS()
	t.Cleanup(server.Close)
	return server
}
