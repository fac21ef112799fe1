//nolint:lll,funlen // readablity
package traefik

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindCert(t *testing.T) {
	store := `{"le":{"Certificates":[
		{"domain":{"main":"*.example.com"}, "certificate": "wild", "key": "k0"},
		{"domain":{"main":"example.com","sans":["lns.example.com"]}, "certificate": "cert1", "key": "k1"},
		{"domain":{"main":"other.org"}, "certificate": "cert2", "key": "k2"}
	]}}`
	tests := []struct {
		name     string
		domain   string
		wantCert string
		wantErr  error
	}{
		{name: "main", domain: "example.com", wantCert: "cert1"},
		{name: "case insensitive", domain: "Other.ORG", wantCert: "cert2"},
		{name: "sans beats wildcard", domain: "lns.example.com", wantCert: "cert1"},
		{name: "wildcard", domain: "api.example.com", wantCert: "wild"},
		{name: "wildcard spans one label", domain: "a.b.example.com", wantErr: ErrDomainNotFound},
		{name: "wildcard literal", domain: "*.example.com", wantCert: "wild"},
		{name: "unknown", domain: "notfound.com", wantErr: ErrDomainNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := findCert([]byte(store), tt.domain)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantCert, got.Certificate)
		})
	}
}

func TestFindCertEmptyStore(t *testing.T) {
	_, err := findCert([]byte(`{}`), "example.com")
	assert.ErrorIs(t, err, ErrDomainNotFound)

	_, err = findCert([]byte(`{"broken"`), "example.com")
	assert.Error(t, err)
}

func TestGetCertFromTraefik(t *testing.T) {
	certPEM, keyPEM := selfSigned(t, "lns.example.com")
	store := fmt.Sprintf(`{"le":{"Certificates":[{"domain":{"main":"lns.example.com"},"certificate":%q,"key":%q}]}}`,
		base64.StdEncoding.EncodeToString(certPEM),
		base64.StdEncoding.EncodeToString(keyPEM))
	file := filepath.Join(t.TempDir(), "acme.json")
	require.NoError(t, os.WriteFile(file, []byte(store), 0o600))

	cert, err := GetCertFromTraefik(file, "lns.example.com")
	require.NoError(t, err)
	require.Len(t, cert.Certificate, 1)
	parsed, err := x509.ParseCertificate(cert.Certificate[0])
	require.NoError(t, err)
	assert.Equal(t, "lns.example.com", parsed.Subject.CommonName)

	_, err = GetCertFromTraefik(file, "other.example.com")
	assert.ErrorIs(t, err, ErrDomainNotFound)

	_, err = GetCertFromTraefik(filepath.Join(t.TempDir(), "missing.json"), "lns.example.com")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestGetCertificateBadEncoding(t *testing.T) {
	store := `{"le":{"Certificates":[{"domain":{"main":"example.com"},"certificate":"!!","key":"!!"}]}}`
	_, err := GetCertificate([]byte(store), "example.com")
	assert.Error(t, err)
}

func selfSigned(t *testing.T, cn string) (certPEM, keyPEM []byte) {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: cn},
		DNSNames:     []string{cn},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)
	keyDER, err := x509.MarshalECPrivateKey(key)
	require.NoError(t, err)
	certPEM = pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	keyPEM = pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER})
	return certPEM, keyPEM
}
