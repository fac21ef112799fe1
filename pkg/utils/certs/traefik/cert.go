// Package traefik reads certificates from a traefik acme.json store.
package traefik

import (
	"crypto/tls"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
)

var ErrDomainNotFound = errors.New("domain not found in traefik store")

type (
	storedDomain struct {
		Main string   `json:"main"`
		Sans []string `json:"sans"`
	}
	storedCert struct {
		Domain      storedDomain `json:"domain"`
		Certificate string       `json:"certificate"`
		Key         string       `json:"key"`
	}
)

var allCerts = jp.MustParseString(`$..Certificates[*]`)

// GetCertFromTraefik loads the acme store at file and returns the
// certificate serving domain.
func GetCertFromTraefik(file, domain string) (tls.Certificate, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("read traefik store: %w", err)
	}
	return GetCertificate(data, domain)
}

func GetCertificate(jsonData []byte, domain string) (tls.Certificate, error) {
	entry, err := findCert(jsonData, domain)
	if err != nil {
		return tls.Certificate{}, err
	}
	certPEM, err := base64.StdEncoding.DecodeString(entry.Certificate)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("decode certificate for %s: %w", domain, err)
	}
	keyPEM, err := base64.StdEncoding.DecodeString(entry.Key)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("decode key for %s: %w", domain, err)
	}
	return tls.X509KeyPair(certPEM, keyPEM)
}

// findCert prefers an exact match on main or sans over a wildcard entry.
func findCert(jsonData []byte, domain string) (*storedCert, error) {
	obj, err := oj.Parse(jsonData)
	if err != nil {
		return nil, err
	}
	var wildcard *storedCert
	for _, item := range allCerts.Get(obj) {
		entry := storedCert{}
		if err := oj.Unmarshal([]byte(oj.JSON(item)), &entry); err != nil {
			return nil, err
		}
		for _, name := range entry.Domain.names() {
			if strings.EqualFold(name, domain) {
				return &entry, nil
			}
			if wildcard == nil && matchesWildcard(name, domain) {
				wildcard = &entry
			}
		}
	}
	if wildcard != nil {
		return wildcard, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrDomainNotFound, domain)
}

func (d storedDomain) names() []string {
	return append([]string{d.Main}, d.Sans...)
}

// matchesWildcard reports whether pattern *.example.com covers host.
// The wildcard spans exactly one label.
func matchesWildcard(pattern, host string) bool {
	suffix, ok := strings.CutPrefix(pattern, "*.")
	if !ok {
		return false
	}
	label, rest, ok := strings.Cut(host, ".")
	return ok && label != "" && strings.EqualFold(rest, suffix)
}
