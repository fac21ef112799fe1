package grpc

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"os"
	"sync"

	"github.com/mpapenbr/lorawan-service-manager/log"
	"github.com/mpapenbr/lorawan-service-manager/pkg/config"
	"github.com/mpapenbr/lorawan-service-manager/pkg/utils/certs/traefik"
	"github.com/mpapenbr/lorawan-service-manager/pkg/utils/filewatch"
)

var errNoCertsInPEM = errors.New("no certificates found in PEM data")

type certs struct {
	log  *log.Logger
	cert *tls.Certificate
	mu   sync.RWMutex
}

// NewTLSConfigProvider returns nil if no certificate is configured.
// Certificates are reloaded when the underlying files change.
func NewTLSConfigProvider(ctx context.Context) *tls.Config {
	c := &certs{
		log: log.GetFromContext(ctx).Named("grpc.certs"),
	}
	c.loadCert()
	if c.current() == nil {
		return nil
	}
	ret := &tls.Config{
		GetCertificate: func(chi *tls.ClientHelloInfo) (*tls.Certificate, error) {
			return c.current(), nil
		},
		MinVersion: tls.VersionTLS13,
	}
	if config.TLSCAFile != "" {
		c.log.Info("Loading ca cert", log.String("file", config.TLSCAFile))
		if pool, err := loadCAPool(config.TLSCAFile); err == nil {
			ret.ClientCAs = pool
			ret.ClientAuth = tls.VerifyClientCertIfGiven
		} else {
			c.log.Error("could not read TLS root CA", log.ErrorField(err))
		}
	}
	files := []string{}
	for _, f := range []string{config.TLSCertFile, config.TLSKeyFile, config.TraefikCerts} {
		if f != "" {
			files = append(files, f)
		}
	}
	_, err := filewatch.Start(ctx, files, func(path string) {
		c.log.Info("cert file changed, reloading cert", log.String("file", path))
		c.loadCert()
	}, filewatch.WithLogger(c.log))
	if err != nil {
		c.log.Error("could not watch cert files", log.ErrorField(err))
	}
	return ret
}

func loadCAPool(file string) (*x509.CertPool, error) {
	caCert, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	pool := x509.NewCertPool()
	if ok := pool.AppendCertsFromPEM(caCert); !ok {
		return nil, errNoCertsInPEM
	}
	return pool, nil
}

func (c *certs) current() *tls.Certificate {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cert
}

func (c *certs) loadCert() {
	var cert tls.Certificate
	var err error
	switch {
	case config.TraefikCerts != "" && config.TraefikCertDomain != "":
		c.log.Info("Looking up traefik certs",
			log.String("file", config.TraefikCerts),
			log.String("domain", config.TraefikCertDomain))
		cert, err = traefik.GetCertFromTraefik(config.TraefikCerts, config.TraefikCertDomain)
	case config.TLSCertFile != "" && config.TLSKeyFile != "":
		c.log.Info("Loading cert",
			log.String("key", config.TLSKeyFile),
			log.String("cert", config.TLSCertFile))
		cert, err = tls.LoadX509KeyPair(config.TLSCertFile, config.TLSKeyFile)
	default:
		return
	}
	if err != nil {
		c.log.Error("could not load certificate", log.ErrorField(err))
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cert = &cert
}
