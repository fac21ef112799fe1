package utils

import (
	"context"
	"fmt"
	"net"
	"regexp"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/errgroup"

	"github.com/mpapenbr/lorawan-service-manager/log"
)

const dialInterval = 200 * time.Millisecond

// WaitForTCP blocks until addr accepts tcp connections, timeout elapses
// or ctx is done.
func WaitForTCP(ctx context.Context, addr string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	start := time.Now()
	log.Debug("wait for tcp connection",
		log.String("addr", addr),
		log.String("timeout", timeout.String()))
	var d net.Dialer
	err := backoff.Retry(func() error {
		conn, err := d.DialContext(ctx, "tcp", addr)
		if err != nil {
			return err
		}
		return conn.Close()
	}, backoff.WithContext(backoff.NewConstantBackOff(dialInterval), ctx))
	if err != nil {
		return fmt.Errorf("%s could not be reached after %v: %w", addr, timeout, err)
	}
	log.Debug("tcp connection successful",
		log.String("addr", addr),
		log.String("duration", time.Since(start).String()))
	return nil
}

// WaitForAll checks all addrs concurrently and returns the first failure.
func WaitForAll(ctx context.Context, addrs []string, timeout time.Duration) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, addr := range addrs {
		g.Go(func() error {
			return WaitForTCP(gctx, addr, timeout)
		})
	}
	return g.Wait()
}

var defaultPorts = map[string]string{
	"redis":  "6379",
	"rediss": "6379",
	"nats":   "4222",
	"tls":    "4222",
	"http":   "80",
	"https":  "443",
}

// ExtractFromServiceURL returns the host:port of redis, nats or http urls.
// The scheme's default port is used if the url contains none.
func ExtractFromServiceURL(url string) (addr, proto string) {
	param := resolveRegex(
		"^(?P<proto>[a-z]+)://(.*@)?(?P<addr>(?P<host>[^:/]*?)(:(?P<port>\\d+))?)(/.*)?$", url)
	if len(param) == 0 || param["host"] == "" {
		return "", ""
	}
	proto = param["proto"]
	if port, ok := param["port"]; ok && port != "" {
		return param["addr"], proto
	}
	if port, ok := defaultPorts[proto]; ok {
		return fmt.Sprintf("%s:%s", param["host"], port), proto
	}
	return "", proto
}

func ExtractFromDBURL(url string) string {
	param := resolveRegex(
		"^postgres(ql)?://(.*@)?(?P<addr>(?P<host>.*?)(:(?P<port>\\d+))?)/.*", url)
	if len(param) == 0 {
		return ""
	}
	if port, ok := param["port"]; ok && port != "" {
		return param["addr"] // if port is found, the addr contains our wanted value
	} else {
		return fmt.Sprintf("%s:5432", param["addr"])
	}
}

func resolveRegex(regEx, url string) (paramsMap map[string]string) {
	compRegEx := regexp.MustCompile(regEx)
	match := compRegEx.FindStringSubmatch(url)

	paramsMap = make(map[string]string)
	for i, name := range compRegEx.SubexpNames() {
		if i > 0 && i <= len(match) {
			paramsMap[name] = match[i]
		}
	}
	return paramsMap
}
