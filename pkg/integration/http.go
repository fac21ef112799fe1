package integration

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/chirpstack/chirpstack/api/go/v4/integration"
	"github.com/sony/gobreaker"

	"github.com/mpapenbr/lorawan-service-manager/log"
	"github.com/mpapenbr/lorawan-service-manager/pkg/config"
)

var ErrNoEndpoints = errors.New("no http endpoints configured")

type endpoint struct {
	url     string
	breaker *gobreaker.CircuitBreaker
}

// HTTP posts the events to every configured endpoint. Each endpoint has its
// own circuit breaker, failed posts are retried with exponential backoff.
type HTTP struct {
	client     *http.Client
	endpoints  []*endpoint
	headers    map[string]string
	json       bool
	maxRetries uint64
	initial    time.Duration
	l          *log.Logger
}

func NewHTTP(cfg *config.HTTPConfig) (*HTTP, error) {
	if len(cfg.Endpoints) == 0 {
		return nil, ErrNoEndpoints
	}
	ret := &HTTP{
		client:     &http.Client{Timeout: cfg.Timeout},
		headers:    cfg.Headers,
		json:       cfg.JSON,
		maxRetries: cfg.MaxRetries,
		initial:    100 * time.Millisecond,
		l:          log.Default().Named("integration.http"),
	}
	for _, u := range cfg.Endpoints {
		ret.endpoints = append(ret.endpoints, &endpoint{
			url: u,
			breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
				Name:    u,
				Timeout: 30 * time.Second,
				ReadyToTrip: func(counts gobreaker.Counts) bool {
					return counts.ConsecutiveFailures >= 5
				},
				OnStateChange: func(name string, from, to gobreaker.State) {
					ret.l.Info("circuit breaker state changed",
						log.String("endpoint", name),
						log.String("from", from.String()),
						log.String("to", to.String()))
				},
			}),
		})
	}
	return ret, nil
}

//nolint:whitespace // can't make both editor and linter happy
func (h *HTTP) HandleUplinkEvent(
	ctx context.Context,
	ev *integration.UplinkEvent,
) error {
	b, err := marshal(ev, h.json)
	if err != nil {
		return err
	}
	var errs []error
	for _, e := range h.endpoints {
		if err := h.send(ctx, e, b); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", e.url, err))
		}
	}
	return errors.Join(errs...)
}

func (h *HTTP) send(ctx context.Context, e *endpoint, body []byte) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = h.initial
	op := func() error {
		_, err := e.breaker.Execute(func() (any, error) {
			return nil, h.post(ctx, e.url, body)
		})
		if errors.Is(err, gobreaker.ErrOpenState) ||
			errors.Is(err, gobreaker.ErrTooManyRequests) {
			return backoff.Permanent(err)
		}
		return err
	}
	return backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(b, h.maxRetries), ctx))
}

func (h *HTTP) post(ctx context.Context, url string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return backoff.Permanent(err)
	}
	if h.json {
		req.Header.Set("Content-Type", "application/json")
	} else {
		req.Header.Set("Content-Type", "application/octet-stream")
	}
	for k, v := range h.headers {
		req.Header.Set(k, v)
	}
	q := req.URL.Query()
	q.Set("event", "up")
	req.URL.RawQuery = q.Encode()
	resp, err := h.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	switch {
	case resp.StatusCode >= 500:
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	case resp.StatusCode >= 300:
		return backoff.Permanent(fmt.Errorf("unexpected status %d", resp.StatusCode))
	}
	return nil
}

func (h *HTTP) Close() error {
	h.client.CloseIdleConnections()
	return nil
}
