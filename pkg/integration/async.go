package integration

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/chirpstack/chirpstack/api/go/v4/integration"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/mpapenbr/lorawan-service-manager/log"
)

var (
	ErrQueueFull = errors.New("integration queue is full")
	ErrClosed    = errors.New("integration queue is closed")
)

type AsyncOption func(a *Async)

func WithWorkers(n int) AsyncOption {
	return func(a *Async) {
		a.workers = n
	}
}

func WithQueueSize(n int) AsyncOption {
	return func(a *Async) {
		a.size = n
	}
}

// WithTimeout limits the time spent forwarding a single event.
func WithTimeout(d time.Duration) AsyncOption {
	return func(a *Async) {
		a.timeout = d
	}
}

type job struct {
	ctx context.Context
	ev  *integration.UplinkEvent
}

// Async forwards events to next on background workers.
// HandleUplinkEvent only queues the event and returns ErrQueueFull if there
// is no room left. Queued events are detached from the caller's cancellation.
type Async struct {
	next    Integration
	workers int
	size    int
	timeout time.Duration
	queue   chan job
	wg      sync.WaitGroup
	mu      sync.RWMutex
	closed  bool
	dropped metric.Int64Counter
	l       *log.Logger
}

var _ Integration = (*Async)(nil)

func NewAsync(next Integration, opts ...AsyncOption) *Async {
	ret := &Async{
		next:    next,
		workers: 4,
		size:    1000,
		timeout: 30 * time.Second,
		l:       log.Default().Named("integration.async"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	ret.workers = max(ret.workers, 1)
	ret.size = max(ret.size, 0)
	ret.queue = make(chan job, ret.size)

	var err error
	if ret.dropped, err = otel.GetMeterProvider().Meter("lsm.integration").Int64Counter(
		"lsm.integration.dropped",
		metric.WithDescription("number of uplink events dropped by a full queue"),
	); err != nil {
		ret.l.Warn("could not create counter", log.ErrorField(err))
	}
	for range ret.workers {
		ret.wg.Add(1)
		go ret.run()
	}
	return ret
}

//nolint:whitespace // can't make both editor and linter happy
func (a *Async) HandleUplinkEvent(
	ctx context.Context,
	ev *integration.UplinkEvent,
) error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return ErrClosed
	}
	select {
	case a.queue <- job{ctx: context.WithoutCancel(ctx), ev: ev}:
		return nil
	default:
		if a.dropped != nil {
			a.dropped.Add(ctx, 1)
		}
		return ErrQueueFull
	}
}

func (a *Async) run() {
	defer a.wg.Done()
	for j := range a.queue {
		ctx, cancel := context.WithTimeout(j.ctx, a.timeout)
		if err := a.next.HandleUplinkEvent(ctx, j.ev); err != nil {
			a.l.Warn("could not forward uplink",
				log.String("devEui", j.ev.GetDeviceInfo().GetDevEui()),
				log.ErrorField(err))
		}
		cancel()
	}
}

// Close waits for the queued events to be forwarded and closes next.
func (a *Async) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	close(a.queue)
	a.mu.Unlock()

	a.wg.Wait()
	return a.next.Close()
}
