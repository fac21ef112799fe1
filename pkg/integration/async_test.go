//nolint:funlen,errcheck //ok for this test code
package integration

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/chirpstack/chirpstack/api/go/v4/integration"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gated blocks every event until release is closed.
type gated struct {
	release chan struct{}
	mu      sync.Mutex
	events  []*integration.UplinkEvent
	ctxErrs []error
	closed  bool
}

func newGated() *gated {
	return &gated{release: make(chan struct{})}
}

//nolint:whitespace // can't make both editor and linter happy
func (g *gated) HandleUplinkEvent(
	ctx context.Context,
	ev *integration.UplinkEvent,
) error {
	<-g.release
	g.mu.Lock()
	defer g.mu.Unlock()
	g.events = append(g.events, ev)
	g.ctxErrs = append(g.ctxErrs, ctx.Err())
	return nil
}

func (g *gated) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.closed = true
	return nil
}

func TestAsyncDoesNotBlock(t *testing.T) {
	next := newGated()
	a := NewAsync(next, WithWorkers(1), WithQueueSize(4))

	ctx, cancel := context.WithCancel(context.Background())
	start := time.Now()
	require.NoError(t, a.HandleUplinkEvent(ctx, sampleEvent()))
	assert.Less(t, time.Since(start), 100*time.Millisecond)
	cancel()

	close(next.release)
	require.NoError(t, a.Close())
	assert.Len(t, next.events, 1)
	assert.Equal(t, []error{nil}, next.ctxErrs, "caller cancellation must not reach the worker")
	assert.True(t, next.closed)
}

func TestAsyncQueueFull(t *testing.T) {
	next := newGated()
	a := NewAsync(next, WithWorkers(1), WithQueueSize(1))
	ctx := context.Background()

	// the worker holds the first event, the queue the second
	require.NoError(t, a.HandleUplinkEvent(ctx, sampleEvent()))
	assert.Eventually(t, func() bool { return len(a.queue) == 0 },
		time.Second, 5*time.Millisecond)
	require.NoError(t, a.HandleUplinkEvent(ctx, sampleEvent()))
	assert.ErrorIs(t, a.HandleUplinkEvent(ctx, sampleEvent()), ErrQueueFull)

	close(next.release)
	require.NoError(t, a.Close())
	assert.Len(t, next.events, 2)
}

func TestAsyncClose(t *testing.T) {
	next := newGated()
	close(next.release)
	a := NewAsync(next, WithQueueSize(10))
	for range 5 {
		require.NoError(t, a.HandleUplinkEvent(context.Background(), sampleEvent()))
	}
	require.NoError(t, a.Close())
	assert.Len(t, next.events, 5, "close drains the queue")
	assert.ErrorIs(t, a.HandleUplinkEvent(context.Background(), sampleEvent()), ErrClosed)
	assert.NoError(t, a.Close())
}

func TestAsyncTimeout(t *testing.T) {
	var got error
	done := make(chan struct{})
	next := &funcIntegration{fn: func(ctx context.Context) error {
		<-ctx.Done()
		got = ctx.Err()
		close(done)
		return got
	}}
	a := NewAsync(next, WithTimeout(20*time.Millisecond))
	require.NoError(t, a.HandleUplinkEvent(context.Background(), sampleEvent()))
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("forwarding was not canceled")
	}
	require.NoError(t, a.Close())
	assert.ErrorIs(t, got, context.DeadlineExceeded)
}

type funcIntegration struct {
	fn func(ctx context.Context) error
}

//nolint:whitespace // can't make both editor and linter happy
func (f *funcIntegration) HandleUplinkEvent(
	ctx context.Context,
	ev *integration.UplinkEvent,
) error {
	return f.fn(ctx)
}

func (f *funcIntegration) Close() error { return nil }
