//nolint:errcheck //ok for this test code
package broadcast

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func receive[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v, ok := <-ch:
		assert.True(t, ok, "channel closed unexpectedly")
		return v
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}
	var zero T
	return zero
}

func TestBroadcastToAllListeners(t *testing.T) {
	b := NewBroadcastServer[int]("test")
	defer b.Close()

	ch1 := b.Subscribe()
	ch2 := b.Subscribe()
	assert.True(t, b.Publish(1))
	assert.True(t, b.Publish(2))

	assert.Equal(t, 1, receive(t, ch1))
	assert.Equal(t, 2, receive(t, ch1))
	assert.Equal(t, 1, receive(t, ch2))
	assert.Equal(t, 2, receive(t, ch2))
}

func TestCancelSubscription(t *testing.T) {
	b := NewBroadcastServer[int]("test")
	defer b.Close()

	ch := b.Subscribe()
	b.CancelSubscription(ch)
	_, ok := <-ch
	assert.False(t, ok)
}

func TestSlowListenerIsSkipped(t *testing.T) {
	b := NewBroadcastServer("test",
		WithListenerBuffer[int](0),
		WithSendTimeout[int](5*time.Millisecond))
	defer b.Close()

	slow := b.Subscribe()
	fast := b.Subscribe()
	done := make(chan []int)
	go func() {
		got := []int{}
		for v := range fast {
			got = append(got, v)
			if len(got) == 3 {
				break
			}
		}
		done <- got
	}()
	for i := 1; i <= 3; i++ {
		b.Publish(i)
	}
	select {
	case got := <-done:
		assert.Equal(t, []int{1, 2, 3}, got)
	case <-time.After(time.Second):
		t.Fatal("fast listener did not receive all messages")
	}
	b.CancelSubscription(slow)
	b.CancelSubscription(fast)
}

func TestClose(t *testing.T) {
	b := NewBroadcastServer[string]("test")
	ch := b.Subscribe()
	b.Close()

	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("listener not closed")
	}
	assert.False(t, b.Publish("after close"))
	_, ok := <-b.Subscribe()
	assert.False(t, ok, "subscribe after close returns closed channel")
}
