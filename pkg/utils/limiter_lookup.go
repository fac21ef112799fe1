package utils

import (
	"sync"

	"golang.org/x/time/rate"
)

// LimiterLookup hands out one rate limiter per key.
// A limit of rate.Inf disables limiting.
type LimiterLookup[K comparable] struct {
	mu     sync.Mutex
	limit  rate.Limit
	burst  int
	lookup map[K]*rate.Limiter
}

func NewLimiterLookup[K comparable](limit rate.Limit, burst int) *LimiterLookup[K] {
	return &LimiterLookup[K]{
		limit:  limit,
		burst:  burst,
		lookup: make(map[K]*rate.Limiter),
	}
}

func (l *LimiterLookup[K]) Get(key K) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	if ret, ok := l.lookup[key]; ok {
		return ret
	}
	ret := rate.NewLimiter(l.limit, l.burst)
	l.lookup[key] = ret
	return ret
}

// Allow reports whether an event for key may happen now.
func (l *LimiterLookup[K]) Allow(key K) bool {
	return l.Get(key).Allow()
}

func (l *LimiterLookup[K]) Remove(key K) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.lookup, key)
}

func (l *LimiterLookup[K]) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lookup = make(map[K]*rate.Limiter)
}
