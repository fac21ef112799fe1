package cache

import (
	"context"
	"errors"
)

var ErrCacheMiss = errors.New("cache miss")

type (
	// Getter returns a cached value, loading it on a miss.
	Getter[K comparable, V any] interface {
		Get(ctx context.Context, key K) (*V, error)
	}
	// Invalidator forces the next Get of key to load again.
	Invalidator[K comparable] interface {
		Invalidate(ctx context.Context, key K)
	}
	Cache[K comparable, V any] interface {
		Getter[K, V]
		Invalidator[K]
	}
)
