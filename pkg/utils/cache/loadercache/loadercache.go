package loadercache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/mpapenbr/lorawan-service-manager/log"
	"github.com/mpapenbr/lorawan-service-manager/pkg/utils/cache"
)

type (
	Option[K comparable, V any] func(*config[K, V])
	entry[V any]                struct {
		data    *V
		err     error
		expires time.Time
	}
	loaderFunc[K comparable, V any] func(context.Context, K) (*V, error)
	config[K comparable, V any]     struct {
		expiration    time.Duration
		negativeTTL   time.Duration
		negativeMatch func(error) bool
		loader        loaderFunc[K, V]
		now           func() time.Time
		l             *log.Logger
	}
	loaderCache[K comparable, V any] struct {
		mu     sync.Mutex
		items  map[K]entry[V]
		group  singleflight.Group
		config *config[K, V]
	}
)

func WithExpiration[K comparable, V any](expiration time.Duration) Option[K, V] {
	return func(c *config[K, V]) {
		c.expiration = expiration
	}
}

// WithNegativeCaching remembers loader errors matching target for ttl.
func WithNegativeCaching[K comparable, V any](target error, ttl time.Duration) Option[K, V] {
	return func(c *config[K, V]) {
		c.negativeTTL = ttl
		c.negativeMatch = func(err error) bool { return errors.Is(err, target) }
	}
}

func WithLoader[K comparable, V any](lf loaderFunc[K, V]) Option[K, V] {
	return func(c *config[K, V]) {
		c.loader = lf
	}
}

func WithLogger[K comparable, V any](arg *log.Logger) Option[K, V] {
	return func(c *config[K, V]) {
		c.l = arg
	}
}

func withClock[K comparable, V any](now func() time.Time) Option[K, V] {
	return func(c *config[K, V]) {
		c.now = now
	}
}

func New[K comparable, V any](opts ...Option[K, V]) cache.Cache[K, V] {
	c := &config[K, V]{
		expiration: 5 * time.Minute,
		now:        time.Now,
		l:          log.Default().Named("cache"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return &loaderCache[K, V]{
		items:  make(map[K]entry[V]),
		config: c,
	}
}

func (c *loaderCache[K, V]) Get(ctx context.Context, key K) (*V, error) {
	if e, ok := c.lookup(key); ok {
		return e.data, e.err
	}
	if c.config.loader == nil {
		return nil, cache.ErrCacheMiss
	}
	// concurrent misses for the same key share one loader call
	v, err, _ := c.group.Do(fmt.Sprint(key), func() (any, error) {
		return c.load(ctx, key)
	})
	if err != nil {
		return nil, err
	}
	return v.(*V), nil
}

func (c *loaderCache[K, V]) lookup(key K) (entry[V], bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.items[key]
	if !ok {
		return e, false
	}
	if c.config.now().After(e.expires) {
		delete(c.items, key)
		return e, false
	}
	return e, true
}

func (c *loaderCache[K, V]) load(ctx context.Context, key K) (*V, error) {
	c.config.l.Debug("loading entry", log.Any("key", key))
	v, err := c.config.loader(ctx, key)
	switch {
	case err == nil:
		c.store(key, entry[V]{data: v, expires: c.config.now().Add(c.config.expiration)})
	case c.config.negativeMatch != nil && c.config.negativeMatch(err):
		c.store(key, entry[V]{err: err, expires: c.config.now().Add(c.config.negativeTTL)})
	default:
		c.config.l.Debug("error loading entry", log.ErrorField(err))
	}
	return v, err
}

func (c *loaderCache[K, V]) store(key K, e entry[V]) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = e
}

func (c *loaderCache[K, V]) Invalidate(ctx context.Context, key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
	c.config.l.Debug("invalidated", log.Any("key", key), log.Int("remaining", len(c.items)))
}
