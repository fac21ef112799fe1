package integration

import (
	"context"
	"fmt"

	"github.com/chirpstack/chirpstack/api/go/v4/integration"
	"github.com/go-redis/redis/v8"

	"github.com/mpapenbr/lorawan-service-manager/pkg/config"
)

const (
	RedisStreamKey = "device:stream:event"
	redisUpField   = "up"
)

// Redis appends the events to a Redis stream.
type Redis struct {
	client *redis.Client
	maxLen int64
}

func NewRedis(ctx context.Context, cfg *config.RedisConfig) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}
	return &Redis{client: client, maxLen: cfg.StreamMaxLen}, nil
}

//nolint:whitespace // can't make both editor and linter happy
func (r *Redis) HandleUplinkEvent(
	ctx context.Context,
	ev *integration.UplinkEvent,
) error {
	b, err := marshal(ev, false)
	if err != nil {
		return err
	}
	return r.client.XAdd(ctx, &redis.XAddArgs{
		Stream: RedisStreamKey,
		MaxLen: r.maxLen,
		Approx: true,
		Values: map[string]any{redisUpField: b},
	}).Err()
}

func (r *Redis) Close() error {
	return r.client.Close()
}
