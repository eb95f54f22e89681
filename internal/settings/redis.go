package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const keyPrefix = "cafeledger:settings:"

// RedisStore keeps settings as JSON strings in Redis.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore pings client before returning. A zero ttl keeps keys forever.
func NewRedisStore(ctx context.Context, client *redis.Client, ttl time.Duration) (*RedisStore, error) {
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return &RedisStore{client: client, ttl: ttl}, nil
}

func (r *RedisStore) Load(ctx context.Context, device string) (Settings, error) {
	if !ValidDevice(device) {
		return Settings{}, ErrInvalidDevice
	}
	raw, err := r.client.Get(ctx, keyPrefix+device).Bytes()
	if errors.Is(err, redis.Nil) {
		return Default(), nil
	}
	if err != nil {
		return Settings{}, fmt.Errorf("redis get settings: %w", err)
	}
	var s Settings
	if err := json.Unmarshal(raw, &s); err != nil {
		return Settings{}, fmt.Errorf("decode settings: %w", err)
	}
	return s.normalized(), nil
}

func (r *RedisStore) Save(ctx context.Context, device string, s Settings) error {
	if !ValidDevice(device) {
		return ErrInvalidDevice
	}
	b, err := json.Marshal(s.normalized())
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := r.client.Set(ctx, keyPrefix+device, b, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set settings: %w", err)
	}
	return nil
}

func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
