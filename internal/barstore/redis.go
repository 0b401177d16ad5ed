package barstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"

	"github.com/proverbian/trade-score/internal/model"
)

const redisKeyPrefix = "tradescore:bars:"

// RedisStore caches bar windows in Redis, relying on key expiry for the TTL.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// RedisOptions configures the Redis connection.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisStore connects to Redis and verifies the connection with PING.
func NewRedisStore(ctx context.Context, opts RedisOptions) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		MaxRetries:   2,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", opts.Addr, err)
	}
	log.Info().Str("component", "barstore").Str("addr", opts.Addr).Msg("redis bar cache connected")
	return &RedisStore{client: client, prefix: redisKeyPrefix}, nil
}

func (r *RedisStore) Get(ctx context.Context, key string) ([]model.OHLCV, bool, error) {
	data, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}
	bars, err := decode(data)
	if err != nil {
		return nil, false, err
	}
	return bars, true, nil
}

func (r *RedisStore) Put(ctx context.Context, key string, bars []model.OHLCV, ttl time.Duration) error {
	data, err := encode(bars)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, r.prefix+key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
