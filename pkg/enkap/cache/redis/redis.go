package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Backend stores tokens in redis, relying on key expiry for the ttl
type Backend struct {
	client redis.UniversalClient
}

type Options struct {
	Addrs    string
	Password string
	DB       int
	PoolSize int
}

func New(opts Options) *Backend {
	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:    strings.Split(opts.Addrs, ","),
		Password: opts.Password,
		DB:       opts.DB,
		PoolSize: opts.PoolSize,

		DialTimeout:  5 * time.Second,
		ReadTimeout:  1 * time.Second,
		WriteTimeout: 1 * time.Second,

		MaxRetries:      3,
		MinRetryBackoff: 50 * time.Millisecond,
		MaxRetryBackoff: 500 * time.Millisecond,
	})

	return NewWithClient(client)
}

func NewWithClient(client redis.UniversalClient) *Backend {
	return &Backend{client: client}
}

func (b *Backend) Read(ctx context.Context, key string) (string, bool, error) {
	result := b.client.Get(ctx, key)

	if result.Err() == redis.Nil {
		return "", false, nil
	}
	if result.Err() != nil {
		return "", false, fmt.Errorf("failed to read %s: %w", key, result.Err())
	}

	return result.Val(), true, nil
}

func (b *Backend) Write(ctx context.Context, key, value string, ttl time.Duration) error {
	return b.client.Set(ctx, key, value, ttl).Err()
}

func (b *Backend) Delete(ctx context.Context, key string) error {
	return b.client.Del(ctx, key).Err()
}

func (b *Backend) HealthCheck(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}

func (b *Backend) Close() error {
	return b.client.Close()
}
