package store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"vasafe/backend/internal/config"
)

// RedisStore carries the fast-path state that does not belong in the
// time-series store: alert dedup windows, the alert pub/sub channel
// and dashboard session tokens.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(ctx context.Context, cfg *config.Config) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisStore{client: client}, nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}

func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// CheckAlertDedup reports whether an alert for this lot fired within
// the dedup window. A flapping sensor must not spam the alert trail.
func (r *RedisStore) CheckAlertDedup(ctx context.Context, lotID string) (bool, error) {
	key := fmt.Sprintf("alert:%s", lotID)
	count, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("dedup check failed: %w", err)
	}
	return count > 0, nil
}

func (r *RedisStore) SetAlertDedup(ctx context.Context, lotID string, ttl time.Duration) error {
	key := fmt.Sprintf("alert:%s", lotID)
	return r.client.Set(ctx, key, "1", ttl).Err()
}

// PublishAlert fans a violation event out to external consumers on the
// lot's alert channel.
func (r *RedisStore) PublishAlert(ctx context.Context, lotID string, payload []byte) error {
	channel := fmt.Sprintf("lot:%s:alerts", lotID)
	return r.client.Publish(ctx, channel, payload).Err()
}

// SetSessionToken stores a dashboard session token with its TTL.
func (r *RedisStore) SetSessionToken(ctx context.Context, token, user string, ttl time.Duration) error {
	key := fmt.Sprintf("session:%s", token)
	return r.client.Set(ctx, key, user, ttl).Err()
}

// GetSessionToken returns the user bound to a token, or "" when the
// token is unknown or expired.
func (r *RedisStore) GetSessionToken(ctx context.Context, token string) (string, error) {
	key := fmt.Sprintf("session:%s", token)
	val, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("redis get session failed: %w", err)
	}
	return val, nil
}
