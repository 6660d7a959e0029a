package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"vasafe/backend/internal/config"
	"vasafe/backend/internal/store"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type cacheEntry struct {
	user      string
	expiresAt time.Time
}

// Authenticator checks dashboard credentials and manages session
// tokens. Tokens live in Redis with a TTL; a local cache avoids a
// Redis round trip on every request.
type Authenticator struct {
	localCache  sync.Map
	redis       *store.RedisStore
	ttl         time.Duration
	credentials map[string]string
}

func NewAuthenticator(cfg *config.Config, redis *store.RedisStore) *Authenticator {
	return &Authenticator{
		redis: redis,
		ttl:   cfg.SessionTokenTTL,
		credentials: map[string]string{
			cfg.AdminUser: cfg.AdminPassword,
		},
	}
}

// Login verifies a flat credential pair and issues a session token.
func (a *Authenticator) Login(ctx context.Context, user, password string) (string, error) {
	want, ok := a.credentials[user]
	if !ok || want != password {
		return "", ErrInvalidCredentials
	}

	token := uuid.NewString()
	if err := a.redis.SetSessionToken(ctx, token, user, a.ttl); err != nil {
		return "", err
	}
	a.localCache.Store(token, cacheEntry{
		user:      user,
		expiresAt: time.Now().Add(a.ttl),
	})
	return token, nil
}

// Validate reports whether a session token is live.
func (a *Authenticator) Validate(ctx context.Context, token string) bool {
	if token == "" {
		return false
	}

	// Level 1: in-memory cache
	if raw, ok := a.localCache.Load(token); ok {
		entry := raw.(cacheEntry)
		if time.Now().Before(entry.expiresAt) {
			return true
		}
		a.localCache.Delete(token)
	}

	// Level 2: Redis lookup
	user, err := a.redis.GetSessionToken(ctx, token)
	if err != nil || user == "" {
		return false
	}

	a.localCache.Store(token, cacheEntry{
		user:      user,
		expiresAt: time.Now().Add(a.ttl),
	})
	return true
}
