package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/meli/auth-server/internal/domain"
)

const identityKeyPrefix = "identity:"

type cachedIdentityRepository struct {
	next   IdentityRepository
	client *redis.Client
	ttl    time.Duration
}

// NewCachedIdentityRepository wraps next with a read-through Redis cache.
// A nil client or non-positive ttl returns next unchanged. Lookups that miss
// are never cached so a new account is visible immediately.
func NewCachedIdentityRepository(next IdentityRepository, client *redis.Client, ttl time.Duration) IdentityRepository {
	if client == nil || ttl <= 0 {
		return next
	}
	return &cachedIdentityRepository{next: next, client: client, ttl: ttl}
}

func (r *cachedIdentityRepository) FindByUsername(ctx context.Context, username string) (*domain.Identity, error) {
	key := identityKeyPrefix + username

	raw, err := r.client.Get(ctx, key).Bytes()
	if err == nil {
		var identity domain.Identity
		if jsonErr := json.Unmarshal(raw, &identity); jsonErr == nil {
			return &identity, nil
		}
	} else if !errors.Is(err, redis.Nil) && ctx.Err() != nil {
		return nil, ctx.Err()
	}

	identity, err := r.next.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(identity); err == nil {
		// Best effort; the database stays the source of truth.
		_ = r.client.Set(ctx, key, payload, r.ttl).Err()
	}
	return identity, nil
}
