package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/tmplkit/tmplkit/internal/model"
)

const (
	// identityCachePrefix is the Redis key prefix for resolved identities.
	identityCachePrefix = "identity:"
	// identityCacheTTL bounds how long a stale permission or ownership
	// snapshot can outlive a direct update; permission writes invalidate
	// eagerly on top of this.
	identityCacheTTL = 5 * time.Minute
)

// cachedIdentity is the identity snapshot stored in Redis.
type cachedIdentity struct {
	UserID      string            `json:"user_id"`
	Email       string            `json:"email"`
	FirstName   string            `json:"first_name"`
	LastName    string            `json:"last_name"`
	Templates   []string          `json:"templates"`
	Permissions model.Permissions `json:"permissions"`
}

// GetIdentity retrieves a cached identity by cache key.
// Returns nil on a miss; a corrupted entry is treated as a miss.
func (c *Cache) GetIdentity(ctx context.Context, cacheKey string) (*model.Identity, error) {
	key := identityCachePrefix + cacheKey

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		// Cache miss is not an error
		return nil, nil //nolint:nilerr
	}

	var cached cachedIdentity
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, nil //nolint:nilerr
	}

	return &model.Identity{
		UserID:      cached.UserID,
		Email:       cached.Email,
		FirstName:   cached.FirstName,
		LastName:    cached.LastName,
		Templates:   cached.Templates,
		Permissions: cached.Permissions,
	}, nil
}

// SetIdentity caches a resolved identity.
func (c *Cache) SetIdentity(ctx context.Context, cacheKey string, identity *model.Identity) error {
	key := identityCachePrefix + cacheKey

	cached := cachedIdentity{
		UserID:      identity.UserID,
		Email:       identity.Email,
		FirstName:   identity.FirstName,
		LastName:    identity.LastName,
		Templates:   identity.Templates,
		Permissions: identity.Permissions,
	}

	data, err := json.Marshal(cached)
	if err != nil {
		return fmt.Errorf("marshal identity: %w", err)
	}

	return c.client.Set(ctx, key, data, identityCacheTTL).Err()
}

// DeleteIdentity removes a cached identity.
// Called when a user's permissions or owned-template list change.
func (c *Cache) DeleteIdentity(ctx context.Context, cacheKey string) error {
	key := identityCachePrefix + cacheKey
	return c.client.Del(ctx, key).Err()
}
