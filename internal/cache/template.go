package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/tmplkit/tmplkit/internal/model"
)

const (
	// templateKeyPrefix is the Redis key prefix for cached templates.
	templateKeyPrefix = "template:"

	// DefaultTemplateTTL is the TTL for cached template data.
	DefaultTemplateTTL = 24 * time.Hour
)

// GetTemplate retrieves a template from cache by ID.
// Returns ErrCacheMiss if not found or the entry is corrupted.
func (c *Cache) GetTemplate(ctx context.Context, id string) (*model.Template, error) {
	key := templateKeyPrefix + id

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, ErrCacheMiss
	}

	var t model.Template
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, ErrCacheMiss
	}

	return &t, nil
}

// SetTemplate stores a template in cache.
func (c *Cache) SetTemplate(ctx context.Context, t *model.Template) error {
	key := templateKeyPrefix + t.ID

	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshal template: %w", err)
	}

	if err := c.client.Set(ctx, key, data, DefaultTemplateTTL).Err(); err != nil {
		return fmt.Errorf("failed to cache template: %w", err)
	}

	return nil
}

// DeleteTemplate removes a template from cache.
// Called on update and delete so readers never see stale fields.
func (c *Cache) DeleteTemplate(ctx context.Context, id string) error {
	key := templateKeyPrefix + id
	if err := c.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to delete template from cache: %w", err)
	}
	return nil
}
