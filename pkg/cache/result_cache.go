// Package cache stores merge responses in Redis keyed by request fingerprint
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/redis/go-redis/v9"

	"github.com/Ramsey-B/clover/pkg/models"
)

// KeyPrefix namespaces merge results in Redis
const KeyPrefix = "clover:merge:"

// ResultCache keeps recent merge responses so repeated batches skip the O(n·m) matching pass
type ResultCache struct {
	client *Client
	ttl    time.Duration
	logger ectologger.Logger
}

// NewResultCache creates a cache whose entries expire after ttl
func NewResultCache(client *Client, ttl time.Duration, logger ectologger.Logger) *ResultCache {
	return &ResultCache{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

// Key returns the Redis key for a fingerprint
func Key(fingerprint string) string {
	return KeyPrefix + fingerprint
}

// Get returns the cached response for a fingerprint. The bool is false on a miss.
func (c *ResultCache) Get(ctx context.Context, fingerprint string) (*models.MergeResponse, bool, error) {
	data, err := c.client.Get(ctx, Key(fingerprint))
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cached merge result: %w", err)
	}

	var resp models.MergeResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		// unreadable entries are dropped and treated as a miss
		c.logger.WithContext(ctx).WithError(err).WithField("fingerprint", fingerprint).Warn("Discarding corrupt cached merge result")
		_ = c.client.Del(ctx, Key(fingerprint))
		return nil, false, nil
	}

	return &resp, true, nil
}

// Set stores a response under its fingerprint
func (c *ResultCache) Set(ctx context.Context, fingerprint string, resp *models.MergeResponse) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("failed to encode merge result: %w", err)
	}

	if err := c.client.Set(ctx, Key(fingerprint), data, c.ttl); err != nil {
		return fmt.Errorf("failed to cache merge result: %w", err)
	}
	return nil
}

// Ping checks the backing Redis
func (c *ResultCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx)
}
