package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"mondesavoir/models"

	"github.com/redis/go-redis/v9"
)

const userCacheKeyPrefix = "user:info:"

// RedisUserCache caches user records in Redis with a fixed TTL
type RedisUserCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisUserCache creates a new Redis-backed user cache
func NewRedisUserCache(client *redis.Client, ttl time.Duration) *RedisUserCache {
	return &RedisUserCache{
		client: client,
		ttl:    ttl,
	}
}

func userKey(id int64) string {
	return userCacheKeyPrefix + strconv.FormatInt(id, 10)
}

// Get returns the cached user, or (nil, nil) if not found
func (c *RedisUserCache) Get(ctx context.Context, id int64) (*models.User, error) {
	data, err := c.client.Get(ctx, userKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cached user %d: %w", id, err)
	}

	var user models.User
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, fmt.Errorf("failed to decode cached user %d: %w", id, err)
	}
	if user.Badges == nil {
		user.Badges = models.Badges{}
	}
	return &user, nil
}

// setRetries bounds optimistic retries when another client touches the key mid-write
const setRetries = 3

// Set stores the user with the configured TTL unless the cached copy is at
// least as recent. The compare and write run under WATCH so a slow reader
// cannot overwrite a fresher entry written by a score update.
func (c *RedisUserCache) Set(ctx context.Context, user *models.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to encode user %d: %w", user.ID, err)
	}
	key := userKey(user.ID)

	txf := func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, key).Bytes()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if err == nil {
			var cached models.User
			if json.Unmarshal(current, &cached) == nil && !cached.UpdatedAt.Before(user.UpdatedAt) {
				return nil
			}
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, c.ttl)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < setRetries; attempt++ {
		err = c.client.Watch(ctx, txf, key)
		if !errors.Is(err, redis.TxFailedErr) {
			break
		}
	}
	if err != nil {
		return fmt.Errorf("failed to cache user %d: %w", user.ID, err)
	}
	return nil
}

// Delete evicts the user
func (c *RedisUserCache) Delete(ctx context.Context, id int64) error {
	if err := c.client.Del(ctx, userKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to evict user %d: %w", id, err)
	}
	return nil
}

// NoopUserCache is used when no Redis URL is configured. Every read misses.
type NoopUserCache struct{}

func (NoopUserCache) Get(context.Context, int64) (*models.User, error) { return nil, nil }
func (NoopUserCache) Set(context.Context, *models.User) error          { return nil }
func (NoopUserCache) Delete(context.Context, int64) error              { return nil }
