package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/therealutkarshpriyadarshi/ytclipper/pkg/models"
)

// ErrLockNotHeld is returned when releasing a lock whose token no longer matches.
var ErrLockNotHeld = errors.New("lock not held")

// releaseScript deletes the lock only if it still carries the caller's token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Cache provides Redis-backed clip lookups and distributed locks
type Cache struct {
	client *redis.Client
}

// NewCache creates a new cache instance
func NewCache(host string, port int, password string, db int) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Cache{client: client}, nil
}

// Close closes the Redis connection
func (c *Cache) Close() error {
	return c.client.Close()
}

// Clip Index Operations

func clipKey(clipID string) string {
	return fmt.Sprintf("clip:%s", clipID)
}

// SetClip indexes a generated clip until it expires
func (c *Cache) SetClip(ctx context.Context, clip *models.ClipArtifact, ttl time.Duration) error {
	data, err := json.Marshal(clip)
	if err != nil {
		return fmt.Errorf("failed to marshal clip: %w", err)
	}
	return c.client.Set(ctx, clipKey(clip.ID), data, ttl).Err()
}

// GetClip looks up a clip by ID; nil, nil on miss
func (c *Cache) GetClip(ctx context.Context, clipID string) (*models.ClipArtifact, error) {
	data, err := c.client.Get(ctx, clipKey(clipID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // Cache miss
		}
		return nil, fmt.Errorf("failed to get clip from cache: %w", err)
	}

	var clip models.ClipArtifact
	if err := json.Unmarshal(data, &clip); err != nil {
		return nil, fmt.Errorf("failed to unmarshal clip: %w", err)
	}
	return &clip, nil
}

// DeleteClip removes a clip from the index
func (c *Cache) DeleteClip(ctx context.Context, clipID string) error {
	return c.client.Del(ctx, clipKey(clipID)).Err()
}

// Locking Operations for Distributed Systems

func lockKey(resource string) string {
	return fmt.Sprintf("lock:%s", resource)
}

// AcquireLock attempts to take the lock for resource, tagged with token
func (c *Cache) AcquireLock(ctx context.Context, resource, token string, ttl time.Duration) (bool, error) {
	return c.client.SetNX(ctx, lockKey(resource), token, ttl).Result()
}

// ReleaseLock releases the lock if it is still held with token
func (c *Cache) ReleaseLock(ctx context.Context, resource, token string) error {
	n, err := releaseScript.Run(ctx, c.client, []string{lockKey(resource)}, token).Int()
	if err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	if n == 0 {
		return ErrLockNotHeld
	}
	return nil
}

// Exists checks if a key exists
func (c *Cache) Exists(ctx context.Context, key string) (bool, error) {
	result, err := c.client.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return result > 0, nil
}

// Ping checks connectivity
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
