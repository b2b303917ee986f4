package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/oggyb/swipe-server/internal/config"
)

const (
	likeCountTTL = time.Hour
	presenceKey  = "presence:online"
)

type RedisCache struct {
	Client *redis.Client
}

// NewRedisCache initializes Redis client from config.
// Only Addr is mandatory, Password/DB are optional.
func NewRedisCache(cfg *config.Config) *RedisCache {
	opts := &redis.Options{
		Addr: cfg.Redis.Addr,
	}
	if cfg.Redis.Password != "" {
		opts.Password = cfg.Redis.Password
	}
	if cfg.Redis.DB != 0 {
		opts.DB = cfg.Redis.DB
	}
	return &RedisCache{Client: redis.NewClient(opts)}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.Client.Close()
}

// HitOnce sets key with ttl only if it does not exist yet.
// Returns true for the first caller inside the window.
func (c *RedisCache) HitOnce(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return c.Client.SetNX(ctx, key, 1, ttl).Result()
}

// KeyForLikeCount generates Redis key for a user's liked-you count
func (c *RedisCache) KeyForLikeCount(userID uint64) string {
	return fmt.Sprintf("likes:count:%d", userID)
}

// KeyForVisit generates the once-per-day gate key for a profile visit.
// day is a YYYY-MM-DD string in the server's calendar.
func (c *RedisCache) KeyForVisit(visitorID, visitedID uint64, day string) string {
	return fmt.Sprintf("visit:%d:%d:%s", visitorID, visitedID, day)
}

// GetLikeCount reads the cached liked-you count. ok is false on a miss.
// A hit refreshes the TTL since the user is active.
func (c *RedisCache) GetLikeCount(ctx context.Context, userID uint64) (int64, bool, error) {
	key := c.KeyForLikeCount(userID)
	val, err := c.Client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil // cache miss
	} else if err != nil {
		return 0, false, err
	}

	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false, nil // treat garbage as a miss
	}
	_ = c.Client.Expire(ctx, key, likeCountTTL).Err()
	return n, true, nil
}

// SetLikeCount stores the liked-you count with a fresh TTL.
func (c *RedisCache) SetLikeCount(ctx context.Context, userID uint64, count int64) error {
	return c.Client.Set(ctx, c.KeyForLikeCount(userID), count, likeCountTTL).Err()
}

// InvalidateLikeCount drops cached counts so the next read goes to the DB.
func (c *RedisCache) InvalidateLikeCount(ctx context.Context, userIDs ...uint64) error {
	if len(userIDs) == 0 {
		return nil
	}
	keys := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		keys = append(keys, c.KeyForLikeCount(id))
	}
	return c.Client.Del(ctx, keys...).Err()
}

// SetOnline marks a user as connected to the relay.
func (c *RedisCache) SetOnline(ctx context.Context, userID uint64) error {
	return c.Client.SAdd(ctx, presenceKey, userID).Err()
}

// SetOffline removes a user from the online set.
func (c *RedisCache) SetOffline(ctx context.Context, userID uint64) error {
	return c.Client.SRem(ctx, presenceKey, userID).Err()
}

// IsOnline reports whether a user currently holds a relay connection.
func (c *RedisCache) IsOnline(ctx context.Context, userID uint64) (bool, error) {
	return c.Client.SIsMember(ctx, presenceKey, userID).Result()
}
