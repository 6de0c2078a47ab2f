package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyBadge = "badge:"

// BadgeCache caches rendered badges (base64 PNG) in Redis. Entries are
// scoped by variant, the renderer fingerprint, so a changed logo, font or
// font size misses instead of serving old images.
type BadgeCache struct {
	rdb     *redis.Client
	ttl     time.Duration
	variant string
}

// NewBadgeCache returns a new BadgeCache.
func NewBadgeCache(rdb *redis.Client, ttl time.Duration, variant string) *BadgeCache {
	return &BadgeCache{rdb: rdb, ttl: ttl, variant: variant}
}

// Get returns the cached badge or "" on a miss.
func (c *BadgeCache) Get(ctx context.Context, line1, line2 string) (string, error) {
	v, err := c.rdb.Get(ctx, Key(c.variant, line1, line2)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return v, nil
}

// Set stores the badge.
func (c *BadgeCache) Set(ctx context.Context, line1, line2, badge string) error {
	return c.rdb.Set(ctx, Key(c.variant, line1, line2), badge, c.ttl).Err()
}

// InvalidateAll removes every cached badge of every variant and reports how
// many keys were deleted.
func (c *BadgeCache) InvalidateAll(ctx context.Context) (int, error) {
	n := 0
	iter := c.rdb.Scan(ctx, 0, keyBadge+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := c.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			return n, err
		}
		n++
	}
	return n, iter.Err()
}

// Key is the Redis key for a badge. Lines are used exactly as rendered, with
// no case folding or trimming, and hashed because names are user-supplied.
func Key(variant, line1, line2 string) string {
	sum := sha256.Sum256([]byte(line1 + "\x00" + line2))
	return keyBadge + variant + ":" + hex.EncodeToString(sum[:])
}
