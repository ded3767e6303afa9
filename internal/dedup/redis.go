package dedup

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisTier stores md5(url) markers with a fixed TTL, shared across runs.
type RedisTier struct {
	rdb    redis.Cmdable
	prefix string
	ttl    time.Duration
}

func NewRedisTier(rdb redis.Cmdable, prefix string, ttl time.Duration) *RedisTier {
	return &RedisTier{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (r *RedisTier) Name() string { return "redis" }

// Key returns the cache key for url. The hash keeps keys at a fixed length.
func (r *RedisTier) Key(url string) string {
	sum := md5.Sum([]byte(url))
	return r.prefix + "dedup:" + hex.EncodeToString(sum[:])
}

func (r *RedisTier) Lookup(ctx context.Context, url string) (bool, error) {
	n, err := r.rdb.Exists(ctx, r.Key(url)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *RedisTier) Insert(ctx context.Context, url string) error {
	return r.rdb.Set(ctx, r.Key(url), "1", r.ttl).Err()
}
