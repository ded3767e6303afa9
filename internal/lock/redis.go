package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker is a lock shared by every process using the same Redis key.
type RedisLocker struct {
	rdb  *redis.Client
	key  string
	ttl  time.Duration
	poll time.Duration
}

func NewRedisLocker(rdb *redis.Client, key string, ttl time.Duration) *RedisLocker {
	return &RedisLocker{
		rdb:  rdb,
		key:  key,
		ttl:  ttl,
		poll: 200 * time.Millisecond,
	}
}

func (l *RedisLocker) Acquire(ctx context.Context) (func(), error) {
	token := uuid.NewString()

	for {
		ok, err := l.rdb.SetNX(ctx, l.key, token, l.ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ErrLockContention
			}
			return nil, fmt.Errorf("set lock key: %w", err)
		}
		if ok {
			return l.releaser(token), nil
		}

		select {
		case <-ctx.Done():
			return nil, ErrLockContention
		case <-time.After(l.poll):
		}
	}
}

func (l *RedisLocker) releaser(token string) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = releaseScript.Run(ctx, l.rdb, []string{l.key}, token).Err()
		})
	}
}
