package cache

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

type Redis struct {
	C *redis.Client
}

func New(addr, password string, db int) *Redis {
	return &Redis{
		C: redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db}),
	}
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.C.Ping(ctx).Err()
}

func (r *Redis) Close() error {
	return r.C.Close()
}

// Get returns ok=false on a miss; only transport errors are reported as err.
func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := r.C.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.C.Set(ctx, key, value, ttl).Err()
}

func (r *Redis) Delete(ctx context.Context, keys ...string) (int64, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	return r.C.Del(ctx, keys...).Result()
}

// DeletePrefix removes every key starting with prefix using SCAN, never KEYS.
// The prefix is matched literally.
func (r *Redis) DeletePrefix(ctx context.Context, prefix string) (int64, error) {
	var (
		cursor  uint64
		removed int64
	)
	for {
		keys, next, err := r.C.Scan(ctx, cursor, matchPrefix(prefix), 200).Result()
		if err != nil {
			return removed, err
		}
		if len(keys) > 0 {
			n, err := r.C.Unlink(ctx, keys...).Result()
			if err != nil {
				return removed, err
			}
			removed += n
		}
		if next == 0 {
			return removed, nil
		}
		cursor = next
	}
}

var globEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)

// matchPrefix builds a SCAN MATCH pattern for keys that start with prefix.
func matchPrefix(prefix string) string {
	return globEscaper.Replace(prefix) + "*"
}

// Hit increments a fixed-window counter and returns the count inside the window.
func (r *Redis) Hit(ctx context.Context, key string, window time.Duration) (int64, error) {
	n, err := r.C.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if n == 1 {
		if err := r.C.Expire(ctx, key, window).Err(); err != nil {
			return n, err
		}
	}
	return n, nil
}

const pagePrefix = "page:"

// PageKey is the cache key of a rendered response for a request path.
func PageKey(path string) string { return pagePrefix + path }
