// internal/app/system/throttle/throttle.go
package throttle

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter counts hits per key in fixed windows stored in Redis.
// A nil Limiter, or one without a client, allows everything.
type Limiter struct {
	rdb    *redis.Client
	limit  int
	window time.Duration
	prefix string
}

// New creates a Limiter allowing limit hits per window for each key.
// It returns nil when rdb is nil or limit is not positive.
func New(rdb *redis.Client, limit int, window time.Duration) *Limiter {
	if rdb == nil || limit <= 0 || window <= 0 {
		return nil
	}
	return &Limiter{rdb: rdb, limit: limit, window: window, prefix: "strataimpact:throttle:"}
}

// Result is the outcome of a hit.
type Result struct {
	Allowed    bool
	Count      int64
	RetryAfter time.Duration
}

// Hit records one attempt for scope/key. Redis errors fail open: the
// caller gets Allowed=true together with the error so it can be logged.
func (l *Limiter) Hit(ctx context.Context, scope, key string) (Result, error) {
	if l == nil {
		return Result{Allowed: true}, nil
	}
	k := l.prefix + scope + ":" + key

	n, err := l.rdb.Incr(ctx, k).Result()
	if err != nil {
		return Result{Allowed: true}, fmt.Errorf("throttle incr: %w", err)
	}
	if n == 1 {
		if err := l.rdb.Expire(ctx, k, l.window).Err(); err != nil {
			return Result{Allowed: true, Count: n}, fmt.Errorf("throttle expire: %w", err)
		}
	}
	if n <= int64(l.limit) {
		return Result{Allowed: true, Count: n}, nil
	}

	ttl, err := l.rdb.TTL(ctx, k).Result()
	if err != nil || ttl < 0 {
		ttl = l.window
	}
	return Result{Allowed: false, Count: n, RetryAfter: ttl}, nil
}

// Allow is Hit without the details.
func (l *Limiter) Allow(ctx context.Context, scope, key string) (bool, error) {
	res, err := l.Hit(ctx, scope, key)
	return res.Allowed, err
}

// Reset clears the counter for scope/key.
func (l *Limiter) Reset(ctx context.Context, scope, key string) error {
	if l == nil {
		return nil
	}
	return l.rdb.Del(ctx, l.prefix+scope+":"+key).Err()
}

// Connect creates a Redis client for addr and pings it.
func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return rdb, nil
}
