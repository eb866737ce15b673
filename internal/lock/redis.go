package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"onlineticket/internal/utils"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrNotAcquired is returned when the lock stays held past the wait budget.
var ErrNotAcquired = errors.New("lock not acquired")

// releaseScript deletes the key only when it still holds our token.
const releaseScript = `if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0`

// Redis is a single-instance SET NX lock shared by every replica.
type Redis struct {
	Client redis.Cmdable
	Prefix string
	Retry  time.Duration
	// Token is swapped in tests.
	Token func() string
}

func NewRedis(client redis.Cmdable) *Redis {
	return &Redis{Client: client, Prefix: "lock:", Retry: 50 * time.Millisecond}
}

func (l *Redis) token() string {
	if l.Token != nil {
		return l.Token()
	}
	return uuid.NewString()
}

// Lock retries until the key is free, ctx ends, or ttl elapses.
func (l *Redis) Lock(ctx context.Context, name string, ttl time.Duration) (func(), error) {
	key := l.Prefix + name
	token := l.token()
	retry := l.Retry
	if retry <= 0 {
		retry = 50 * time.Millisecond
	}
	deadline := time.Now().Add(ttl)

	for {
		ok, err := l.Client.SetNX(ctx, key, token, ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire %s: %w", key, err)
		}
		if ok {
			return func() {
				// release must run even when the request context is already gone
				rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
				defer cancel()
				if err := l.Client.Eval(rctx, releaseScript, []string{key}, token).Err(); err != nil {
					utils.LogError(utils.RequestIDFrom(ctx), "lock", "release "+key, err)
				}
			}, nil
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("acquire %s: %w", key, ErrNotAcquired)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retry):
		}
	}
}
