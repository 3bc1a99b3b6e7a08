package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/rl1809/hotel-reservation/internal/port"
)

const (
	defaultIdempotencyKeyTTL = 24 * time.Hour
	defaultLockTTL           = 10 * time.Second
	lockRetryInterval        = 20 * time.Millisecond
)

// releaseLockScript deletes the lock only if it still carries our token, so an
// expired lease never frees a lock someone else has since taken.
var releaseLockScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
	return redis.call('DEL', KEYS[1])
end
return 0
`)

// extendLockScript renews the TTL only while the lock still carries our token.
var extendLockScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
	return redis.call('PEXPIRE', KEYS[1], ARGV[2])
end
return 0
`)

type RedisAdapter struct {
	client         *redis.Client
	lockTTL        time.Duration
	idempotencyTTL time.Duration
}

type RedisOption func(*RedisAdapter)

// WithLockTTL bounds how long a crashed holder can keep the ledger lock.
func WithLockTTL(ttl time.Duration) RedisOption {
	return func(r *RedisAdapter) {
		if ttl > 0 {
			r.lockTTL = ttl
		}
	}
}

func WithIdempotencyTTL(ttl time.Duration) RedisOption {
	return func(r *RedisAdapter) {
		if ttl > 0 {
			r.idempotencyTTL = ttl
		}
	}
}

func NewRedisAdapter(client *redis.Client, opts ...RedisOption) *RedisAdapter {
	r := &RedisAdapter{
		client:         client,
		lockTTL:        defaultLockTTL,
		idempotencyTTL: defaultIdempotencyKeyTTL,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *RedisAdapter) Lock(ctx context.Context, key string) (port.Lease, error) {
	token := uuid.NewString()
	ticker := time.NewTicker(lockRetryInterval)
	defer ticker.Stop()

	for {
		ok, err := r.client.SetNX(ctx, key, token, r.lockTTL).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire %s: %w", key, err)
		}
		if ok {
			return &redisLease{client: r.client, key: key, token: token, ttl: r.lockTTL}, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

type redisLease struct {
	client *redis.Client
	key    string
	token  string
	ttl    time.Duration
}

func (l *redisLease) Extend(ctx context.Context) error {
	n, err := extendLockScript.Run(ctx, l.client, []string{l.key}, l.token, l.ttl.Milliseconds()).Int()
	if err != nil {
		return fmt.Errorf("extend %s: %w", l.key, err)
	}
	if n == 0 {
		return fmt.Errorf("extend %s: %w", l.key, port.ErrLockLost)
	}
	return nil
}

func (l *redisLease) Release(ctx context.Context) error {
	if err := releaseLockScript.Run(ctx, l.client, []string{l.key}, l.token).Err(); err != nil {
		return fmt.Errorf("release %s: %w", l.key, err)
	}
	return nil
}

func (r *RedisAdapter) GetIdempotency(ctx context.Context, key string) (string, bool, error) {
	id, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return id, true, nil
}

// SetIdempotency overwrites any earlier mapping: after a cancel the request
// may book again and retries must replay the new reservation.
func (r *RedisAdapter) SetIdempotency(ctx context.Context, key, reservationID string) error {
	return r.client.Set(ctx, key, reservationID, r.idempotencyTTL).Err()
}
