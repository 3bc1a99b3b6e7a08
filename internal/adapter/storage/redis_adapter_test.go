package storage

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/hotel-reservation/internal/port"
)

func getRedisClient(t *testing.T) *redis.Client {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	return client
}

func TestRedisLock_MutualExclusion(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	adapter := NewRedisAdapter(client)
	client.Del(ctx, "lock:test-ledger")

	var inside atomic.Int32
	var violations atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			lease, err := adapter.Lock(ctx, "lock:test-ledger")
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			if inside.Add(1) > 1 {
				violations.Add(1)
			}
			time.Sleep(2 * time.Millisecond)
			inside.Add(-1)
			if err := lease.Release(ctx); err != nil {
				t.Errorf("release: %v", err)
			}
		}()
	}

	wg.Wait()

	require.Zero(t, violations.Load())
	require.Zero(t, client.Exists(ctx, "lock:test-ledger").Val())
}

func TestRedisLock_WaitHonoursContext(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	adapter := NewRedisAdapter(client)
	client.Del(context.Background(), "lock:test-wait")

	lease, err := adapter.Lock(context.Background(), "lock:test-wait")
	require.NoError(t, err)
	defer lease.Release(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = adapter.Lock(ctx, "lock:test-wait")
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRedisLock_ExpiredLeaseDoesNotFreeNewHolder(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	adapter := NewRedisAdapter(client, WithLockTTL(50*time.Millisecond))
	client.Del(ctx, "lock:test-expiry")

	stale, err := adapter.Lock(ctx, "lock:test-expiry")
	require.NoError(t, err)
	time.Sleep(100 * time.Millisecond)

	fresh, err := adapter.Lock(ctx, "lock:test-expiry")
	require.NoError(t, err)

	require.NoError(t, stale.Release(ctx))
	require.EqualValues(t, 1, client.Exists(ctx, "lock:test-expiry").Val())

	require.NoError(t, fresh.Release(ctx))
	require.Zero(t, client.Exists(ctx, "lock:test-expiry").Val())
}

func TestRedisLock_ExtendDetectsExpiredLease(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	adapter := NewRedisAdapter(client, WithLockTTL(50*time.Millisecond))
	client.Del(ctx, "lock:test-extend")

	lease, err := adapter.Lock(ctx, "lock:test-extend")
	require.NoError(t, err)

	// renewing within the TTL keeps the lock past its original expiry
	time.Sleep(30 * time.Millisecond)
	require.NoError(t, lease.Extend(ctx))
	time.Sleep(30 * time.Millisecond)
	require.NoError(t, lease.Extend(ctx))

	time.Sleep(100 * time.Millisecond)
	other, err := adapter.Lock(ctx, "lock:test-extend")
	require.NoError(t, err)
	defer other.Release(ctx)

	require.ErrorIs(t, lease.Extend(ctx), port.ErrLockLost)
	require.NoError(t, other.Extend(ctx))
}

func TestIdempotency_SetThenGet(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	adapter := NewRedisAdapter(client)
	client.Del(ctx, "test-idem-key")

	_, found, err := adapter.GetIdempotency(ctx, "test-idem-key")
	require.NoError(t, err)
	require.False(t, found)

	require.NoError(t, adapter.SetIdempotency(ctx, "test-idem-key", "R-1"))

	id, found, err := adapter.GetIdempotency(ctx, "test-idem-key")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "R-1", id)

	// rebooking after a cancel records the new reservation
	require.NoError(t, adapter.SetIdempotency(ctx, "test-idem-key", "R-2"))

	id, found, err = adapter.GetIdempotency(ctx, "test-idem-key")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "R-2", id)
	require.Positive(t, client.TTL(ctx, "test-idem-key").Val())
}
