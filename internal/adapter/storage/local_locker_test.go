package storage

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rl1809/hotel-reservation/internal/port"
)

func TestLocalLocker_MutualExclusion(t *testing.T) {
	locker := NewLocalLocker()
	ctx := context.Background()

	var inside atomic.Int32
	var maxInside atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			lease, err := locker.Lock(ctx, "ledger")
			if err != nil {
				t.Errorf("lock: %v", err)
				return
			}
			n := inside.Add(1)
			if n > maxInside.Load() {
				maxInside.Store(n)
			}
			time.Sleep(time.Millisecond)
			inside.Add(-1)
			_ = lease.Release(ctx)
		}()
	}
	wg.Wait()

	require.EqualValues(t, 1, maxInside.Load())
}

func TestLocalLocker_ContextCancelledWhileWaiting(t *testing.T) {
	locker := NewLocalLocker()
	lease, err := locker.Lock(context.Background(), "ledger")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(ctx, "ledger")
	require.ErrorIs(t, err, context.DeadlineExceeded)

	// other keys are independent
	other, err := locker.Lock(context.Background(), "other")
	require.NoError(t, err)
	require.NoError(t, other.Release(context.Background()))

	require.NoError(t, lease.Release(context.Background()))
	require.NoError(t, lease.Release(context.Background()))

	again, err := locker.Lock(context.Background(), "ledger")
	require.NoError(t, err)
	require.NoError(t, again.Release(context.Background()))
}

func TestLocalLocker_ExtendAfterRelease(t *testing.T) {
	locker := NewLocalLocker()
	ctx := context.Background()

	lease, err := locker.Lock(ctx, "ledger")
	require.NoError(t, err)
	require.NoError(t, lease.Extend(ctx))

	require.NoError(t, lease.Release(ctx))
	require.ErrorIs(t, lease.Extend(ctx), port.ErrLockLost)
	require.NoError(t, lease.Release(ctx))
}
