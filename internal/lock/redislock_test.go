package lock_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-checkout/internal/lock"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func exerciseMutualExclusion(t *testing.T, l lock.Locker) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		holders int
		maxSeen int
	)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := l.WithLock(ctx, "lock:maintenance:variants", time.Second, func(context.Context) error {
				mu.Lock()
				holders++
				if holders > maxSeen {
					maxSeen = holders
				}
				mu.Unlock()
				time.Sleep(5 * time.Millisecond)
				mu.Lock()
				holders--
				mu.Unlock()
				return nil
			})
			require.NoError(t, err)
		}()
	}
	wg.Wait()
	require.Equal(t, 1, maxSeen)
}

func TestRedisLockIsExclusive(t *testing.T) {
	mr, client := newRedis(t)
	exerciseMutualExclusion(t, lock.Redis{R: client, RetryBackoff: time.Millisecond})
	require.False(t, mr.Exists("lock:maintenance:variants"))
}

func TestLocalLockIsExclusive(t *testing.T) {
	exerciseMutualExclusion(t, &lock.Local{})
}

func TestRedisLockReleasesOnError(t *testing.T) {
	mr, client := newRedis(t)
	l := lock.Redis{R: client}
	boom := errors.New("boom")

	err := l.WithLock(context.Background(), "k", time.Second, func(context.Context) error { return boom })
	require.ErrorIs(t, err, boom)
	require.False(t, mr.Exists("k"))
}

func TestRedisLockGivesUpWithContext(t *testing.T) {
	mr, client := newRedis(t)
	require.NoError(t, mr.Set("k", "someone-else"))
	l := lock.Redis{R: client, RetryBackoff: time.Millisecond}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	called := false
	err := l.WithLock(ctx, "k", time.Second, func(context.Context) error {
		called = true
		return nil
	})
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.False(t, called)

	got, err := mr.Get("k")
	require.NoError(t, err)
	require.Equal(t, "someone-else", got)
}

func TestRedisLockRequiresClient(t *testing.T) {
	err := lock.Redis{}.WithLock(context.Background(), "k", 0, func(context.Context) error { return nil })
	require.ErrorIs(t, err, lock.ErrNotConfigured)
}
