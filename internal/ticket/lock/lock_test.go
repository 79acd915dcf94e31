package lock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/ticketbot/internal/clock"
	"github.com/stretchr/testify/require"
)

func TestMemoryLockerExclusiveUntilExpiry(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewFakeClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	l := NewMemoryLocker(clk)

	token, ok, err := l.TryLock(ctx, "ticket:open:U1", 15*time.Second)
	require.NoError(t, err)
	require.True(t, ok)
	require.NotEmpty(t, token)

	_, ok, err = l.TryLock(ctx, "ticket:open:U1", 15*time.Second)
	require.NoError(t, err)
	require.False(t, ok)

	_, ok, err = l.TryLock(ctx, "ticket:open:U2", 15*time.Second)
	require.NoError(t, err)
	require.True(t, ok, "other keys are independent")

	clk.Advance(16 * time.Second)
	_, ok, err = l.TryLock(ctx, "ticket:open:U1", 15*time.Second)
	require.NoError(t, err)
	require.True(t, ok, "expired lock must be reacquirable")
}

func TestMemoryLockerEvictsExpiredEntries(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewFakeClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	l := NewMemoryLocker(clk)

	for _, key := range []string{"ticket:open:U1", "ticket:open:U2", "order:create:C1"} {
		_, ok, err := l.TryLock(ctx, key, 15*time.Second)
		require.NoError(t, err)
		require.True(t, ok)
	}
	require.Len(t, l.entries, 3)

	clk.Advance(16 * time.Second)
	_, ok, err := l.TryLock(ctx, "ticket:open:U3", 15*time.Second)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, l.entries, 1, "abandoned locks must not accumulate")
}

func TestMemoryLockerReleaseRequiresToken(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLocker(nil)

	token, ok, err := l.TryLock(ctx, "k", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, l.Release(ctx, "k", "someone-else"))
	_, ok, _ = l.TryLock(ctx, "k", time.Minute)
	require.False(t, ok)

	require.NoError(t, l.Release(ctx, "k", token))
	_, ok, _ = l.TryLock(ctx, "k", time.Minute)
	require.True(t, ok)
}

func TestLockerValidation(t *testing.T) {
	l := NewMemoryLocker(nil)
	_, _, err := l.TryLock(context.Background(), "", time.Second)
	require.ErrorIs(t, err, ErrEmptyKey)
	_, _, err = l.TryLock(context.Background(), "k", 0)
	require.ErrorIs(t, err, ErrInvalidTTL)
}

func TestRedisLocker(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	l := NewRedisLocker(client)

	token, ok, err := l.TryLock(ctx, "ticket:open:U1", 15*time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = l.TryLock(ctx, "ticket:open:U1", 15*time.Second)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, l.Release(ctx, "ticket:open:U1", "stale-token"))
	require.True(t, mr.Exists("ticket:open:U1"))

	require.NoError(t, l.Release(ctx, "ticket:open:U1", token))
	require.False(t, mr.Exists("ticket:open:U1"))

	_, ok, err = l.TryLock(ctx, "ticket:open:U1", 15*time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(16 * time.Second)
	_, ok, err = l.TryLock(ctx, "ticket:open:U1", 15*time.Second)
	require.NoError(t, err)
	require.True(t, ok, "ttl must expire the key")
}
