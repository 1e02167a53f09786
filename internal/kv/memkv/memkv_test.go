package memkv_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/delegate/internal/kv/memkv"
	"github.com/stretchr/testify/require"
)

func TestSetGetRemove(t *testing.T) {
	s := memkv.New()
	ctx := context.Background()

	_, ok, err := s.Get(ctx, "missing")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, s.Set(ctx, "k", "v1", 0))
	require.NoError(t, s.Set(ctx, "k", "v2", 0))
	v, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "v2", v)

	require.NoError(t, s.Remove(ctx, "k"))
	require.NoError(t, s.Remove(ctx, "k"))
	_, ok, _ = s.Get(ctx, "k")
	require.False(t, ok)
}

func TestExpiry(t *testing.T) {
	var mu sync.Mutex
	now := time.Unix(1_700_000_000, 0)
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	advance := func(d time.Duration) {
		mu.Lock()
		now = now.Add(d)
		mu.Unlock()
	}

	s := memkv.NewWithClock(clock)
	ctx := context.Background()
	require.NoError(t, s.Set(ctx, "short", "x", time.Minute))
	require.NoError(t, s.Set(ctx, "forever", "y", 0))

	advance(59 * time.Second)
	_, ok, _ := s.Get(ctx, "short")
	require.True(t, ok)

	advance(time.Second)
	_, ok, _ = s.Get(ctx, "short")
	require.False(t, ok)
	require.Equal(t, 1, s.Len())

	n, err := s.DeleteExpired(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	_, ok, _ = s.Get(ctx, "forever")
	require.True(t, ok)
}
