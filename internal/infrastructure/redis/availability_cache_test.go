package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAvailabilityCache_GetBookedCount(t *testing.T) {
	client := setupTestRedis(t)
	cache := NewAvailabilityCache(client)
	ctx := context.Background()
	eventID := "test-event-123"

	t.Run("キャッシュミス時はErrCacheMissを返す", func(t *testing.T) {
		_ = cache.Invalidate(ctx, eventID)

		_, err := cache.GetBookedCount(ctx, eventID)
		assert.ErrorIs(t, err, ErrCacheMiss)
	})

	t.Run("キャッシュにセットした値を取得できる", func(t *testing.T) {
		err := cache.SetBookedCount(ctx, eventID, 100, 30*time.Second)
		require.NoError(t, err)

		count, err := cache.GetBookedCount(ctx, eventID)
		require.NoError(t, err)
		assert.Equal(t, 100, count)
	})

	t.Run("キャッシュを無効化できる", func(t *testing.T) {
		err := cache.SetBookedCount(ctx, eventID, 50, 30*time.Second)
		require.NoError(t, err)

		err = cache.Invalidate(ctx, eventID)
		require.NoError(t, err)

		_, err = cache.GetBookedCount(ctx, eventID)
		assert.ErrorIs(t, err, ErrCacheMiss)
	})
}

func TestAvailabilityCache_TTL(t *testing.T) {
	client := setupTestRedis(t)
	cache := NewAvailabilityCache(client)
	ctx := context.Background()
	eventID := "test-event-ttl"

	t.Run("TTL経過後はキャッシュミスになる", func(t *testing.T) {
		err := cache.SetBookedCount(ctx, eventID, 100, 100*time.Millisecond)
		require.NoError(t, err)

		// TTL経過前
		count, err := cache.GetBookedCount(ctx, eventID)
		require.NoError(t, err)
		assert.Equal(t, 100, count)

		// TTL経過後
		time.Sleep(150 * time.Millisecond)
		_, err = cache.GetBookedCount(ctx, eventID)
		assert.ErrorIs(t, err, ErrCacheMiss)
	})
}
