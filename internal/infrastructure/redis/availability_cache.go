package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrCacheMiss = errors.New("キャッシュが見つかりません")
)

// AvailabilityCacheInterface は予約済み席数キャッシュのインターフェース
type AvailabilityCacheInterface interface {
	GetBookedCount(ctx context.Context, eventID string) (int, error)
	SetBookedCount(ctx context.Context, eventID string, count int, ttl time.Duration) error
	Invalidate(ctx context.Context, eventID string) error
}

// AvailabilityCache はイベントごとの予約済み席数のキャッシュを管理する
type AvailabilityCache struct {
	client *redis.Client
}

var _ AvailabilityCacheInterface = (*AvailabilityCache)(nil)

// NewAvailabilityCache は新しいAvailabilityCacheインスタンスを作成する
func NewAvailabilityCache(client *redis.Client) *AvailabilityCache {
	return &AvailabilityCache{client: client}
}

// GetBookedCount はイベントの予約済み席数をキャッシュから取得する
func (c *AvailabilityCache) GetBookedCount(ctx context.Context, eventID string) (int, error) {
	key := c.bookedCountKey(eventID)
	val, err := c.client.Get(ctx, key).Int()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, ErrCacheMiss
		}
		return 0, fmt.Errorf("キャッシュ取得に失敗: %w", err)
	}
	return val, nil
}

// SetBookedCount はイベントの予約済み席数をキャッシュに保存する
func (c *AvailabilityCache) SetBookedCount(ctx context.Context, eventID string, count int, ttl time.Duration) error {
	key := c.bookedCountKey(eventID)
	if err := c.client.Set(ctx, key, count, ttl).Err(); err != nil {
		return fmt.Errorf("キャッシュ保存に失敗: %w", err)
	}
	return nil
}

// Invalidate はイベントのキャッシュを無効化する
// 予約・キャンセルの成功後に呼ばれ、次回参照時に再計算させる
func (c *AvailabilityCache) Invalidate(ctx context.Context, eventID string) error {
	key := c.bookedCountKey(eventID)
	if err := c.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("キャッシュ無効化に失敗: %w", err)
	}
	return nil
}

func (c *AvailabilityCache) bookedCountKey(eventID string) string {
	return fmt.Sprintf("tickets:booked:%s", eventID)
}
