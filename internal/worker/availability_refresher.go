package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-ticket-booking/internal/domain/event"
	"github.com/sanosuguru/go-ticket-booking/internal/domain/ticket"
	redisinfra "github.com/sanosuguru/go-ticket-booking/internal/infrastructure/redis"
	"github.com/sanosuguru/go-ticket-booking/internal/pkg/logger"
)

// AvailabilityRefresher は各イベントの予約済み数を定期的に数え直して
// キャッシュを温めるワーカー。キャッシュの無効化が漏れても
// ここで最新の値に収束する
type AvailabilityRefresher struct {
	eventRepo  event.Repository
	ticketRepo ticket.Repository
	cache      redisinfra.AvailabilityCacheInterface
	interval   time.Duration
	cacheTTL   time.Duration
	stopCh     chan struct{}
	doneCh     chan struct{}
}

// NewAvailabilityRefresher は新しいリフレッシャーを作成
func NewAvailabilityRefresher(
	er event.Repository,
	tr ticket.Repository,
	cache redisinfra.AvailabilityCacheInterface,
	interval time.Duration,
	cacheTTL time.Duration,
) *AvailabilityRefresher {
	return &AvailabilityRefresher{
		eventRepo:  er,
		ticketRepo: tr,
		cache:      cache,
		interval:   interval,
		cacheTTL:   cacheTTL,
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
	}
}

// Start はリフレッシャーを開始
func (r *AvailabilityRefresher) Start(ctx context.Context) {
	logger.Info("空席数リフレッシャー開始",
		zap.Duration("interval", r.interval),
		zap.Duration("cache_ttl", r.cacheTTL),
	)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	defer close(r.doneCh)

	for {
		select {
		case <-ctx.Done():
			logger.Info("空席数リフレッシャー停止（コンテキストキャンセル）")
			return
		case <-r.stopCh:
			logger.Info("空席数リフレッシャー停止（シグナル受信）")
			return
		case <-ticker.C:
			r.refresh(ctx)
		}
	}
}

// Stop はリフレッシャーを停止
func (r *AvailabilityRefresher) Stop() {
	close(r.stopCh)
	<-r.doneCh
}

const refreshPageSize = 100

// refresh は全イベントの予約済み数をキャッシュに書き込む
func (r *AvailabilityRefresher) refresh(ctx context.Context) {
	log := logger.Get()
	log.Debug("空席数のリフレッシュ開始")

	refreshed := 0
	for offset := 0; ; offset += refreshPageSize {
		events, err := r.eventRepo.List(ctx, refreshPageSize, offset)
		if err != nil {
			log.Error("イベント一覧の取得に失敗", zap.Error(err))
			return
		}
		if len(events) == 0 {
			break
		}
		for _, e := range events {
			count, err := r.ticketRepo.CountByEventID(ctx, e.ID)
			if err != nil {
				log.Error("予約済み数の取得に失敗",
					zap.String("event_id", e.ID),
					zap.Error(err),
				)
				continue
			}
			if err := r.cache.SetBookedCount(ctx, e.ID, count, r.cacheTTL); err != nil {
				log.Error("キャッシュ書き込みに失敗",
					zap.String("event_id", e.ID),
					zap.Error(err),
				)
				continue
			}
			refreshed++
		}
	}

	if refreshed > 0 {
		log.Debug("空席数をリフレッシュ", zap.Int("events", refreshed))
	}
}
