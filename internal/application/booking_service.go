package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sanosuguru/go-ticket-booking/internal/domain/account"
	"github.com/sanosuguru/go-ticket-booking/internal/domain/event"
	"github.com/sanosuguru/go-ticket-booking/internal/domain/ticket"
	"github.com/sanosuguru/go-ticket-booking/internal/domain/transaction"
	"github.com/sanosuguru/go-ticket-booking/internal/domain/user"
	redisinfra "github.com/sanosuguru/go-ticket-booking/internal/infrastructure/redis"
	"github.com/sanosuguru/go-ticket-booking/internal/pkg/metrics"
)

// seatLockTTL は席ロックの有効期限
const seatLockTTL = 10 * time.Second

// BookingService はチケット予約のユースケースを提供する
// 予約の前提条件チェックと状態変更はすべて単一の直列化可能
// トランザクション内で行い、全成功か全失敗のどちらかになる
type BookingService struct {
	txManager   transaction.Manager
	ticketRepo  ticket.Repository
	userRepo    user.Repository
	eventRepo   event.Repository
	accountRepo account.Repository
	lockManager redisinfra.LockManagerInterface
	cache       redisinfra.AvailabilityCacheInterface
	metrics     *metrics.Metrics
}

func NewBookingService(
	tm transaction.Manager,
	tr ticket.Repository,
	ur user.Repository,
	er event.Repository,
	ar account.Repository,
	lm redisinfra.LockManagerInterface,
	cache redisinfra.AvailabilityCacheInterface,
	m *metrics.Metrics,
) *BookingService {
	return &BookingService{
		txManager:   tm,
		ticketRepo:  tr,
		userRepo:    ur,
		eventRepo:   er,
		accountRepo: ar,
		lockManager: lm,
		cache:       cache,
		metrics:     m,
	}
}

type BookTicketInput struct {
	UserID   string
	EventID  string
	Place    int
	Category ticket.Category
}

// BookTicket はチケットを予約する
// 前提条件（順にチェック）:
//  1. ユーザーが存在する
//  2. イベントが存在し、席番号が有効である
//  3. 席 (event, place, category) が未予約である
//  4. 口座残高がチケット価格以上である
//
// 効果はアトミックに適用される: 残高からの引き落としとチケット作成が
// 両方成功した場合のみコミットされ、いずれかが失敗すると何も残らない
// 同じ席への同時予約は最初にコミットした1件だけが成功する
//
// 分散ロックが競合した場合は前提条件の確認前に ErrSeatTaken を返すため、
// 競合中の席へのリクエストは存在しないユーザーでも NotFound ではなく
// ErrSeatTaken になることがある
func (s *BookingService) BookTicket(ctx context.Context, input BookTicketInput) (*ticket.Details, error) {
	start := time.Now()
	details, err := s.bookTicket(ctx, input)
	s.observeBooking(time.Since(start), err)
	return details, err
}

func (s *BookingService) bookTicket(ctx context.Context, input BookTicketInput) (*ticket.Details, error) {
	if input.Place < 1 {
		return nil, ticket.ErrInvalidPlace
	}
	if _, err := ticket.ParseCategory(string(input.Category)); err != nil {
		return nil, err
	}

	// 分散ロックで同じ席への同時リクエストを早期に弾く（任意の高速経路）
	// 最終的な一意性はストレージ層の制約が保証するため、ロックなしでも正しい
	if s.lockManager != nil {
		lock, err := s.lockManager.AcquireLock(ctx, seatLockKey(input.EventID, input.Place, input.Category), seatLockTTL)
		if err != nil {
			if errors.Is(err, redisinfra.ErrLockNotAcquired) {
				return nil, ticket.ErrSeatTaken
			}
			return nil, fmt.Errorf("ロック取得に失敗: %w", err)
		}
		defer lock.Release(ctx)
	}

	tx, err := s.txManager.BeginSerializable(ctx)
	if err != nil {
		return nil, fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback()

	// ユーザー確認
	usr, err := s.userRepo.GetByIDTx(ctx, tx, input.UserID)
	if err != nil {
		return nil, err
	}

	// イベント確認
	ev, err := s.eventRepo.GetByIDTx(ctx, tx, input.EventID)
	if err != nil {
		return nil, err
	}
	if !ev.HasPlace(input.Place) {
		return nil, ticket.ErrInvalidPlace
	}

	// 席確認（check-then-act 競合はチケット作成時の一意制約が最終的に防ぐ）
	taken, err := s.ticketRepo.ExistsTx(ctx, tx, input.EventID, input.Place, input.Category)
	if err != nil {
		return nil, fmt.Errorf("席の確認に失敗: %w", err)
	}
	if taken {
		return nil, ticket.ErrSeatTaken
	}

	// 引き落とし（残高確認と減算はリポジトリがアトミックに行う）
	if ev.TicketPrice > 0 {
		if err := s.accountRepo.Debit(ctx, tx, input.UserID, ev.TicketPrice); err != nil {
			return nil, err
		}
	}

	// チケット作成
	t := ticket.NewTicket(input.EventID, input.UserID, input.Place, input.Category)
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if err := s.ticketRepo.Create(ctx, tx, t); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("コミットに失敗: %w", err)
	}

	s.invalidateAvailability(ctx, input.EventID)

	// 予約時点のスナップショットを返す
	return &ticket.Details{Ticket: *t, User: *usr, Event: *ev}, nil
}

// CancelTicket はチケットをキャンセルし、チケット価格を口座に払い戻す
func (s *BookingService) CancelTicket(ctx context.Context, id string) error {
	tx, err := s.txManager.Begin(ctx)
	if err != nil {
		return fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback()

	t, err := s.ticketRepo.GetByIDTx(ctx, tx, id)
	if err != nil {
		return err
	}
	ev, err := s.eventRepo.GetByIDTx(ctx, tx, t.EventID)
	if err != nil {
		return err
	}

	if err := s.ticketRepo.Delete(ctx, tx, id); err != nil {
		return err
	}
	if ev.TicketPrice > 0 {
		if err := s.accountRepo.Credit(ctx, tx, t.UserID, ev.TicketPrice); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("コミットに失敗: %w", err)
	}

	s.invalidateAvailability(ctx, t.EventID)
	return nil
}

// GetTicket はIDからチケットを取得する
func (s *BookingService) GetTicket(ctx context.Context, id string) (*ticket.Ticket, error) {
	return s.ticketRepo.GetByID(ctx, id)
}

// GetUserTickets はユーザーのチケット一覧をイベント日時の降順で取得する
func (s *BookingService) GetUserTickets(ctx context.Context, userID string, limit, offset int) ([]*ticket.Ticket, error) {
	limit, offset = normalizePaging(limit, offset)
	return s.ticketRepo.GetByUserID(ctx, userID, limit, offset)
}

// GetEventTickets はイベントのチケット一覧をユーザーのメールアドレスの昇順で取得する
func (s *BookingService) GetEventTickets(ctx context.Context, eventID string, limit, offset int) ([]*ticket.Ticket, error) {
	limit, offset = normalizePaging(limit, offset)
	return s.ticketRepo.GetByEventID(ctx, eventID, limit, offset)
}

func (s *BookingService) invalidateAvailability(ctx context.Context, eventID string) {
	if s.cache == nil {
		return
	}
	// キャッシュはベストエフォート（失敗しても予約は成立している）
	_ = s.cache.Invalidate(ctx, eventID)
}

func (s *BookingService) observeBooking(d time.Duration, err error) {
	if s.metrics == nil {
		return
	}
	s.metrics.BookingDuration.Observe(d.Seconds())
	s.metrics.BookingsTotal.WithLabelValues(bookingStatus(err)).Inc()
}

func bookingStatus(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ticket.ErrSeatTaken):
		return "seat_taken"
	case errors.Is(err, account.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, user.ErrUserNotFound), errors.Is(err, event.ErrEventNotFound):
		return "not_found"
	default:
		return "error"
	}
}

func seatLockKey(eventID string, place int, category ticket.Category) string {
	return fmt.Sprintf("seat:%s:%d:%s", eventID, place, category)
}

func normalizePaging(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
