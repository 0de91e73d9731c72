package application

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-ticket-booking/internal/domain/account"
	"github.com/sanosuguru/go-ticket-booking/internal/domain/event"
	"github.com/sanosuguru/go-ticket-booking/internal/domain/ticket"
	"github.com/sanosuguru/go-ticket-booking/internal/domain/transaction"
	"github.com/sanosuguru/go-ticket-booking/internal/domain/user"
	"github.com/sanosuguru/go-ticket-booking/internal/pkg/logger"
)

// StoreRepositories は一つのストレージバックエンドのリポジトリ一式
type StoreRepositories struct {
	Users    user.Repository
	Accounts account.Repository
	Events   event.Repository
	Tickets  ticket.Repository
}

// MigrationService はリレーショナルストアからドキュメントストアへ
// データを複製する。IDを保持して複製するため、チケットの参照は
// 移行後もそのまま有効になる。既に存在するレコードはスキップする
type MigrationService struct {
	source    StoreRepositories
	target    StoreRepositories
	targetTx  transaction.Manager
	batchSize int
}

func NewMigrationService(source, target StoreRepositories, targetTx transaction.Manager, batchSize int) *MigrationService {
	if batchSize <= 0 {
		batchSize = 500
	}
	return &MigrationService{source: source, target: target, targetTx: targetTx, batchSize: batchSize}
}

// MigrationSummary は移行結果の件数
type MigrationSummary struct {
	Users    int
	Accounts int
	Events   int
	Tickets  int
	Skipped  int
}

// Migrate は全データを移行する（ユーザー → 口座 → イベント → チケットの順）
func (s *MigrationService) Migrate(ctx context.Context) (*MigrationSummary, error) {
	summary := &MigrationSummary{}

	if err := s.migrateUsers(ctx, summary); err != nil {
		return summary, fmt.Errorf("ユーザー移行に失敗: %w", err)
	}
	if err := s.migrateEvents(ctx, summary); err != nil {
		return summary, fmt.Errorf("イベント移行に失敗: %w", err)
	}
	if err := s.migrateTickets(ctx, summary); err != nil {
		return summary, fmt.Errorf("チケット移行に失敗: %w", err)
	}

	logger.Info("ストア移行完了",
		zap.Int("users", summary.Users),
		zap.Int("accounts", summary.Accounts),
		zap.Int("events", summary.Events),
		zap.Int("tickets", summary.Tickets),
		zap.Int("skipped", summary.Skipped),
	)
	return summary, nil
}

func (s *MigrationService) migrateUsers(ctx context.Context, summary *MigrationSummary) error {
	for offset := 0; ; offset += s.batchSize {
		users, err := s.source.Users.List(ctx, s.batchSize, offset)
		if err != nil {
			return err
		}
		if len(users) == 0 {
			return nil
		}
		for _, u := range users {
			if err := s.target.Users.Create(ctx, u); err != nil {
				if errors.Is(err, user.ErrEmailAlreadyExists) {
					summary.Skipped++
					continue
				}
				return err
			}
			summary.Users++

			if err := s.migrateAccount(ctx, u.ID, summary); err != nil {
				return err
			}
		}
	}
}

func (s *MigrationService) migrateAccount(ctx context.Context, userID string, summary *MigrationSummary) error {
	acc, err := s.source.Accounts.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, account.ErrAccountNotFound) {
			return nil
		}
		return err
	}
	if acc.Balance <= 0 {
		return nil
	}

	tx, err := s.targetTx.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := s.target.Accounts.Credit(ctx, tx, userID, acc.Balance); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	summary.Accounts++
	return nil
}

func (s *MigrationService) migrateEvents(ctx context.Context, summary *MigrationSummary) error {
	for offset := 0; ; offset += s.batchSize {
		events, err := s.source.Events.List(ctx, s.batchSize, offset)
		if err != nil {
			return err
		}
		if len(events) == 0 {
			return nil
		}
		for _, e := range events {
			if err := s.target.Events.Create(ctx, e); err != nil {
				if errors.Is(err, event.ErrEventAlreadyExists) {
					summary.Skipped++
					continue
				}
				return err
			}
			summary.Events++
		}
	}
}

func (s *MigrationService) migrateTickets(ctx context.Context, summary *MigrationSummary) error {
	for offset := 0; ; offset += s.batchSize {
		tickets, err := s.source.Tickets.List(ctx, s.batchSize, offset)
		if err != nil {
			return err
		}
		if len(tickets) == 0 {
			return nil
		}
		for _, t := range tickets {
			if err := s.copyTicket(ctx, t, summary); err != nil {
				return err
			}
		}
	}
}

// copyTicket は1件のチケットを専用トランザクションで複製する。
// MongoDBでは書き込みエラーがトランザクション全体を中断させるため、
// 重複は挿入前に確認してスキップし、1件の失敗が他のチケットに波及しないようにする
func (s *MigrationService) copyTicket(ctx context.Context, t *ticket.Ticket, summary *MigrationSummary) error {
	tx, err := s.targetTx.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	exists, err := s.target.Tickets.ExistsTx(ctx, tx, t.EventID, t.Place, t.Category)
	if err != nil {
		return err
	}
	if exists {
		summary.Skipped++
		return nil
	}

	if err := s.target.Tickets.Create(ctx, tx, t); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	summary.Tickets++
	return nil
}
