package application

import (
	"context"
	"fmt"

	"github.com/sanosuguru/go-ticket-booking/internal/domain/account"
	"github.com/sanosuguru/go-ticket-booking/internal/domain/transaction"
	"github.com/sanosuguru/go-ticket-booking/internal/domain/user"
)

// AccountService は口座の入金・照会ユースケースを提供する
type AccountService struct {
	txManager   transaction.Manager
	accountRepo account.Repository
	userRepo    user.Repository
}

func NewAccountService(tm transaction.Manager, ar account.Repository, ur user.Repository) *AccountService {
	return &AccountService{txManager: tm, accountRepo: ar, userRepo: ur}
}

// RefillAccount はユーザーの口座に金額を入金する
// 口座が無い場合は新規作成する（初回入金）
func (s *AccountService) RefillAccount(ctx context.Context, userID string, amount int64) (*account.Account, error) {
	if amount <= 0 {
		return nil, account.ErrInvalidAmount
	}

	tx, err := s.txManager.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback()

	exists, err := s.userRepo.ExistsTx(ctx, tx, userID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, user.ErrUserNotFound
	}

	if err := s.accountRepo.Credit(ctx, tx, userID, amount); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("コミットに失敗: %w", err)
	}

	return s.accountRepo.GetByUserID(ctx, userID)
}

// GetAccount はユーザーの口座を取得する
func (s *AccountService) GetAccount(ctx context.Context, userID string) (*account.Account, error) {
	return s.accountRepo.GetByUserID(ctx, userID)
}
