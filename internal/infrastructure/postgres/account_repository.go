package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sanosuguru/go-ticket-booking/internal/domain/account"
	"github.com/sanosuguru/go-ticket-booking/internal/domain/transaction"
)

type accountRow struct {
	UserID    string    `db:"user_id"`
	Balance   int64     `db:"balance"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r *accountRow) toEntity() *account.Account {
	return &account.Account{
		UserID:    r.UserID,
		Balance:   r.Balance,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

// AccountRepository は口座リポジトリのPostgreSQL実装
// balance カラムには CHECK (balance >= 0) 制約があり、
// 残高が負になる更新はストレージ層でも拒否される
type AccountRepository struct {
	db *sqlx.DB
}

// NewAccountRepository はAccountRepositoryを作成する
func NewAccountRepository(db *sqlx.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// GetByUserID はユーザーIDから口座を取得する
func (r *AccountRepository) GetByUserID(ctx context.Context, userID string) (*account.Account, error) {
	query := `SELECT user_id, balance, created_at, updated_at FROM accounts WHERE user_id = $1`

	var row accountRow
	if err := r.db.GetContext(ctx, &row, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, account.ErrAccountNotFound
		}
		return nil, fmt.Errorf("口座取得に失敗しました: %w", err)
	}
	return row.toEntity(), nil
}

// Debit は残高から金額を引き落とす
// 残高確認と減算を単一のUPDATEで行い、更新行が無ければ残高不足か口座不存在
func (r *AccountRepository) Debit(ctx context.Context, tx transaction.Tx, userID string, amount int64) error {
	if amount <= 0 {
		return account.ErrInvalidAmount
	}
	sqlxTx := UnwrapTx(tx)
	if sqlxTx == nil {
		return errTxRequired
	}

	query := `
		UPDATE accounts
		SET balance = balance - $2, updated_at = NOW()
		WHERE user_id = $1 AND balance >= $2
	`
	result, err := sqlxTx.ExecContext(ctx, query, userID, amount)
	if err != nil {
		return fmt.Errorf("引き落としに失敗しました: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		// 口座不存在と残高不足を区別する
		var exists bool
		if err := sqlxTx.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM accounts WHERE user_id = $1)`, userID); err != nil {
			return fmt.Errorf("口座確認に失敗しました: %w", err)
		}
		if !exists {
			return account.ErrAccountNotFound
		}
		return account.ErrInsufficientFunds
	}
	return nil
}

// Credit は残高に金額を加算する（口座が無ければ新規作成）
func (r *AccountRepository) Credit(ctx context.Context, tx transaction.Tx, userID string, amount int64) error {
	if amount <= 0 {
		return account.ErrInvalidAmount
	}
	sqlxTx := UnwrapTx(tx)
	if sqlxTx == nil {
		return errTxRequired
	}

	query := `
		INSERT INTO accounts (user_id, balance, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())
		ON CONFLICT (user_id)
		DO UPDATE SET balance = accounts.balance + $2, updated_at = NOW()
	`
	if _, err := sqlxTx.ExecContext(ctx, query, userID, amount); err != nil {
		return fmt.Errorf("入金に失敗しました: %w", err)
	}
	return nil
}

var _ account.Repository = (*AccountRepository)(nil)
