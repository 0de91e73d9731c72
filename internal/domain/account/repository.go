package account

import (
	"context"

	"github.com/sanosuguru/go-ticket-booking/internal/domain/transaction"
)

// Repository は口座リポジトリのインターフェース
// 残高の変更はDebit/Creditのみを通じて行い、残高が負にならないことを保証する
type Repository interface {
	// GetByUserID はユーザーIDから口座を取得する
	GetByUserID(ctx context.Context, userID string) (*Account, error)

	// Debit は残高から金額を引き落とす（トランザクション必須）
	// 残高確認と減算をアトミックに行い、残高不足の場合は ErrInsufficientFunds を返す
	Debit(ctx context.Context, tx transaction.Tx, userID string, amount int64) error

	// Credit は残高に金額を加算する（トランザクション必須）
	// 口座が存在しない場合は新規作成する
	Credit(ctx context.Context, tx transaction.Tx, userID string, amount int64) error
}
