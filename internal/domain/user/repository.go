package user

import (
	"context"

	"github.com/sanosuguru/go-ticket-booking/internal/domain/transaction"
)

// Repository はユーザーリポジトリのインターフェース
type Repository interface {
	// Create は新しいユーザーを作成する
	Create(ctx context.Context, user *User) error

	// GetByID はIDからユーザーを取得する
	GetByID(ctx context.Context, id string) (*User, error)

	// GetByEmail はメールアドレスからユーザーを取得する（完全一致）
	GetByEmail(ctx context.Context, email string) (*User, error)

	// SearchByName は名前の部分一致でユーザー一覧を取得する
	SearchByName(ctx context.Context, name string, limit, offset int) ([]*User, error)

	// List はユーザー一覧を取得する（ストア間移行で使用）
	List(ctx context.Context, limit, offset int) ([]*User, error)

	// Update はユーザーを更新する
	Update(ctx context.Context, user *User) error

	// Delete はユーザーを削除する
	Delete(ctx context.Context, id string) error

	// ExistsTx はトランザクション内でユーザーの存在を確認する
	// 予約処理の前提条件チェックで使用する
	ExistsTx(ctx context.Context, tx transaction.Tx, id string) (bool, error)

	// GetByIDTx はトランザクション内でユーザーを取得する
	GetByIDTx(ctx context.Context, tx transaction.Tx, id string) (*User, error)
}
