package ticket

import (
	"context"

	"github.com/sanosuguru/go-ticket-booking/internal/domain/transaction"
)

// Repository はチケットリポジトリのインターフェース
// (event_id, place, category) の一意性はストレージ層の制約が最終的に保証する
type Repository interface {
	// Create は新しいチケットを作成する（トランザクション必須）
	// 席が既に予約されている場合は ErrSeatTaken を返す
	Create(ctx context.Context, tx transaction.Tx, ticket *Ticket) error

	// ExistsTx はトランザクション内で席が予約済みかを確認する
	ExistsTx(ctx context.Context, tx transaction.Tx, eventID string, place int, category Category) (bool, error)

	// GetByID はIDからチケットを取得する
	GetByID(ctx context.Context, id string) (*Ticket, error)

	// GetByUserID はユーザーのチケット一覧をイベント日時の降順で取得する
	GetByUserID(ctx context.Context, userID string, limit, offset int) ([]*Ticket, error)

	// GetByEventID はイベントのチケット一覧をユーザーのメールアドレスの昇順で取得する
	GetByEventID(ctx context.Context, eventID string, limit, offset int) ([]*Ticket, error)

	// CountByEventID はイベントの予約済みチケット数を取得する
	CountByEventID(ctx context.Context, eventID string) (int, error)

	// GetByIDTx はトランザクション内でチケットを取得する
	GetByIDTx(ctx context.Context, tx transaction.Tx, id string) (*Ticket, error)

	// Delete はチケットを削除する（トランザクション必須）
	Delete(ctx context.Context, tx transaction.Tx, id string) error

	// List はチケット一覧を取得する（ストア間移行で使用）
	List(ctx context.Context, limit, offset int) ([]*Ticket, error)
}
