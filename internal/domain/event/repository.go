package event

import (
	"context"
	"time"

	"github.com/sanosuguru/go-ticket-booking/internal/domain/transaction"
)

// Repository はイベントリポジトリのインターフェース
type Repository interface {
	// Create は新しいイベントを作成する
	// タイトルと日時の組が重複する場合は ErrEventAlreadyExists を返す
	Create(ctx context.Context, event *Event) error

	// GetByID はIDからイベントを取得する
	GetByID(ctx context.Context, id string) (*Event, error)

	// SearchByTitle はタイトルの部分一致でイベント一覧を取得する
	SearchByTitle(ctx context.Context, title string, limit, offset int) ([]*Event, error)

	// GetForDay は指定日のイベント一覧を取得する
	GetForDay(ctx context.Context, day time.Time, limit, offset int) ([]*Event, error)

	// List はイベント一覧を取得する
	List(ctx context.Context, limit, offset int) ([]*Event, error)

	// Update はイベントを更新する
	Update(ctx context.Context, event *Event) error

	// Delete はイベントを削除する
	Delete(ctx context.Context, id string) error

	// GetByIDTx はトランザクション内でイベントを取得する
	// 予約処理の前提条件チェックで使用する
	GetByIDTx(ctx context.Context, tx transaction.Tx, id string) (*Event, error)
}
