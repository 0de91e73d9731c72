package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/sanosuguru/go-ticket-booking/internal/domain/ticket"
	"github.com/sanosuguru/go-ticket-booking/internal/domain/transaction"
)

type ticketRow struct {
	ID        string    `db:"id"`
	EventID   string    `db:"event_id"`
	UserID    string    `db:"user_id"`
	Place     int       `db:"place"`
	Category  string    `db:"category"`
	CreatedAt time.Time `db:"created_at"`
}

func (r *ticketRow) toEntity() *ticket.Ticket {
	return &ticket.Ticket{
		ID:        r.ID,
		EventID:   r.EventID,
		UserID:    r.UserID,
		Place:     r.Place,
		Category:  ticket.Category(r.Category),
		CreatedAt: r.CreatedAt,
	}
}

const ticketColumns = `id, event_id, user_id, place, category, created_at`

// TicketRepository はチケットリポジトリのPostgreSQL実装
// (event_id, place, category) の一意インデックスが席の二重予約を
// コミット時点で最終的に防止する
type TicketRepository struct {
	db *sqlx.DB
}

// NewTicketRepository はTicketRepositoryを作成する
func NewTicketRepository(db *sqlx.DB) *TicketRepository {
	return &TicketRepository{db: db}
}

// Create は新しいチケットを作成する
// 一意制約違反は ErrSeatTaken として返す（check-then-act 競合の最終防衛線）
func (r *TicketRepository) Create(ctx context.Context, tx transaction.Tx, t *ticket.Ticket) error {
	sqlxTx := UnwrapTx(tx)
	if sqlxTx == nil {
		return errTxRequired
	}
	query := `
		INSERT INTO tickets (event_id, user_id, place, category, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	err := sqlxTx.QueryRowContext(ctx, query,
		t.EventID, t.UserID, t.Place, string(t.Category), t.CreatedAt,
	).Scan(&t.ID)
	if err != nil {
		if pgErr, ok := err.(*pq.Error); ok && pgErr.Code == "23505" {
			return ticket.ErrSeatTaken
		}
		return fmt.Errorf("チケット作成に失敗しました: %w", err)
	}
	return nil
}

// ExistsTx はトランザクション内で席が予約済みかを確認する
func (r *TicketRepository) ExistsTx(ctx context.Context, tx transaction.Tx, eventID string, place int, category ticket.Category) (bool, error) {
	sqlxTx := UnwrapTx(tx)
	if sqlxTx == nil {
		return false, errTxRequired
	}
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM tickets WHERE event_id = $1 AND place = $2 AND category = $3)`
	if err := sqlxTx.GetContext(ctx, &exists, query, eventID, place, string(category)); err != nil {
		return false, fmt.Errorf("席の確認に失敗しました: %w", err)
	}
	return exists, nil
}

// GetByID はIDからチケットを取得する
func (r *TicketRepository) GetByID(ctx context.Context, id string) (*ticket.Ticket, error) {
	var row ticketRow
	if err := r.db.GetContext(ctx, &row, `SELECT `+ticketColumns+` FROM tickets WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ticket.ErrTicketNotFound
		}
		return nil, fmt.Errorf("チケット取得に失敗しました: %w", err)
	}
	return row.toEntity(), nil
}

// GetByUserID はユーザーのチケット一覧をイベント日時の降順で取得する
func (r *TicketRepository) GetByUserID(ctx context.Context, userID string, limit, offset int) ([]*ticket.Ticket, error) {
	query := `
		SELECT t.id, t.event_id, t.user_id, t.place, t.category, t.created_at
		FROM tickets t
		JOIN events e ON e.id = t.event_id
		WHERE t.user_id = $1
		ORDER BY e.date DESC
		LIMIT $2 OFFSET $3
	`
	var rows []ticketRow
	if err := r.db.SelectContext(ctx, &rows, query, userID, limit, offset); err != nil {
		return nil, fmt.Errorf("チケット一覧取得に失敗しました: %w", err)
	}
	return toTicketEntities(rows), nil
}

// GetByEventID はイベントのチケット一覧をユーザーのメールアドレスの昇順で取得する
func (r *TicketRepository) GetByEventID(ctx context.Context, eventID string, limit, offset int) ([]*ticket.Ticket, error) {
	query := `
		SELECT t.id, t.event_id, t.user_id, t.place, t.category, t.created_at
		FROM tickets t
		JOIN users u ON u.id = t.user_id
		WHERE t.event_id = $1
		ORDER BY u.email
		LIMIT $2 OFFSET $3
	`
	var rows []ticketRow
	if err := r.db.SelectContext(ctx, &rows, query, eventID, limit, offset); err != nil {
		return nil, fmt.Errorf("チケット一覧取得に失敗しました: %w", err)
	}
	return toTicketEntities(rows), nil
}

// CountByEventID はイベントの予約済みチケット数を取得する
func (r *TicketRepository) CountByEventID(ctx context.Context, eventID string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM tickets WHERE event_id = $1`, eventID); err != nil {
		return 0, fmt.Errorf("チケット数取得に失敗しました: %w", err)
	}
	return count, nil
}

// GetByIDTx はトランザクション内でチケットを取得する
func (r *TicketRepository) GetByIDTx(ctx context.Context, tx transaction.Tx, id string) (*ticket.Ticket, error) {
	sqlxTx := UnwrapTx(tx)
	if sqlxTx == nil {
		return nil, errTxRequired
	}
	var row ticketRow
	if err := sqlxTx.GetContext(ctx, &row, `SELECT `+ticketColumns+` FROM tickets WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ticket.ErrTicketNotFound
		}
		return nil, fmt.Errorf("チケット取得に失敗しました: %w", err)
	}
	return row.toEntity(), nil
}

// Delete はチケットを削除する
func (r *TicketRepository) Delete(ctx context.Context, tx transaction.Tx, id string) error {
	sqlxTx := UnwrapTx(tx)
	if sqlxTx == nil {
		return errTxRequired
	}
	result, err := sqlxTx.ExecContext(ctx, `DELETE FROM tickets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("チケット削除に失敗しました: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ticket.ErrTicketNotFound
	}
	return nil
}

// List はチケット一覧を取得する
func (r *TicketRepository) List(ctx context.Context, limit, offset int) ([]*ticket.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets ORDER BY created_at LIMIT $1 OFFSET $2`
	var rows []ticketRow
	if err := r.db.SelectContext(ctx, &rows, query, limit, offset); err != nil {
		return nil, fmt.Errorf("チケット一覧取得に失敗しました: %w", err)
	}
	return toTicketEntities(rows), nil
}

func toTicketEntities(rows []ticketRow) []*ticket.Ticket {
	tickets := make([]*ticket.Ticket, len(rows))
	for i, row := range rows {
		tickets[i] = row.toEntity()
	}
	return tickets
}

var _ ticket.Repository = (*TicketRepository)(nil)
