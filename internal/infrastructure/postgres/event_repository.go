package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/sanosuguru/go-ticket-booking/internal/domain/event"
	"github.com/sanosuguru/go-ticket-booking/internal/domain/transaction"
)

// eventRow はDBの行を表す構造体
type eventRow struct {
	ID          string    `db:"id"`
	Title       string    `db:"title"`
	Date        time.Time `db:"date"`
	TicketPrice int64     `db:"ticket_price"`
	TotalPlaces int       `db:"total_places"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// toEntity はeventRowをEventエンティティに変換する
func (r *eventRow) toEntity() *event.Event {
	return &event.Event{
		ID:          r.ID,
		Title:       r.Title,
		Date:        r.Date,
		TicketPrice: r.TicketPrice,
		TotalPlaces: r.TotalPlaces,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

const eventColumns = `id, title, date, ticket_price, total_places, created_at, updated_at`

// EventRepository はイベントリポジトリのPostgreSQL実装
type EventRepository struct {
	db *sqlx.DB
}

// NewEventRepository はEventRepositoryを作成する
func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

// Create は新しいイベントを作成する
// (title, date) には一意インデックスがあり、重複は ErrEventAlreadyExists になる
func (r *EventRepository) Create(ctx context.Context, e *event.Event) error {
	query := `
		INSERT INTO events (title, date, ticket_price, total_places, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query,
		e.Title, e.Date, e.TicketPrice, e.TotalPlaces, e.CreatedAt, e.UpdatedAt,
	).Scan(&e.ID)
	if err != nil {
		if pgErr, ok := err.(*pq.Error); ok && pgErr.Code == "23505" {
			return event.ErrEventAlreadyExists
		}
		return fmt.Errorf("イベント作成に失敗しました: %w", err)
	}
	return nil
}

// GetByID はIDからイベントを取得する
func (r *EventRepository) GetByID(ctx context.Context, id string) (*event.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`

	var row eventRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, event.ErrEventNotFound
		}
		return nil, fmt.Errorf("イベント取得に失敗しました: %w", err)
	}
	return row.toEntity(), nil
}

// SearchByTitle はタイトルの部分一致でイベント一覧を取得する
func (r *EventRepository) SearchByTitle(ctx context.Context, title string, limit, offset int) ([]*event.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE title ILIKE '%' || $1 || '%'
		ORDER BY date DESC
		LIMIT $2 OFFSET $3
	`
	var rows []eventRow
	if err := r.db.SelectContext(ctx, &rows, query, title, limit, offset); err != nil {
		return nil, fmt.Errorf("イベント検索に失敗しました: %w", err)
	}
	return toEventEntities(rows), nil
}

// GetForDay は指定日のイベント一覧を取得する
func (r *EventRepository) GetForDay(ctx context.Context, day time.Time, limit, offset int) ([]*event.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE date >= $1 AND date < $2
		ORDER BY date
		LIMIT $3 OFFSET $4
	`
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.AddDate(0, 0, 1)

	var rows []eventRow
	if err := r.db.SelectContext(ctx, &rows, query, start, end, limit, offset); err != nil {
		return nil, fmt.Errorf("イベント検索に失敗しました: %w", err)
	}
	return toEventEntities(rows), nil
}

// List はイベント一覧を取得する
func (r *EventRepository) List(ctx context.Context, limit, offset int) ([]*event.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events ORDER BY date DESC LIMIT $1 OFFSET $2`

	var rows []eventRow
	if err := r.db.SelectContext(ctx, &rows, query, limit, offset); err != nil {
		return nil, fmt.Errorf("イベント一覧取得に失敗しました: %w", err)
	}
	return toEventEntities(rows), nil
}

// Update はイベントを更新する
func (r *EventRepository) Update(ctx context.Context, e *event.Event) error {
	query := `
		UPDATE events
		SET title = $1, date = $2, ticket_price = $3, total_places = $4, updated_at = $5
		WHERE id = $6
	`
	result, err := r.db.ExecContext(ctx, query,
		e.Title, e.Date, e.TicketPrice, e.TotalPlaces, time.Now(), e.ID,
	)
	if err != nil {
		if pgErr, ok := err.(*pq.Error); ok && pgErr.Code == "23505" {
			return event.ErrEventAlreadyExists
		}
		return fmt.Errorf("イベント更新に失敗しました: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return event.ErrEventNotFound
	}
	return nil
}

// Delete はイベントを削除する
func (r *EventRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("イベント削除に失敗しました: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return event.ErrEventNotFound
	}
	return nil
}

// GetByIDTx はトランザクション内でイベントを取得する
func (r *EventRepository) GetByIDTx(ctx context.Context, tx transaction.Tx, id string) (*event.Event, error) {
	sqlxTx := UnwrapTx(tx)
	if sqlxTx == nil {
		return nil, errTxRequired
	}
	var row eventRow
	if err := sqlxTx.GetContext(ctx, &row, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, event.ErrEventNotFound
		}
		return nil, fmt.Errorf("イベント取得に失敗しました: %w", err)
	}
	return row.toEntity(), nil
}

func toEventEntities(rows []eventRow) []*event.Event {
	events := make([]*event.Event, len(rows))
	for i, row := range rows {
		events[i] = row.toEntity()
	}
	return events
}

var _ event.Repository = (*EventRepository)(nil)
