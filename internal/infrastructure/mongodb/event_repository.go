package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sanosuguru/go-ticket-booking/internal/domain/event"
	"github.com/sanosuguru/go-ticket-booking/internal/domain/transaction"
)

type eventDoc struct {
	ID          string    `bson:"_id"`
	Title       string    `bson:"title"`
	Date        time.Time `bson:"date"`
	TicketPrice int64     `bson:"ticket_price"`
	TotalPlaces int       `bson:"total_places"`
	CreatedAt   time.Time `bson:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at"`
}

func (d *eventDoc) toEntity() *event.Event {
	return &event.Event{
		ID:          d.ID,
		Title:       d.Title,
		Date:        d.Date,
		TicketPrice: d.TicketPrice,
		TotalPlaces: d.TotalPlaces,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

// EventRepository はイベントリポジトリのMongoDB実装
type EventRepository struct {
	coll *mongo.Collection
}

// NewEventRepository はEventRepositoryを作成する
func NewEventRepository(db *mongo.Database) *EventRepository {
	return &EventRepository{coll: db.Collection(collEvents)}
}

// Create は新しいイベントを作成する
func (r *EventRepository) Create(ctx context.Context, e *event.Event) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	doc := eventDoc{
		ID:          e.ID,
		Title:       e.Title,
		Date:        e.Date,
		TicketPrice: e.TicketPrice,
		TotalPlaces: e.TotalPlaces,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return event.ErrEventAlreadyExists
		}
		return fmt.Errorf("イベント作成に失敗しました: %w", err)
	}
	return nil
}

// GetByID はIDからイベントを取得する
func (r *EventRepository) GetByID(ctx context.Context, id string) (*event.Event, error) {
	var doc eventDoc
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, event.ErrEventNotFound
		}
		return nil, fmt.Errorf("イベント取得に失敗しました: %w", err)
	}
	return doc.toEntity(), nil
}

// SearchByTitle はタイトルの部分一致でイベント一覧を取得する
func (r *EventRepository) SearchByTitle(ctx context.Context, title string, limit, offset int) ([]*event.Event, error) {
	filter := bson.M{"title": bson.M{"$regex": title, "$options": "i"}}
	return r.find(ctx, filter, bson.D{{Key: "date", Value: -1}}, limit, offset)
}

// GetForDay は指定日のイベント一覧を取得する
func (r *EventRepository) GetForDay(ctx context.Context, day time.Time, limit, offset int) ([]*event.Event, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.AddDate(0, 0, 1)
	filter := bson.M{"date": bson.M{"$gte": start, "$lt": end}}
	return r.find(ctx, filter, bson.D{{Key: "date", Value: 1}}, limit, offset)
}

// List はイベント一覧を取得する
func (r *EventRepository) List(ctx context.Context, limit, offset int) ([]*event.Event, error) {
	return r.find(ctx, bson.M{}, bson.D{{Key: "date", Value: -1}}, limit, offset)
}

// Update はイベントを更新する
func (r *EventRepository) Update(ctx context.Context, e *event.Event) error {
	update := bson.M{"$set": bson.M{
		"title":        e.Title,
		"date":         e.Date,
		"ticket_price": e.TicketPrice,
		"total_places": e.TotalPlaces,
		"updated_at":   time.Now(),
	}}
	result, err := r.coll.UpdateByID(ctx, e.ID, update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return event.ErrEventAlreadyExists
		}
		return fmt.Errorf("イベント更新に失敗しました: %w", err)
	}
	if result.MatchedCount == 0 {
		return event.ErrEventNotFound
	}
	return nil
}

// Delete はイベントを削除する
func (r *EventRepository) Delete(ctx context.Context, id string) error {
	result, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("イベント削除に失敗しました: %w", err)
	}
	if result.DeletedCount == 0 {
		return event.ErrEventNotFound
	}
	return nil
}

// GetByIDTx はトランザクション内でイベントを取得する
func (r *EventRepository) GetByIDTx(ctx context.Context, tx transaction.Tx, id string) (*event.Event, error) {
	sc := UnwrapSessionContext(tx)
	if sc == nil {
		return nil, errTxRequired
	}
	var doc eventDoc
	if err := r.coll.FindOne(sc, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, event.ErrEventNotFound
		}
		return nil, fmt.Errorf("イベント取得に失敗しました: %w", err)
	}
	return doc.toEntity(), nil
}

func (r *EventRepository) find(ctx context.Context, filter bson.M, sort bson.D, limit, offset int) ([]*event.Event, error) {
	opts := options.Find().
		SetSort(sort).
		SetLimit(int64(limit)).
		SetSkip(int64(offset))

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("イベント検索に失敗しました: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []eventDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("イベント検索に失敗しました: %w", err)
	}
	events := make([]*event.Event, len(docs))
	for i := range docs {
		events[i] = docs[i].toEntity()
	}
	return events, nil
}

var _ event.Repository = (*EventRepository)(nil)
