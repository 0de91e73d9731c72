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

	"github.com/sanosuguru/go-ticket-booking/internal/domain/ticket"
	"github.com/sanosuguru/go-ticket-booking/internal/domain/transaction"
)

type ticketDoc struct {
	ID        string    `bson:"_id"`
	EventID   string    `bson:"event_id"`
	UserID    string    `bson:"user_id"`
	Place     int       `bson:"place"`
	Category  string    `bson:"category"`
	CreatedAt time.Time `bson:"created_at"`
}

func (d *ticketDoc) toEntity() *ticket.Ticket {
	return &ticket.Ticket{
		ID:        d.ID,
		EventID:   d.EventID,
		UserID:    d.UserID,
		Place:     d.Place,
		Category:  ticket.Category(d.Category),
		CreatedAt: d.CreatedAt,
	}
}

// TicketRepository はチケットリポジトリのMongoDB実装
// (event_id, place, category) の一意インデックスが席の二重予約を
// コミット時点で最終的に防止する
type TicketRepository struct {
	coll *mongo.Collection
}

// NewTicketRepository はTicketRepositoryを作成する
func NewTicketRepository(db *mongo.Database) *TicketRepository {
	return &TicketRepository{coll: db.Collection(collTickets)}
}

// Create は新しいチケットを作成する
// 一意制約違反は ErrSeatTaken として返す
func (r *TicketRepository) Create(ctx context.Context, tx transaction.Tx, t *ticket.Ticket) error {
	sc := UnwrapSessionContext(tx)
	if sc == nil {
		return errTxRequired
	}
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	doc := ticketDoc{
		ID:        t.ID,
		EventID:   t.EventID,
		UserID:    t.UserID,
		Place:     t.Place,
		Category:  string(t.Category),
		CreatedAt: t.CreatedAt,
	}
	if _, err := r.coll.InsertOne(sc, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ticket.ErrSeatTaken
		}
		return fmt.Errorf("チケット作成に失敗しました: %w", err)
	}
	return nil
}

// ExistsTx はトランザクション内で席が予約済みかを確認する
func (r *TicketRepository) ExistsTx(ctx context.Context, tx transaction.Tx, eventID string, place int, category ticket.Category) (bool, error) {
	sc := UnwrapSessionContext(tx)
	if sc == nil {
		return false, errTxRequired
	}
	filter := bson.M{"event_id": eventID, "place": place, "category": string(category)}
	count, err := r.coll.CountDocuments(sc, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("席の確認に失敗しました: %w", err)
	}
	return count > 0, nil
}

// GetByID はIDからチケットを取得する
func (r *TicketRepository) GetByID(ctx context.Context, id string) (*ticket.Ticket, error) {
	var doc ticketDoc
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ticket.ErrTicketNotFound
		}
		return nil, fmt.Errorf("チケット取得に失敗しました: %w", err)
	}
	return doc.toEntity(), nil
}

// GetByUserID はユーザーのチケット一覧をイベント日時の降順で取得する
func (r *TicketRepository) GetByUserID(ctx context.Context, userID string, limit, offset int) ([]*ticket.Ticket, error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{"user_id": userID}}},
		bson.D{{Key: "$lookup", Value: bson.M{
			"from":         collEvents,
			"localField":   "event_id",
			"foreignField": "_id",
			"as":           "event",
		}}},
		bson.D{{Key: "$unwind", Value: "$event"}},
		bson.D{{Key: "$sort", Value: bson.D{{Key: "event.date", Value: -1}}}},
		bson.D{{Key: "$skip", Value: offset}},
		bson.D{{Key: "$limit", Value: limit}},
	}
	return r.aggregate(ctx, pipeline)
}

// GetByEventID はイベントのチケット一覧をユーザーのメールアドレスの昇順で取得する
func (r *TicketRepository) GetByEventID(ctx context.Context, eventID string, limit, offset int) ([]*ticket.Ticket, error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{"event_id": eventID}}},
		bson.D{{Key: "$lookup", Value: bson.M{
			"from":         collUsers,
			"localField":   "user_id",
			"foreignField": "_id",
			"as":           "user",
		}}},
		bson.D{{Key: "$unwind", Value: "$user"}},
		bson.D{{Key: "$sort", Value: bson.D{{Key: "user.email", Value: 1}}}},
		bson.D{{Key: "$skip", Value: offset}},
		bson.D{{Key: "$limit", Value: limit}},
	}
	return r.aggregate(ctx, pipeline)
}

// CountByEventID はイベントの予約済みチケット数を取得する
func (r *TicketRepository) CountByEventID(ctx context.Context, eventID string) (int, error) {
	count, err := r.coll.CountDocuments(ctx, bson.M{"event_id": eventID})
	if err != nil {
		return 0, fmt.Errorf("チケット数取得に失敗しました: %w", err)
	}
	return int(count), nil
}

// GetByIDTx はトランザクション内でチケットを取得する
func (r *TicketRepository) GetByIDTx(ctx context.Context, tx transaction.Tx, id string) (*ticket.Ticket, error) {
	sc := UnwrapSessionContext(tx)
	if sc == nil {
		return nil, errTxRequired
	}
	var doc ticketDoc
	if err := r.coll.FindOne(sc, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ticket.ErrTicketNotFound
		}
		return nil, fmt.Errorf("チケット取得に失敗しました: %w", err)
	}
	return doc.toEntity(), nil
}

// Delete はチケットを削除する
func (r *TicketRepository) Delete(ctx context.Context, tx transaction.Tx, id string) error {
	sc := UnwrapSessionContext(tx)
	if sc == nil {
		return errTxRequired
	}
	result, err := r.coll.DeleteOne(sc, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("チケット削除に失敗しました: %w", err)
	}
	if result.DeletedCount == 0 {
		return ticket.ErrTicketNotFound
	}
	return nil
}

// List はチケット一覧を取得する
func (r *TicketRepository) List(ctx context.Context, limit, offset int) ([]*ticket.Ticket, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(int64(offset))

	cursor, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("チケット一覧取得に失敗しました: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []ticketDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("チケット一覧取得に失敗しました: %w", err)
	}
	return toTicketEntities(docs), nil
}

func (r *TicketRepository) aggregate(ctx context.Context, pipeline mongo.Pipeline) ([]*ticket.Ticket, error) {
	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("チケット一覧取得に失敗しました: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []ticketDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("チケット一覧取得に失敗しました: %w", err)
	}
	return toTicketEntities(docs), nil
}

func toTicketEntities(docs []ticketDoc) []*ticket.Ticket {
	tickets := make([]*ticket.Ticket, len(docs))
	for i := range docs {
		tickets[i] = docs[i].toEntity()
	}
	return tickets
}

var _ ticket.Repository = (*TicketRepository)(nil)
