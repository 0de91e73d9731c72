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

	"github.com/sanosuguru/go-ticket-booking/internal/domain/transaction"
	"github.com/sanosuguru/go-ticket-booking/internal/domain/user"
)

type userDoc struct {
	ID        string    `bson:"_id"`
	Name      string    `bson:"name"`
	Email     string    `bson:"email"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func (d *userDoc) toEntity() *user.User {
	return &user.User{
		ID:        d.ID,
		Name:      d.Name,
		Email:     d.Email,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

// UserRepository はユーザーリポジトリのMongoDB実装
type UserRepository struct {
	coll *mongo.Collection
}

// NewUserRepository はUserRepositoryを作成する
func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{coll: db.Collection(collUsers)}
}

// Create は新しいユーザーを作成する
func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	doc := userDoc{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return user.ErrEmailAlreadyExists
		}
		return fmt.Errorf("ユーザー作成に失敗しました: %w", err)
	}
	return nil
}

// GetByID はIDからユーザーを取得する
func (r *UserRepository) GetByID(ctx context.Context, id string) (*user.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// GetByEmail はメールアドレスからユーザーを取得する（完全一致）
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

// SearchByName は名前の部分一致でユーザー一覧を取得する
func (r *UserRepository) SearchByName(ctx context.Context, name string, limit, offset int) ([]*user.User, error) {
	filter := bson.M{"name": bson.M{"$regex": name, "$options": "i"}}
	opts := options.Find().
		SetSort(bson.D{{Key: "name", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(int64(offset))

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("ユーザー検索に失敗しました: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []userDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("ユーザー検索に失敗しました: %w", err)
	}
	users := make([]*user.User, len(docs))
	for i := range docs {
		users[i] = docs[i].toEntity()
	}
	return users, nil
}

// List はユーザー一覧を取得する
func (r *UserRepository) List(ctx context.Context, limit, offset int) ([]*user.User, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(int64(offset))

	cursor, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("ユーザー一覧取得に失敗しました: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []userDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("ユーザー一覧取得に失敗しました: %w", err)
	}
	users := make([]*user.User, len(docs))
	for i := range docs {
		users[i] = docs[i].toEntity()
	}
	return users, nil
}

// Update はユーザーを更新する
func (r *UserRepository) Update(ctx context.Context, u *user.User) error {
	update := bson.M{"$set": bson.M{
		"name":       u.Name,
		"email":      u.Email,
		"updated_at": time.Now(),
	}}
	result, err := r.coll.UpdateByID(ctx, u.ID, update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return user.ErrEmailAlreadyExists
		}
		return fmt.Errorf("ユーザー更新に失敗しました: %w", err)
	}
	if result.MatchedCount == 0 {
		return user.ErrUserNotFound
	}
	return nil
}

// Delete はユーザーを削除する
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	result, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("ユーザー削除に失敗しました: %w", err)
	}
	if result.DeletedCount == 0 {
		return user.ErrUserNotFound
	}
	return nil
}

// ExistsTx はトランザクション内でユーザーの存在を確認する
func (r *UserRepository) ExistsTx(ctx context.Context, tx transaction.Tx, id string) (bool, error) {
	sc := UnwrapSessionContext(tx)
	if sc == nil {
		return false, errTxRequired
	}
	count, err := r.coll.CountDocuments(sc, bson.M{"_id": id}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("ユーザー存在確認に失敗しました: %w", err)
	}
	return count > 0, nil
}

// GetByIDTx はトランザクション内でユーザーを取得する
func (r *UserRepository) GetByIDTx(ctx context.Context, tx transaction.Tx, id string) (*user.User, error) {
	sc := UnwrapSessionContext(tx)
	if sc == nil {
		return nil, errTxRequired
	}
	return r.findOne(sc, bson.M{"_id": id})
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*user.User, error) {
	var doc userDoc
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, user.ErrUserNotFound
		}
		return nil, fmt.Errorf("ユーザー取得に失敗しました: %w", err)
	}
	return doc.toEntity(), nil
}

var _ user.Repository = (*UserRepository)(nil)
