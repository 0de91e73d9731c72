package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sanosuguru/go-ticket-booking/internal/domain/account"
	"github.com/sanosuguru/go-ticket-booking/internal/domain/transaction"
)

type accountDoc struct {
	UserID    string    `bson:"_id"`
	Balance   int64     `bson:"balance"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func (d *accountDoc) toEntity() *account.Account {
	return &account.Account{
		UserID:    d.UserID,
		Balance:   d.Balance,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

// AccountRepository は口座リポジトリのMongoDB実装
type AccountRepository struct {
	coll *mongo.Collection
}

// NewAccountRepository はAccountRepositoryを作成する
func NewAccountRepository(db *mongo.Database) *AccountRepository {
	return &AccountRepository{coll: db.Collection(collAccounts)}
}

// GetByUserID はユーザーIDから口座を取得する
func (r *AccountRepository) GetByUserID(ctx context.Context, userID string) (*account.Account, error) {
	var doc accountDoc
	if err := r.coll.FindOne(ctx, bson.M{"_id": userID}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, account.ErrAccountNotFound
		}
		return nil, fmt.Errorf("口座取得に失敗しました: %w", err)
	}
	return doc.toEntity(), nil
}

// Debit は残高から金額を引き落とす
// 残高条件付きの単一更新でチェックと減算をアトミックに行う
func (r *AccountRepository) Debit(ctx context.Context, tx transaction.Tx, userID string, amount int64) error {
	if amount <= 0 {
		return account.ErrInvalidAmount
	}
	sc := UnwrapSessionContext(tx)
	if sc == nil {
		return errTxRequired
	}

	filter := bson.M{"_id": userID, "balance": bson.M{"$gte": amount}}
	update := bson.M{
		"$inc": bson.M{"balance": -amount},
		"$set": bson.M{"updated_at": time.Now()},
	}
	result, err := r.coll.UpdateOne(sc, filter, update)
	if err != nil {
		return fmt.Errorf("引き落としに失敗しました: %w", err)
	}
	if result.MatchedCount == 0 {
		// 口座不存在と残高不足を区別する
		count, err := r.coll.CountDocuments(sc, bson.M{"_id": userID}, options.Count().SetLimit(1))
		if err != nil {
			return fmt.Errorf("口座確認に失敗しました: %w", err)
		}
		if count == 0 {
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
	sc := UnwrapSessionContext(tx)
	if sc == nil {
		return errTxRequired
	}

	now := time.Now()
	update := bson.M{
		"$inc":         bson.M{"balance": amount},
		"$set":         bson.M{"updated_at": now},
		"$setOnInsert": bson.M{"created_at": now},
	}
	opts := options.Update().SetUpsert(true)
	if _, err := r.coll.UpdateByID(sc, userID, update, opts); err != nil {
		return fmt.Errorf("入金に失敗しました: %w", err)
	}
	return nil
}

var _ account.Repository = (*AccountRepository)(nil)
