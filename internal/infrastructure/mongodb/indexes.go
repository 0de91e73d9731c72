package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// コレクション名
const (
	collUsers    = "users"
	collAccounts = "accounts"
	collEvents   = "events"
	collTickets  = "tickets"
)

// EnsureIndexes はアプリケーションが前提とするインデックスを作成する
// 席の一意インデックスは二重予約防止の最終防衛線なので必ず作成する
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		collUsers: {
			{
				Keys:    bson.D{{Key: "email", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{
				Keys: bson.D{{Key: "name", Value: 1}},
			},
		},
		collEvents: {
			{
				Keys:    bson.D{{Key: "title", Value: 1}, {Key: "date", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{
				Keys: bson.D{{Key: "date", Value: 1}},
			},
		},
		collTickets: {
			{
				Keys: bson.D{
					{Key: "event_id", Value: 1},
					{Key: "place", Value: 1},
					{Key: "category", Value: 1},
				},
				Options: options.Index().SetUnique(true),
			},
			{
				Keys: bson.D{{Key: "user_id", Value: 1}},
			},
		},
	}

	for coll, models := range indexes {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("インデックス作成に失敗しました (%s): %w", coll, err)
		}
	}
	return nil
}
