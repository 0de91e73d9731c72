package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sanosuguru/go-ticket-booking/internal/config"
)

// NewClient はMongoDBクライアントを作成する
func NewClient(ctx context.Context, cfg *config.MongoConfig) (*mongo.Client, error) {
	opts := options.Client().
		ApplyURI(cfg.URI()).
		SetConnectTimeout(10 * time.Second)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("MongoDB接続に失敗しました: %w", err)
	}
	return client, nil
}

// Database はアプリケーションのデータベースを返す
func Database(client *mongo.Client, cfg *config.MongoConfig) *mongo.Database {
	return client.Database(cfg.DBName)
}

// Ping はMongoDB接続を確認する
func Ping(ctx context.Context, client *mongo.Client) error {
	if err := client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("MongoDB接続に失敗しました: %w", err)
	}
	return nil
}
