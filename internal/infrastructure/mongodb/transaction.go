package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"

	"github.com/sanosuguru/go-ticket-booking/internal/domain/transaction"
)

// SessionTx は mongo.Session を transaction.Tx インターフェースでラップする
type SessionTx struct {
	session mongo.Session
	ctx     mongo.SessionContext
	ended   bool
}

// Commit はトランザクションをコミットする
func (t *SessionTx) Commit() error {
	if t.ended {
		return nil
	}
	t.ended = true
	defer t.session.EndSession(context.Background())
	return t.session.CommitTransaction(t.ctx)
}

// Rollback はトランザクションをロールバックする
// Commit後の呼び出しは何もしない（defer tx.Rollback() パターンのため）
func (t *SessionTx) Rollback() error {
	if t.ended {
		return nil
	}
	t.ended = true
	defer t.session.EndSession(context.Background())
	return t.session.AbortTransaction(t.ctx)
}

// TxManager は mongo.Client を使用したトランザクションマネージャー
type TxManager struct {
	client *mongo.Client
}

// NewTxManager は新しい TxManager を作成する
func NewTxManager(client *mongo.Client) *TxManager {
	return &TxManager{client: client}
}

// Begin は新しいトランザクションを開始する
func (m *TxManager) Begin(ctx context.Context) (transaction.Tx, error) {
	return m.begin(ctx, options.Transaction().
		SetWriteConcern(writeconcern.Majority()))
}

// BeginSerializable は最も強い一貫性保証でトランザクションを開始する
// MongoDBにはserializable分離レベルが無いため、snapshot read concern と
// majority write concern の組で代替する。席の一意性は一意インデックスが保証する
func (m *TxManager) BeginSerializable(ctx context.Context) (transaction.Tx, error) {
	return m.begin(ctx, options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority()))
}

func (m *TxManager) begin(ctx context.Context, opts *options.TransactionOptions) (transaction.Tx, error) {
	session, err := m.client.StartSession()
	if err != nil {
		return nil, err
	}
	if err := session.StartTransaction(opts); err != nil {
		session.EndSession(ctx)
		return nil, err
	}
	return &SessionTx{
		session: session,
		ctx:     mongo.NewSessionContext(ctx, session),
	}, nil
}

// UnwrapSessionContext は transaction.Tx からセッションコンテキストを取り出す
// リポジトリ実装で使用する
func UnwrapSessionContext(tx transaction.Tx) mongo.SessionContext {
	if wrapper, ok := tx.(*SessionTx); ok {
		return wrapper.ctx
	}
	return nil
}

var _ transaction.Manager = (*TxManager)(nil)
