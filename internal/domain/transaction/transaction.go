package transaction

import "context"

// Tx はトランザクションを表すインターフェース
// ドメイン層がインフラ層（sqlx・mongo-driver等）に依存しないようにするための抽象化
type Tx interface {
	// Commit はトランザクションをコミットする
	Commit() error
	// Rollback はトランザクションをロールバックする
	Rollback() error
}

// Manager はトランザクションを管理するインターフェース
type Manager interface {
	// Begin は新しいトランザクションを開始する
	Begin(ctx context.Context) (Tx, error)

	// BeginSerializable は直列化可能分離レベルでトランザクションを開始する
	// チケット予約のように複数エンティティをまたぐ検証と更新を
	// 一つの単位として扱う処理で使用する
	BeginSerializable(ctx context.Context) (Tx, error)
}
