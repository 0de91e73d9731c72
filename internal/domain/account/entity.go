package account

import "time"

// Account はユーザー口座エンティティを表す
// 残高は最小通貨単位（円・セント等）の整数で保持する
type Account struct {
	UserID    string
	Balance   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewAccount は残高ゼロの新しい口座を作成する
func NewAccount(userID string) *Account {
	now := time.Now()
	return &Account{
		UserID:    userID,
		Balance:   0,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// CanPay は指定金額を支払えるかを返す
func (a *Account) CanPay(amount int64) bool {
	return a.Balance >= amount
}
