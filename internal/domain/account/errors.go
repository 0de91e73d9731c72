package account

import "errors"

// Account ドメインのエラー定義
var (
	ErrAccountNotFound   = errors.New("口座が見つかりません")
	ErrInsufficientFunds = errors.New("残高が不足しています")
	ErrInvalidAmount     = errors.New("金額は1以上である必要があります")
)
