package ticket

import "errors"

// Ticket ドメインのエラー定義
var (
	ErrTicketNotFound  = errors.New("チケットが見つかりません")
	ErrSeatTaken       = errors.New("この席は既に予約されています")
	ErrEventIDRequired = errors.New("イベントIDは必須です")
	ErrUserIDRequired  = errors.New("ユーザーIDは必須です")
	ErrInvalidPlace    = errors.New("席番号が不正です")
	ErrInvalidCategory = errors.New("カテゴリが不正です")
)
