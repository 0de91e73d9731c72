package event

import "errors"

// Event ドメインのエラー定義
var (
	ErrEventNotFound      = errors.New("イベントが見つかりません")
	ErrEventTitleRequired = errors.New("イベントタイトルは必須です")
	ErrEventDateRequired  = errors.New("イベント日時は必須です")
	ErrInvalidTicketPrice = errors.New("チケット価格は0以上である必要があります")
	ErrInvalidTotalPlaces = errors.New("席数は1以上である必要があります")
	ErrEventAlreadyExists = errors.New("同じタイトルと日時のイベントが既に存在します")
)
