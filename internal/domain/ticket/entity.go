package ticket

import (
	"time"

	"github.com/sanosuguru/go-ticket-booking/internal/domain/event"
	"github.com/sanosuguru/go-ticket-booking/internal/domain/user"
)

// Category はチケットのカテゴリを表す
type Category string

const (
	CategoryStandard Category = "standard"
	CategoryPremium  Category = "premium"
	CategoryBar      Category = "bar"
)

// ParseCategory は文字列からカテゴリを解析する
func ParseCategory(s string) (Category, error) {
	switch Category(s) {
	case CategoryStandard, CategoryPremium, CategoryBar:
		return Category(s), nil
	}
	return "", ErrInvalidCategory
}

// Ticket はチケットエンティティを表す
// イベントとユーザーはIDで参照する（所有はしない）
// 同一イベント内の (place, category) の組は高々1枚のチケットにのみ紐づく
type Ticket struct {
	ID        string
	EventID   string
	UserID    string
	Place     int
	Category  Category
	CreatedAt time.Time
}

// NewTicket は新しいチケットを作成する
func NewTicket(eventID, userID string, place int, category Category) *Ticket {
	return &Ticket{
		EventID:   eventID,
		UserID:    userID,
		Place:     place,
		Category:  category,
		CreatedAt: time.Now(),
	}
}

// Validate はチケットの検証を行う
func (t *Ticket) Validate() error {
	if t.EventID == "" {
		return ErrEventIDRequired
	}
	if t.UserID == "" {
		return ErrUserIDRequired
	}
	if t.Place < 1 {
		return ErrInvalidPlace
	}
	if _, err := ParseCategory(string(t.Category)); err != nil {
		return err
	}
	return nil
}

// Details は予約時点のユーザー・イベント情報を含むチケットの完全なビュー
type Details struct {
	Ticket
	User  user.User
	Event event.Event
}
