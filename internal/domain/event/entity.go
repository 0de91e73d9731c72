package event

import "time"

// Event はイベントエンティティを表す
// チケット価格は最小通貨単位の整数で保持する
type Event struct {
	ID          string
	Title       string
	Date        time.Time
	TicketPrice int64
	TotalPlaces int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewEvent は新しいイベントを作成する
func NewEvent(title string, date time.Time, ticketPrice int64, totalPlaces int) *Event {
	now := time.Now()
	return &Event{
		Title:       title,
		Date:        date,
		TicketPrice: ticketPrice,
		TotalPlaces: totalPlaces,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// HasPlace は指定の席番号がこのイベントに存在するかを返す
func (e *Event) HasPlace(place int) bool {
	return place >= 1 && place <= e.TotalPlaces
}

// Validate はイベントの検証を行う
func (e *Event) Validate() error {
	if e.Title == "" {
		return ErrEventTitleRequired
	}
	if e.Date.IsZero() {
		return ErrEventDateRequired
	}
	if e.TicketPrice < 0 {
		return ErrInvalidTicketPrice
	}
	if e.TotalPlaces <= 0 {
		return ErrInvalidTotalPlaces
	}
	return nil
}
