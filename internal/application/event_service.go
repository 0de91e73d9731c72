package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sanosuguru/go-ticket-booking/internal/domain/event"
	"github.com/sanosuguru/go-ticket-booking/internal/domain/ticket"
	redisinfra "github.com/sanosuguru/go-ticket-booking/internal/infrastructure/redis"
)

// EventService はイベントのCRUDと空席照会のユースケースを提供する
type EventService struct {
	eventRepo  event.Repository
	ticketRepo ticket.Repository
	cache      redisinfra.AvailabilityCacheInterface
	cacheTTL   time.Duration
}

func NewEventService(er event.Repository, tr ticket.Repository, cache redisinfra.AvailabilityCacheInterface, cacheTTL time.Duration) *EventService {
	return &EventService{eventRepo: er, ticketRepo: tr, cache: cache, cacheTTL: cacheTTL}
}

type CreateEventInput struct {
	Title       string
	Date        time.Time
	TicketPrice int64
	TotalPlaces int
}

func (s *EventService) CreateEvent(ctx context.Context, input CreateEventInput) (*event.Event, error) {
	e := event.NewEvent(input.Title, input.Date, input.TicketPrice, input.TotalPlaces)
	if err := e.Validate(); err != nil {
		return nil, fmt.Errorf("バリデーションエラー: %w", err)
	}
	if err := s.eventRepo.Create(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *EventService) GetEvent(ctx context.Context, id string) (*event.Event, error) {
	return s.eventRepo.GetByID(ctx, id)
}

func (s *EventService) SearchEventsByTitle(ctx context.Context, title string, limit, offset int) ([]*event.Event, error) {
	if title == "" {
		return []*event.Event{}, nil
	}
	limit, offset = normalizePaging(limit, offset)
	return s.eventRepo.SearchByTitle(ctx, title, limit, offset)
}

func (s *EventService) GetEventsForDay(ctx context.Context, day time.Time, limit, offset int) ([]*event.Event, error) {
	limit, offset = normalizePaging(limit, offset)
	return s.eventRepo.GetForDay(ctx, day, limit, offset)
}

func (s *EventService) ListEvents(ctx context.Context, limit, offset int) ([]*event.Event, error) {
	limit, offset = normalizePaging(limit, offset)
	return s.eventRepo.List(ctx, limit, offset)
}

type UpdateEventInput struct {
	ID          string
	Title       string
	Date        time.Time
	TicketPrice int64
	TotalPlaces int
}

func (s *EventService) UpdateEvent(ctx context.Context, input UpdateEventInput) (*event.Event, error) {
	e, err := s.eventRepo.GetByID(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	e.Title = input.Title
	e.Date = input.Date
	e.TicketPrice = input.TicketPrice
	e.TotalPlaces = input.TotalPlaces
	if err := e.Validate(); err != nil {
		return nil, fmt.Errorf("バリデーションエラー: %w", err)
	}
	if err := s.eventRepo.Update(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *EventService) DeleteEvent(ctx context.Context, id string) error {
	return s.eventRepo.Delete(ctx, id)
}

// Availability はイベントの空席状況を表す
type Availability struct {
	EventID     string
	TotalPlaces int
	Booked      int
	Available   int
}

// GetAvailability はイベントの空席状況を取得する
// 予約済み数はキャッシュを優先し、ミス時はストアを数えてキャッシュを温める
func (s *EventService) GetAvailability(ctx context.Context, eventID string) (*Availability, error) {
	e, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}

	booked, err := s.bookedCount(ctx, eventID)
	if err != nil {
		return nil, err
	}

	// 各席はカテゴリごとに予約できる
	total := e.TotalPlaces * categoryCount()
	return &Availability{
		EventID:     eventID,
		TotalPlaces: e.TotalPlaces,
		Booked:      booked,
		Available:   total - booked,
	}, nil
}

func (s *EventService) bookedCount(ctx context.Context, eventID string) (int, error) {
	if s.cache != nil {
		if count, err := s.cache.GetBookedCount(ctx, eventID); err == nil {
			return count, nil
		} else if !errors.Is(err, redisinfra.ErrCacheMiss) {
			return 0, err
		}
	}

	count, err := s.ticketRepo.CountByEventID(ctx, eventID)
	if err != nil {
		return 0, err
	}
	if s.cache != nil {
		_ = s.cache.SetBookedCount(ctx, eventID, count, s.cacheTTL)
	}
	return count, nil
}

func categoryCount() int {
	return len([]ticket.Category{ticket.CategoryStandard, ticket.CategoryPremium, ticket.CategoryBar})
}
