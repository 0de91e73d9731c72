package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sanosuguru/go-ticket-booking/internal/domain/event"
	redisinfra "github.com/sanosuguru/go-ticket-booking/internal/infrastructure/redis"
)

func newEventServiceDeps() (*MockEventRepository, *MockTicketRepository, *MockAvailabilityCache, *EventService) {
	eventRepo := new(MockEventRepository)
	ticketRepo := new(MockTicketRepository)
	cache := new(MockAvailabilityCache)
	service := NewEventService(eventRepo, ticketRepo, cache, 5*time.Minute)
	return eventRepo, ticketRepo, cache, service
}

func TestEventService_CreateEvent(t *testing.T) {
	eventRepo, _, _, service := newEventServiceDeps()
	ctx := context.Background()

	eventRepo.On("Create", ctx, mock.AnythingOfType("*event.Event")).Return(nil)

	result, err := service.CreateEvent(ctx, CreateEventInput{
		Title:       "年末コンサート",
		Date:        time.Date(2026, 12, 31, 18, 0, 0, 0, time.UTC),
		TicketPrice: 6000,
		TotalPlaces: 500,
	})

	require.NoError(t, err)
	assert.Equal(t, "年末コンサート", result.Title)
	assert.Equal(t, int64(6000), result.TicketPrice)
}

func TestEventService_CreateEvent_ValidationError(t *testing.T) {
	eventRepo, _, _, service := newEventServiceDeps()

	result, err := service.CreateEvent(context.Background(), CreateEventInput{
		Title:       "",
		Date:        time.Now(),
		TicketPrice: 6000,
		TotalPlaces: 500,
	})

	require.Error(t, err)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, event.ErrEventTitleRequired)
	eventRepo.AssertNotCalled(t, "Create")
}

func TestEventService_SearchEventsByTitle_Empty(t *testing.T) {
	eventRepo, _, _, service := newEventServiceDeps()

	result, err := service.SearchEventsByTitle(context.Background(), "", 20, 0)

	require.NoError(t, err)
	assert.Empty(t, result)
	eventRepo.AssertNotCalled(t, "SearchByTitle")
}

func TestEventService_GetAvailability_CacheHit(t *testing.T) {
	eventRepo, ticketRepo, cache, service := newEventServiceDeps()
	ctx := context.Background()

	ev := &event.Event{ID: "event-1", Title: "年末コンサート", TotalPlaces: 100}
	eventRepo.On("GetByID", ctx, "event-1").Return(ev, nil)
	cache.On("GetBookedCount", ctx, "event-1").Return(40, nil)

	result, err := service.GetAvailability(ctx, "event-1")

	require.NoError(t, err)
	assert.Equal(t, 100, result.TotalPlaces)
	assert.Equal(t, 40, result.Booked)
	// 各席は3カテゴリで予約できるため総数は 100 * 3
	assert.Equal(t, 260, result.Available)

	ticketRepo.AssertNotCalled(t, "CountByEventID")
}

func TestEventService_GetAvailability_CacheMiss(t *testing.T) {
	eventRepo, ticketRepo, cache, service := newEventServiceDeps()
	ctx := context.Background()

	ev := &event.Event{ID: "event-1", Title: "年末コンサート", TotalPlaces: 100}
	eventRepo.On("GetByID", ctx, "event-1").Return(ev, nil)
	cache.On("GetBookedCount", ctx, "event-1").Return(0, redisinfra.ErrCacheMiss)
	ticketRepo.On("CountByEventID", ctx, "event-1").Return(25, nil)
	cache.On("SetBookedCount", ctx, "event-1", 25, 5*time.Minute).Return(nil)

	result, err := service.GetAvailability(ctx, "event-1")

	require.NoError(t, err)
	assert.Equal(t, 25, result.Booked)
	cache.AssertCalled(t, "SetBookedCount", ctx, "event-1", 25, 5*time.Minute)
}

func TestEventService_GetAvailability_EventNotFound(t *testing.T) {
	eventRepo, _, _, service := newEventServiceDeps()
	ctx := context.Background()

	eventRepo.On("GetByID", ctx, "nonexistent").Return(nil, event.ErrEventNotFound)

	result, err := service.GetAvailability(ctx, "nonexistent")

	require.Error(t, err)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, event.ErrEventNotFound)
}

func TestEventService_GetAvailability_WithoutCache(t *testing.T) {
	eventRepo := new(MockEventRepository)
	ticketRepo := new(MockTicketRepository)
	service := NewEventService(eventRepo, ticketRepo, nil, 5*time.Minute)
	ctx := context.Background()

	ev := &event.Event{ID: "event-1", Title: "年末コンサート", TotalPlaces: 10}
	eventRepo.On("GetByID", ctx, "event-1").Return(ev, nil)
	ticketRepo.On("CountByEventID", ctx, "event-1").Return(3, nil)

	result, err := service.GetAvailability(ctx, "event-1")

	require.NoError(t, err)
	assert.Equal(t, 3, result.Booked)
	assert.Equal(t, 27, result.Available)
}

func TestEventService_UpdateEvent(t *testing.T) {
	eventRepo, _, _, service := newEventServiceDeps()
	ctx := context.Background()

	existing := &event.Event{
		ID: "event-1", Title: "旧タイトル",
		Date: time.Date(2026, 12, 31, 18, 0, 0, 0, time.UTC), TicketPrice: 6000, TotalPlaces: 500,
	}
	eventRepo.On("GetByID", ctx, "event-1").Return(existing, nil)
	eventRepo.On("Update", ctx, mock.AnythingOfType("*event.Event")).Return(nil)

	result, err := service.UpdateEvent(ctx, UpdateEventInput{
		ID: "event-1", Title: "新タイトル",
		Date: existing.Date, TicketPrice: 8000, TotalPlaces: 600,
	})

	require.NoError(t, err)
	assert.Equal(t, "新タイトル", result.Title)
	assert.Equal(t, int64(8000), result.TicketPrice)
}

func TestEventService_GetEventsForDay(t *testing.T) {
	eventRepo, _, _, service := newEventServiceDeps()
	ctx := context.Background()

	day := time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC)
	expected := []*event.Event{{ID: "event-1"}}
	eventRepo.On("GetForDay", ctx, day, 20, 0).Return(expected, nil)

	result, err := service.GetEventsForDay(ctx, day, 0, 0)

	require.NoError(t, err)
	assert.Len(t, result, 1)
}
