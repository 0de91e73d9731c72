package handler

import (
	"context"
	"time"

	"github.com/sanosuguru/go-ticket-booking/internal/application"
	"github.com/sanosuguru/go-ticket-booking/internal/domain/account"
	"github.com/sanosuguru/go-ticket-booking/internal/domain/event"
	"github.com/sanosuguru/go-ticket-booking/internal/domain/ticket"
	"github.com/sanosuguru/go-ticket-booking/internal/domain/user"
)

// BookingServiceInterface は予約サービスのインターフェース
type BookingServiceInterface interface {
	BookTicket(ctx context.Context, input application.BookTicketInput) (*ticket.Details, error)
	CancelTicket(ctx context.Context, id string) error
	GetTicket(ctx context.Context, id string) (*ticket.Ticket, error)
	GetUserTickets(ctx context.Context, userID string, limit, offset int) ([]*ticket.Ticket, error)
	GetEventTickets(ctx context.Context, eventID string, limit, offset int) ([]*ticket.Ticket, error)
}

// EventServiceInterface はイベントサービスのインターフェース
type EventServiceInterface interface {
	CreateEvent(ctx context.Context, input application.CreateEventInput) (*event.Event, error)
	GetEvent(ctx context.Context, id string) (*event.Event, error)
	SearchEventsByTitle(ctx context.Context, title string, limit, offset int) ([]*event.Event, error)
	GetEventsForDay(ctx context.Context, day time.Time, limit, offset int) ([]*event.Event, error)
	ListEvents(ctx context.Context, limit, offset int) ([]*event.Event, error)
	UpdateEvent(ctx context.Context, input application.UpdateEventInput) (*event.Event, error)
	DeleteEvent(ctx context.Context, id string) error
	GetAvailability(ctx context.Context, eventID string) (*application.Availability, error)
}

// UserServiceInterface はユーザーサービスのインターフェース
type UserServiceInterface interface {
	CreateUser(ctx context.Context, input application.CreateUserInput) (*user.User, error)
	GetUser(ctx context.Context, id string) (*user.User, error)
	GetUserByEmail(ctx context.Context, email string) (*user.User, error)
	SearchUsersByName(ctx context.Context, name string, limit, offset int) ([]*user.User, error)
	UpdateUser(ctx context.Context, input application.UpdateUserInput) (*user.User, error)
	DeleteUser(ctx context.Context, id string) error
}

// AccountServiceInterface は口座サービスのインターフェース
type AccountServiceInterface interface {
	RefillAccount(ctx context.Context, userID string, amount int64) (*account.Account, error)
	GetAccount(ctx context.Context, userID string) (*account.Account, error)
}
