package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sanosuguru/go-ticket-booking/internal/domain/account"
	"github.com/sanosuguru/go-ticket-booking/internal/domain/event"
	"github.com/sanosuguru/go-ticket-booking/internal/domain/ticket"
	"github.com/sanosuguru/go-ticket-booking/internal/domain/transaction"
	"github.com/sanosuguru/go-ticket-booking/internal/domain/user"
	redisinfra "github.com/sanosuguru/go-ticket-booking/internal/infrastructure/redis"
)

// === Mock implementations ===

// MockTxManager implements transaction.Manager
type MockTxManager struct {
	mock.Mock
}

func (m *MockTxManager) Begin(ctx context.Context) (transaction.Tx, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(transaction.Tx), args.Error(1)
}

func (m *MockTxManager) BeginSerializable(ctx context.Context) (transaction.Tx, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(transaction.Tx), args.Error(1)
}

// MockTx implements transaction.Tx
type MockTx struct {
	mock.Mock
}

func (m *MockTx) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockTx) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

// MockUserRepository implements user.Repository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, u *user.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*user.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserRepository) SearchByName(ctx context.Context, name string, limit, offset int) ([]*user.User, error) {
	args := m.Called(ctx, name, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*user.User), args.Error(1)
}

func (m *MockUserRepository) List(ctx context.Context, limit, offset int) ([]*user.User, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*user.User), args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, u *user.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *MockUserRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUserRepository) ExistsTx(ctx context.Context, tx transaction.Tx, id string) (bool, error) {
	args := m.Called(ctx, tx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) GetByIDTx(ctx context.Context, tx transaction.Tx, id string) (*user.User, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

// MockAccountRepository implements account.Repository
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) GetByUserID(ctx context.Context, userID string) (*account.Account, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

func (m *MockAccountRepository) Debit(ctx context.Context, tx transaction.Tx, userID string, amount int64) error {
	args := m.Called(ctx, tx, userID, amount)
	return args.Error(0)
}

func (m *MockAccountRepository) Credit(ctx context.Context, tx transaction.Tx, userID string, amount int64) error {
	args := m.Called(ctx, tx, userID, amount)
	return args.Error(0)
}

// MockEventRepository implements event.Repository
type MockEventRepository struct {
	mock.Mock
}

func (m *MockEventRepository) Create(ctx context.Context, e *event.Event) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *MockEventRepository) GetByID(ctx context.Context, id string) (*event.Event, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*event.Event), args.Error(1)
}

func (m *MockEventRepository) SearchByTitle(ctx context.Context, title string, limit, offset int) ([]*event.Event, error) {
	args := m.Called(ctx, title, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*event.Event), args.Error(1)
}

func (m *MockEventRepository) GetForDay(ctx context.Context, day time.Time, limit, offset int) ([]*event.Event, error) {
	args := m.Called(ctx, day, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*event.Event), args.Error(1)
}

func (m *MockEventRepository) List(ctx context.Context, limit, offset int) ([]*event.Event, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*event.Event), args.Error(1)
}

func (m *MockEventRepository) Update(ctx context.Context, e *event.Event) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *MockEventRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockEventRepository) GetByIDTx(ctx context.Context, tx transaction.Tx, id string) (*event.Event, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*event.Event), args.Error(1)
}

// MockTicketRepository implements ticket.Repository
type MockTicketRepository struct {
	mock.Mock
}

func (m *MockTicketRepository) Create(ctx context.Context, tx transaction.Tx, t *ticket.Ticket) error {
	args := m.Called(ctx, tx, t)
	return args.Error(0)
}

func (m *MockTicketRepository) ExistsTx(ctx context.Context, tx transaction.Tx, eventID string, place int, category ticket.Category) (bool, error) {
	args := m.Called(ctx, tx, eventID, place, category)
	return args.Bool(0), args.Error(1)
}

func (m *MockTicketRepository) GetByID(ctx context.Context, id string) (*ticket.Ticket, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ticket.Ticket), args.Error(1)
}

func (m *MockTicketRepository) GetByUserID(ctx context.Context, userID string, limit, offset int) ([]*ticket.Ticket, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*ticket.Ticket), args.Error(1)
}

func (m *MockTicketRepository) GetByEventID(ctx context.Context, eventID string, limit, offset int) ([]*ticket.Ticket, error) {
	args := m.Called(ctx, eventID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*ticket.Ticket), args.Error(1)
}

func (m *MockTicketRepository) CountByEventID(ctx context.Context, eventID string) (int, error) {
	args := m.Called(ctx, eventID)
	return args.Int(0), args.Error(1)
}

func (m *MockTicketRepository) GetByIDTx(ctx context.Context, tx transaction.Tx, id string) (*ticket.Ticket, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ticket.Ticket), args.Error(1)
}

func (m *MockTicketRepository) Delete(ctx context.Context, tx transaction.Tx, id string) error {
	args := m.Called(ctx, tx, id)
	return args.Error(0)
}

func (m *MockTicketRepository) List(ctx context.Context, limit, offset int) ([]*ticket.Ticket, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*ticket.Ticket), args.Error(1)
}

// MockLockManager implements redisinfra.LockManagerInterface
type MockLockManager struct {
	mock.Mock
}

func (m *MockLockManager) AcquireLock(ctx context.Context, key string, ttl time.Duration) (redisinfra.Lock, error) {
	args := m.Called(ctx, key, ttl)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(redisinfra.Lock), args.Error(1)
}

// MockLock implements redisinfra.Lock
type MockLock struct {
	mock.Mock
}

func (m *MockLock) Release(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockLock) Extend(ctx context.Context, ttl time.Duration) error {
	args := m.Called(ctx, ttl)
	return args.Error(0)
}

// MockAvailabilityCache implements redisinfra.AvailabilityCacheInterface
type MockAvailabilityCache struct {
	mock.Mock
}

func (m *MockAvailabilityCache) GetBookedCount(ctx context.Context, eventID string) (int, error) {
	args := m.Called(ctx, eventID)
	return args.Int(0), args.Error(1)
}

func (m *MockAvailabilityCache) SetBookedCount(ctx context.Context, eventID string, count int, ttl time.Duration) error {
	args := m.Called(ctx, eventID, count, ttl)
	return args.Error(0)
}

func (m *MockAvailabilityCache) Invalidate(ctx context.Context, eventID string) error {
	args := m.Called(ctx, eventID)
	return args.Error(0)
}

// === Test helper ===

type testDeps struct {
	txManager   *MockTxManager
	tx          *MockTx
	ticketRepo  *MockTicketRepository
	userRepo    *MockUserRepository
	eventRepo   *MockEventRepository
	accountRepo *MockAccountRepository
	lockManager *MockLockManager
	lock        *MockLock
	cache       *MockAvailabilityCache
	service     *BookingService
}

func newTestDeps() *testDeps {
	txm := new(MockTxManager)
	tx := new(MockTx)
	ticketRepo := new(MockTicketRepository)
	userRepo := new(MockUserRepository)
	eventRepo := new(MockEventRepository)
	accountRepo := new(MockAccountRepository)
	lockManager := new(MockLockManager)
	lock := new(MockLock)
	cache := new(MockAvailabilityCache)

	service := NewBookingService(txm, ticketRepo, userRepo, eventRepo, accountRepo, lockManager, cache, nil)

	return &testDeps{
		txManager:   txm,
		tx:          tx,
		ticketRepo:  ticketRepo,
		userRepo:    userRepo,
		eventRepo:   eventRepo,
		accountRepo: accountRepo,
		lockManager: lockManager,
		lock:        lock,
		cache:       cache,
		service:     service,
	}
}

func testUser() *user.User {
	return &user.User{ID: "user-1", Name: "山田太郎", Email: "taro@example.com"}
}

func testEvent(price int64) *event.Event {
	return &event.Event{
		ID:          "event-1",
		Title:       "年末コンサート",
		Date:        time.Date(2026, 12, 31, 18, 0, 0, 0, time.UTC),
		TicketPrice: price,
		TotalPlaces: 100,
	}
}

func bookInput() BookTicketInput {
	return BookTicketInput{
		UserID:   "user-1",
		EventID:  "event-1",
		Place:    10,
		Category: ticket.CategoryStandard,
	}
}

// === Tests ===

func TestBookingService_BookTicket_Success(t *testing.T) {
	deps := newTestDeps()
	ctx := context.Background()
	input := bookInput()

	deps.lockManager.On("AcquireLock", ctx, "seat:event-1:10:standard", 10*time.Second).
		Return(deps.lock, nil)
	deps.lock.On("Release", ctx).Return(nil)

	deps.txManager.On("BeginSerializable", ctx).Return(deps.tx, nil)
	deps.tx.On("Rollback").Return(nil)
	deps.tx.On("Commit").Return(nil)

	deps.userRepo.On("GetByIDTx", ctx, deps.tx, "user-1").Return(testUser(), nil)
	deps.eventRepo.On("GetByIDTx", ctx, deps.tx, "event-1").Return(testEvent(6000), nil)
	deps.ticketRepo.On("ExistsTx", ctx, deps.tx, "event-1", 10, ticket.CategoryStandard).Return(false, nil)
	deps.accountRepo.On("Debit", ctx, deps.tx, "user-1", int64(6000)).Return(nil)
	deps.ticketRepo.On("Create", ctx, deps.tx, mock.AnythingOfType("*ticket.Ticket")).Return(nil)

	deps.cache.On("Invalidate", ctx, "event-1").Return(nil)

	result, err := deps.service.BookTicket(ctx, input)

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, "event-1", result.EventID)
	assert.Equal(t, "user-1", result.UserID)
	assert.Equal(t, 10, result.Place)
	assert.Equal(t, ticket.CategoryStandard, result.Category)
	assert.Equal(t, "山田太郎", result.User.Name)
	assert.Equal(t, int64(6000), result.Event.TicketPrice)

	// 引き落としはちょうど一回
	deps.accountRepo.AssertNumberOfCalls(t, "Debit", 1)
	deps.txManager.AssertExpectations(t)
	deps.ticketRepo.AssertExpectations(t)
	deps.tx.AssertExpectations(t)
}

func TestBookingService_BookTicket_FreeEventSkipsDebit(t *testing.T) {
	deps := newTestDeps()
	ctx := context.Background()
	input := bookInput()

	deps.lockManager.On("AcquireLock", ctx, mock.AnythingOfType("string"), 10*time.Second).
		Return(deps.lock, nil)
	deps.lock.On("Release", ctx).Return(nil)

	deps.txManager.On("BeginSerializable", ctx).Return(deps.tx, nil)
	deps.tx.On("Rollback").Return(nil)
	deps.tx.On("Commit").Return(nil)

	deps.userRepo.On("GetByIDTx", ctx, deps.tx, "user-1").Return(testUser(), nil)
	deps.eventRepo.On("GetByIDTx", ctx, deps.tx, "event-1").Return(testEvent(0), nil)
	deps.ticketRepo.On("ExistsTx", ctx, deps.tx, "event-1", 10, ticket.CategoryStandard).Return(false, nil)
	deps.ticketRepo.On("Create", ctx, deps.tx, mock.AnythingOfType("*ticket.Ticket")).Return(nil)
	deps.cache.On("Invalidate", ctx, "event-1").Return(nil)

	result, err := deps.service.BookTicket(ctx, input)

	require.NoError(t, err)
	require.NotNil(t, result)
	deps.accountRepo.AssertNotCalled(t, "Debit")
}

func TestBookingService_BookTicket_SeatTaken(t *testing.T) {
	deps := newTestDeps()
	ctx := context.Background()
	input := bookInput()

	deps.lockManager.On("AcquireLock", ctx, mock.AnythingOfType("string"), 10*time.Second).
		Return(deps.lock, nil)
	deps.lock.On("Release", ctx).Return(nil)

	deps.txManager.On("BeginSerializable", ctx).Return(deps.tx, nil)
	deps.tx.On("Rollback").Return(nil)

	deps.userRepo.On("GetByIDTx", ctx, deps.tx, "user-1").Return(testUser(), nil)
	deps.eventRepo.On("GetByIDTx", ctx, deps.tx, "event-1").Return(testEvent(6000), nil)
	deps.ticketRepo.On("ExistsTx", ctx, deps.tx, "event-1", 10, ticket.CategoryStandard).Return(true, nil)

	result, err := deps.service.BookTicket(ctx, input)

	require.Error(t, err)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, ticket.ErrSeatTaken)

	// 引き落としもチケット作成もコミットも行われない
	deps.accountRepo.AssertNotCalled(t, "Debit")
	deps.ticketRepo.AssertNotCalled(t, "Create")
	deps.tx.AssertNotCalled(t, "Commit")
}

func TestBookingService_BookTicket_InsufficientFunds(t *testing.T) {
	deps := newTestDeps()
	ctx := context.Background()
	input := bookInput()

	deps.lockManager.On("AcquireLock", ctx, mock.AnythingOfType("string"), 10*time.Second).
		Return(deps.lock, nil)
	deps.lock.On("Release", ctx).Return(nil)

	deps.txManager.On("BeginSerializable", ctx).Return(deps.tx, nil)
	deps.tx.On("Rollback").Return(nil)

	deps.userRepo.On("GetByIDTx", ctx, deps.tx, "user-1").Return(testUser(), nil)
	deps.eventRepo.On("GetByIDTx", ctx, deps.tx, "event-1").Return(testEvent(6000), nil)
	deps.ticketRepo.On("ExistsTx", ctx, deps.tx, "event-1", 10, ticket.CategoryStandard).Return(false, nil)
	deps.accountRepo.On("Debit", ctx, deps.tx, "user-1", int64(6000)).Return(account.ErrInsufficientFunds)

	result, err := deps.service.BookTicket(ctx, input)

	require.Error(t, err)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, account.ErrInsufficientFunds)

	// チケットは作成されず、席は空いたまま
	deps.ticketRepo.AssertNotCalled(t, "Create")
	deps.tx.AssertNotCalled(t, "Commit")
}

func TestBookingService_BookTicket_UserNotFound(t *testing.T) {
	deps := newTestDeps()
	ctx := context.Background()
	input := bookInput()

	deps.lockManager.On("AcquireLock", ctx, mock.AnythingOfType("string"), 10*time.Second).
		Return(deps.lock, nil)
	deps.lock.On("Release", ctx).Return(nil)

	deps.txManager.On("BeginSerializable", ctx).Return(deps.tx, nil)
	deps.tx.On("Rollback").Return(nil)

	deps.userRepo.On("GetByIDTx", ctx, deps.tx, "user-1").Return(nil, user.ErrUserNotFound)

	result, err := deps.service.BookTicket(ctx, input)

	require.Error(t, err)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, user.ErrUserNotFound)

	deps.eventRepo.AssertNotCalled(t, "GetByIDTx")
	deps.accountRepo.AssertNotCalled(t, "Debit")
	deps.tx.AssertNotCalled(t, "Commit")
}

func TestBookingService_BookTicket_EventNotFound(t *testing.T) {
	deps := newTestDeps()
	ctx := context.Background()
	input := bookInput()

	deps.lockManager.On("AcquireLock", ctx, mock.AnythingOfType("string"), 10*time.Second).
		Return(deps.lock, nil)
	deps.lock.On("Release", ctx).Return(nil)

	deps.txManager.On("BeginSerializable", ctx).Return(deps.tx, nil)
	deps.tx.On("Rollback").Return(nil)

	deps.userRepo.On("GetByIDTx", ctx, deps.tx, "user-1").Return(testUser(), nil)
	deps.eventRepo.On("GetByIDTx", ctx, deps.tx, "event-1").Return(nil, event.ErrEventNotFound)

	result, err := deps.service.BookTicket(ctx, input)

	require.Error(t, err)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, event.ErrEventNotFound)
	deps.tx.AssertNotCalled(t, "Commit")
}

func TestBookingService_BookTicket_PlaceOutOfRange(t *testing.T) {
	deps := newTestDeps()
	ctx := context.Background()
	input := bookInput()
	input.Place = 101 // TotalPlaces は 100

	deps.lockManager.On("AcquireLock", ctx, mock.AnythingOfType("string"), 10*time.Second).
		Return(deps.lock, nil)
	deps.lock.On("Release", ctx).Return(nil)

	deps.txManager.On("BeginSerializable", ctx).Return(deps.tx, nil)
	deps.tx.On("Rollback").Return(nil)

	deps.userRepo.On("GetByIDTx", ctx, deps.tx, "user-1").Return(testUser(), nil)
	deps.eventRepo.On("GetByIDTx", ctx, deps.tx, "event-1").Return(testEvent(6000), nil)

	result, err := deps.service.BookTicket(ctx, input)

	require.Error(t, err)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, ticket.ErrInvalidPlace)
	deps.ticketRepo.AssertNotCalled(t, "ExistsTx")
}

func TestBookingService_BookTicket_InvalidInput(t *testing.T) {
	t.Run("席番号ゼロ", func(t *testing.T) {
		deps := newTestDeps()
		input := bookInput()
		input.Place = 0

		result, err := deps.service.BookTicket(context.Background(), input)

		require.Error(t, err)
		assert.Nil(t, result)
		assert.ErrorIs(t, err, ticket.ErrInvalidPlace)
		deps.lockManager.AssertNotCalled(t, "AcquireLock")
	})

	t.Run("不正なカテゴリ", func(t *testing.T) {
		deps := newTestDeps()
		input := bookInput()
		input.Category = ticket.Category("vip")

		result, err := deps.service.BookTicket(context.Background(), input)

		require.Error(t, err)
		assert.Nil(t, result)
		assert.ErrorIs(t, err, ticket.ErrInvalidCategory)
		deps.txManager.AssertNotCalled(t, "BeginSerializable")
	})
}

func TestBookingService_BookTicket_LockNotAcquired(t *testing.T) {
	deps := newTestDeps()
	ctx := context.Background()
	input := bookInput()

	// 別のリクエストが同じ席を処理中の場合は席予約済みとして扱う
	deps.lockManager.On("AcquireLock", ctx, mock.AnythingOfType("string"), 10*time.Second).
		Return(nil, redisinfra.ErrLockNotAcquired)

	result, err := deps.service.BookTicket(ctx, input)

	require.Error(t, err)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, ticket.ErrSeatTaken)
	deps.txManager.AssertNotCalled(t, "BeginSerializable")
}

func TestBookingService_BookTicket_CreateFailed(t *testing.T) {
	deps := newTestDeps()
	ctx := context.Background()
	input := bookInput()

	deps.lockManager.On("AcquireLock", ctx, mock.AnythingOfType("string"), 10*time.Second).
		Return(deps.lock, nil)
	deps.lock.On("Release", ctx).Return(nil)

	deps.txManager.On("BeginSerializable", ctx).Return(deps.tx, nil)
	deps.tx.On("Rollback").Return(nil)

	deps.userRepo.On("GetByIDTx", ctx, deps.tx, "user-1").Return(testUser(), nil)
	deps.eventRepo.On("GetByIDTx", ctx, deps.tx, "event-1").Return(testEvent(6000), nil)
	deps.ticketRepo.On("ExistsTx", ctx, deps.tx, "event-1", 10, ticket.CategoryStandard).Return(false, nil)
	deps.accountRepo.On("Debit", ctx, deps.tx, "user-1", int64(6000)).Return(nil)
	deps.ticketRepo.On("Create", ctx, deps.tx, mock.AnythingOfType("*ticket.Ticket")).
		Return(ticket.ErrSeatTaken)

	result, err := deps.service.BookTicket(ctx, input)

	require.Error(t, err)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, ticket.ErrSeatTaken)

	// コミットされないため引き落としもロールバックされる
	deps.tx.AssertNotCalled(t, "Commit")
	deps.tx.AssertCalled(t, "Rollback")
}

func TestBookingService_BookTicket_CommitFailed(t *testing.T) {
	deps := newTestDeps()
	ctx := context.Background()
	input := bookInput()

	deps.lockManager.On("AcquireLock", ctx, mock.AnythingOfType("string"), 10*time.Second).
		Return(deps.lock, nil)
	deps.lock.On("Release", ctx).Return(nil)

	deps.txManager.On("BeginSerializable", ctx).Return(deps.tx, nil)
	deps.tx.On("Rollback").Return(nil)
	deps.tx.On("Commit").Return(errors.New("commit failed"))

	deps.userRepo.On("GetByIDTx", ctx, deps.tx, "user-1").Return(testUser(), nil)
	deps.eventRepo.On("GetByIDTx", ctx, deps.tx, "event-1").Return(testEvent(6000), nil)
	deps.ticketRepo.On("ExistsTx", ctx, deps.tx, "event-1", 10, ticket.CategoryStandard).Return(false, nil)
	deps.accountRepo.On("Debit", ctx, deps.tx, "user-1", int64(6000)).Return(nil)
	deps.ticketRepo.On("Create", ctx, deps.tx, mock.AnythingOfType("*ticket.Ticket")).Return(nil)

	result, err := deps.service.BookTicket(ctx, input)

	require.Error(t, err)
	assert.Nil(t, result)
	assert.Contains(t, err.Error(), "コミットに失敗")
	deps.cache.AssertNotCalled(t, "Invalidate")
}

func TestBookingService_CancelTicket_Success(t *testing.T) {
	deps := newTestDeps()
	ctx := context.Background()

	booked := &ticket.Ticket{
		ID: "ticket-1", EventID: "event-1", UserID: "user-1",
		Place: 10, Category: ticket.CategoryStandard,
	}
	deps.txManager.On("Begin", ctx).Return(deps.tx, nil)
	deps.tx.On("Rollback").Return(nil)
	deps.tx.On("Commit").Return(nil)

	deps.ticketRepo.On("GetByIDTx", ctx, deps.tx, "ticket-1").Return(booked, nil)
	deps.eventRepo.On("GetByIDTx", ctx, deps.tx, "event-1").Return(testEvent(6000), nil)
	deps.ticketRepo.On("Delete", ctx, deps.tx, "ticket-1").Return(nil)
	deps.accountRepo.On("Credit", ctx, deps.tx, "user-1", int64(6000)).Return(nil)
	deps.cache.On("Invalidate", ctx, "event-1").Return(nil)

	err := deps.service.CancelTicket(ctx, "ticket-1")

	require.NoError(t, err)
	// チケット価格が払い戻される
	deps.accountRepo.AssertCalled(t, "Credit", ctx, deps.tx, "user-1", int64(6000))
	deps.tx.AssertExpectations(t)
}

func TestBookingService_CancelTicket_FreeEventNoRefund(t *testing.T) {
	deps := newTestDeps()
	ctx := context.Background()

	booked := &ticket.Ticket{
		ID: "ticket-1", EventID: "event-1", UserID: "user-1",
		Place: 10, Category: ticket.CategoryStandard,
	}
	deps.txManager.On("Begin", ctx).Return(deps.tx, nil)
	deps.tx.On("Rollback").Return(nil)
	deps.tx.On("Commit").Return(nil)

	deps.ticketRepo.On("GetByIDTx", ctx, deps.tx, "ticket-1").Return(booked, nil)
	deps.eventRepo.On("GetByIDTx", ctx, deps.tx, "event-1").Return(testEvent(0), nil)
	deps.ticketRepo.On("Delete", ctx, deps.tx, "ticket-1").Return(nil)
	deps.cache.On("Invalidate", ctx, "event-1").Return(nil)

	err := deps.service.CancelTicket(ctx, "ticket-1")

	require.NoError(t, err)
	deps.accountRepo.AssertNotCalled(t, "Credit")
}

func TestBookingService_CancelTicket_NotFound(t *testing.T) {
	deps := newTestDeps()
	ctx := context.Background()

	deps.txManager.On("Begin", ctx).Return(deps.tx, nil)
	deps.tx.On("Rollback").Return(nil)

	deps.ticketRepo.On("GetByIDTx", ctx, deps.tx, "nonexistent").Return(nil, ticket.ErrTicketNotFound)

	err := deps.service.CancelTicket(ctx, "nonexistent")

	require.Error(t, err)
	assert.ErrorIs(t, err, ticket.ErrTicketNotFound)
	deps.tx.AssertNotCalled(t, "Commit")
}

func TestBookingService_GetUserTickets_PagingNormalized(t *testing.T) {
	deps := newTestDeps()
	ctx := context.Background()

	tickets := []*ticket.Ticket{{ID: "ticket-1"}, {ID: "ticket-2"}}

	// limit 0 はデフォルト 20 に、マイナスの offset は 0 に補正される
	deps.ticketRepo.On("GetByUserID", ctx, "user-1", 20, 0).Return(tickets, nil).Once()
	result, err := deps.service.GetUserTickets(ctx, "user-1", 0, -5)
	require.NoError(t, err)
	assert.Len(t, result, 2)

	// limit は 100 で頭打ち
	deps.ticketRepo.On("GetByUserID", ctx, "user-1", 100, 40).Return(tickets, nil).Once()
	_, err = deps.service.GetUserTickets(ctx, "user-1", 1000, 40)
	require.NoError(t, err)

	deps.ticketRepo.AssertExpectations(t)
}

func TestBookingService_GetEventTickets(t *testing.T) {
	deps := newTestDeps()
	ctx := context.Background()

	tickets := []*ticket.Ticket{{ID: "ticket-1"}}
	deps.ticketRepo.On("GetByEventID", ctx, "event-1", 20, 0).Return(tickets, nil)

	result, err := deps.service.GetEventTickets(ctx, "event-1", 0, 0)

	require.NoError(t, err)
	assert.Len(t, result, 1)
}

func TestBookingService_BookTicket_WithoutLockManager(t *testing.T) {
	// ロックとキャッシュなしでも予約は成立する（ストレージ制約が唯一の守り）
	deps := newTestDeps()
	ctx := context.Background()
	input := bookInput()

	service := NewBookingService(
		deps.txManager, deps.ticketRepo, deps.userRepo, deps.eventRepo, deps.accountRepo,
		nil, nil, nil,
	)

	deps.txManager.On("BeginSerializable", ctx).Return(deps.tx, nil)
	deps.tx.On("Rollback").Return(nil)
	deps.tx.On("Commit").Return(nil)

	deps.userRepo.On("GetByIDTx", ctx, deps.tx, "user-1").Return(testUser(), nil)
	deps.eventRepo.On("GetByIDTx", ctx, deps.tx, "event-1").Return(testEvent(6000), nil)
	deps.ticketRepo.On("ExistsTx", ctx, deps.tx, "event-1", 10, ticket.CategoryStandard).Return(false, nil)
	deps.accountRepo.On("Debit", ctx, deps.tx, "user-1", int64(6000)).Return(nil)
	deps.ticketRepo.On("Create", ctx, deps.tx, mock.AnythingOfType("*ticket.Ticket")).Return(nil)

	result, err := service.BookTicket(ctx, input)

	require.NoError(t, err)
	require.NotNil(t, result)
}
