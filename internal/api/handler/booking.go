package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-ticket-booking/internal/application"
	"github.com/sanosuguru/go-ticket-booking/internal/domain/account"
	"github.com/sanosuguru/go-ticket-booking/internal/domain/event"
	"github.com/sanosuguru/go-ticket-booking/internal/domain/ticket"
	"github.com/sanosuguru/go-ticket-booking/internal/domain/user"
)

type BookingHandler struct {
	service BookingServiceInterface
}

func NewBookingHandler(s BookingServiceInterface) *BookingHandler {
	return &BookingHandler{service: s}
}

type BookTicketRequest struct {
	EventID  string `json:"event_id" validate:"required" example:"550e8400-e29b-41d4-a716-446655440000"`
	Place    int    `json:"place" validate:"required,gt=0" example:"12"`
	Category string `json:"category" validate:"required" example:"standard"`
}

type TicketResponse struct {
	ID        string    `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	EventID   string    `json:"event_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	UserID    string    `json:"user_id" example:"user-123"`
	Place     int       `json:"place" example:"12"`
	Category  string    `json:"category" example:"standard"`
	CreatedAt time.Time `json:"created_at"`
}

type TicketDetailsResponse struct {
	TicketResponse
	UserName    string    `json:"user_name" example:"山田太郎"`
	UserEmail   string    `json:"user_email" example:"taro@example.com"`
	EventTitle  string    `json:"event_title" example:"年末コンサート"`
	EventDate   time.Time `json:"event_date"`
	TicketPrice int64     `json:"ticket_price" example:"6000"`
}

func toTicketResponse(t *ticket.Ticket) TicketResponse {
	return TicketResponse{
		ID:        t.ID,
		EventID:   t.EventID,
		UserID:    t.UserID,
		Place:     t.Place,
		Category:  string(t.Category),
		CreatedAt: t.CreatedAt,
	}
}

func toTicketDetailsResponse(d *ticket.Details) TicketDetailsResponse {
	return TicketDetailsResponse{
		TicketResponse: toTicketResponse(&d.Ticket),
		UserName:       d.User.Name,
		UserEmail:      d.User.Email,
		EventTitle:     d.Event.Title,
		EventDate:      d.Event.Date,
		TicketPrice:    d.Event.TicketPrice,
	}
}

// Book godoc
// @Summary チケットを予約
// @Description 席の確保と残高の引き落としをアトミックに行います
// @Tags tickets
// @Accept json
// @Produce json
// @Param X-User-ID header string true "ユーザーID"
// @Param request body BookTicketRequest true "予約情報"
// @Success 201 {object} TicketDetailsResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string "席が予約済み、または残高不足"
// @Router /tickets [post]
func (h *BookingHandler) Book(c echo.Context) error {
	userID := c.Request().Header.Get("X-User-ID")
	if userID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "ユーザーIDが必要です")
	}
	var req BookTicketRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	d, err := h.service.BookTicket(c.Request().Context(), application.BookTicketInput{
		UserID:   userID,
		EventID:  req.EventID,
		Place:    req.Place,
		Category: ticket.Category(req.Category),
	})
	if err != nil {
		switch {
		case errors.Is(err, user.ErrUserNotFound), errors.Is(err, event.ErrEventNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, ticket.ErrSeatTaken), errors.Is(err, account.ErrInsufficientFunds):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		case errors.Is(err, ticket.ErrInvalidPlace), errors.Is(err, ticket.ErrInvalidCategory):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}
	return c.JSON(http.StatusCreated, toTicketDetailsResponse(d))
}

// GetByID godoc
// @Summary チケットを取得
// @Description 指定IDのチケットを取得します
// @Tags tickets
// @Produce json
// @Param id path string true "チケットID"
// @Success 200 {object} TicketResponse
// @Failure 404 {object} map[string]string
// @Router /tickets/{id} [get]
func (h *BookingHandler) GetByID(c echo.Context) error {
	id := c.Param("id")
	t, err := h.service.GetTicket(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, ticket.ErrTicketNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, toTicketResponse(t))
}

// GetUserTickets godoc
// @Summary ユーザーのチケット一覧を取得
// @Description イベント日時の降順で返します
// @Tags tickets
// @Produce json
// @Param id path string true "ユーザーID"
// @Param limit query int false "取得件数" default(20)
// @Param offset query int false "オフセット" default(0)
// @Success 200 {array} TicketResponse
// @Router /users/{id}/tickets [get]
func (h *BookingHandler) GetUserTickets(c echo.Context) error {
	userID := c.Param("id")
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))

	tickets, err := h.service.GetUserTickets(c.Request().Context(), userID, limit, offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	resp := make([]TicketResponse, len(tickets))
	for i, t := range tickets {
		resp[i] = toTicketResponse(t)
	}
	return c.JSON(http.StatusOK, resp)
}

// GetEventTickets godoc
// @Summary イベントのチケット一覧を取得
// @Description 予約者のメールアドレスの昇順で返します
// @Tags tickets
// @Produce json
// @Param id path string true "イベントID"
// @Param limit query int false "取得件数" default(20)
// @Param offset query int false "オフセット" default(0)
// @Success 200 {array} TicketResponse
// @Router /events/{id}/tickets [get]
func (h *BookingHandler) GetEventTickets(c echo.Context) error {
	eventID := c.Param("id")
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))

	tickets, err := h.service.GetEventTickets(c.Request().Context(), eventID, limit, offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	resp := make([]TicketResponse, len(tickets))
	for i, t := range tickets {
		resp[i] = toTicketResponse(t)
	}
	return c.JSON(http.StatusOK, resp)
}

// Cancel godoc
// @Summary チケットをキャンセル
// @Description チケットを削除し、チケット価格を口座に払い戻します
// @Tags tickets
// @Param id path string true "チケットID"
// @Success 204
// @Failure 404 {object} map[string]string
// @Router /tickets/{id} [delete]
func (h *BookingHandler) Cancel(c echo.Context) error {
	id := c.Param("id")
	if err := h.service.CancelTicket(c.Request().Context(), id); err != nil {
		if errors.Is(err, ticket.ErrTicketNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}
