package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-ticket-booking/internal/application"
	"github.com/sanosuguru/go-ticket-booking/internal/domain/event"
)

type EventHandler struct {
	eventService EventServiceInterface
}

func NewEventHandler(eventService EventServiceInterface) *EventHandler {
	return &EventHandler{eventService: eventService}
}

type CreateEventRequest struct {
	Title       string `json:"title" validate:"required" example:"年末コンサート2026"`
	Date        string `json:"date" validate:"required" example:"2026-12-31T18:00:00+09:00"`
	TicketPrice int64  `json:"ticket_price" validate:"gte=0" example:"6000"`
	TotalPlaces int    `json:"total_places" validate:"required,gt=0" example:"500"`
}

type EventResponse struct {
	ID          string `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Title       string `json:"title" example:"年末コンサート2026"`
	Date        string `json:"date" example:"2026-12-31T18:00:00+09:00"`
	TicketPrice int64  `json:"ticket_price" example:"6000"`
	TotalPlaces int    `json:"total_places" example:"500"`
	CreatedAt   string `json:"created_at" example:"2026-09-01T10:00:00+09:00"`
	UpdatedAt   string `json:"updated_at" example:"2026-09-01T10:00:00+09:00"`
}

type AvailabilityResponse struct {
	EventID     string `json:"event_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	TotalPlaces int    `json:"total_places" example:"500"`
	Booked      int    `json:"booked" example:"120"`
	Available   int    `json:"available" example:"1380"`
}

func toEventResponse(e *event.Event) *EventResponse {
	return &EventResponse{
		ID:          e.ID,
		Title:       e.Title,
		Date:        e.Date.Format(time.RFC3339),
		TicketPrice: e.TicketPrice,
		TotalPlaces: e.TotalPlaces,
		CreatedAt:   e.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   e.UpdatedAt.Format(time.RFC3339),
	}
}

// Create godoc
// @Summary イベントを作成
// @Description 新しいイベントを作成します
// @Tags events
// @Accept json
// @Produce json
// @Param request body CreateEventRequest true "イベント情報"
// @Success 201 {object} EventResponse
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string "同名・同日時のイベントが既に存在"
// @Router /events [post]
func (h *EventHandler) Create(c echo.Context) error {
	var req CreateEventRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	date, err := time.Parse(time.RFC3339, req.Date)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "日時の形式が不正です")
	}

	e, err := h.eventService.CreateEvent(c.Request().Context(), application.CreateEventInput{
		Title:       req.Title,
		Date:        date,
		TicketPrice: req.TicketPrice,
		TotalPlaces: req.TotalPlaces,
	})
	if err != nil {
		if errors.Is(err, event.ErrEventAlreadyExists) {
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, toEventResponse(e))
}

// GetByID godoc
// @Summary イベントを取得
// @Description 指定IDのイベントを取得します
// @Tags events
// @Produce json
// @Param id path string true "イベントID"
// @Success 200 {object} EventResponse
// @Failure 404 {object} map[string]string
// @Router /events/{id} [get]
func (h *EventHandler) GetByID(c echo.Context) error {
	id := c.Param("id")
	e, err := h.eventService.GetEvent(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, event.ErrEventNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, toEventResponse(e))
}

// List godoc
// @Summary イベント一覧を取得
// @Description title でタイトル部分一致検索、day で日付検索ができます
// @Tags events
// @Produce json
// @Param title query string false "タイトル（部分一致）"
// @Param day query string false "日付（YYYY-MM-DD）"
// @Param limit query int false "取得件数" default(20)
// @Param offset query int false "オフセット" default(0)
// @Success 200 {array} EventResponse
// @Router /events [get]
func (h *EventHandler) List(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	ctx := c.Request().Context()

	var (
		events []*event.Event
		err    error
	)
	switch {
	case c.QueryParam("title") != "":
		events, err = h.eventService.SearchEventsByTitle(ctx, c.QueryParam("title"), limit, offset)
	case c.QueryParam("day") != "":
		day, parseErr := time.Parse("2006-01-02", c.QueryParam("day"))
		if parseErr != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "日付の形式が不正です")
		}
		events, err = h.eventService.GetEventsForDay(ctx, day, limit, offset)
	default:
		events, err = h.eventService.ListEvents(ctx, limit, offset)
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	resp := make([]*EventResponse, len(events))
	for i, e := range events {
		resp[i] = toEventResponse(e)
	}
	return c.JSON(http.StatusOK, resp)
}

// Update godoc
// @Summary イベントを更新
// @Description 指定IDのイベントを更新します
// @Tags events
// @Accept json
// @Produce json
// @Param id path string true "イベントID"
// @Param request body CreateEventRequest true "イベント情報"
// @Success 200 {object} EventResponse
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /events/{id} [put]
func (h *EventHandler) Update(c echo.Context) error {
	id := c.Param("id")
	var req CreateEventRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	date, err := time.Parse(time.RFC3339, req.Date)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "日時の形式が不正です")
	}

	e, err := h.eventService.UpdateEvent(c.Request().Context(), application.UpdateEventInput{
		ID:          id,
		Title:       req.Title,
		Date:        date,
		TicketPrice: req.TicketPrice,
		TotalPlaces: req.TotalPlaces,
	})
	if err != nil {
		if errors.Is(err, event.ErrEventNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, toEventResponse(e))
}

// Delete godoc
// @Summary イベントを削除
// @Description 指定IDのイベントを削除します
// @Tags events
// @Param id path string true "イベントID"
// @Success 204
// @Failure 404 {object} map[string]string
// @Router /events/{id} [delete]
func (h *EventHandler) Delete(c echo.Context) error {
	id := c.Param("id")
	if err := h.eventService.DeleteEvent(c.Request().Context(), id); err != nil {
		if errors.Is(err, event.ErrEventNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

// GetAvailability godoc
// @Summary イベントの空席状況を取得
// @Description カテゴリ横断の予約済み数と残席数を返します
// @Tags events
// @Produce json
// @Param id path string true "イベントID"
// @Success 200 {object} AvailabilityResponse
// @Failure 404 {object} map[string]string
// @Router /events/{id}/availability [get]
func (h *EventHandler) GetAvailability(c echo.Context) error {
	id := c.Param("id")
	a, err := h.eventService.GetAvailability(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, event.ErrEventNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, AvailabilityResponse{
		EventID:     a.EventID,
		TotalPlaces: a.TotalPlaces,
		Booked:      a.Booked,
		Available:   a.Available,
	})
}
