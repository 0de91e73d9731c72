package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-ticket-booking/internal/domain/account"
	"github.com/sanosuguru/go-ticket-booking/internal/domain/user"
)

type AccountHandler struct {
	accountService AccountServiceInterface
}

func NewAccountHandler(accountService AccountServiceInterface) *AccountHandler {
	return &AccountHandler{accountService: accountService}
}

type RefillAccountRequest struct {
	Amount int64 `json:"amount" validate:"required,gt=0" example:"10000"`
}

type AccountResponse struct {
	UserID    string `json:"user_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Balance   int64  `json:"balance" example:"10000"`
	UpdatedAt string `json:"updated_at" example:"2026-09-01T10:00:00+09:00"`
}

func toAccountResponse(a *account.Account) *AccountResponse {
	return &AccountResponse{
		UserID:    a.UserID,
		Balance:   a.Balance,
		UpdatedAt: a.UpdatedAt.Format(time.RFC3339),
	}
}

// Refill godoc
// @Summary 口座に入金
// @Description ユーザーの口座残高を加算します。口座が無ければ作成します
// @Tags accounts
// @Accept json
// @Produce json
// @Param id path string true "ユーザーID"
// @Param request body RefillAccountRequest true "入金額"
// @Success 200 {object} AccountResponse
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /users/{id}/account/refill [post]
func (h *AccountHandler) Refill(c echo.Context) error {
	userID := c.Param("id")
	var req RefillAccountRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	a, err := h.accountService.RefillAccount(c.Request().Context(), userID, req.Amount)
	if err != nil {
		switch {
		case errors.Is(err, user.ErrUserNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, account.ErrInvalidAmount):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}
	return c.JSON(http.StatusOK, toAccountResponse(a))
}

// Get godoc
// @Summary 口座を取得
// @Description ユーザーの口座残高を取得します
// @Tags accounts
// @Produce json
// @Param id path string true "ユーザーID"
// @Success 200 {object} AccountResponse
// @Failure 404 {object} map[string]string
// @Router /users/{id}/account [get]
func (h *AccountHandler) Get(c echo.Context) error {
	userID := c.Param("id")
	a, err := h.accountService.GetAccount(c.Request().Context(), userID)
	if err != nil {
		if errors.Is(err, account.ErrAccountNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, toAccountResponse(a))
}
