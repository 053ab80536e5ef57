package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"llama-arcade/internal/model"
)

// Depositor credits balances on behalf of an operator.
type Depositor interface {
	Deposit(ctx context.Context, operatorID, userID string, amount decimal.Decimal, currency model.Currency) (*model.Balance, error)
}

// AdminHandler handles operator endpoints.
type AdminHandler struct {
	accounts Depositor
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(accounts Depositor) *AdminHandler {
	return &AdminHandler{accounts: accounts}
}

type depositRequest struct {
	UserID   string          `json:"userId" validate:"required"`
	Amount   decimal.Decimal `json:"amount"`
	Currency model.Currency  `json:"currency" validate:"required,oneof=LLAMA TICKETS"`
}

type depositResponse struct {
	Message    string         `json:"message"`
	NewBalance *model.Balance `json:"newBalance"`
}

// HandleDeposit handles POST /api/admin/deposit.
func (h *AdminHandler) HandleDeposit(c echo.Context) error {
	req, err := bindAndValidate[depositRequest](c)
	if err != nil {
		return err
	}

	balance, err := h.accounts.Deposit(c.Request().Context(), UserID(c), req.UserID, req.Amount, req.Currency)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, depositResponse{
		Message:    "Deposit completed",
		NewBalance: balance,
	})
}
