package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"llama-arcade/internal/model"
)

// Wallet converts between the two currencies.
type Wallet interface {
	Convert(ctx context.Context, userID string, amount decimal.Decimal, dir model.ConversionDirection) (*model.Balance, error)
}

// WalletHandler handles currency conversion.
type WalletHandler struct {
	wallet Wallet
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(wallet Wallet) *WalletHandler {
	return &WalletHandler{wallet: wallet}
}

type convertRequest struct {
	Amount    decimal.Decimal           `json:"amount"`
	Direction model.ConversionDirection `json:"direction" validate:"required,oneof=llama_to_tickets tickets_to_llama"`
}

type convertResponse struct {
	Message    string         `json:"message"`
	NewBalance *model.Balance `json:"newBalance"`
}

// HandleConvert handles POST /api/convert.
func (h *WalletHandler) HandleConvert(c echo.Context) error {
	req, err := bindAndValidate[convertRequest](c)
	if err != nil {
		return err
	}

	balance, err := h.wallet.Convert(c.Request().Context(), UserID(c), req.Amount, req.Direction)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, convertResponse{
		Message:    "Conversion completed",
		NewBalance: balance,
	})
}
