package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"llama-arcade/internal/model"
)

// Mining is the llama mining surface.
type Mining interface {
	Progress(ctx context.Context, userID string) (*model.MiningState, error)
	Feed(ctx context.Context, userID string) (*model.MiningState, error)
	Claim(ctx context.Context, userID string) (decimal.Decimal, *model.Balance, error)
}

// MiningHandler handles Larry's mining endpoints.
type MiningHandler struct {
	mining Mining
}

// NewMiningHandler creates a new MiningHandler.
func NewMiningHandler(mining Mining) *MiningHandler {
	return &MiningHandler{mining: mining}
}

type claimResponse struct {
	Message    string          `json:"message"`
	Claimed    decimal.Decimal `json:"claimed"`
	NewBalance *model.Balance  `json:"newBalance"`
}

// HandleProgress handles GET /api/mining.
func (h *MiningHandler) HandleProgress(c echo.Context) error {
	state, err := h.mining.Progress(c.Request().Context(), UserID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, state)
}

// HandleFeed handles POST /api/mining/feed.
func (h *MiningHandler) HandleFeed(c echo.Context) error {
	state, err := h.mining.Feed(c.Request().Context(), UserID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, state)
}

// HandleClaim handles POST /api/mining/claim.
func (h *MiningHandler) HandleClaim(c echo.Context) error {
	claimed, balance, err := h.mining.Claim(c.Request().Context(), UserID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, claimResponse{
		Message:    "Mining claimed",
		Claimed:    claimed,
		NewBalance: balance,
	})
}
