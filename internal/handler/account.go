package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"llama-arcade/internal/model"
)

// Accounts is the account surface the handlers need.
type Accounts interface {
	GetUser(ctx context.Context, userID string) (*model.User, error)
	Transactions(ctx context.Context, userID string, limit int) ([]*model.Transaction, error)
	Stats(ctx context.Context, userID string) ([]*model.GameStats, error)
	Referrals(ctx context.Context, userID string) ([]*model.Referral, error)
}

// AccountHandler serves profile and history endpoints.
type AccountHandler struct {
	accounts Accounts
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accounts Accounts) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

// HandleUser handles GET /api/auth/user.
func (h *AccountHandler) HandleUser(c echo.Context) error {
	user, err := h.accounts.GetUser(c.Request().Context(), UserID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// HandleTransactions handles GET /api/transactions.
func (h *AccountHandler) HandleTransactions(c echo.Context) error {
	limit, err := queryLimit(c)
	if err != nil {
		return err
	}
	txs, err := h.accounts.Transactions(c.Request().Context(), UserID(c), limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, nonNil(txs))
}

// HandleStats handles GET /api/stats.
func (h *AccountHandler) HandleStats(c echo.Context) error {
	stats, err := h.accounts.Stats(c.Request().Context(), UserID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, nonNil(stats))
}

// HandleReferrals handles GET /api/referrals.
func (h *AccountHandler) HandleReferrals(c echo.Context) error {
	refs, err := h.accounts.Referrals(c.Request().Context(), UserID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, nonNil(refs))
}

// nonNil makes empty lists encode as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
