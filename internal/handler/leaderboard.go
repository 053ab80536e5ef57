package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"llama-arcade/internal/service"
)

// Leaderboards computes rankings.
type Leaderboards interface {
	Top(ctx context.Context, board service.LeaderboardType, limit int) (any, error)
}

// LeaderboardHandler serves the public rankings.
type LeaderboardHandler struct {
	boards Leaderboards
}

// NewLeaderboardHandler creates a new LeaderboardHandler.
func NewLeaderboardHandler(boards Leaderboards) *LeaderboardHandler {
	return &LeaderboardHandler{boards: boards}
}

// HandleTop handles GET /api/leaderboard/:type.
func (h *LeaderboardHandler) HandleTop(c echo.Context) error {
	limit, err := queryLimit(c)
	if err != nil {
		return err
	}
	ranks, err := h.boards.Top(c.Request().Context(), service.LeaderboardType(c.Param("type")), limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ranks)
}
