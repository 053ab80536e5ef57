package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"llama-arcade/internal/game"
	"llama-arcade/internal/service"
)

// Games is the game surface the handlers need.
type Games interface {
	Games() []game.Game
	Play(ctx context.Context, userID string, gameType game.GameType, bet int64) (*service.PlayResult, error)
}

// GameHandler handles game endpoints.
type GameHandler struct {
	games Games
}

// NewGameHandler creates a new GameHandler.
func NewGameHandler(games Games) *GameHandler {
	return &GameHandler{games: games}
}

type playRequest struct {
	GameType  string `json:"gameType" validate:"required"`
	BetAmount int64  `json:"betAmount" validate:"gt=0"`
}

// HandleList handles GET /api/games.
func (h *GameHandler) HandleList(c echo.Context) error {
	return c.JSON(http.StatusOK, nonNil(h.games.Games()))
}

// HandlePlay handles POST /api/games/play.
func (h *GameHandler) HandlePlay(c echo.Context) error {
	req, err := bindAndValidate[playRequest](c)
	if err != nil {
		return err
	}

	result, err := h.games.Play(c.Request().Context(), UserID(c), game.GameType(req.GameType), req.BetAmount)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}
