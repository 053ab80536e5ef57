// Package service implements the transaction orchestrator: each operation
// validates input, then runs its ledger writes as one database transaction.
package service

import (
	"errors"

	"llama-arcade/internal/game"
	"llama-arcade/internal/repository"
)

// Errors surfaced to callers. Ledger and game errors are re-exported so
// handlers only need this package.
var (
	ErrUserNotFound       = repository.ErrUserNotFound
	ErrInsufficientFunds  = repository.ErrInsufficientFunds
	ErrTaskNotAvailable   = repository.ErrTaskNotAvailable
	ErrItemNotFound       = repository.ErrItemNotFound
	ErrNothingToClaim     = repository.ErrNothingToClaim
	ErrInvalidGameType    = game.ErrInvalidGameType
	ErrInvalidBet         = game.ErrInvalidBet
	ErrInvalidAmount      = errors.New("amount must be a positive whole number")
	ErrInvalidDirection   = errors.New("invalid conversion direction")
	ErrInvalidTaskType    = errors.New("invalid task type")
	ErrInvalidLeaderboard = errors.New("invalid leaderboard type")
	ErrInvalidCurrency    = errors.New("invalid currency")
	ErrForbidden          = errors.New("admin privileges required")
)
