package service

import (
	"context"

	"llama-arcade/internal/repository"
)

// LeaderboardType names one of the rankings.
type LeaderboardType string

const (
	BoardEarners   LeaderboardType = "earners"
	BoardWinners   LeaderboardType = "winners"
	BoardReferrers LeaderboardType = "referrers"
)

// LeaderboardService computes rankings fresh on every call.
type LeaderboardService struct {
	store        *repository.Store
	defaultLimit int
	maxLimit     int
}

// NewLeaderboardService creates a new LeaderboardService instance.
func NewLeaderboardService(store *repository.Store, defaultLimit, maxLimit int) *LeaderboardService {
	return &LeaderboardService{
		store:        store,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
	}
}

// Top returns the ranking for board. The concrete element type depends on
// the board: EarnerRank, WinnerRank or ReferrerRank.
func (s *LeaderboardService) Top(ctx context.Context, board LeaderboardType, limit int) (any, error) {
	limit = clampLimit(limit, s.defaultLimit, s.maxLimit)

	switch board {
	case BoardEarners:
		return s.store.Leaderboard.TopEarners(ctx, limit)
	case BoardWinners:
		return s.store.Leaderboard.TopGameWinners(ctx, limit)
	case BoardReferrers:
		return s.store.Leaderboard.TopReferrers(ctx, limit)
	default:
		return nil, ErrInvalidLeaderboard
	}
}
