package repository

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"llama-arcade/internal/model"
)

// GameStatsRepository maintains per-(user, game type) aggregates.
type GameStatsRepository struct {
	db DBTX
}

// NewGameStatsRepository creates a new GameStatsRepository instance.
func NewGameStatsRepository(db DBTX) *GameStatsRepository {
	return &GameStatsRepository{db: db}
}

// Record counts one play in a single upsert. Winnings and the highest win only
// move when won is true.
func (r *GameStatsRepository) Record(ctx context.Context, userID, gameType string, won bool, winAmount decimal.Decimal) (*model.GameStats, error) {
	const query = `
		INSERT INTO game_stats (user_id, game_type, games_played, games_won, total_winnings, highest_win)
		VALUES (
			$1, $2, 1,
			CASE WHEN $3::boolean THEN 1 ELSE 0 END,
			CASE WHEN $3::boolean THEN $4::numeric ELSE 0 END,
			CASE WHEN $3::boolean THEN $4::numeric ELSE 0 END
		)
		ON CONFLICT (user_id, game_type) DO UPDATE SET
			games_played = game_stats.games_played + 1,
			games_won = game_stats.games_won + EXCLUDED.games_won,
			total_winnings = game_stats.total_winnings + EXCLUDED.total_winnings,
			highest_win = GREATEST(game_stats.highest_win, EXCLUDED.highest_win),
			updated_at = NOW()
		RETURNING id, user_id, game_type, games_played, games_won, total_winnings, highest_win, created_at, updated_at
	`

	var s model.GameStats
	err := r.db.QueryRow(ctx, query, userID, gameType, won, winAmount).Scan(
		&s.ID,
		&s.UserID,
		&s.GameType,
		&s.GamesPlayed,
		&s.GamesWon,
		&s.TotalWinnings,
		&s.HighestWin,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update game stats: %w", err)
	}
	return &s, nil
}

// ListByUser returns all stats rows of a user ordered by game type.
func (r *GameStatsRepository) ListByUser(ctx context.Context, userID string) ([]*model.GameStats, error) {
	const query = `
		SELECT id, user_id, game_type, games_played, games_won, total_winnings, highest_win, created_at, updated_at
		FROM game_stats
		WHERE user_id = $1
		ORDER BY game_type
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get game stats: %w", err)
	}
	defer rows.Close()

	stats := make([]*model.GameStats, 0)
	for rows.Next() {
		var s model.GameStats
		if err := rows.Scan(
			&s.ID,
			&s.UserID,
			&s.GameType,
			&s.GamesPlayed,
			&s.GamesWon,
			&s.TotalWinnings,
			&s.HighestWin,
			&s.CreatedAt,
			&s.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan game stats: %w", err)
		}
		stats = append(stats, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating game stats: %w", err)
	}
	return stats, nil
}
