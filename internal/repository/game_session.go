package repository

import (
	"context"
	"fmt"

	"llama-arcade/internal/model"
)

// GameSessionRepository stores immutable play records.
type GameSessionRepository struct {
	db DBTX
}

// NewGameSessionRepository creates a new GameSessionRepository instance.
func NewGameSessionRepository(db DBTX) *GameSessionRepository {
	return &GameSessionRepository{db: db}
}

// Create inserts a session. GameData is stored as JSONB.
func (r *GameSessionRepository) Create(ctx context.Context, s model.GameSession) (*model.GameSession, error) {
	const query = `
		INSERT INTO game_sessions (user_id, game_type, bet_amount, win_amount, result, game_data)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, user_id, game_type, bet_amount, win_amount, result, game_data, created_at
	`

	var out model.GameSession
	err := r.db.QueryRow(ctx, query,
		s.UserID, s.GameType, s.BetAmount, s.WinAmount, string(s.Result), s.GameData,
	).Scan(
		&out.ID,
		&out.UserID,
		&out.GameType,
		&out.BetAmount,
		&out.WinAmount,
		&out.Result,
		&out.GameData,
		&out.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create game session: %w", err)
	}
	return &out, nil
}

// ListByUser returns a user's most recent sessions, newest first.
func (r *GameSessionRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*model.GameSession, error) {
	const query = `
		SELECT id, user_id, game_type, bet_amount, win_amount, result, game_data, created_at
		FROM game_sessions
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get game sessions: %w", err)
	}
	defer rows.Close()

	sessions := make([]*model.GameSession, 0)
	for rows.Next() {
		var s model.GameSession
		if err := rows.Scan(
			&s.ID,
			&s.UserID,
			&s.GameType,
			&s.BetAmount,
			&s.WinAmount,
			&s.Result,
			&s.GameData,
			&s.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan game session: %w", err)
		}
		sessions = append(sessions, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating game sessions: %w", err)
	}
	return sessions, nil
}
