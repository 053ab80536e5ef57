package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"llama-arcade/internal/model"
)

const miningColumns = `mining_rate, mining_capacity, current_mining, last_feed_time, hunger_level`

// MiningRepository reads and updates the mining columns of users.
type MiningRepository struct {
	db DBTX
}

// NewMiningRepository creates a new MiningRepository instance.
func NewMiningRepository(db DBTX) *MiningRepository {
	return &MiningRepository{db: db}
}

func scanMining(row pgx.Row) (*model.MiningState, error) {
	var s model.MiningState
	err := row.Scan(&s.MiningRate, &s.MiningCapacity, &s.CurrentMining, &s.LastFeedTime, &s.HungerLevel)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &s, nil
}

// Get returns the mining state of a user.
func (r *MiningRepository) Get(ctx context.Context, userID string) (*model.MiningState, error) {
	query := `SELECT ` + miningColumns + ` FROM users WHERE id = $1`

	s, err := scanMining(r.db.QueryRow(ctx, query, userID))
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("failed to get mining state: %w", err)
	}
	return s, err
}

// Feed restores hunger to full and restarts the feed clock.
func (r *MiningRepository) Feed(ctx context.Context, userID string) (*model.MiningState, error) {
	query := `
		UPDATE users
		SET hunger_level = 100, last_feed_time = NOW(), updated_at = NOW()
		WHERE id = $1
		RETURNING ` + miningColumns

	s, err := scanMining(r.db.QueryRow(ctx, query, userID))
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("failed to feed: %w", err)
	}
	return s, err
}

// Accrue adds amount to current_mining, never past mining_capacity.
// hunger replaces the stored hunger level when non-nil.
func (r *MiningRepository) Accrue(ctx context.Context, userID string, amount decimal.Decimal, hunger *int) (*model.MiningState, error) {
	query := `
		UPDATE users
		SET current_mining = LEAST(mining_capacity, current_mining + GREATEST($2::numeric, 0)),
			hunger_level = COALESCE($3::int, hunger_level),
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + miningColumns

	s, err := scanMining(r.db.QueryRow(ctx, query, userID, amount, hunger))
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("failed to update mining progress: %w", err)
	}
	return s, err
}

// Drain zeroes current_mining and returns the amount it held. The row is
// locked so concurrent drains cannot both observe the same amount.
func (r *MiningRepository) Drain(ctx context.Context, userID string) (decimal.Decimal, error) {
	const query = `
		WITH prev AS (
			SELECT id, current_mining FROM users WHERE id = $1 FOR UPDATE
		)
		UPDATE users u
		SET current_mining = 0, updated_at = NOW()
		FROM prev
		WHERE u.id = prev.id
		RETURNING prev.current_mining
	`

	var amount decimal.Decimal
	if err := r.db.QueryRow(ctx, query, userID).Scan(&amount); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, ErrUserNotFound
		}
		return decimal.Zero, fmt.Errorf("failed to drain mining: %w", err)
	}
	return amount, nil
}
