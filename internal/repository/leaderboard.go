package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"llama-arcade/internal/model"
)

// leaderboardUserColumns mirrors userColumns with the u alias.
const leaderboardUserColumns = `u.id, u.email, u.first_name, u.last_name, u.profile_image_url,
	u.llama_balance, u.ticket_balance, u.referral_code, u.referred_by,
	u.mining_rate, u.mining_capacity, u.current_mining, u.last_feed_time, u.hunger_level,
	u.created_at, u.updated_at`

// LeaderboardRepository computes rankings on demand. Users without activity
// are included with a zero score; ties fall back to account age then id.
type LeaderboardRepository struct {
	db DBTX
}

// NewLeaderboardRepository creates a new LeaderboardRepository instance.
func NewLeaderboardRepository(db DBTX) *LeaderboardRepository {
	return &LeaderboardRepository{db: db}
}

// TopEarners ranks users by the sum of their earning transactions.
func (r *LeaderboardRepository) TopEarners(ctx context.Context, limit int) ([]*model.EarnerRank, error) {
	query := `
		SELECT ` + leaderboardUserColumns + `,
			COALESCE(SUM(t.amount) FILTER (WHERE t.type = ANY($2)), 0) AS total_earnings
		FROM users u
		LEFT JOIN transactions t ON t.user_id = u.id
		GROUP BY u.id
		ORDER BY total_earnings DESC, u.created_at, u.id
		LIMIT $1
	`

	rows, err := r.db.Query(ctx, query, limit, model.EarningTxTypes())
	if err != nil {
		return nil, fmt.Errorf("failed to get top earners: %w", err)
	}
	return collectRanks(rows, "earners", func(row pgx.Rows) (*model.EarnerRank, error) {
		rank := &model.EarnerRank{}
		user, err := scanUser(row, &rank.TotalEarnings)
		if err != nil {
			return nil, err
		}
		rank.User = *user
		return rank, nil
	})
}

// TopGameWinners ranks users by games won across all game types.
func (r *LeaderboardRepository) TopGameWinners(ctx context.Context, limit int) ([]*model.WinnerRank, error) {
	query := `
		SELECT ` + leaderboardUserColumns + `,
			COALESCE(SUM(gs.games_won), 0)::bigint AS total_wins
		FROM users u
		LEFT JOIN game_stats gs ON gs.user_id = u.id
		GROUP BY u.id
		ORDER BY total_wins DESC, u.created_at, u.id
		LIMIT $1
	`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get top winners: %w", err)
	}
	return collectRanks(rows, "winners", func(row pgx.Rows) (*model.WinnerRank, error) {
		rank := &model.WinnerRank{}
		user, err := scanUser(row, &rank.TotalWins)
		if err != nil {
			return nil, err
		}
		rank.User = *user
		return rank, nil
	})
}

// TopReferrers ranks users by the number of accounts they referred.
func (r *LeaderboardRepository) TopReferrers(ctx context.Context, limit int) ([]*model.ReferrerRank, error) {
	query := `
		SELECT ` + leaderboardUserColumns + `,
			COUNT(ref.id) AS referral_count
		FROM users u
		LEFT JOIN referrals ref ON ref.referrer_id = u.id
		GROUP BY u.id
		ORDER BY referral_count DESC, u.created_at, u.id
		LIMIT $1
	`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get top referrers: %w", err)
	}
	return collectRanks(rows, "referrers", func(row pgx.Rows) (*model.ReferrerRank, error) {
		rank := &model.ReferrerRank{}
		user, err := scanUser(row, &rank.ReferralCount)
		if err != nil {
			return nil, err
		}
		rank.User = *user
		return rank, nil
	})
}

func collectRanks[T any](rows pgx.Rows, board string, scan func(pgx.Rows) (*T, error)) ([]*T, error) {
	defer rows.Close()

	out := make([]*T, 0)
	for rows.Next() {
		rank, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s rank: %w", board, err)
		}
		out = append(out, rank)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s: %w", board, err)
	}
	return out, nil
}
