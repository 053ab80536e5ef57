package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

type migration struct {
	name string
	sql  string
}

// migrations are applied in order; every statement is idempotent.
var migrations = []migration{
	{
		name: "users table",
		sql: `
		CREATE TABLE IF NOT EXISTS users (
			id VARCHAR(255) PRIMARY KEY,
			email VARCHAR(255),
			first_name VARCHAR(255),
			last_name VARCHAR(255),
			profile_image_url TEXT,
			llama_balance NUMERIC(20, 8) NOT NULL DEFAULT 0,
			ticket_balance BIGINT NOT NULL DEFAULT 0,
			referral_code VARCHAR(32) NOT NULL UNIQUE,
			referred_by VARCHAR(32),
			mining_rate NUMERIC(10, 4) NOT NULL DEFAULT 1.0,
			mining_capacity NUMERIC(20, 8) NOT NULL DEFAULT 100,
			current_mining NUMERIC(20, 8) NOT NULL DEFAULT 0,
			last_feed_time TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			hunger_level INT NOT NULL DEFAULT 100,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CONSTRAINT users_llama_balance_non_negative CHECK (llama_balance >= 0),
			CONSTRAINT users_ticket_balance_non_negative CHECK (ticket_balance >= 0),
			CONSTRAINT users_hunger_level_range CHECK (hunger_level BETWEEN 0 AND 100),
			CONSTRAINT users_current_mining_non_negative CHECK (current_mining >= 0)
		);
		`,
	},
	{
		name: "transactions table",
		sql: `
		CREATE TABLE IF NOT EXISTS transactions (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			user_id VARCHAR(255) NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			type VARCHAR(32) NOT NULL,
			amount NUMERIC(20, 8) NOT NULL,
			currency VARCHAR(16) NOT NULL,
			description TEXT,
			game_type VARCHAR(64),
			created_at TIMESTAMPTZ NOT NULL DEFAULT clock_timestamp(),
			CONSTRAINT transactions_type_known CHECK (type IN ('game_win', 'game_loss', 'task_reward', 'deposit', 'withdraw', 'convert')),
			CONSTRAINT transactions_currency_known CHECK (currency IN ('LLAMA', 'TICKETS'))
		);
		CREATE INDEX IF NOT EXISTS idx_transactions_user_time ON transactions(user_id, created_at DESC);
		CREATE INDEX IF NOT EXISTS idx_transactions_type ON transactions(type);
		`,
	},
	{
		name: "game tables",
		sql: `
		CREATE TABLE IF NOT EXISTS game_stats (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			user_id VARCHAR(255) NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			game_type VARCHAR(64) NOT NULL,
			games_played BIGINT NOT NULL DEFAULT 0,
			games_won BIGINT NOT NULL DEFAULT 0,
			total_winnings NUMERIC(20, 8) NOT NULL DEFAULT 0,
			highest_win NUMERIC(20, 8) NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CONSTRAINT game_stats_user_game UNIQUE (user_id, game_type),
			CONSTRAINT game_stats_won_le_played CHECK (games_won <= games_played)
		);

		CREATE TABLE IF NOT EXISTS game_sessions (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			user_id VARCHAR(255) NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			game_type VARCHAR(64) NOT NULL,
			bet_amount NUMERIC(20, 8) NOT NULL,
			win_amount NUMERIC(20, 8) NOT NULL DEFAULT 0,
			result VARCHAR(8) NOT NULL,
			game_data JSONB,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CONSTRAINT game_sessions_bet_positive CHECK (bet_amount > 0),
			CONSTRAINT game_sessions_win_non_negative CHECK (win_amount >= 0),
			CONSTRAINT game_sessions_result_known CHECK (result IN ('win', 'loss'))
		);
		CREATE INDEX IF NOT EXISTS idx_game_sessions_user ON game_sessions(user_id, created_at DESC);
		`,
	},
	{
		name: "daily_tasks table",
		sql: `
		CREATE TABLE IF NOT EXISTS daily_tasks (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			user_id VARCHAR(255) NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			task_type VARCHAR(64) NOT NULL,
			completed BOOLEAN NOT NULL DEFAULT FALSE,
			completed_at TIMESTAMPTZ,
			reward NUMERIC(20, 8) NOT NULL,
			date VARCHAR(10) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CONSTRAINT daily_tasks_user_type_date UNIQUE (user_id, task_type, date)
		);
		`,
	},
	{
		name: "referrals table",
		sql: `
		CREATE TABLE IF NOT EXISTS referrals (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			referrer_id VARCHAR(255) NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			referred_id VARCHAR(255) NOT NULL UNIQUE REFERENCES users(id) ON DELETE CASCADE,
			reward NUMERIC(20, 8) NOT NULL DEFAULT 200,
			claimed BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CONSTRAINT referrals_not_self CHECK (referrer_id <> referred_id)
		);
		CREATE INDEX IF NOT EXISTS idx_referrals_referrer ON referrals(referrer_id);
		`,
	},
	{
		name: "shop tables",
		sql: `
		CREATE TABLE IF NOT EXISTS shop_items (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			slug VARCHAR(64) NOT NULL UNIQUE,
			name VARCHAR(255) NOT NULL,
			description TEXT NOT NULL,
			price NUMERIC(20, 8) NOT NULL,
			currency VARCHAR(16) NOT NULL,
			item_type VARCHAR(32) NOT NULL,
			effect_type VARCHAR(32) NOT NULL,
			effect_value NUMERIC(10, 4) NOT NULL,
			duration_hours INT,
			icon VARCHAR(16) NOT NULL DEFAULT '🍎',
			available BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CONSTRAINT shop_items_price_positive CHECK (price > 0)
		);

		CREATE TABLE IF NOT EXISTS user_purchases (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			user_id VARCHAR(255) NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			shop_item_id UUID NOT NULL REFERENCES shop_items(id),
			purchased_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			expires_at TIMESTAMPTZ,
			active BOOLEAN NOT NULL DEFAULT TRUE
		);
		CREATE INDEX IF NOT EXISTS idx_user_purchases_user ON user_purchases(user_id, purchased_at DESC);
		`,
	},
	{
		// Identity providers can hand the same email to distinct accounts.
		name: "non-unique user email",
		sql: `
		ALTER TABLE users DROP CONSTRAINT IF EXISTS users_email_key;
		CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);
		`,
	},
}

// Migrate applies the schema. It is safe to run on every startup.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	log.Info().Msg("Running database migrations...")

	for i, m := range migrations {
		if _, err := pool.Exec(ctx, m.sql); err != nil {
			return fmt.Errorf("migration %d (%s) failed: %w", i+1, m.name, err)
		}
		log.Info().Int("step", i+1).Str("name", m.name).Msg("Migration applied")
	}

	log.Info().Msg("All migrations completed successfully")
	return nil
}
