package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"llama-arcade/internal/model"
)

// userColumns is the column list scanned by scanUser.
const userColumns = `id, email, first_name, last_name, profile_image_url,
	llama_balance, ticket_balance, referral_code, referred_by,
	mining_rate, mining_capacity, current_mining, last_feed_time, hunger_level,
	created_at, updated_at`

// referralCodeAttempts bounds retries on the unlikely referral code collision.
const referralCodeAttempts = 3

// UserRepository handles user data persistence.
type UserRepository struct {
	db DBTX
}

// NewUserRepository creates a new UserRepository instance.
func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

func scanUser(row pgx.Row, extra ...any) (*model.User, error) {
	var user model.User
	dest := []any{
		&user.ID,
		&user.Email,
		&user.FirstName,
		&user.LastName,
		&user.ProfileImageURL,
		&user.LlamaBalance,
		&user.TicketBalance,
		&user.ReferralCode,
		&user.ReferredBy,
		&user.MiningRate,
		&user.MiningCapacity,
		&user.CurrentMining,
		&user.LastFeedTime,
		&user.HungerLevel,
		&user.CreatedAt,
		&user.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return &user, nil
}

// NewReferralCode returns a fresh 8-character upper-case code.
func NewReferralCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

// GetByID retrieves a user by id.
// Returns ErrUserNotFound if the user does not exist.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// GetByReferralCode retrieves the user owning a referral code.
func (r *UserRepository) GetByReferralCode(ctx context.Context, code string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE referral_code = $1`

	user, err := scanUser(r.db.QueryRow(ctx, query, strings.ToUpper(code)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by referral code: %w", err)
	}
	return user, nil
}

// Upsert creates the user if absent, otherwise merges the supplied profile
// fields. Balances, referral code and referred_by are never touched on update.
// referredBy is only stored when the row is created. The returned bool reports
// whether the row was inserted.
func (r *UserRepository) Upsert(ctx context.Context, p model.Profile, referredBy *string) (*model.User, bool, error) {
	query := `
		INSERT INTO users (id, email, first_name, last_name, profile_image_url, referral_code, referred_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			email = COALESCE(EXCLUDED.email, users.email),
			first_name = COALESCE(EXCLUDED.first_name, users.first_name),
			last_name = COALESCE(EXCLUDED.last_name, users.last_name),
			profile_image_url = COALESCE(EXCLUDED.profile_image_url, users.profile_image_url),
			updated_at = NOW()
		RETURNING ` + userColumns + `, (xmax = 0) AS inserted`

	var lastErr error
	for attempt := 0; attempt < referralCodeAttempts; attempt++ {
		var inserted bool
		user, err := scanUser(r.db.QueryRow(ctx, query,
			p.ID, p.Email, p.FirstName, p.LastName, p.ProfileImageURL,
			NewReferralCode(), referredBy,
		), &inserted)
		if err == nil {
			return user, inserted, nil
		}
		lastErr = err
		// Only a referral code collision is worth another try.
		if !isUniqueViolation(err) || !strings.Contains(err.Error(), "referral_code") {
			break
		}
	}
	return nil, false, fmt.Errorf("failed to upsert user: %w", lastErr)
}

// ApplyBalanceDelta atomically adds llamaDelta and ticketDelta (either may be
// negative) in one statement. The update only applies when neither balance
// would go negative; otherwise ErrInsufficientFunds is returned and nothing changes.
func (r *UserRepository) ApplyBalanceDelta(ctx context.Context, id string, llamaDelta decimal.Decimal, ticketDelta int64) (*model.Balance, error) {
	const query = `
		UPDATE users
		SET llama_balance = llama_balance + $2::numeric,
			ticket_balance = ticket_balance + $3::bigint,
			updated_at = NOW()
		WHERE id = $1
		  AND llama_balance + $2::numeric >= 0
		  AND ticket_balance + $3::bigint >= 0
		RETURNING llama_balance, ticket_balance
	`

	var balance model.Balance
	err := r.db.QueryRow(ctx, query, id, llamaDelta, ticketDelta).Scan(&balance.Llama, &balance.Tickets)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			exists, existsErr := r.Exists(ctx, id)
			if existsErr != nil {
				return nil, existsErr
			}
			if !exists {
				return nil, ErrUserNotFound
			}
			return nil, ErrInsufficientFunds
		}
		return nil, translateError(err, "update balance")
	}
	return &balance, nil
}

// Exists checks if a user with the given id exists.
func (r *UserRepository) Exists(ctx context.Context, id string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`

	var exists bool
	if err := r.db.QueryRow(ctx, query, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check user existence: %w", err)
	}
	return exists, nil
}
