package repository

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"llama-arcade/internal/model"
)

// ReferralRepository handles referral links.
type ReferralRepository struct {
	db DBTX
}

// NewReferralRepository creates a new ReferralRepository instance.
func NewReferralRepository(db DBTX) *ReferralRepository {
	return &ReferralRepository{db: db}
}

// Create links referredID to referrerID. A referred account has at most one
// referrer; a second link for the same account returns (nil, nil).
func (r *ReferralRepository) Create(ctx context.Context, referrerID, referredID string, reward decimal.Decimal) (*model.Referral, error) {
	const query = `
		INSERT INTO referrals (referrer_id, referred_id, reward)
		VALUES ($1, $2, $3)
		ON CONFLICT (referred_id) DO NOTHING
		RETURNING id, referrer_id, referred_id, reward, claimed, created_at
	`

	rows, err := r.db.Query(ctx, query, referrerID, referredID, reward)
	if err != nil {
		return nil, fmt.Errorf("failed to create referral: %w", err)
	}
	defer rows.Close()

	var ref *model.Referral
	if rows.Next() {
		ref = &model.Referral{}
		if err := rows.Scan(&ref.ID, &ref.ReferrerID, &ref.ReferredID, &ref.Reward, &ref.Claimed, &ref.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan referral: %w", err)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to create referral: %w", err)
	}
	return ref, nil
}

// ListByReferrer returns the referrals made by a user, newest first.
func (r *ReferralRepository) ListByReferrer(ctx context.Context, referrerID string) ([]*model.Referral, error) {
	const query = `
		SELECT id, referrer_id, referred_id, reward, claimed, created_at
		FROM referrals
		WHERE referrer_id = $1
		ORDER BY created_at DESC, id
	`

	rows, err := r.db.Query(ctx, query, referrerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get referrals: %w", err)
	}
	defer rows.Close()

	referrals := make([]*model.Referral, 0)
	for rows.Next() {
		var ref model.Referral
		if err := rows.Scan(&ref.ID, &ref.ReferrerID, &ref.ReferredID, &ref.Reward, &ref.Claimed, &ref.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan referral: %w", err)
		}
		referrals = append(referrals, &ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating referrals: %w", err)
	}
	return referrals, nil
}
