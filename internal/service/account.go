package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"llama-arcade/internal/model"
	"llama-arcade/internal/pkg/lock"
	"llama-arcade/internal/repository"
)

const (
	defaultHistoryLimit = 10
	maxHistoryLimit     = 100
)

// maxTickets is the largest ticket amount a balance column can hold.
var maxTickets = decimal.NewFromInt(math.MaxInt64)

// AccountService handles user accounts, history and referrals.
type AccountService struct {
	store          *repository.Store
	userLock       *lock.UserLock
	lockTimeout    time.Duration
	referralReward decimal.Decimal
}

// NewAccountService creates a new AccountService instance.
func NewAccountService(store *repository.Store, userLock *lock.UserLock, lockTimeout time.Duration, referralReward decimal.Decimal) *AccountService {
	return &AccountService{
		store:          store,
		userLock:       userLock,
		lockTimeout:    lockTimeout,
		referralReward: referralReward,
	}
}

// EnsureUser creates the account on first sight and refreshes its profile
// afterwards. A valid referral code belonging to another account links the
// new account to its referrer; the code is ignored for existing accounts.
// Returns the user and whether it was newly created.
func (s *AccountService) EnsureUser(ctx context.Context, p model.Profile, referralCode string) (*model.User, bool, error) {
	var (
		user    *model.User
		created bool
	)
	err := s.store.WithTx(ctx, func(r *repository.Repos) error {
		var referrer *model.User
		if code := strings.TrimSpace(referralCode); code != "" {
			ref, err := r.Users.GetByReferralCode(ctx, code)
			switch {
			case err == nil && ref.ID != p.ID:
				referrer = ref
			case err != nil && !errors.Is(err, repository.ErrUserNotFound):
				return err
			}
		}

		var referredBy *string
		if referrer != nil {
			referredBy = &referrer.ReferralCode
		}

		var err error
		user, created, err = r.Users.Upsert(ctx, p, referredBy)
		if err != nil {
			return err
		}
		if created && referrer != nil {
			if _, err := r.Referrals.Create(ctx, referrer.ID, user.ID, s.referralReward); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to ensure user: %w", err)
	}

	if created {
		log.Info().
			Str("user_id", user.ID).
			Bool("referred", user.ReferredBy != nil).
			Msg("New user registered")
	}
	return user, created, nil
}

// GetUser retrieves a user by id.
func (s *AccountService) GetUser(ctx context.Context, userID string) (*model.User, error) {
	return s.store.Users.GetByID(ctx, userID)
}

// Transactions returns the newest transactions of a user. limit <= 0 selects
// the default; larger values are capped.
func (s *AccountService) Transactions(ctx context.Context, userID string, limit int) ([]*model.Transaction, error) {
	return s.store.Transactions.ListByUser(ctx, userID, clampLimit(limit, defaultHistoryLimit, maxHistoryLimit))
}

// Stats returns a user's per-game statistics.
func (s *AccountService) Stats(ctx context.Context, userID string) ([]*model.GameStats, error) {
	return s.store.Stats.ListByUser(ctx, userID)
}

// Referrals returns the accounts a user referred.
func (s *AccountService) Referrals(ctx context.Context, userID string) ([]*model.Referral, error) {
	return s.store.Referrals.ListByReferrer(ctx, userID)
}

// Deposit credits a user's balance on behalf of an operator and records a
// deposit transaction.
func (s *AccountService) Deposit(ctx context.Context, operatorID, userID string, amount decimal.Decimal, currency model.Currency) (*model.Balance, error) {
	if !currency.Valid() {
		return nil, ErrInvalidCurrency
	}
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if currency == model.CurrencyTickets && (!amount.IsInteger() || amount.GreaterThan(maxTickets)) {
		return nil, ErrInvalidAmount
	}

	var balance *model.Balance
	err := s.userLock.WithLockContext(ctx, userID, s.lockTimeout, func() error {
		var err error
		balance, err = s.store.Credit(ctx, userID, amount, currency, model.TxTypeDeposit, "Deposit by "+operatorID)
		return err
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("operator_id", operatorID).
		Str("target_id", userID).
		Str("amount", amount.String()).
		Str("currency", string(currency)).
		Str("operation", "deposit").
		Msg("Admin operation executed")

	return balance, nil
}

func clampLimit(limit, def, max int) int {
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}
