package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"llama-arcade/internal/model"
	"llama-arcade/internal/pkg/lock"
	"llama-arcade/internal/repository"
)

// WalletService converts between LLAMA and tickets at a fixed 1:1 rate.
type WalletService struct {
	store       *repository.Store
	userLock    *lock.UserLock
	lockTimeout time.Duration
}

// NewWalletService creates a new WalletService instance.
func NewWalletService(store *repository.Store, userLock *lock.UserLock, lockTimeout time.Duration) *WalletService {
	return &WalletService{
		store:       store,
		userLock:    userLock,
		lockTimeout: lockTimeout,
	}
}

// ValidateConversion checks a conversion request without touching the ledger.
// Tickets are whole, so only whole amounts convert; this keeps a round trip
// exact instead of silently truncating a fractional remainder.
func ValidateConversion(amount decimal.Decimal, dir model.ConversionDirection) error {
	if !dir.Valid() {
		return ErrInvalidDirection
	}
	if !amount.IsPositive() || !amount.IsInteger() || amount.GreaterThan(maxTickets) {
		return ErrInvalidAmount
	}
	return nil
}

// Convert moves amount from the source balance to the target balance.
func (s *WalletService) Convert(ctx context.Context, userID string, amount decimal.Decimal, dir model.ConversionDirection) (*model.Balance, error) {
	if err := ValidateConversion(amount, dir); err != nil {
		return nil, err
	}

	var balance *model.Balance
	err := s.userLock.WithLockContext(ctx, userID, s.lockTimeout, func() error {
		user, err := s.store.Users.GetByID(ctx, userID)
		if err != nil {
			return err
		}
		if !hasFunds(user, amount, dir) {
			return ErrInsufficientFunds
		}

		balance, err = s.store.ConvertCurrency(ctx, userID, amount, dir)
		return err
	})
	if err != nil {
		return nil, err
	}
	return balance, nil
}

func hasFunds(u *model.User, amount decimal.Decimal, dir model.ConversionDirection) bool {
	if dir == model.LlamaToTickets {
		return u.LlamaBalance.GreaterThanOrEqual(amount)
	}
	return decimal.NewFromInt(u.TicketBalance).GreaterThanOrEqual(amount)
}
