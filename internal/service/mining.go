package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"llama-arcade/internal/model"
	"llama-arcade/internal/pkg/lock"
	"llama-arcade/internal/repository"
)

// AccrualFunc returns how much to add to current_mining for a state observed
// at now, and optionally a new hunger level.
type AccrualFunc func(state model.MiningState, now time.Time) (decimal.Decimal, *int)

// NoAccrual never mines anything.
func NoAccrual(model.MiningState, time.Time) (decimal.Decimal, *int) {
	return decimal.Zero, nil
}

// MiningService manages Larry the llama's mining.
type MiningService struct {
	store       *repository.Store
	accrue      AccrualFunc
	userLock    *lock.UserLock
	lockTimeout time.Duration
	now         func() time.Time
}

// NewMiningService creates a new MiningService. A nil accrue uses NoAccrual.
func NewMiningService(store *repository.Store, accrue AccrualFunc, userLock *lock.UserLock, lockTimeout time.Duration) *MiningService {
	if accrue == nil {
		accrue = NoAccrual
	}
	return &MiningService{
		store:       store,
		accrue:      accrue,
		userLock:    userLock,
		lockTimeout: lockTimeout,
		now:         time.Now,
	}
}

// Progress applies accrual and returns the resulting state. current_mining
// never exceeds mining_capacity.
func (s *MiningService) Progress(ctx context.Context, userID string) (*model.MiningState, error) {
	var state *model.MiningState
	err := s.userLock.WithLockContext(ctx, userID, s.lockTimeout, func() error {
		current, err := s.store.Mining.Get(ctx, userID)
		if err != nil {
			return err
		}
		amount, hunger := s.accrue(*current, s.now())
		if !amount.IsPositive() && hunger == nil {
			state = current
			return nil
		}
		state, err = s.store.Mining.Accrue(ctx, userID, amount, hunger)
		return err
	})
	if err != nil {
		return nil, err
	}
	return state, nil
}

// Feed restores Larry's hunger to full.
func (s *MiningService) Feed(ctx context.Context, userID string) (*model.MiningState, error) {
	return s.store.Mining.Feed(ctx, userID)
}

// Claim moves everything mined so far into the LLAMA balance.
func (s *MiningService) Claim(ctx context.Context, userID string) (decimal.Decimal, *model.Balance, error) {
	var (
		claimed decimal.Decimal
		balance *model.Balance
	)
	err := s.userLock.WithLockContext(ctx, userID, s.lockTimeout, func() error {
		var err error
		claimed, balance, err = s.store.ClaimMining(ctx, userID)
		return err
	})
	if err != nil {
		return decimal.Zero, nil, err
	}
	return claimed, balance, nil
}
