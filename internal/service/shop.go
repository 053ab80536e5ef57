package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"llama-arcade/internal/model"
	"llama-arcade/internal/pkg/lock"
	"llama-arcade/internal/repository"
	"llama-arcade/internal/shop"
)

// ShopService handles shop-related business logic.
type ShopService struct {
	store       *repository.Store
	userLock    *lock.UserLock
	lockTimeout time.Duration
	now         func() time.Time
}

// NewShopService creates a new ShopService instance.
func NewShopService(store *repository.Store, userLock *lock.UserLock, lockTimeout time.Duration) *ShopService {
	return &ShopService{
		store:       store,
		userLock:    userLock,
		lockTimeout: lockTimeout,
		now:         time.Now,
	}
}

// SeedCatalog writes the built-in catalog. Safe to call on every startup.
func (s *ShopService) SeedCatalog(ctx context.Context) error {
	configs := shop.GetAllItems()
	items := make([]model.ShopItem, 0, len(configs))
	for _, c := range configs {
		items = append(items, c.Model())
	}
	if err := s.store.Shop.Seed(ctx, items); err != nil {
		return fmt.Errorf("failed to seed shop: %w", err)
	}
	log.Info().Int("items", len(items)).Msg("Shop catalog seeded")
	return nil
}

// GetShopItems returns the catalog. Items with Available unset are shown but
// cannot be bought.
func (s *ShopService) GetShopItems(ctx context.Context) ([]*model.ShopItem, error) {
	return s.store.Shop.List(ctx)
}

// PurchaseItem buys one available item for the user. Unavailable items return
// ErrItemNotFound before anything is debited.
func (s *ShopService) PurchaseItem(ctx context.Context, userID string, itemID uuid.UUID) (*repository.PurchaseResult, error) {
	var res *repository.PurchaseResult
	err := s.userLock.WithLockContext(ctx, userID, s.lockTimeout, func() error {
		var err error
		res, err = s.store.PurchaseItem(ctx, userID, itemID, s.now())
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// GetUserPurchases returns the items a user has bought.
func (s *ShopService) GetUserPurchases(ctx context.Context, userID string) ([]*model.UserPurchase, error) {
	return s.store.Shop.ListPurchases(ctx, userID)
}
