package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"llama-arcade/internal/model"
)

const shopItemColumns = `id, slug, name, description, price, currency, item_type, effect_type,
	effect_value, duration_hours, icon, available, created_at`

// ShopRepository handles the item catalog and purchases.
type ShopRepository struct {
	db DBTX
}

// NewShopRepository creates a new ShopRepository instance.
func NewShopRepository(db DBTX) *ShopRepository {
	return &ShopRepository{db: db}
}

func scanShopItem(row pgx.Row) (*model.ShopItem, error) {
	var item model.ShopItem
	if err := row.Scan(
		&item.ID,
		&item.Slug,
		&item.Name,
		&item.Description,
		&item.Price,
		&item.Currency,
		&item.ItemType,
		&item.EffectType,
		&item.EffectValue,
		&item.DurationHours,
		&item.Icon,
		&item.Available,
		&item.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &item, nil
}

// Seed inserts catalog items by slug, refreshing the mutable fields of ones that exist.
func (r *ShopRepository) Seed(ctx context.Context, items []model.ShopItem) error {
	const query = `
		INSERT INTO shop_items (slug, name, description, price, currency, item_type, effect_type, effect_value, duration_hours, icon, available)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (slug) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			price = EXCLUDED.price,
			currency = EXCLUDED.currency,
			item_type = EXCLUDED.item_type,
			effect_type = EXCLUDED.effect_type,
			effect_value = EXCLUDED.effect_value,
			duration_hours = EXCLUDED.duration_hours,
			icon = EXCLUDED.icon,
			available = EXCLUDED.available
	`

	for _, it := range items {
		_, err := r.db.Exec(ctx, query,
			it.Slug, it.Name, it.Description, it.Price, string(it.Currency),
			it.ItemType, it.EffectType, it.EffectValue, it.DurationHours, it.Icon, it.Available,
		)
		if err != nil {
			return fmt.Errorf("failed to seed shop item %s: %w", it.Slug, err)
		}
	}
	return nil
}

// List returns the whole catalog, including items that cannot be bought.
func (r *ShopRepository) List(ctx context.Context) ([]*model.ShopItem, error) {
	return r.list(ctx, `SELECT `+shopItemColumns+` FROM shop_items ORDER BY price, slug`)
}

// ListAvailable returns the items that can currently be bought.
func (r *ShopRepository) ListAvailable(ctx context.Context) ([]*model.ShopItem, error) {
	return r.list(ctx, `SELECT `+shopItemColumns+` FROM shop_items WHERE available ORDER BY price, slug`)
}

func (r *ShopRepository) list(ctx context.Context, query string) ([]*model.ShopItem, error) {
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get shop items: %w", err)
	}
	defer rows.Close()

	items := make([]*model.ShopItem, 0)
	for rows.Next() {
		item, err := scanShopItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan shop item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating shop items: %w", err)
	}
	return items, nil
}

// GetByID returns an available item. Returns ErrItemNotFound otherwise.
func (r *ShopRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.ShopItem, error) {
	query := `SELECT ` + shopItemColumns + ` FROM shop_items WHERE id = $1 AND available`

	item, err := scanShopItem(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to get shop item: %w", err)
	}
	return item, nil
}

// CreatePurchase records a bought item.
func (r *ShopRepository) CreatePurchase(ctx context.Context, userID string, itemID uuid.UUID, expiresAt *time.Time) (*model.UserPurchase, error) {
	const query = `
		INSERT INTO user_purchases (user_id, shop_item_id, expires_at)
		VALUES ($1, $2, $3)
		RETURNING id, user_id, shop_item_id, purchased_at, expires_at, active
	`

	var p model.UserPurchase
	err := r.db.QueryRow(ctx, query, userID, itemID, expiresAt).Scan(
		&p.ID, &p.UserID, &p.ShopItemID, &p.PurchasedAt, &p.ExpiresAt, &p.Active,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create purchase: %w", err)
	}
	return &p, nil
}

// ListPurchases returns a user's purchases, newest first. Rows past their
// expiry are reported inactive.
func (r *ShopRepository) ListPurchases(ctx context.Context, userID string) ([]*model.UserPurchase, error) {
	const query = `
		SELECT id, user_id, shop_item_id, purchased_at, expires_at,
			active AND (expires_at IS NULL OR expires_at > NOW()) AS active
		FROM user_purchases
		WHERE user_id = $1
		ORDER BY purchased_at DESC, id
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get purchases: %w", err)
	}
	defer rows.Close()

	purchases := make([]*model.UserPurchase, 0)
	for rows.Next() {
		var p model.UserPurchase
		if err := rows.Scan(&p.ID, &p.UserID, &p.ShopItemID, &p.PurchasedAt, &p.ExpiresAt, &p.Active); err != nil {
			return nil, fmt.Errorf("failed to scan purchase: %w", err)
		}
		purchases = append(purchases, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating purchases: %w", err)
	}
	return purchases, nil
}
