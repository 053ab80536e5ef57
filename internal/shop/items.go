// Package shop defines the built-in catalog of items users can buy for their llama.
package shop

import (
	"time"

	"github.com/shopspring/decimal"

	"llama-arcade/internal/model"
)

// ItemType groups items by what they are.
type ItemType string

const (
	ItemFood    ItemType = "food"
	ItemUpgrade ItemType = "upgrade"
)

// EffectType names the llama attribute an item targets.
type EffectType string

const (
	EffectHunger     EffectType = "hunger"
	EffectMiningRate EffectType = "mining_rate"
	EffectCapacity   EffectType = "capacity"
)

// ItemConfig holds the configuration for a shop item.
type ItemConfig struct {
	Slug        string
	Name        string
	Icon        string
	Price       decimal.Decimal
	Currency    model.Currency
	Type        ItemType
	Effect      EffectType
	EffectValue decimal.Decimal
	Duration    time.Duration // 0 means permanent
	Description string
	// Available gates purchases. Items stay listed but unbuyable until
	// their effect is applied to the llama on purchase.
	Available bool
}

// Items contains every catalog entry keyed by slug.
var Items = map[string]ItemConfig{
	"hay-bale": {
		Slug:        "hay-bale",
		Name:        "Hay Bale",
		Icon:        "🌾",
		Price:       decimal.NewFromInt(10),
		Currency:    model.CurrencyLlama,
		Type:        ItemFood,
		Effect:      EffectHunger,
		EffectValue: decimal.NewFromInt(50),
		Description: "Restores half of Larry's hunger",
	},
	"golden-shears": {
		Slug:        "golden-shears",
		Name:        "Golden Shears",
		Icon:        "✂️",
		Price:       decimal.NewFromInt(25),
		Currency:    model.CurrencyTickets,
		Type:        ItemUpgrade,
		Effect:      EffectMiningRate,
		EffectValue: decimal.RequireFromString("1.5"),
		Duration:    24 * time.Hour,
		Description: "Mining rate x1.5 for 24 hours",
	},
	"barn-expansion": {
		Slug:        "barn-expansion",
		Name:        "Barn Expansion",
		Icon:        "🏠",
		Price:       decimal.NewFromInt(500),
		Currency:    model.CurrencyLlama,
		Type:        ItemUpgrade,
		Effect:      EffectCapacity,
		EffectValue: decimal.NewFromInt(50),
		Description: "Adds 50 LLAMA of mining capacity",
	},
}

// GetAllItems returns all shop items in display order.
func GetAllItems() []ItemConfig {
	order := []string{"hay-bale", "golden-shears", "barn-expansion"}

	items := make([]ItemConfig, 0, len(order))
	for _, slug := range order {
		if item, ok := Items[slug]; ok {
			items = append(items, item)
		}
	}
	return items
}

// GetItem returns the item config for a slug.
func GetItem(slug string) (ItemConfig, bool) {
	item, ok := Items[slug]
	return item, ok
}

// IsTimeBased returns true if the item's effect expires.
func (c ItemConfig) IsTimeBased() bool {
	return c.Duration > 0
}

// Model converts the config into the persisted catalog row shape.
func (c ItemConfig) Model() model.ShopItem {
	item := model.ShopItem{
		Slug:        c.Slug,
		Name:        c.Name,
		Description: c.Description,
		Price:       c.Price,
		Currency:    c.Currency,
		ItemType:    string(c.Type),
		EffectType:  string(c.Effect),
		EffectValue: c.EffectValue,
		Icon:        c.Icon,
		Available:   c.Available,
	}
	if c.IsTimeBased() {
		hours := int(c.Duration / time.Hour)
		item.DurationHours = &hours
	}
	return item
}
