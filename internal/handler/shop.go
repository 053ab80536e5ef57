package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"llama-arcade/internal/model"
	"llama-arcade/internal/repository"
)

// Shop is the shop surface the handlers need.
type Shop interface {
	GetShopItems(ctx context.Context) ([]*model.ShopItem, error)
	PurchaseItem(ctx context.Context, userID string, itemID uuid.UUID) (*repository.PurchaseResult, error)
	GetUserPurchases(ctx context.Context, userID string) ([]*model.UserPurchase, error)
}

// ShopHandler handles shop endpoints.
type ShopHandler struct {
	shop Shop
}

// NewShopHandler creates a new ShopHandler.
func NewShopHandler(shop Shop) *ShopHandler {
	return &ShopHandler{shop: shop}
}

// HandleItems handles GET /api/shop.
func (h *ShopHandler) HandleItems(c echo.Context) error {
	items, err := h.shop.GetShopItems(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, nonNil(items))
}

// HandlePurchase handles POST /api/shop/:itemId/purchase.
func (h *ShopHandler) HandlePurchase(c echo.Context) error {
	itemID, err := uuid.Parse(c.Param("itemId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid item id")
	}

	result, err := h.shop.PurchaseItem(c.Request().Context(), UserID(c), itemID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

// HandlePurchases handles GET /api/shop/purchases.
func (h *ShopHandler) HandlePurchases(c echo.Context) error {
	purchases, err := h.shop.GetUserPurchases(c.Request().Context(), UserID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, nonNil(purchases))
}
