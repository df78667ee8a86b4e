package catalog

import (
	"time"

	"github.com/angelmondragon/sweetshop-backend/pkg/db/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LowStockThreshold is the inclusive stock level at which an item counts as low.
const LowStockThreshold = 10

// Item is the catalog entry returned to callers.
type Item struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Description string          `json:"description"`
	Image       *string         `json:"image,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// Filter narrows List results. An empty Category or "all" matches every category.
type Filter struct {
	Search   string
	Category string
}

// Stats summarises the inventory.
type Stats struct {
	ItemCount      int64           `json:"itemCount"`
	TotalUnits     int64           `json:"totalUnits"`
	InventoryValue decimal.Decimal `json:"inventoryValue"`
	LowStockCount  int64           `json:"lowStockCount"`
}

// ItemFromModel maps a persisted row onto an Item.
func ItemFromModel(m models.Sweet) Item {
	return Item{
		ID:          m.ID,
		Name:        m.Name,
		Category:    m.Category,
		Price:       PriceFromCents(m.PriceCents),
		Stock:       m.Stock,
		Description: m.Description,
		Image:       m.Image,
		CreatedAt:   m.CreatedAt.UTC(),
	}
}

// PriceFromCents converts integer cents into a two-place decimal.
func PriceFromCents(cents int64) decimal.Decimal {
	return decimal.NewFromInt(cents).Shift(-2)
}

// CentsFromPrice converts a price with at most two decimal places into cents.
func CentsFromPrice(price decimal.Decimal) int64 {
	return price.Round(2).Shift(2).IntPart()
}
