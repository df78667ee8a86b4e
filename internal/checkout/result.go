package checkout

import (
	"fmt"

	"github.com/angelmondragon/sweetshop-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Violation reasons reported when a cart line cannot be fulfilled.
const (
	ReasonItemNotFound      = "item_not_found"
	ReasonInsufficientStock = "insufficient_stock"
)

// Violation describes one cart line that blocked a checkout.
type Violation struct {
	ItemID    uuid.UUID `json:"itemId"`
	Name      string    `json:"name,omitempty"`
	Reason    string    `json:"reason"`
	Requested int       `json:"requested"`
	Available int       `json:"available"`
}

// Line is a purchased cart line priced at commit time.
type Line struct {
	ItemID   uuid.UUID       `json:"itemId"`
	Name     string          `json:"name"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

// Result is returned by a committed checkout.
type Result struct {
	State     enums.CheckoutState `json:"state"`
	Total     decimal.Decimal     `json:"total"`
	ItemCount int                 `json:"itemCount"`
	Lines     []Line              `json:"lines"`
	Message   string              `json:"message"`
}

func successMessage(itemCount int, total decimal.Decimal) string {
	return fmt.Sprintf("Successfully purchased %d items for $%s", itemCount, total.StringFixed(2))
}

// rejectionMessage names the first short line, falling back to a generic
// message when every violation is a missing item.
func rejectionMessage(violations []Violation) string {
	for _, v := range violations {
		if v.Reason == ReasonInsufficientStock {
			return "Not enough stock for " + v.Name
		}
	}
	return "Item no longer available"
}
