package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Line is one cart entry. Quantity is always positive.
type Line struct {
	ItemID   uuid.UUID `json:"itemId"`
	Quantity int       `json:"quantity"`
}

// Cart is the ordered set of lines owned by one session. An item appears in at
// most one line.
type Cart struct {
	Lines []Line `json:"lines"`
}

// New returns an empty cart.
func New() *Cart {
	return &Cart{Lines: []Line{}}
}

func (c *Cart) indexOf(itemID uuid.UUID) int {
	for i, line := range c.Lines {
		if line.ItemID == itemID {
			return i
		}
	}
	return -1
}

// AddItem increments the line for itemID, appending a new line when absent.
func (c *Cart) AddItem(itemID uuid.UUID) {
	if idx := c.indexOf(itemID); idx >= 0 {
		c.Lines[idx].Quantity++
		return
	}
	c.Lines = append(c.Lines, Line{ItemID: itemID, Quantity: 1})
}

// SetQuantity sets the quantity of an existing line. Quantities of zero or less
// remove the line; a missing line is left alone.
func (c *Cart) SetQuantity(itemID uuid.UUID, quantity int) {
	idx := c.indexOf(itemID)
	if idx < 0 {
		return
	}
	if quantity <= 0 {
		c.removeAt(idx)
		return
	}
	c.Lines[idx].Quantity = quantity
}

// RemoveItem drops the line for itemID if present.
func (c *Cart) RemoveItem(itemID uuid.UUID) {
	if idx := c.indexOf(itemID); idx >= 0 {
		c.removeAt(idx)
	}
}

func (c *Cart) removeAt(idx int) {
	c.Lines = append(c.Lines[:idx], c.Lines[idx+1:]...)
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.Lines = []Line{}
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// Quantity returns the quantity held for itemID, or zero.
func (c *Cart) Quantity(itemID uuid.UUID) int {
	if idx := c.indexOf(itemID); idx >= 0 {
		return c.Lines[idx].Quantity
	}
	return 0
}

// ItemCount sums the quantities of every line.
func (c *Cart) ItemCount() int {
	total := 0
	for _, line := range c.Lines {
		total += line.Quantity
	}
	return total
}

// Total prices every line with priceOf.
func (c *Cart) Total(priceOf func(uuid.UUID) decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, line := range c.Lines {
		total = total.Add(priceOf(line.ItemID).Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	return total
}

// ItemIDs lists the item ids in line order.
func (c *Cart) ItemIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(c.Lines))
	for _, line := range c.Lines {
		ids = append(ids, line.ItemID)
	}
	return ids
}

// Clone returns an independent copy.
func (c *Cart) Clone() *Cart {
	lines := make([]Line, len(c.Lines))
	copy(lines, c.Lines)
	return &Cart{Lines: lines}
}
