package domain

import "github.com/shopspring/decimal"

// CartLine pairs a product snapshot with a quantity for one shopping
// session. The embedded Product is a point-in-time copy: its stock field
// may go stale relative to the catalog, which re-validates at checkout.
type CartLine struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

func (l CartLine) Subtotal() decimal.Decimal {
	return l.Product.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart holds the lines of the current session, ordered by insertion,
// at most one line per product id.
type Cart struct {
	Lines []CartLine `json:"lines"`
}

// Find returns a pointer to the line for productID, or nil.
func (c *Cart) Find(productID int64) *CartLine {
	for i := range c.Lines {
		if c.Lines[i].Product.ID == productID {
			return &c.Lines[i]
		}
	}
	return nil
}

// Remove deletes the line for productID. Removing an absent line is a no-op.
func (c *Cart) Remove(productID int64) {
	for i, line := range c.Lines {
		if line.Product.ID == productID {
			c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
			return
		}
	}
}

// Subtotal is derived from the lines on every call, never cached.
func (c Cart) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, line := range c.Lines {
		total = total.Add(line.Subtotal())
	}
	return total
}

// Units returns the total quantity across all lines.
func (c Cart) Units() int {
	n := 0
	for _, line := range c.Lines {
		n += line.Quantity
	}
	return n
}

func (c Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// Items freezes the cart into transaction line items, immune to later
// catalog changes.
func (c Cart) Items() []TransactionItem {
	items := make([]TransactionItem, 0, len(c.Lines))
	for _, line := range c.Lines {
		items = append(items, TransactionItem{
			ProductID:   line.Product.ID,
			ProductName: line.Product.Name,
			Price:       line.Product.Price,
			Quantity:    line.Quantity,
			Subtotal:    line.Subtotal(),
		})
	}
	return items
}
