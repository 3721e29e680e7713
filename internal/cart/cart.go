// Package cart holds a customer's line items. A cart only ever contains
// products of a single provider, because shipping cost and payment method
// eligibility are both provider-scoped.
package cart

import (
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Yusei-0/cuba-click/internal/models"
	"github.com/Yusei-0/cuba-click/internal/money"
)

type Line struct {
	ProductID  primitive.ObjectID `json:"productId"`
	ProviderID primitive.ObjectID `json:"providerId"`
	Name       string             `json:"name"`
	UnitPrice  decimal.Decimal    `json:"unitPrice"`
	Currency   string             `json:"currency"`
	Quantity   int                `json:"quantity"`
}

func (l Line) Subtotal() money.Amount {
	return money.NewNative(l.UnitPrice, l.Currency).Times(int64(l.Quantity))
}

// Cart is not safe for concurrent use; see Registry.
type Cart struct {
	lines []Line
}

func New() *Cart {
	return &Cart{}
}

// AddLine puts one unit of p in the cart. If the cart holds products of
// another provider, or priced in another currency, they are dropped first
// and replaced reports true. Every line therefore shares one native currency.
func (c *Cart) AddLine(p models.Product) (replaced bool) {
	line := Line{
		ProductID:  p.ID,
		ProviderID: p.ProviderID,
		Name:       p.Name,
		UnitPrice:  decimal.NewFromFloat(p.EffectivePrice()),
		Currency:   p.Currency,
		Quantity:   1,
	}

	for _, existing := range c.lines {
		if existing.ProviderID != p.ProviderID || existing.Currency != p.Currency {
			c.lines = []Line{line}
			return true
		}
	}

	for i := range c.lines {
		if c.lines[i].ProductID == p.ID {
			c.lines[i].Quantity++
			return false
		}
	}
	c.lines = append(c.lines, line)
	return false
}

func (c *Cart) RemoveLine(productID primitive.ObjectID) {
	kept := c.lines[:0]
	for _, l := range c.lines {
		if l.ProductID != productID {
			kept = append(kept, l)
		}
	}
	c.lines = kept
}

// SetQuantity with qty <= 0 removes the line. Unknown products are ignored.
func (c *Cart) SetQuantity(productID primitive.ObjectID, qty int) {
	if qty <= 0 {
		c.RemoveLine(productID)
		return
	}
	for i := range c.lines {
		if c.lines[i].ProductID == productID {
			c.lines[i].Quantity = qty
		}
	}
}

// Subtract removes the quantities held by other, dropping lines that reach
// zero. Lines added since other was taken stay in the cart.
func (c *Cart) Subtract(other *Cart) {
	for _, o := range other.lines {
		for i := range c.lines {
			if c.lines[i].ProductID == o.ProductID && c.lines[i].Currency == o.Currency {
				c.SetQuantity(o.ProductID, c.lines[i].Quantity-o.Quantity)
				break
			}
		}
	}
}

func (c *Cart) Clear() {
	c.lines = nil
}

func (c *Cart) IsEmpty() bool {
	return len(c.lines) == 0
}

// Lines returns a copy of the current lines in insertion order.
func (c *Cart) Lines() []Line {
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

// ProviderID is the provider every line belongs to; ok is false for an empty cart.
func (c *Cart) ProviderID() (primitive.ObjectID, bool) {
	if len(c.lines) == 0 {
		return primitive.NilObjectID, false
	}
	return c.lines[0].ProviderID, true
}

func (c *Cart) TotalQuantity() int {
	total := 0
	for _, l := range c.lines {
		total += l.Quantity
	}
	return total
}

// TotalPrice sums unit price times quantity in the lines' native currency.
// AddLine keeps that currency uniform, so an error means a corrupted cart.
func (c *Cart) TotalPrice() (money.Amount, error) {
	subtotals := make([]money.Amount, 0, len(c.lines))
	for _, l := range c.lines {
		subtotals = append(subtotals, l.Subtotal())
	}
	return money.Sum(subtotals...)
}
