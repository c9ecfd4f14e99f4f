package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartLine is one product-and-quantity pair. Product fields are copied at add time.
type CartLine struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Image     string          `json:"image"`
	Scale     bool            `json:"scale"`
	Quantity  int             `json:"quantity"`
	AddedAt   time.Time       `json:"added_at"`
}

func (l CartLine) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type Cart struct {
	UserID    string     `json:"user_id"`
	Lines     []CartLine `json:"lines"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	// AppliedCheckouts holds the most recent checkout ids already subtracted from Lines.
	AppliedCheckouts []string `json:"applied_checkouts,omitempty"`
}

// TotalAmount is recomputed on every call; it is never stored.
func (c Cart) TotalAmount() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.Lines {
		total = total.Add(l.Subtotal())
	}
	return total
}
