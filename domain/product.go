package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is catalog data, read-only from the ordering core's point of view.
// The catalog service owns its lifecycle.
type Product struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Active    bool            `json:"active"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Orderable reports whether the product may appear on a new order.
func (p *Product) Orderable() bool {
	return p != nil && p.Active
}
