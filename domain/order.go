package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus tracks an order through its lifecycle.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// transitions lists the allowed next statuses for each state. Delivered and
// cancelled are terminal.
var transitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:    {OrderStatusDelivered},
	OrderStatusDelivered:  {},
	OrderStatusCancelled:  {},
}

// IsValid reports whether s is a known order status.
func (s OrderStatus) IsValid() bool {
	_, ok := transitions[s]
	return ok
}

// IsTerminal reports whether no further transitions are allowed from s.
func (s OrderStatus) IsTerminal() bool {
	next, ok := transitions[s]
	return ok && len(next) == 0
}

// CanTransitionTo reports whether the transition s -> next is allowed.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Cancellable reports whether the order may still be cancelled (and restocked).
func (s OrderStatus) Cancellable() bool {
	return s.CanTransitionTo(OrderStatusCancelled)
}

// OrderLine is a persisted order line. UnitPrice is a snapshot of the catalog
// price at the moment the order was placed and never changes afterwards.
type OrderLine struct {
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// Order is the persisted order aggregate: header fields plus the ordered list
// of lines. Only status and the shipping address (pre-shipment) are mutable
// after persistence.
type Order struct {
	ID              string          `json:"id"`
	CustomerID      string          `json:"customer_id"`
	Status          OrderStatus     `json:"status"`
	ShippingAddress string          `json:"shipping_address"`
	PaymentMethod   string          `json:"payment_method"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	Lines           []OrderLine     `json:"lines"`
	OrderedAt       time.Time       `json:"ordered_at"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// ComputeTotal sums the line subtotals.
func (o *Order) ComputeTotal() decimal.Decimal {
	total := decimal.Zero
	for _, line := range o.Lines {
		total = total.Add(line.Subtotal)
	}
	return total
}

// ProductIDs returns the distinct product IDs referenced by the order lines,
// in line order.
func (o *Order) ProductIDs() []string {
	seen := make(map[string]struct{}, len(o.Lines))
	ids := make([]string, 0, len(o.Lines))
	for _, line := range o.Lines {
		if _, ok := seen[line.ProductID]; ok {
			continue
		}
		seen[line.ProductID] = struct{}{}
		ids = append(ids, line.ProductID)
	}
	return ids
}

// QuantityByProduct aggregates the requested quantity per product. Orders may
// legally contain several lines for the same product; availability is judged
// against the combined quantity.
func (o *Order) QuantityByProduct() map[string]int {
	totals := make(map[string]int, len(o.Lines))
	for _, line := range o.Lines {
		totals[line.ProductID] += line.Quantity
	}
	return totals
}
