package domain

import "time"

// StockRecord holds the on-hand quantity for one product. There is exactly
// one record per product; it is created with the product and removed with it.
type StockRecord struct {
	ProductID    string    `json:"product_id"`
	Quantity     int       `json:"quantity"`
	MinThreshold int       `json:"min_threshold"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsLow reports whether the on-hand quantity dropped below the threshold.
func (s *StockRecord) IsLow() bool {
	return s != nil && s.Quantity < s.MinThreshold
}

// IsOut reports whether the product is fully depleted.
func (s *StockRecord) IsOut() bool {
	return s != nil && s.Quantity == 0
}

// LowStockItem is one row of the low-stock report.
type LowStockItem struct {
	ProductID    string `json:"product_id"`
	Quantity     int    `json:"quantity"`
	MinThreshold int    `json:"min_threshold"`
	UnitsNeeded  int    `json:"units_needed"`
}

// Movement reasons recorded in the stock audit trail.
const (
	MovementReasonOrder      = "order"
	MovementReasonCancel     = "cancel"
	MovementReasonManual     = "manual"
	MovementReasonCorrection = "correction"
)

// StockMovement is an audit entry for a single stock mutation. Delta is
// negative for reservations and positive for releases.
type StockMovement struct {
	ID        string    `json:"id"`
	ProductID string    `json:"product_id"`
	Delta     int       `json:"delta"`
	Reason    string    `json:"reason"`
	OrderID   string    `json:"order_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
