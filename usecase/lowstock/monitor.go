package lowstock

import (
	"context"
	"sort"

	"github.com/shopline/backend/domain"
	"github.com/shopline/backend/usecase/inventory"
)

// Monitor is the read side over the stock ledger: it derives the low-stock
// report and mutates nothing, so it is safe to run concurrently with any
// writer.
type Monitor struct {
	ledger *inventory.Ledger
}

func NewMonitor(ledger *inventory.Ledger) *Monitor {
	return &Monitor{ledger: ledger}
}

// Report returns every product below its threshold, annotated with the units
// needed to reach it, most-starved first. Ties break on product ID so the
// report is deterministic.
func (m *Monitor) Report(ctx context.Context) ([]domain.LowStockItem, error) {
	records, err := m.ledger.ListRecords(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]domain.LowStockItem, 0)
	for i := range records {
		record := &records[i]
		if !record.IsLow() {
			continue
		}
		items = append(items, domain.LowStockItem{
			ProductID:    record.ProductID,
			Quantity:     record.Quantity,
			MinThreshold: record.MinThreshold,
			UnitsNeeded:  record.MinThreshold - record.Quantity,
		})
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].UnitsNeeded != items[j].UnitsNeeded {
			return items[i].UnitsNeeded > items[j].UnitsNeeded
		}
		return items[i].ProductID < items[j].ProductID
	})
	return items, nil
}
