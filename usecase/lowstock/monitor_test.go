package lowstock

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopline/backend/domain"
	"github.com/shopline/backend/usecase/inventory"
)

type stockList []domain.StockRecord

func (s stockList) Get(_ context.Context, productID string) (*domain.StockRecord, error) {
	for i := range s {
		if s[i].ProductID == productID {
			copied := s[i]
			return &copied, nil
		}
	}
	return nil, domain.ErrStockNotFound
}

func (s stockList) List(_ context.Context) ([]domain.StockRecord, error) {
	return append([]domain.StockRecord(nil), s...), nil
}

func (s stockList) ApplyDelta(_ context.Context, _ string, _ int, _, _ string) error {
	return nil
}

func (s stockList) SetQuantity(_ context.Context, _ string, _ int) error {
	return nil
}

func TestReport(t *testing.T) {
	ctx := context.Background()

	t.Run("flags products below threshold with units needed", func(t *testing.T) {
		monitor := NewMonitor(inventory.NewLedger(stockList{
			{ProductID: "widget", Quantity: 5, MinThreshold: 10},
			{ProductID: "healthy", Quantity: 50, MinThreshold: 10},
		}, nil))

		items, err := monitor.Report(ctx)
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "widget", items[0].ProductID)
		assert.Equal(t, 5, items[0].UnitsNeeded)
	})

	t.Run("quantity at threshold is not low", func(t *testing.T) {
		monitor := NewMonitor(inventory.NewLedger(stockList{
			{ProductID: "edge", Quantity: 10, MinThreshold: 10},
		}, nil))

		items, err := monitor.Report(ctx)
		require.NoError(t, err)
		assert.Empty(t, items)
	})

	t.Run("most starved first, ties on product id", func(t *testing.T) {
		monitor := NewMonitor(inventory.NewLedger(stockList{
			{ProductID: "b", Quantity: 2, MinThreshold: 10},
			{ProductID: "c", Quantity: 9, MinThreshold: 10},
			{ProductID: "a", Quantity: 2, MinThreshold: 10},
		}, nil))

		items, err := monitor.Report(ctx)
		require.NoError(t, err)
		require.Len(t, items, 3)
		assert.Equal(t, "a", items[0].ProductID)
		assert.Equal(t, "b", items[1].ProductID)
		assert.Equal(t, "c", items[2].ProductID)
	})

	t.Run("empty inventory yields empty report", func(t *testing.T) {
		monitor := NewMonitor(inventory.NewLedger(stockList{}, nil))

		items, err := monitor.Report(ctx)
		require.NoError(t, err)
		assert.Empty(t, items)
	})
}
