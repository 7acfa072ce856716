package usecase

import (
	"context"

	"github.com/shopline/backend/domain"
)

// LowStockReporter abstracts the low-stock read model so background services
// stay decoupled from the concrete monitor.
type LowStockReporter interface {
	Report(ctx context.Context) ([]domain.LowStockItem, error)
}
