package orders

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopline/backend/domain"
	"github.com/shopline/backend/repository"
	"github.com/shopline/backend/usecase/inventory"
)

type stockStore struct {
	mu      sync.Mutex
	records map[string]*domain.StockRecord
}

func newStockStore() *stockStore {
	return &stockStore{records: make(map[string]*domain.StockRecord)}
}

func (s *stockStore) add(productID string, qty int) *stockStore {
	s.records[productID] = &domain.StockRecord{ProductID: productID, Quantity: qty}
	return s
}

func (s *stockStore) quantity(productID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.records[productID].Quantity
}

func (s *stockStore) Get(_ context.Context, productID string) (*domain.StockRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[productID]
	if !ok {
		return nil, domain.ErrStockNotFound
	}
	copied := *record
	return &copied, nil
}

func (s *stockStore) List(_ context.Context) ([]domain.StockRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.StockRecord, 0, len(s.records))
	for _, record := range s.records {
		out = append(out, *record)
	}
	return out, nil
}

func (s *stockStore) ApplyDelta(_ context.Context, productID string, delta int, _, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[productID]
	if !ok {
		return domain.ErrStockNotFound
	}
	if record.Quantity+delta < 0 {
		return domain.ErrStockConflict
	}
	record.Quantity += delta
	return nil
}

func (s *stockStore) SetQuantity(_ context.Context, productID string, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[productID]
	if !ok {
		return domain.ErrStockNotFound
	}
	record.Quantity = quantity
	return nil
}

// orderStore keeps the real repository's transactional contract: Cancel flips
// the status and restocks atomically, and both guarded updates fail when the
// expected status no longer matches.
type orderStore struct {
	mu        sync.Mutex
	stocks    *stockStore
	orders    map[string]*domain.Order
	cancelErr error
}

func newOrderStore(stocks *stockStore, orders ...*domain.Order) *orderStore {
	s := &orderStore{stocks: stocks, orders: make(map[string]*domain.Order)}
	for _, order := range orders {
		copied := *order
		s.orders[order.ID] = &copied
	}
	return s
}

func (s *orderStore) GetByID(_ context.Context, id string) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	copied := *order
	return &copied, nil
}

func (s *orderStore) List(_ context.Context, filter repository.OrderFilter) ([]domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Order, 0, len(s.orders))
	for _, order := range s.orders {
		if filter.CustomerID != "" && order.CustomerID != filter.CustomerID {
			continue
		}
		if filter.Status != "" && string(order.Status) != filter.Status {
			continue
		}
		out = append(out, *order)
	}
	return out, nil
}

func (s *orderStore) Create(_ context.Context, order *domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *order
	s.orders[order.ID] = &copied
	return nil
}

func (s *orderStore) Cancel(_ context.Context, order *domain.Order, expected domain.OrderStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancelErr != nil {
		return s.cancelErr
	}
	stored, ok := s.orders[order.ID]
	if !ok {
		return domain.ErrOrderNotFound
	}
	if stored.Status != expected {
		return domain.NewError(domain.ErrCodeConflict, "order status changed concurrently")
	}

	stored.Status = domain.OrderStatusCancelled
	s.stocks.mu.Lock()
	defer s.stocks.mu.Unlock()
	for productID, qty := range order.QuantityByProduct() {
		s.stocks.records[productID].Quantity += qty
	}
	return nil
}

func (s *orderStore) UpdateStatus(_ context.Context, id string, next, expected domain.OrderStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.orders[id]
	if !ok {
		return domain.ErrOrderNotFound
	}
	if stored.Status != expected {
		return domain.NewError(domain.ErrCodeConflict, "order status changed concurrently")
	}
	stored.Status = next
	return nil
}

func (s *orderStore) UpdateShippingAddress(_ context.Context, id, address string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.orders[id]
	if !ok {
		return domain.ErrOrderNotFound
	}
	stored.ShippingAddress = address
	return nil
}

func pendingOrder(id string) *domain.Order {
	return &domain.Order{
		ID:         id,
		CustomerID: "c1",
		Status:     domain.OrderStatusPending,
		Lines: []domain.OrderLine{
			{ProductID: "p1", Quantity: 2},
			{ProductID: "p2", Quantity: 3},
		},
	}
}

func newUseCase(orders *orderStore) *UseCase {
	return New(orders, inventory.NewLedger(orders.stocks, nil), nil)
}

func TestAdvanceStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("pending to processing", func(t *testing.T) {
		stocks := newStockStore().add("p1", 0).add("p2", 0)
		store := newOrderStore(stocks, pendingOrder("o1"))
		uc := newUseCase(store)

		order, err := uc.AdvanceStatus(ctx, "o1", domain.OrderStatusProcessing)
		require.NoError(t, err)
		assert.Equal(t, domain.OrderStatusProcessing, order.Status)

		stored, err := store.GetByID(ctx, "o1")
		require.NoError(t, err)
		assert.Equal(t, domain.OrderStatusProcessing, stored.Status)
	})

	t.Run("full path to delivered", func(t *testing.T) {
		stocks := newStockStore().add("p1", 0).add("p2", 0)
		store := newOrderStore(stocks, pendingOrder("o1"))
		uc := newUseCase(store)

		for _, next := range []domain.OrderStatus{
			domain.OrderStatusProcessing,
			domain.OrderStatusShipped,
			domain.OrderStatusDelivered,
		} {
			_, err := uc.AdvanceStatus(ctx, "o1", next)
			require.NoError(t, err)
		}

		stored, err := store.GetByID(ctx, "o1")
		require.NoError(t, err)
		assert.Equal(t, domain.OrderStatusDelivered, stored.Status)
	})

	t.Run("skipping a state is rejected", func(t *testing.T) {
		stocks := newStockStore().add("p1", 0).add("p2", 0)
		store := newOrderStore(stocks, pendingOrder("o1"))
		uc := newUseCase(store)

		_, err := uc.AdvanceStatus(ctx, "o1", domain.OrderStatusShipped)

		var transition *domain.InvalidTransitionError
		require.ErrorAs(t, err, &transition)
		assert.Equal(t, domain.OrderStatusPending, transition.From)
		assert.Equal(t, domain.OrderStatusShipped, transition.To)
	})

	t.Run("nothing leaves a terminal state", func(t *testing.T) {
		for _, terminal := range []domain.OrderStatus{domain.OrderStatusDelivered, domain.OrderStatusCancelled} {
			order := pendingOrder("o1")
			order.Status = terminal
			stocks := newStockStore().add("p1", 0).add("p2", 0)
			uc := newUseCase(newOrderStore(stocks, order))

			for _, next := range []domain.OrderStatus{
				domain.OrderStatusPending,
				domain.OrderStatusProcessing,
				domain.OrderStatusShipped,
				domain.OrderStatusDelivered,
			} {
				if next == terminal {
					continue
				}
				_, err := uc.AdvanceStatus(ctx, "o1", next)
				var transition *domain.InvalidTransitionError
				assert.ErrorAsf(t, err, &transition, "%s -> %s must be rejected", terminal, next)
			}
		}
	})

	t.Run("unknown status", func(t *testing.T) {
		stocks := newStockStore().add("p1", 0).add("p2", 0)
		uc := newUseCase(newOrderStore(stocks, pendingOrder("o1")))

		_, err := uc.AdvanceStatus(ctx, "o1", domain.OrderStatus("returned"))
		assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))
	})

	t.Run("unknown order", func(t *testing.T) {
		stocks := newStockStore()
		uc := newUseCase(newOrderStore(stocks))

		_, err := uc.AdvanceStatus(ctx, "ghost", domain.OrderStatusProcessing)
		assert.ErrorIs(t, err, domain.ErrOrderNotFound)
	})
}

func TestCancel(t *testing.T) {
	ctx := context.Background()

	t.Run("pending order restocks every line", func(t *testing.T) {
		stocks := newStockStore().add("p1", 8).add("p2", 7)
		store := newOrderStore(stocks, pendingOrder("o1"))
		uc := newUseCase(store)

		order, err := uc.Cancel(ctx, "o1")
		require.NoError(t, err)
		assert.Equal(t, domain.OrderStatusCancelled, order.Status)

		assert.Equal(t, 10, stocks.quantity("p1"))
		assert.Equal(t, 10, stocks.quantity("p2"))
	})

	t.Run("shipped order cannot be cancelled", func(t *testing.T) {
		order := pendingOrder("o1")
		order.Status = domain.OrderStatusShipped
		stocks := newStockStore().add("p1", 8).add("p2", 7)
		uc := newUseCase(newOrderStore(stocks, order))

		_, err := uc.Cancel(ctx, "o1")

		var transition *domain.InvalidTransitionError
		require.ErrorAs(t, err, &transition)
		assert.Equal(t, domain.OrderStatusShipped, transition.From)
		assert.Equal(t, domain.OrderStatusCancelled, transition.To)

		assert.Equal(t, 8, stocks.quantity("p1"), "no restock on rejected cancel")
	})

	t.Run("cancelling twice fails and restocks once", func(t *testing.T) {
		stocks := newStockStore().add("p1", 8).add("p2", 7)
		store := newOrderStore(stocks, pendingOrder("o1"))
		uc := newUseCase(store)

		_, err := uc.Cancel(ctx, "o1")
		require.NoError(t, err)

		_, err = uc.Cancel(ctx, "o1")
		var transition *domain.InvalidTransitionError
		require.ErrorAs(t, err, &transition)

		assert.Equal(t, 10, stocks.quantity("p1"))
		assert.Equal(t, 10, stocks.quantity("p2"))
	})

	t.Run("storage failure leaves status and stock untouched", func(t *testing.T) {
		stocks := newStockStore().add("p1", 8).add("p2", 7)
		store := newOrderStore(stocks, pendingOrder("o1"))
		store.cancelErr = errors.New("connection reset")
		uc := newUseCase(store)

		_, err := uc.Cancel(ctx, "o1")
		require.Error(t, err)
		assert.True(t, domain.IsDomainError(err, domain.ErrCodeInternal))

		stored, err := store.GetByID(ctx, "o1")
		require.NoError(t, err)
		assert.Equal(t, domain.OrderStatusPending, stored.Status)
		assert.Equal(t, 8, stocks.quantity("p1"))
		assert.Equal(t, 7, stocks.quantity("p2"))
	})

	t.Run("advance to cancelled routes through cancel", func(t *testing.T) {
		stocks := newStockStore().add("p1", 8).add("p2", 7)
		store := newOrderStore(stocks, pendingOrder("o1"))
		uc := newUseCase(store)

		order, err := uc.AdvanceStatus(ctx, "o1", domain.OrderStatusCancelled)
		require.NoError(t, err)
		assert.Equal(t, domain.OrderStatusCancelled, order.Status)
		assert.Equal(t, 10, stocks.quantity("p1"), "restock must run even via AdvanceStatus")
	})
}

func TestUpdateShippingAddress(t *testing.T) {
	ctx := context.Background()

	t.Run("allowed while pending", func(t *testing.T) {
		stocks := newStockStore().add("p1", 0).add("p2", 0)
		store := newOrderStore(stocks, pendingOrder("o1"))
		uc := newUseCase(store)

		order, err := uc.UpdateShippingAddress(ctx, "o1", "  2 Oak Ave  ")
		require.NoError(t, err)
		assert.Equal(t, "2 Oak Ave", order.ShippingAddress)
	})

	t.Run("allowed while processing", func(t *testing.T) {
		order := pendingOrder("o1")
		order.Status = domain.OrderStatusProcessing
		stocks := newStockStore().add("p1", 0).add("p2", 0)
		uc := newUseCase(newOrderStore(stocks, order))

		_, err := uc.UpdateShippingAddress(ctx, "o1", "2 Oak Ave")
		assert.NoError(t, err)
	})

	t.Run("locked once shipped", func(t *testing.T) {
		for _, status := range []domain.OrderStatus{
			domain.OrderStatusShipped,
			domain.OrderStatusDelivered,
			domain.OrderStatusCancelled,
		} {
			order := pendingOrder("o1")
			order.Status = status
			stocks := newStockStore().add("p1", 0).add("p2", 0)
			uc := newUseCase(newOrderStore(stocks, order))

			_, err := uc.UpdateShippingAddress(ctx, "o1", "2 Oak Ave")
			assert.ErrorIsf(t, err, domain.ErrAddressLocked, "status %s", status)
		}
	})

	t.Run("blank address rejected", func(t *testing.T) {
		stocks := newStockStore().add("p1", 0).add("p2", 0)
		uc := newUseCase(newOrderStore(stocks, pendingOrder("o1")))

		_, err := uc.UpdateShippingAddress(ctx, "o1", "   ")
		assert.ErrorIs(t, err, domain.ErrInvalidPayload)
	})
}

func TestListOrders_Filter(t *testing.T) {
	ctx := context.Background()

	other := pendingOrder("o2")
	other.CustomerID = "c2"
	stocks := newStockStore().add("p1", 0).add("p2", 0)
	uc := newUseCase(newOrderStore(stocks, pendingOrder("o1"), other))

	orders, err := uc.ListOrders(ctx, repository.OrderFilter{CustomerID: "c1"})
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "o1", orders[0].ID)
}
