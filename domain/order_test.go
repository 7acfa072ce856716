package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestOrderStatus_Transitions(t *testing.T) {
	cases := []struct {
		from    OrderStatus
		to      OrderStatus
		allowed bool
	}{
		{OrderStatusPending, OrderStatusProcessing, true},
		{OrderStatusPending, OrderStatusCancelled, true},
		{OrderStatusPending, OrderStatusShipped, false},
		{OrderStatusPending, OrderStatusDelivered, false},
		{OrderStatusProcessing, OrderStatusShipped, true},
		{OrderStatusProcessing, OrderStatusCancelled, true},
		{OrderStatusProcessing, OrderStatusDelivered, false},
		{OrderStatusShipped, OrderStatusDelivered, true},
		{OrderStatusShipped, OrderStatusCancelled, false},
		{OrderStatusDelivered, OrderStatusPending, false},
		{OrderStatusDelivered, OrderStatusCancelled, false},
		{OrderStatusCancelled, OrderStatusPending, false},
		{OrderStatusCancelled, OrderStatusProcessing, false},
	}

	for _, tc := range cases {
		assert.Equalf(t, tc.allowed, tc.from.CanTransitionTo(tc.to),
			"%s -> %s", tc.from, tc.to)
	}
}

func TestOrderStatus_Terminal(t *testing.T) {
	assert.True(t, OrderStatusDelivered.IsTerminal())
	assert.True(t, OrderStatusCancelled.IsTerminal())
	assert.False(t, OrderStatusPending.IsTerminal())
	assert.False(t, OrderStatusProcessing.IsTerminal())
	assert.False(t, OrderStatusShipped.IsTerminal())
}

func TestOrderStatus_Valid(t *testing.T) {
	assert.True(t, OrderStatusPending.IsValid())
	assert.False(t, OrderStatus("returned").IsValid())
	assert.False(t, OrderStatus("").IsValid())
}

func TestOrderStatus_Cancellable(t *testing.T) {
	assert.True(t, OrderStatusPending.Cancellable())
	assert.True(t, OrderStatusProcessing.Cancellable())
	assert.False(t, OrderStatusShipped.Cancellable())
	assert.False(t, OrderStatusDelivered.Cancellable())
	assert.False(t, OrderStatusCancelled.Cancellable())
}

func TestOrder_ComputeTotal(t *testing.T) {
	order := &Order{Lines: []OrderLine{
		{ProductID: "p1", Quantity: 2, UnitPrice: decimal.RequireFromString("19.99"), Subtotal: decimal.RequireFromString("39.98")},
		{ProductID: "p2", Quantity: 1, UnitPrice: decimal.RequireFromString("5.00"), Subtotal: decimal.RequireFromString("5.00")},
	}}

	assert.True(t, order.ComputeTotal().Equal(decimal.RequireFromString("44.98")))
}

func TestOrder_QuantityByProduct_AggregatesDuplicateLines(t *testing.T) {
	order := &Order{Lines: []OrderLine{
		{ProductID: "p1", Quantity: 2},
		{ProductID: "p2", Quantity: 1},
		{ProductID: "p1", Quantity: 3},
	}}

	assert.Equal(t, map[string]int{"p1": 5, "p2": 1}, order.QuantityByProduct())
	assert.Equal(t, []string{"p1", "p2"}, order.ProductIDs())
}
