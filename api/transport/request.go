package transport

type OrderLineRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type PlaceOrderRequest struct {
	CustomerID      string             `json:"customer_id"`
	Lines           []OrderLineRequest `json:"lines"`
	ShippingAddress string             `json:"shipping_address"`
	PaymentMethod   string             `json:"payment_method"`
}

type AdvanceStatusRequest struct {
	Status string `json:"status"`
}

type UpdateAddressRequest struct {
	ShippingAddress string `json:"shipping_address"`
}

type AdjustStockRequest struct {
	Delta int `json:"delta"`
}

type SetStockRequest struct {
	Quantity int `json:"quantity"`
}
