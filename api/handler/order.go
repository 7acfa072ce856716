package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/shopline/backend/api/transport"
	"github.com/shopline/backend/domain"
	"github.com/shopline/backend/internal/middleware"
	"github.com/shopline/backend/pkg/httpcontext"
	"github.com/shopline/backend/repository"
	checkoutUC "github.com/shopline/backend/usecase/checkout"
	ordersUC "github.com/shopline/backend/usecase/orders"
)

type OrderHandler struct {
	baseHandler
	checkout *checkoutUC.UseCase
	orders   *ordersUC.UseCase
}

func NewOrderHandler(checkout *checkoutUC.UseCase, orders *ordersUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{
		baseHandler: newBaseHandler(adapter, logger),
		checkout:    checkout,
		orders:      orders,
	}
}

// @Summary Place order
// @Tags orders
// @Router /api/v1/orders [post]
func (h *OrderHandler) PlaceOrder(ctx *fasthttp.RequestCtx) {
	var req transport.PlaceOrderRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "invalid payload", nil))
		return
	}

	lines := make([]checkoutUC.LineItem, 0, len(req.Lines))
	for _, line := range req.Lines {
		lines = append(lines, checkoutUC.LineItem{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
		})
	}

	input := checkoutUC.PlaceOrderInput{
		CustomerID:      req.CustomerID,
		Lines:           lines,
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
		RequestID:       string(ctx.Request.Header.Peek("X-Request-ID")),
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	order, err := h.checkout.PlaceOrder(stdCtx, input)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, order)
}

// @Summary Get order
// @Tags orders
// @Router /api/v1/orders/{id} [get]
func (h *OrderHandler) GetOrder(ctx *fasthttp.RequestCtx) {
	id, ok := h.orderID(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	order, err := h.orders.GetOrder(stdCtx, id)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, order)
}

// @Summary List orders
// @Tags orders
// @Router /api/v1/orders [get]
func (h *OrderHandler) ListOrders(ctx *fasthttp.RequestCtx) {
	// Without an explicit filter the listing is scoped to the caller.
	customerID := string(ctx.QueryArgs().Peek("customer_id"))
	if customerID == "" {
		customerID = middleware.AuthenticatedCustomer(ctx)
	}

	filter := repository.OrderFilter{
		CustomerID: customerID,
		Status:     string(ctx.QueryArgs().Peek("status")),
		Limit:      parseInt(string(ctx.QueryArgs().Peek("limit")), 50),
		Offset:     parseInt(string(ctx.QueryArgs().Peek("offset")), 0),
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	orders, err := h.orders.ListOrders(stdCtx, filter)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, orders)
}

// @Summary Cancel order
// @Tags orders
// @Router /api/v1/orders/{id}/cancel [post]
func (h *OrderHandler) CancelOrder(ctx *fasthttp.RequestCtx) {
	id, ok := h.orderID(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	order, err := h.orders.Cancel(stdCtx, id)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, order)
}

// @Summary Advance order status
// @Tags orders
// @Router /api/v1/orders/{id}/status [post]
func (h *OrderHandler) AdvanceStatus(ctx *fasthttp.RequestCtx) {
	id, ok := h.orderID(ctx)
	if !ok {
		return
	}

	var req transport.AdvanceStatusRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil || req.Status == "" {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "invalid payload", nil))
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	order, err := h.orders.AdvanceStatus(stdCtx, id, domain.OrderStatus(req.Status))
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, order)
}

// @Summary Update shipping address
// @Tags orders
// @Router /api/v1/orders/{id}/address [put]
func (h *OrderHandler) UpdateAddress(ctx *fasthttp.RequestCtx) {
	id, ok := h.orderID(ctx)
	if !ok {
		return
	}

	var req transport.UpdateAddressRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "invalid payload", nil))
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	order, err := h.orders.UpdateShippingAddress(stdCtx, id, req.ShippingAddress)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, order)
}

func (h *OrderHandler) orderID(ctx *fasthttp.RequestCtx) (string, bool) {
	id, _ := ctx.UserValue("id").(string)
	if id == "" {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "missing order id", nil))
		return "", false
	}
	return id, true
}

func parseInt(value string, fallback int) int {
	if v, err := strconv.Atoi(value); err == nil {
		return v
	}
	return fallback
}
