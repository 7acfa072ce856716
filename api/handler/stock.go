package handler

import (
	"encoding/json"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/shopline/backend/api/transport"
	"github.com/shopline/backend/domain"
	"github.com/shopline/backend/pkg/httpcontext"
	"github.com/shopline/backend/usecase/inventory"
	"github.com/shopline/backend/usecase/lowstock"
)

type StockHandler struct {
	baseHandler
	ledger  *inventory.Ledger
	monitor *lowstock.Monitor
}

func NewStockHandler(ledger *inventory.Ledger, monitor *lowstock.Monitor, adapter *httpcontext.Adapter, logger *zap.Logger) *StockHandler {
	return &StockHandler{
		baseHandler: newBaseHandler(adapter, logger),
		ledger:      ledger,
		monitor:     monitor,
	}
}

// @Summary Get stock record
// @Tags stock
// @Router /api/v1/stock/{productID} [get]
func (h *StockHandler) GetStock(ctx *fasthttp.RequestCtx) {
	productID, ok := h.productID(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	record, err := h.ledger.Get(stdCtx, productID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	h.respondSuccess(ctx, http.StatusOK, map[string]interface{}{
		"product_id":    record.ProductID,
		"quantity":      record.Quantity,
		"min_threshold": record.MinThreshold,
		"low_stock":     record.IsLow(),
		"out_of_stock":  record.IsOut(),
		"updated_at":    record.UpdatedAt,
	})
}

// @Summary Adjust stock by delta
// @Tags stock
// @Router /api/v1/stock/{productID}/adjust [post]
func (h *StockHandler) AdjustStock(ctx *fasthttp.RequestCtx) {
	productID, ok := h.productID(ctx)
	if !ok {
		return
	}

	var req transport.AdjustStockRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "invalid payload", nil))
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	record, err := h.ledger.Adjust(stdCtx, productID, req.Delta)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, record)
}

// @Summary Overwrite stock quantity
// @Tags stock
// @Router /api/v1/stock/{productID} [put]
func (h *StockHandler) SetStock(ctx *fasthttp.RequestCtx) {
	productID, ok := h.productID(ctx)
	if !ok {
		return
	}

	var req transport.SetStockRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "invalid payload", nil))
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.ledger.SetQuantity(stdCtx, productID, req.Quantity); err != nil {
		h.respondError(ctx, err)
		return
	}

	record, err := h.ledger.Get(stdCtx, productID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, record)
}

// @Summary Low stock report
// @Tags stock
// @Router /api/v1/stock/low [get]
func (h *StockHandler) LowStockReport(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	items, err := h.monitor.Report(stdCtx)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, items)
}

func (h *StockHandler) productID(ctx *fasthttp.RequestCtx) (string, bool) {
	id, _ := ctx.UserValue("productID").(string)
	if id == "" {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "missing product id", nil))
		return "", false
	}
	return id, true
}
