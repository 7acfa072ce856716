package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/shopline/backend/api/transport"
	"github.com/shopline/backend/domain"
	"github.com/shopline/backend/pkg/httpcontext"
)

type baseHandler struct {
	adapter *httpcontext.Adapter
	logger  *zap.Logger
}

func newBaseHandler(adapter *httpcontext.Adapter, logger *zap.Logger) baseHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return baseHandler{adapter: adapter, logger: logger}
}

func (h baseHandler) requestContext(ctx *fasthttp.RequestCtx) (context.Context, context.CancelFunc) {
	if h.adapter != nil {
		return h.adapter.Attach(ctx)
	}
	return context.WithCancel(context.Background())
}

func (h baseHandler) respondJSON(ctx *fasthttp.RequestCtx, status int, payload transport.Envelope) {
	// The context adapter stamps X-Request-ID on the response; echoing it in
	// the body lets clients correlate without header access.
	if reqID := string(ctx.Response.Header.Peek("X-Request-ID")); reqID != "" {
		payload = payload.WithRequestID(reqID)
	}
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(status)
	body, _ := json.Marshal(payload)
	ctx.SetBody(body)
}

func (h baseHandler) respondSuccess(ctx *fasthttp.RequestCtx, status int, data interface{}) {
	h.respondJSON(ctx, status, transport.NewSuccess(data, nil))
}

func (h baseHandler) respondError(ctx *fasthttp.RequestCtx, err error) {
	status, code := mapError(err)
	h.respondJSON(ctx, status, transport.NewError(code, err.Error(), nil))
}

// mapError translates the error taxonomy into HTTP statuses and stable codes.
// Each business failure keeps its own code so the UI can tell the customer
// which product ran short or why a cancellation was rejected.
func mapError(err error) (int, string) {
	var insufficient *domain.InsufficientStockError
	if errors.As(err, &insufficient) {
		return http.StatusConflict, "INSUFFICIENT_STOCK"
	}
	var unavailable *domain.ProductUnavailableError
	if errors.As(err, &unavailable) {
		return http.StatusConflict, "PRODUCT_UNAVAILABLE"
	}
	var transition *domain.InvalidTransitionError
	if errors.As(err, &transition) {
		return http.StatusConflict, "INVALID_TRANSITION"
	}

	switch {
	case domain.IsDomainError(err, domain.ErrCodeUnauthorized):
		return http.StatusUnauthorized, string(domain.ErrCodeUnauthorized)
	case domain.IsDomainError(err, domain.ErrCodeForbidden):
		return http.StatusForbidden, string(domain.ErrCodeForbidden)
	case domain.IsDomainError(err, domain.ErrCodeInvalid):
		return http.StatusBadRequest, string(domain.ErrCodeInvalid)
	case domain.IsDomainError(err, domain.ErrCodeNotFound):
		return http.StatusNotFound, string(domain.ErrCodeNotFound)
	case domain.IsDomainError(err, domain.ErrCodeConflict):
		return http.StatusConflict, string(domain.ErrCodeConflict)
	default:
		return http.StatusInternalServerError, string(domain.ErrCodeInternal)
	}
}
