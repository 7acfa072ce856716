package router

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/shopline/backend/api/handler"
)

type Handlers struct {
	Order  *apiHandler.OrderHandler
	Stock  *apiHandler.StockHandler
	Health *apiHandler.HealthHandler
}

func New(handlers Handlers, authMiddleware func(fasthttp.RequestHandler) fasthttp.RequestHandler) *router.Router {
	r := router.New()

	r.GET("/health", handlers.Health.Check)

	// Order routes
	r.POST("/api/v1/orders", authMiddleware(handlers.Order.PlaceOrder))
	r.GET("/api/v1/orders", authMiddleware(handlers.Order.ListOrders))
	r.GET("/api/v1/orders/{id}", authMiddleware(handlers.Order.GetOrder))
	r.POST("/api/v1/orders/{id}/cancel", authMiddleware(handlers.Order.CancelOrder))
	r.POST("/api/v1/orders/{id}/status", authMiddleware(handlers.Order.AdvanceStatus))
	r.PUT("/api/v1/orders/{id}/address", authMiddleware(handlers.Order.UpdateAddress))

	// Stock routes; the report is registered before the wildcard so the
	// router does not treat "low" as a product id.
	r.GET("/api/v1/stock/low", authMiddleware(handlers.Stock.LowStockReport))
	r.GET("/api/v1/stock/{productID}", authMiddleware(handlers.Stock.GetStock))
	r.PUT("/api/v1/stock/{productID}", authMiddleware(handlers.Stock.SetStock))
	r.POST("/api/v1/stock/{productID}/adjust", authMiddleware(handlers.Stock.AdjustStock))

	return r
}
