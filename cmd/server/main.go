package main

import (
	"context"
	"log"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/shopline/backend/api/handler"
	"github.com/shopline/backend/internal/config"
	"github.com/shopline/backend/internal/infrastructure/alertjournal"
	"github.com/shopline/backend/internal/infrastructure/monitor"
	pgInfra "github.com/shopline/backend/internal/infrastructure/postgres"
	redisInfra "github.com/shopline/backend/internal/infrastructure/redis"
	"github.com/shopline/backend/internal/middleware"
	"github.com/shopline/backend/internal/router"
	"github.com/shopline/backend/internal/services"
	"github.com/shopline/backend/internal/services/lifecycle"
	"github.com/shopline/backend/pkg/httpcontext"
	"github.com/shopline/backend/pkg/logger"
	"github.com/shopline/backend/repository/postgres"
	redisRepo "github.com/shopline/backend/repository/redis"
	checkoutUC "github.com/shopline/backend/usecase/checkout"
	"github.com/shopline/backend/usecase/inventory"
	"github.com/shopline/backend/usecase/lowstock"
	ordersUC "github.com/shopline/backend/usecase/orders"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	manager.Listen(cancel)

	if err := pgInfra.RunMigrations(cfg, zapLogger); err != nil {
		zapLogger.Fatal("migrations failed", zap.Error(err))
	}

	pool, err := pgInfra.NewPool(appCtx, cfg.Database, zapLogger)
	if err != nil {
		zapLogger.Fatal("postgres connection failed", zap.Error(err))
	}
	manager.Register("postgres", func(ctx context.Context) error {
		pool.Close()
		return nil
	})

	redisClient, err := redisInfra.NewClient(cfg.Redis)
	if err != nil {
		zapLogger.Fatal("redis connection failed", zap.Error(err))
	}
	manager.Register("redis", func(ctx context.Context) error {
		return redisClient.Close()
	})

	journal, err := alertjournal.Open(cfg.Alerts.JournalPath)
	if err != nil {
		zapLogger.Fatal("failed to open alert journal", zap.Error(err))
	}
	manager.Register("alert_journal", func(ctx context.Context) error {
		return journal.Close()
	})

	mon := monitor.New(pool, redisClient, journal, 10*time.Second, zapLogger)
	mon.Start()
	manager.Register("monitor", func(ctx context.Context) error {
		mon.Stop()
		return nil
	})

	stockRepo := postgres.NewStockRepository(pool)
	orderRepo := postgres.NewOrderRepository(pool)
	catalog := postgres.NewCatalogLookup(pool)
	customers := postgres.NewCustomerDirectory(pool)
	idempotency := redisRepo.NewIdempotencyStore(redisClient, cfg.Redis.IdempotencyTTL)

	ledger := inventory.NewLedger(stockRepo, zapLogger)
	checkoutUseCase := checkoutUC.New(catalog, customers, orderRepo, ledger, idempotency, zapLogger)
	ordersUseCase := ordersUC.New(orderRepo, ledger, zapLogger)
	lowStockMonitor := lowstock.NewMonitor(ledger)

	sweeper := services.NewAlertSweeper(lowStockMonitor, journal, zapLogger, services.SweeperConfig{
		Interval:  cfg.Alerts.SweepInterval,
		Realert:   cfg.Alerts.RealertAfter,
		Retention: time.Duration(cfg.Alerts.RetentionHours) * time.Hour,
	})
	sweeper.Start()
	manager.Register("alert_sweeper", func(ctx context.Context) error {
		sweeper.Stop(ctx)
		return nil
	})

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)

	handlers := router.Handlers{
		Order:  apiHandler.NewOrderHandler(checkoutUseCase, ordersUseCase, ctxAdapter, zapLogger),
		Stock:  apiHandler.NewStockHandler(ledger, lowStockMonitor, ctxAdapter, zapLogger),
		Health: apiHandler.NewHealthHandler(mon, ctxAdapter, zapLogger),
	}

	authMiddleware := middleware.JWTAuth(cfg.JWT.Secret, cfg.JWT.Issuer, zapLogger)
	r := router.New(handlers, authMiddleware)

	server := &fasthttp.Server{
		Handler:      r.Handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		Name:         cfg.AppName,
	}

	go func() {
		zapLogger.Info("server started", zap.String("address", cfg.Address()))
		if err := server.ListenAndServe(cfg.Address()); err != nil {
			zapLogger.Fatal("server crashed", zap.Error(err))
		}
	}()

	manager.Register("http_server", func(ctx context.Context) error {
		return server.Shutdown()
	})

	<-appCtx.Done()

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}
