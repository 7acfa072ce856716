package services

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/shopline/backend/domain"
	"github.com/shopline/backend/internal/infrastructure/alertjournal"
	"github.com/shopline/backend/usecase"
)

// SweeperConfig controls how often low stock is checked and re-announced.
type SweeperConfig struct {
	Interval  time.Duration
	Realert   time.Duration
	Retention time.Duration
}

// AlertSweeper periodically runs the low-stock report and emits one alert per
// starving product. The journal dedupes chronic items: a product is announced
// again only after the re-alert window passes or its deficit worsens, and its
// entry is cleared once it recovers so a relapse alerts immediately.
type AlertSweeper struct {
	reporter usecase.LowStockReporter
	journal  *alertjournal.Journal
	logger   *zap.Logger
	cron     *cron.Cron
	cfg      SweeperConfig
	now      func() time.Time
}

func NewAlertSweeper(
	reporter usecase.LowStockReporter,
	journal *alertjournal.Journal,
	logger *zap.Logger,
	cfg SweeperConfig,
) *AlertSweeper {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.Realert <= 0 {
		cfg.Realert = 6 * time.Hour
	}
	if cfg.Retention <= 0 {
		cfg.Retention = 72 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &AlertSweeper{
		reporter: reporter,
		journal:  journal,
		logger:   logger,
		cfg:      cfg,
		cron:     cron.New(cron.WithSeconds()),
		now:      time.Now,
	}

	schedule := fmt.Sprintf("@every %ds", int(cfg.Interval.Seconds()))
	if _, err := s.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Interval)
		defer cancel()
		if err := s.Sweep(ctx); err != nil {
			s.logger.Error("low stock sweep failed", zap.Error(err))
		}
	}); err != nil {
		logger.Error("failed to schedule low stock sweep",
			zap.String("schedule", schedule), zap.Error(err))
	}

	return s
}

// Start launches the cron scheduler.
func (s *AlertSweeper) Start() {
	if s == nil || s.cron == nil {
		return
	}
	s.cron.Start()
	s.logger.Info("low stock sweeper started")
}

// Stop gracefully stops the scheduler.
func (s *AlertSweeper) Stop(ctx context.Context) {
	if s == nil || s.cron == nil {
		return
	}
	stopCtx := s.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	s.logger.Info("low stock sweeper stopped")
}

// Sweep runs one pass synchronously. Journal failures on individual items do
// not stop the pass; they are collected and returned together.
func (s *AlertSweeper) Sweep(ctx context.Context) error {
	if s == nil || s.reporter == nil {
		return nil
	}

	items, err := s.reporter.Report(ctx)
	if err != nil {
		return err
	}

	var result *multierror.Error
	low := make(map[string]struct{}, len(items))
	for _, item := range items {
		low[item.ProductID] = struct{}{}
		if err := s.handleItem(item); err != nil {
			result = multierror.Append(result, err)
		}
	}

	if err := s.clearRecovered(low); err != nil {
		result = multierror.Append(result, err)
	}
	if err := s.journal.Cleanup(s.now().Add(-s.cfg.Retention)); err != nil {
		result = multierror.Append(result, err)
	}
	return result.ErrorOrNil()
}

func (s *AlertSweeper) handleItem(item domain.LowStockItem) error {
	entry, found, err := s.journal.Get(item.ProductID)
	if err != nil {
		return err
	}

	stale := found && s.now().Sub(entry.AlertedAt) >= s.cfg.Realert
	worsened := found && item.UnitsNeeded > entry.UnitsNeeded
	if found && !stale && !worsened {
		return nil
	}

	s.logger.Warn("low stock",
		zap.String("product_id", item.ProductID),
		zap.Int("quantity", item.Quantity),
		zap.Int("min_threshold", item.MinThreshold),
		zap.Int("units_needed", item.UnitsNeeded))

	return s.journal.Put(alertjournal.Entry{
		ProductID:   item.ProductID,
		UnitsNeeded: item.UnitsNeeded,
		AlertedAt:   s.now(),
	})
}

// clearRecovered drops journal entries for products no longer below
// threshold.
func (s *AlertSweeper) clearRecovered(low map[string]struct{}) error {
	size, err := s.journal.Size()
	if err != nil || size == 0 {
		return err
	}

	var result *multierror.Error
	entries, err := s.journalEntries()
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if _, stillLow := low[entry.ProductID]; stillLow {
			continue
		}
		if err := s.journal.Delete(entry.ProductID); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

func (s *AlertSweeper) journalEntries() ([]alertjournal.Entry, error) {
	return s.journal.List()
}
