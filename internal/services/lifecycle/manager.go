package lifecycle

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// ShutdownFunc releases one component. It must respect ctx: a ledger flush or
// an in-flight order commit gets the remaining budget, not forever.
type ShutdownFunc func(ctx context.Context) error

type component struct {
	name string
	stop ShutdownFunc
}

// Manager tears the service down in reverse registration order, so the HTTP
// server stops accepting orders before the sweeper, and the sweeper before
// the stores it writes to.
type Manager struct {
	timeout time.Duration
	logger  *zap.Logger

	mu         sync.Mutex
	components []component
}

func New(timeout time.Duration, logger *zap.Logger) *Manager {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		timeout: timeout,
		logger:  logger,
	}
}

// Register adds a component to stop during shutdown.
func (m *Manager) Register(name string, stop ShutdownFunc) {
	if stop == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.components = append(m.components, component{name: name, stop: stop})
}

// Shutdown stops every registered component, newest first, within the
// configured budget. A failing component does not block the rest; all
// failures are joined into the returned error.
func (m *Manager) Shutdown(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var result error
	for i := len(m.components) - 1; i >= 0; i-- {
		c := m.components[i]
		if err := ctx.Err(); err != nil {
			m.logger.Warn("shutdown budget exhausted",
				zap.String("component", c.name), zap.Error(err))
			result = errors.Join(result, err)
			continue
		}

		started := time.Now()
		if err := c.stop(ctx); err != nil {
			m.logger.Error("component shutdown failed",
				zap.String("component", c.name), zap.Error(err))
			result = errors.Join(result, err)
			continue
		}
		m.logger.Info("component stopped",
			zap.String("component", c.name),
			zap.Duration("took", time.Since(started)))
	}
	return result
}

// Listen invokes cancel once SIGTERM or SIGINT arrives.
func (m *Manager) Listen(cancel context.CancelFunc) {
	if cancel == nil {
		return
	}
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		defer signal.Stop(sigCh)
		sig := <-sigCh
		m.logger.Info("shutdown signal received", zap.String("signal", sig.String()))
		cancel()
	}()
}
