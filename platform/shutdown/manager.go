package shutdown

import (
	"context"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// Manager выполняет graceful shutdown сервиса.
// Зарегистрированные функции вызываются в обратном порядке регистрации.
type Manager struct {
	timeout time.Duration
	logger  *zap.Logger

	mu    sync.Mutex
	funcs []shutdownFunc
}

type shutdownFunc struct {
	name string
	fn   func(context.Context) error
}

// New создаёт Manager; timeout ограничивает каждую функцию отдельно
func New(timeout time.Duration, logger *zap.Logger) *Manager {
	return &Manager{
		timeout: timeout,
		logger:  logger,
	}
}

// Add регистрирует shutdown функцию
func (m *Manager) Add(name string, fn func(context.Context) error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.funcs = append(m.funcs, shutdownFunc{name: name, fn: fn})
}

// Wait блокируется до SIGINT/SIGTERM и затем вызывает Shutdown
func (m *Manager) Wait() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	sig := <-sigChan
	m.logger.Info("Received shutdown signal, starting graceful shutdown", zap.String("signal", sig.String()))

	m.Shutdown()
}

// Shutdown выполняет все функции, последняя зарегистрированная идёт первой.
// Ошибка одной функции не останавливает остальные.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	funcs := make([]shutdownFunc, len(m.funcs))
	copy(funcs, m.funcs)
	m.mu.Unlock()

	for i := len(funcs) - 1; i >= 0; i-- {
		fn := funcs[i]

		ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
		start := time.Now()
		err := fn.fn(ctx)
		cancel()

		if err != nil {
			m.logger.Error("Shutdown function failed",
				zap.String("name", fn.name),
				zap.Error(err),
				zap.Duration("duration", time.Since(start)))
			continue
		}
		m.logger.Info("Shutdown function completed",
			zap.String("name", fn.name),
			zap.Duration("duration", time.Since(start)))
	}

	m.logger.Info("Graceful shutdown completed")
}

// ShutdownHTTPServer возвращает shutdown функцию для http.Server
func ShutdownHTTPServer(srv interface {
	Shutdown(context.Context) error
}) func(context.Context) error {
	return func(ctx context.Context) error {
		return srv.Shutdown(ctx)
	}
}

// ClosePool возвращает shutdown функцию для pgxpool.Pool
func ClosePool(pool interface {
	Close()
}) func(context.Context) error {
	return func(context.Context) error {
		pool.Close()
		return nil
	}
}

// Close возвращает shutdown функцию для io.Closer (redis client, kafka writer)
func Close(c io.Closer) func(context.Context) error {
	return func(context.Context) error {
		return c.Close()
	}
}

// Cancel возвращает shutdown функцию, отменяющую контекст фоновых воркеров
func Cancel(cancel context.CancelFunc) func(context.Context) error {
	return func(context.Context) error {
		cancel()
		return nil
	}
}
