package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	platformlogging "github.com/shestoi/yamoney-gateway/platform/logging"
	platformobservability "github.com/shestoi/yamoney-gateway/platform/observability"
	platformshutdown "github.com/shestoi/yamoney-gateway/platform/shutdown"

	httpapi "github.com/shestoi/yamoney-gateway/internal/api/http"
	"github.com/shestoi/yamoney-gateway/internal/config"
	eventkafka "github.com/shestoi/yamoney-gateway/internal/event/kafka"
	"github.com/shestoi/yamoney-gateway/internal/repository"
	"github.com/shestoi/yamoney-gateway/internal/repository/memory"
	"github.com/shestoi/yamoney-gateway/internal/repository/postgres"
	"github.com/shestoi/yamoney-gateway/internal/service"
	"github.com/shestoi/yamoney-gateway/internal/settings"
	"github.com/shestoi/yamoney-gateway/internal/yamoney"
)

const serviceName = "yamoney"

// App зависимости шлюза, собранные для запуска и graceful shutdown
type App struct {
	logger      *zap.Logger
	httpServer  *http.Server
	dispatcher  *eventkafka.OutboxDispatcher
	shutdownMgr *platformshutdown.Manager
	wg          sync.WaitGroup

	dispatcherCtx    context.Context
	cancelDispatcher context.CancelFunc
}

// Build создаёт все зависимости шлюза
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	logger, err := platformlogging.New(platformlogging.Config{
		ServiceName: serviceName,
		Env:         string(cfg.AppEnv),
		Level:       cfg.LogLevel,
		Format:      cfg.LogFormat,
	})
	if err != nil {
		return nil, err
	}
	cfg.Log(logger)

	shutdownMgr := platformshutdown.New(cfg.ShutdownTimeout, logger)

	otelShutdown, err := platformobservability.Init(ctx, platformobservability.Config{
		Enabled:               cfg.Observability.Enabled,
		OTLPEndpoint:          cfg.Observability.OTLPEndpoint,
		SamplingRatio:         cfg.Observability.SamplingRatio,
		ServiceName:           serviceName,
		DeploymentEnvironment: string(cfg.AppEnv),
	})
	if err != nil {
		return nil, fmt.Errorf("init observability: %w", err)
	}
	shutdownMgr.Add("otel", otelShutdown)

	app := &App{
		logger:      logger,
		shutdownMgr: shutdownMgr,
	}

	repo, outbox, readiness, err := app.buildStorage(ctx, cfg)
	if err != nil {
		shutdownMgr.Shutdown()
		return nil, err
	}

	settingsProvider, err := app.buildSettings(cfg)
	if err != nil {
		shutdownMgr.Shutdown()
		return nil, err
	}

	urls, err := httpapi.NewURLs(cfg.PublicBaseURL)
	if err != nil {
		shutdownMgr.Shutdown()
		return nil, err
	}

	topics := service.Topics{Success: cfg.Kafka.SuccessTopic, Fail: cfg.Kafka.FailTopic}

	callbacks := service.NewCallbackService(repo, settingsProvider, topics, logger)
	payments := service.NewPaymentService(repo, settingsProvider, yamoney.NewBuilder(), urls, topics, logger)
	outcomes := service.NewOutcomeService(settingsProvider, urls, logger)

	handler := httpapi.NewHandler(callbacks, payments, outcomes, logger)
	router := httpapi.NewRouter(handler, httpapi.RouterConfig{
		Allowlist:          settingsProvider,
		TrustProxy:         cfg.TrustProxyHeaders,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		Readiness:          readiness,
	}, logger)

	if cfg.Kafka.Enabled() && outbox != nil {
		app.dispatcher = eventkafka.NewOutboxDispatcher(logger, outbox, eventkafka.NewWriter(cfg.Kafka.Brokers), eventkafka.DispatcherConfig{
			BatchSize:  cfg.Outbox.BatchSize,
			Interval:   cfg.Outbox.Interval,
			MaxRetries: cfg.Outbox.MaxRetries,
			Backoff:    cfg.Outbox.Backoff,
		})
		app.dispatcherCtx, app.cancelDispatcher = context.WithCancel(context.Background())
		shutdownMgr.Add("outbox_dispatcher", app.stopDispatcher)
	} else {
		logger.Info("Kafka is not configured, payment events stay in the store")
	}

	app.httpServer = &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	shutdownMgr.Add("http_server", platformshutdown.ShutdownHTTPServer(app.httpServer))

	return app, nil
}

// buildStorage открывает хранилище транзакций. Для memory outbox не возвращается.
func (a *App) buildStorage(ctx context.Context, cfg config.Config) (repository.TransactionRepository, repository.OutboxRepository, func() bool, error) {
	if cfg.Storage == config.StorageMemory {
		a.logger.Warn("Using in-memory transaction store, data is lost on restart")
		return memory.NewMemoryRepository(), nil, nil, nil
	}

	a.logger.Info("Applying migrations")
	if err := postgres.Migrate(ctx, cfg.PostgresDSN); err != nil {
		return nil, nil, nil, err
	}

	a.logger.Info("Connecting to PostgreSQL")
	pool, err := pgxpool.New(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("create postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, nil, fmt.Errorf("ping postgres: %w", err)
	}
	a.shutdownMgr.Add("postgres_pool", platformshutdown.ClosePool(pool))
	a.logger.Info("PostgreSQL connection established")

	readiness := func() bool {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return pool.Ping(ctx) == nil
	}

	repo := postgres.NewRepository(pool)
	return repo, repo, readiness, nil
}

// buildSettings env настройки шлюза, поверх которых при наличии redis накладывается hash
func (a *App) buildSettings(cfg config.Config) (service.SettingsProvider, error) {
	base, err := settings.LoadEnv()
	if err != nil {
		return nil, fmt.Errorf("load gateway settings: %w", err)
	}
	if err := base.Validate(); err != nil {
		a.logger.Warn("Gateway settings are incomplete, payment initiation will be rejected until configured", zap.Error(err))
	}

	if cfg.RedisAddr == "" {
		return settings.Static(base), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	a.shutdownMgr.Add("redis", platformshutdown.Close(client))
	a.logger.Info("Gateway settings overridable from redis",
		zap.String("addr", cfg.RedisAddr),
		zap.String("key", cfg.RedisSettingsKey))

	return settings.NewRedisProvider(client, cfg.RedisSettingsKey, base, a.logger), nil
}

func (a *App) stopDispatcher(ctx context.Context) error {
	a.cancelDispatcher()

	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return a.dispatcher.Close()
}

// Run запускает HTTP сервер и dispatcher, блокируется до сигнала shutdown
func (a *App) Run() error {
	defer platformlogging.Sync(a.logger)

	if a.dispatcher != nil {
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			if err := a.dispatcher.Start(a.dispatcherCtx); err != nil && !errors.Is(err, context.Canceled) {
				a.logger.Error("Outbox dispatcher stopped", zap.Error(err))
			}
		}()
	}

	serverErr := make(chan error, 1)
	go func() {
		a.logger.Info("Starting yamoney gateway", zap.String("addr", a.httpServer.Addr))
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	a.shutdownMgr.Wait()

	if err, ok := <-serverErr; ok {
		return fmt.Errorf("http server: %w", err)
	}
	a.logger.Info("Yamoney gateway stopped")
	return nil
}
