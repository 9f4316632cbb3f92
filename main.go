// @title Storefront API
// @version 1.0
// @description Users, items, carts and balance-funded purchases.
// @BasePath /
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/Zhima-Mochi/minishop-storefront/docs"
	"github.com/Zhima-Mochi/minishop-storefront/internal/application"
	"github.com/Zhima-Mochi/minishop-storefront/internal/application/account"
	appcart "github.com/Zhima-Mochi/minishop-storefront/internal/application/cart"
	"github.com/Zhima-Mochi/minishop-storefront/internal/application/catalog"
	"github.com/Zhima-Mochi/minishop-storefront/internal/application/ledger"
	apppurchase "github.com/Zhima-Mochi/minishop-storefront/internal/application/purchase"
	"github.com/Zhima-Mochi/minishop-storefront/internal/config"
	dompurchase "github.com/Zhima-Mochi/minishop-storefront/internal/domain/purchase"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/store"
	"github.com/Zhima-Mochi/minishop-storefront/internal/infrastructure/id"
	"github.com/Zhima-Mochi/minishop-storefront/internal/infrastructure/jsonfile"
	"github.com/Zhima-Mochi/minishop-storefront/internal/infrastructure/lock"
	"github.com/Zhima-Mochi/minishop-storefront/internal/infrastructure/memory"
	"github.com/Zhima-Mochi/minishop-storefront/internal/infrastructure/observability/oteltrace"
	"github.com/Zhima-Mochi/minishop-storefront/internal/infrastructure/observability/prometrics"
	"github.com/Zhima-Mochi/minishop-storefront/internal/infrastructure/observability/telemetry"
	"github.com/Zhima-Mochi/minishop-storefront/internal/infrastructure/observability/zaplogger"
	"github.com/Zhima-Mochi/minishop-storefront/internal/infrastructure/outbox"
	"github.com/Zhima-Mochi/minishop-storefront/internal/infrastructure/postgres"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability"
	httppresentation "github.com/Zhima-Mochi/minishop-storefront/internal/presentation/http"
	workerpresentation "github.com/Zhima-Mochi/minishop-storefront/internal/presentation/worker"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	baseLogger, syncLogger, err := zaplogger.New(
		zaplogger.Options{Level: cfg.LogLevel},
		observability.F("service", cfg.ServiceName),
		observability.F("env", cfg.Env),
	)
	if err != nil {
		return err
	}
	defer func() { _ = syncLogger() }()
	systemLogger := baseLogger.With(observability.F("component", "main"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tp, shutdownTracing, err := telemetry.InitTracing(ctx, telemetry.TracingConfig{
		ServiceName: cfg.ServiceName,
		Environment: cfg.Env,
		Endpoint:    cfg.OTLPEndpoint,
		Insecure:    cfg.OTLPInsecure,
		SampleRatio: cfg.TraceSampling,
	})
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			systemLogger.Warn("tracing_shutdown_error", observability.F("error", err))
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	counters, histograms := prometrics.Standard(prometrics.New("", "", registry))
	tel := telemetry.New(oteltrace.FromProvider(tp, cfg.ServiceName), baseLogger, counters, histograms)

	st, ledgerRepo, err := openStore(ctx, cfg, baseLogger)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	locker, closeLocker, err := newLocker(ctx, cfg, tel)
	if err != nil {
		return err
	}
	defer closeLocker()

	bus := outbox.NewBus(baseLogger, outbox.Options{})
	ledger.NewWorker(ledgerRepo, tel).Start(bus, workerpresentation.Middleware(baseLogger, tel))
	bus.Start(ctx)
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		bus.Stop(stopCtx)
	}()

	deps := apppurchase.Deps{
		Store:     st,
		Locker:    locker,
		Publisher: bus,
		IDs:       id.NewUUIDGenerator(),
		Policy:    dompurchase.Policy{AdultAge: cfg.AdultAge},
		Tel:       tel,
	}
	handler := httppresentation.NewHandler(httppresentation.Services{
		Catalog:  catalog.NewService(st, tel),
		Accounts: account.NewService(st, locker, tel),
		Carts:    appcart.NewService(st, locker, tel),
		BuyItem:  apppurchase.NewBuyItemUseCase(deps),
		Checkout: apppurchase.NewCheckoutUseCase(deps),
		History:  ledger.NewHistory(ledgerRepo, tel),
	}, baseLogger, tel)

	root := mux.NewRouter()
	root.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	root.PathPrefix("/swagger/").Handler(httpSwagger.WrapHandler)
	root.PathPrefix("/").Handler(handler.Router())

	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: root,
	}

	serveErr := make(chan error, 1)
	go func() {
		systemLogger.Info("http_server_start",
			observability.F("addr", server.Addr),
			observability.F("store_backend", cfg.StoreBackend),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			systemLogger.Error("http_server_error", observability.F("error", err))
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		systemLogger.Error("http_server_shutdown_error", observability.F("error", err))
		return err
	}
	systemLogger.Info("http_server_stopped")
	return nil
}

// openStore picks the record store named by STORE_BACKEND together with the
// ledger that lives next to it.
func openStore(ctx context.Context, cfg config.Config, logger observability.Logger) (store.Store, dompurchase.LedgerRepository, error) {
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		pg, err := postgres.Open(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			return nil, nil, err
		}
		if err := pg.Migrate(ctx); err != nil {
			_ = pg.Close()
			return nil, nil, err
		}
		return pg, postgres.NewLedgerRepository(pg.DB()), nil
	case config.BackendMemory:
		return memory.NewStore(), memory.NewLedgerRepository(), nil
	default:
		fileStore, err := jsonfile.Open(cfg.DataFile, logger)
		if err != nil {
			return nil, nil, err
		}
		return fileStore, memory.NewLedgerRepository(), nil
	}
}

// newLocker uses Redis when REDIS_ADDR is set so several replicas share the
// per-user lock; otherwise locks are process-local.
func newLocker(ctx context.Context, cfg config.Config, tel observability.Observability) (application.Locker, func(), error) {
	if cfg.RedisAddr == "" {
		return lock.NewKeyedMutex(), func() {}, nil
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("redis ping %s: %w", cfg.RedisAddr, err)
	}
	locker := lock.NewRedisLocker(client, lock.RedisOptions{TTL: cfg.LockTTL}, tel)
	return locker, func() { _ = client.Close() }, nil
}
