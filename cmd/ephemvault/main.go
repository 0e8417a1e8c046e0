package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/juju/clock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	memoryadapter "github.com/ericfisherdev/ephemvault/internal/adapter/driven/memory"
	redisadapter "github.com/ericfisherdev/ephemvault/internal/adapter/driven/redis"
	sqliteadapter "github.com/ericfisherdev/ephemvault/internal/adapter/driven/sqlite"
	telegramadapter "github.com/ericfisherdev/ephemvault/internal/adapter/driven/telegram"
	httphandler "github.com/ericfisherdev/ephemvault/internal/adapter/driving/http"
	telegramdriving "github.com/ericfisherdev/ephemvault/internal/adapter/driving/telegram"
	"github.com/ericfisherdev/ephemvault/internal/application"
	"github.com/ericfisherdev/ephemvault/internal/config"
	"github.com/ericfisherdev/ephemvault/internal/domain/model"
	"github.com/ericfisherdev/ephemvault/internal/domain/port/driven"
	"github.com/ericfisherdev/ephemvault/internal/domain/vaultkey"
	"github.com/ericfisherdev/ephemvault/internal/metrics"
)

// telegramClientSlack is added to the long-poll timeout for the HTTP client
// timeout, so an idle getUpdates is never cut off by the client.
const telegramClientSlack = 10 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration (fail fast on missing required env vars).
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// 2. Structured JSON logging at the configured level.
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel})))
	slog.Info("config loaded",
		"store_backend", cfg.StoreBackend,
		"listen_addr", cfg.ListenAddr,
		"entry_ttl", cfg.EntryTTL,
		"disclosure_ttl", cfg.DisclosureTTL,
		"webhook_mode", cfg.WebhookMode(),
	)

	// 3. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	clk := clock.WallClock

	// 4. Open the entry store.
	store, closeStore, err := openStore(ctx, cfg, clk)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := closeStore(); closeErr != nil {
			slog.Error("error closing entry store", "error", closeErr)
		}
	}()

	// 5. Key deriver (master secret checked here).
	deriver, err := vaultkey.New(cfg.SecretKey)
	if err != nil {
		return err
	}

	// 6. Metrics registry.
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	// 7. Telegram client (verifies the token with getMe).
	tg, err := telegramadapter.NewClient(cfg.TelegramToken, cfg.PollTimeout+telegramClientSlack)
	if err != nil {
		return err
	}
	slog.Info("telegram connected", "bot", tg.Username())

	// 8. Application services.
	vaultSvc := application.NewVaultService(store, deriver, cfg.EntryTTL, cfg.DisclosureTTL, slog.Default())
	erasureSvc := application.NewErasureService(tg, clk, m, slog.Default())
	commandSvc := application.NewCommandService(vaultSvc, tg, erasureSvc, cfg.EntryTTL, cfg.DisclosureTTL, m, slog.Default())
	healthSvc := application.NewHealthService(store)

	// 9. Update delivery: webhook handler or long-poll loop.
	var (
		webhook http.Handler
		poller  *telegramdriving.Poller
	)
	if cfg.WebhookMode() {
		webhook = telegramdriving.NewWebhookHandler(commandSvc, cfg.WebhookSecret, slog.Default())
	} else {
		if err := tg.DeleteWebhook(); err != nil {
			return err
		}
		poller = telegramdriving.NewPoller(tg, commandSvc, clk, cfg.PollTimeout, cfg.MaxInFlight, slog.Default())
	}

	// 10. HTTP server (health, metrics, webhook).
	apiHandler := httphandler.NewHandler(healthSvc, reg, webhook, slog.Default())
	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           httphandler.NewServeMux(apiHandler, slog.Default()),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	if cfg.WebhookMode() {
		if err := tg.SetWebhook(cfg.WebhookURL, cfg.WebhookSecret); err != nil {
			_ = srv.Close()
			return err
		}
		slog.Info("telegram webhook registered", "path", httphandler.WebhookPath)
	}

	pollDone := make(chan struct{})
	if poller != nil {
		go func() {
			poller.Start(ctx)
			close(pollDone)
		}()
	} else {
		close(pollDone)
	}

	// 11. Log startup complete.
	slog.Info("ephemvault started",
		"listen_addr", cfg.ListenAddr,
		"store_backend", cfg.StoreBackend,
	)

	// 12. Wait for shutdown signal or a fatal server error.
	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-serverErr:
		slog.Error("http server error", "error", runErr)
		stop()
	}
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// 13. Stop receiving updates and drain in-flight handlers. In webhook
	// mode the HTTP server is the update source, so it goes first.
	<-pollDone
	if poller != nil {
		poller.Wait()
	} else if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}

	// 14. Erase every message still waiting for its timer.
	slog.Info("handlers drained", "pending_erasures", erasureSvc.Pending())
	erasureSvc.Flush(shutdownCtx)

	if poller != nil {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("http server shutdown error", "error", err)
		}
	}

	// 15. Log shutdown complete; the store closes on return.
	slog.Info("shutdown complete")
	return runErr
}

// openStore builds the configured EntryStore and returns its close function.
// The sqlite backend also starts its purge loop on ctx.
func openStore(ctx context.Context, cfg *config.Config, clk clock.Clock) (driven.EntryStore, func() error, error) {
	switch cfg.StoreBackend {
	case model.StoreBackendRedis:
		client, err := redisadapter.NewClient(cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		store := redisadapter.NewEntryStore(client)

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := store.Ping(pingCtx); err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		slog.Info("redis connected", "addr", client.Options().Addr, "db", client.Options().DB)
		return store, client.Close, nil

	case model.StoreBackendSQLite:
		db, err := sqliteadapter.NewDB(ctx, cfg.DBPath)
		if err != nil {
			return nil, nil, err
		}
		slog.Info("database opened", "path", cfg.DBPath)

		if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		slog.Info("migrations complete")

		repo := sqliteadapter.NewEntryRepo(db, clk)
		go repo.StartPurger(ctx, cfg.PurgeInterval)
		return repo, db.Close, nil

	case model.StoreBackendMemory:
		slog.Warn("using in-memory store; entries are lost on restart")
		return memoryadapter.NewEntryStore(clk), func() error { return nil }, nil

	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}
