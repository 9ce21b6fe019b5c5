package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"time"

	"pocketwatcher/internal/amqp"
	"pocketwatcher/internal/auth"
	"pocketwatcher/internal/backend"
	"pocketwatcher/internal/cache"
	"pocketwatcher/internal/cli"
	"pocketwatcher/internal/config"
	apphttp "pocketwatcher/internal/http"
	"pocketwatcher/internal/log"
	"pocketwatcher/internal/services"
)

const (
	shutdownTimeout      = 30 * time.Second
	cacheCleanupInterval = time.Minute
)

func main() {
	cli.LoadEnvFile()

	cfg := cli.LoadAndValidateConfig(cli.SetupLogger(nil))
	logger := cli.SetupLogger(cfg)

	if err := run(cfg, logger); err != nil {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

func run(cfg *config.Config, logger *log.Logger) error {
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	res, err := backend.NewFactory(logger.WithComponent(log.ComponentBackend).Slog()).
		CreateBackend(context.Background(), backendCfg)
	if err != nil {
		return err
	}
	store := res.Store
	defer func() {
		if err := res.Cleanup(); err != nil {
			logger.Error("Failed to close store", "error", err)
		}
	}()

	stats := services.NewStatsService(store, cfg.StatsCacheSize, cfg.StatsCacheTTL,
		logger.WithComponent(log.ComponentStats).Slog())
	caches := cache.NewManager(logger.WithComponent(log.ComponentCache).Slog())
	stats.RegisterCaches(caches)

	checks := map[string]apphttp.ReadinessCheck{"store": store.Ping}

	// AMQP is optional. publisher stays a nil interface unless the client
	// connected.
	var publisher services.Publisher
	var events *amqp.Client
	if cfg.AMQPURL != "" {
		events, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, logger.WithComponent(log.ComponentAMQP).Slog())
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without events", "error", err)
		} else {
			defer events.Close()
			publisher = events
			checks["amqp"] = events.Ping
			logger.Info("Initialized AMQP client", "exchange", cfg.AMQPExchange)
		}
	}

	expenses := services.NewExpenseService(store, publisher, stats,
		logger.WithComponent(log.ComponentExpense).Slog())

	srv := apphttp.NewServer(apphttp.Options{
		Addr:               net.JoinHostPort("", cfg.Port),
		Expenses:           expenses,
		Stats:              stats,
		Tokens:             auth.NewTokenService(cfg.JWTSecret, cfg.JWTExpiresIn),
		Checks:             checks,
		Logger:             logger.WithComponent(log.ComponentHTTP),
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	})

	ctx, done := cli.GracefulShutdown(logger, shutdownTimeout, func(shutdownCtx context.Context) {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		if err := expenses.Close(shutdownCtx); err != nil {
			logger.Warn("Pending expense events not published", "error", err)
		}
	})

	caches.StartCleanup(ctx, cacheCleanupInterval)
	defer caches.Stop()

	if events != nil {
		go func() {
			err := events.Subscribe(ctx, stats.HandleEvent)
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Event subscription stopped", "error", err)
			}
		}()
	}

	logger.Info("Starting pocketwatcher server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"amqp_enabled", events != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	<-ctx.Done()
	<-done
	return nil
}
