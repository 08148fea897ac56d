package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"salonledger/internal/cache"
	"salonledger/internal/cli"
	apphttp "salonledger/internal/http"
	"salonledger/internal/log"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	initCtx := context.Background()
	store, closeStore := cli.InitStore(initCtx, logger, cfg)

	ledger, err := cli.NewLedger(initCtx, logger, cfg, store)
	if err != nil {
		logger.Error("Failed to initialize ledger", log.FieldError, err)
		closeStore()
		os.Exit(1)
	}

	var janitor *cache.Janitor
	if ledger.Summaries != nil {
		janitor = cache.NewJanitor(ledger.Summaries)
		janitor.Start(time.Minute)
	}

	srv := apphttp.NewServer(":"+cfg.Port, ledger.Service, ledger.XLSX.Dir(),
		logger.WithComponent(log.ComponentHTTP),
		apphttp.WithWriteLimit(cfg.WriteRateLimit))

	ctx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		if janitor != nil {
			janitor.Stop()
		}
		if err := ledger.Close(); err != nil {
			logger.Error("Failed to close AMQP client", log.FieldError, err)
		}
		closeStore()
	})

	logger.Info("Starting salon ledger server",
		"port", cfg.Port,
		"backend", cfg.StoreBackend,
		"export_dir", cfg.ExportDir,
		"remote", cfg.RemoteEnabled(),
		"queue", ledger.AMQP != nil,
		"write_rate_limit", cfg.WriteRateLimit)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	m := srv.Metrics()
	rl := srv.RateLimitMetrics()
	logger.Info("Server stopped gracefully",
		"requests", m.TotalRequests,
		"failed_requests", m.FailedRequests,
		"rate_limited", rl.TotalHits)
}
