// Package cli provides common CLI initialization utilities shared by
// cmd/ledger, cmd/ledger-worker and cmd/ledger-export.
package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"salonledger/internal/amqp"
	"salonledger/internal/backend"
	"salonledger/internal/cache"
	"salonledger/internal/config"
	"salonledger/internal/log"
	"salonledger/internal/services"
	"salonledger/internal/sheets"
	gsheet "salonledger/internal/sheets/google"
	"salonledger/internal/sheets/xlsx"
	"salonledger/internal/storage"
)

// SetupLogger creates the process logger at the given LOG_LEVEL and
// installs it as the slog default.
func SetupLogger(level string) *log.Logger {
	cfg := log.DefaultConfig()
	cfg.Level = log.ParseLevel(level)
	logger := log.New(cfg)
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// InitStore opens the configured store or exits the process on failure.
func InitStore(ctx context.Context, logger *log.Logger, cfg *config.Config) (storage.Store, func()) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid store configuration", log.FieldError, err)
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger).CreateStore(ctx, bcfg)
	if err != nil {
		logger.Error("Failed to initialize store", log.FieldError, err, "backend", bcfg.Type)
		os.Exit(1)
	}
	return res.Store, func() {
		if err := res.Cleanup(); err != nil {
			logger.Error("Failed to close store", log.FieldError, err)
		}
	}
}

const summaryCacheSize = 64

// Ledger bundles what the API server and the export CLI need.
type Ledger struct {
	Service   *services.LedgerService
	XLSX      *xlsx.Writer
	AMQP      *amqp.Client
	Summaries *cache.LRU[services.PeriodSummary]
}

func (l *Ledger) Close() error {
	if l.AMQP != nil {
		return l.AMQP.Close()
	}
	return nil
}

// NewLedger wires the ledger service. The local workbook is always written
// inline. The remote spreadsheet is written inline too, unless a queue is
// configured, in which case the export worker owns it and the service only
// publishes change notifications.
func NewLedger(ctx context.Context, logger *log.Logger, cfg *config.Config, store storage.Store) (*Ledger, error) {
	w, err := xlsx.New(cfg.ExportDir)
	if err != nil {
		return nil, err
	}
	sinks := []sheets.WorkbookWriter{w}
	var opts []services.Option

	l := &Ledger{XLSX: w}

	if cfg.QueueEnabled() {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.WarnContext(ctx, "Failed to initialize AMQP client, exporting remotely inline", log.FieldError, err)
		} else {
			logger.InfoContext(ctx, "Initialized AMQP client",
				"exchange", cfg.AMQPExchange,
				"queue", cfg.AMQPQueue)
			l.AMQP = client
			opts = append(opts, services.WithPublisher(client))
		}
	}

	if cfg.RemoteEnabled() && l.AMQP == nil {
		remote, err := NewRemoteSink(ctx, cfg)
		if err != nil {
			// the local workbook still works; report and carry on
			logger.ErrorContext(ctx, "Failed to initialize Google Sheets sink", log.FieldError, err)
		} else {
			sinks = append(sinks, remote)
		}
	}

	if cfg.SummaryCacheTTL > 0 {
		l.Summaries = cache.NewLRU[services.PeriodSummary](summaryCacheSize, cfg.SummaryCacheTTL)
		opts = append(opts, services.WithSummaryCache(l.Summaries))
	}

	exporter := services.NewExporter(cfg.ExportTimeout, sinks...)
	logger.InfoContext(ctx, "Export sinks ready", "sinks", exporter.Sinks(), "export_dir", cfg.ExportDir)

	l.Service = services.NewLedgerService(store, exporter, w, opts...)
	return l, nil
}

// NewRemoteSink builds the Google Sheets writer from cfg.
func NewRemoteSink(ctx context.Context, cfg *config.Config) (*gsheet.Client, error) {
	if !cfg.RemoteEnabled() {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	return gsheet.NewFromConfig(ctx, cfg.GoogleSpreadsheetID,
		cfg.GoogleServiceAccountJSON, cfg.GoogleServiceAccountFile, cfg.GoogleADCFile)
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// Returns a context that will be cancelled on shutdown signals,
// and a channel that signals when shutdown is complete.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, cleanup func(ctx context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", log.FieldOperation, log.OpShutdown, "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		if cleanup != nil {
			cleanup(shutdownCtx)
		}

		cancel()

		if shutdownCtx.Err() != nil {
			logger.Warn("Shutdown timeout reached")
		} else {
			logger.Info("Shutdown complete")
		}
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
