package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"salonledger/internal/amqp"
	"salonledger/internal/core"
	"salonledger/internal/log"
	"salonledger/internal/report"
	"salonledger/internal/sheets"
	"salonledger/internal/storage"
)

// ExportWorker rebuilds the workbook from the store and pushes it to a
// remote sink whenever the ledger changes.
type ExportWorker struct {
	store storage.Store
	sink  sheets.WorkbookWriter
	now   func() time.Time

	mu        sync.Mutex
	lastStart time.Time
	exports   int
}

func NewExportWorker(store storage.Store, sink sheets.WorkbookWriter) *ExportWorker {
	return &ExportWorker{
		store: store,
		sink:  sink,
		now:   time.Now,
	}
}

// HandleLedgerChanged processes one notification. Messages stamped before
// the start of the last successful export are already reflected in it and
// are acknowledged without work.
func (w *ExportWorker) HandleLedgerChanged(ctx context.Context, msg *amqp.LedgerChangedMessage) error {
	workerLogger(ctx).InfoContext(ctx, "Processing ledger changed message",
		"reason", msg.Reason,
		"id", msg.TransactionID,
		"timestamp", msg.Timestamp)

	w.mu.Lock()
	covered := !w.lastStart.IsZero() && msg.Timestamp.Before(w.lastStart)
	w.mu.Unlock()
	if covered {
		workerLogger(ctx).DebugContext(ctx, "Change already exported, skipping",
			"reason", msg.Reason,
			"id", msg.TransactionID)
		return nil
	}

	return w.Export(ctx)
}

// Export pushes the current ledger to the sink.
func (w *ExportWorker) Export(ctx context.Context) error {
	start := w.now()

	txs, err := w.store.LoadTransactions(ctx)
	if err != nil {
		return fmt.Errorf("load transactions: %w", err)
	}
	if err := w.sink.WriteWorkbook(ctx, report.Build(txs)); err != nil {
		return &core.ExportError{Sink: w.sink.Name(), Err: err}
	}

	w.mu.Lock()
	if start.After(w.lastStart) {
		w.lastStart = start
	}
	w.exports++
	w.mu.Unlock()

	workerLogger(ctx).InfoContext(ctx, "Ledger exported",
		"sink", w.sink.Name(),
		"transactions", len(txs),
		"duration_ms", time.Since(start).Milliseconds())
	return nil
}

// StartupExport brings the remote copy up to date before consuming, so
// changes made while the worker was down are not lost.
func (w *ExportWorker) StartupExport(ctx context.Context) error {
	if err := w.Export(ctx); err != nil {
		return fmt.Errorf("startup export: %w", err)
	}
	workerLogger(ctx).InfoContext(ctx, "Startup export completed",
		log.FieldOperation, log.OpStartup,
		log.FieldSink, w.sink.Name())
	return nil
}

// Exports returns how many exports succeeded.
func (w *ExportWorker) Exports() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.exports
}

func workerLogger(ctx context.Context) *log.Logger {
	return log.FromContext(ctx).WithComponent(log.ComponentWorker)
}
