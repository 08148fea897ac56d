package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"salonledger/internal/amqp"
	"salonledger/internal/core"
	"salonledger/internal/report"
	"salonledger/internal/sheets/memory"
	"salonledger/internal/storage"
)

func newWorker(t *testing.T) (*ExportWorker, storage.Store, *memory.Sink) {
	t.Helper()
	store, err := storage.NewFileRepository(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileRepository() error: %v", err)
	}
	sink := memory.New("remote")
	return NewExportWorker(store, sink), store, sink
}

func TestHandleLedgerChanged_ExportsCurrentLedger(t *testing.T) {
	w, store, sink := newWorker(t)
	ctx := context.Background()

	_, err := store.AppendTransaction(ctx, core.Transaction{
		Type: core.TypeIncome, Category: core.CategoryServiceRevenue, Amount: 500000,
		PaymentMethod: core.PaymentCash, StaffName: "An", Date: core.NewDate(2024, 1, 1),
	})
	if err != nil {
		t.Fatalf("AppendTransaction() error: %v", err)
	}

	if err := w.HandleLedgerChanged(ctx, amqp.NewLedgerChangedMessage(amqp.ReasonCreate, 1, 1)); err != nil {
		t.Fatalf("HandleLedgerChanged() error: %v", err)
	}

	wb, writes := sink.Last()
	if writes != 1 {
		t.Fatalf("writes = %d, want 1", writes)
	}
	all, _ := wb.Table(report.SheetAll)
	if len(all.Rows) != 1 {
		t.Errorf("all rows = %d, want 1", len(all.Rows))
	}
}

func TestHandleLedgerChanged_SkipsCoveredMessages(t *testing.T) {
	w, _, sink := newWorker(t)
	ctx := context.Background()

	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	w.now = func() time.Time { return base }
	if err := w.StartupExport(ctx); err != nil {
		t.Fatalf("StartupExport() error: %v", err)
	}

	tests := []struct {
		name      string
		stamp     time.Time
		wantWrite int
	}{
		{"older than last export", base.Add(-time.Minute), 1},
		{"newer than last export", base.Add(time.Minute), 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := &amqp.LedgerChangedMessage{Reason: amqp.ReasonUpdate, TransactionID: 1, Timestamp: tt.stamp}
			if err := w.HandleLedgerChanged(ctx, msg); err != nil {
				t.Fatalf("HandleLedgerChanged() error: %v", err)
			}
			if _, writes := sink.Last(); writes != tt.wantWrite {
				t.Errorf("writes = %d, want %d", writes, tt.wantWrite)
			}
		})
	}
}

func TestHandleLedgerChanged_SinkFailureRequeues(t *testing.T) {
	w, _, sink := newWorker(t)
	sink.FailWith(errors.New("rate limited"))

	err := w.HandleLedgerChanged(context.Background(), amqp.NewLedgerChangedMessage(amqp.ReasonDelete, 3, 0))

	var ee *core.ExportError
	if !errors.As(err, &ee) || ee.Sink != "remote" {
		t.Fatalf("err = %v, want *core.ExportError for remote", err)
	}
	if w.Exports() != 0 {
		t.Errorf("Exports() = %d, want 0", w.Exports())
	}
}
