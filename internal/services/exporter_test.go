package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"salonledger/internal/core"
	"salonledger/internal/report"
	"salonledger/internal/sheets/memory"
)

type panicSink struct{}

func (panicSink) Name() string { return "panicky" }

func (panicSink) WriteWorkbook(context.Context, report.Workbook) error {
	panic("boom")
}

type blockingSink struct{}

func (blockingSink) Name() string { return "slow" }

func (blockingSink) WriteWorkbook(ctx context.Context, _ report.Workbook) error {
	<-ctx.Done()
	return ctx.Err()
}

func sampleLedger() []core.Transaction {
	return []core.Transaction{
		{ID: 1, Type: core.TypeIncome, Category: core.CategoryServiceRevenue, Amount: 500000,
			PaymentMethod: core.PaymentCash, InvoiceCount: 2, StaffName: "An", Date: core.NewDate(2024, 1, 1)},
		{ID: 2, Type: core.TypeExpense, Category: "Đồ ăn", Amount: 30000, PurchaseItem: "Cơm",
			PaymentMethod: core.PaymentCash, StaffName: "An", Date: core.NewDate(2024, 1, 1)},
	}
}

func TestExporter_SinksAreIsolated(t *testing.T) {
	good := memory.New("good")
	bad := memory.New("bad")
	bad.FailWith(errors.New("quota exceeded"))

	e := NewExporter(time.Second, good, bad, panicSink{})
	rep := e.Export(context.Background(), report.Build(sampleLedger()))

	if len(rep.Results) != 3 {
		t.Fatalf("results = %d, want 3", len(rep.Results))
	}
	if rep.Rows != 2 {
		t.Errorf("Rows = %d, want 2", rep.Rows)
	}
	if rep.OK() {
		t.Error("OK() should be false when a sink fails")
	}

	tests := []struct {
		sink    string
		ok      bool
		errPart string
	}{
		{"good", true, ""},
		{"bad", false, "quota exceeded"},
		{"panicky", false, "panic: boom"},
	}
	for i, tt := range tests {
		res := rep.Results[i]
		if res.Sink != tt.sink || res.OK != tt.ok {
			t.Errorf("result %d = %+v, want sink %s ok=%v", i, res, tt.sink, tt.ok)
		}
		if tt.errPart != "" && !strings.Contains(res.Error, tt.errPart) {
			t.Errorf("result %d error = %q, want it to contain %q", i, res.Error, tt.errPart)
		}
		if !tt.ok {
			var ee *core.ExportError
			if !errors.As(res.Err, &ee) || ee.Sink != tt.sink {
				t.Errorf("result %d err = %v, want *core.ExportError for %s", i, res.Err, tt.sink)
			}
		}
	}

	if _, writes := good.Last(); writes != 1 {
		t.Errorf("good sink writes = %d, want 1", writes)
	}
	if err := rep.Err(); err == nil || !strings.Contains(err.Error(), "bad") {
		t.Errorf("Err() = %v, want joined sink errors", err)
	}
}

func TestExporter_SinkTimeout(t *testing.T) {
	e := NewExporter(20*time.Millisecond, blockingSink{})

	rep := e.Export(context.Background(), report.Build(nil))

	if rep.OK() {
		t.Fatal("blocked sink should time out")
	}
	if !errors.Is(rep.Results[0].Err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want deadline exceeded", rep.Results[0].Err)
	}
}

func TestExporter_NoSinks(t *testing.T) {
	e := NewExporter(0)

	rep := e.Export(context.Background(), report.Build(nil))

	if !rep.OK() || rep.Err() != nil {
		t.Errorf("export without sinks = %+v, want success", rep)
	}
	if rep.Rows != 0 {
		t.Errorf("Rows = %d, want 0 for an empty ledger", rep.Rows)
	}
	if len(e.Sinks()) != 0 {
		t.Errorf("Sinks() = %v", e.Sinks())
	}
}
