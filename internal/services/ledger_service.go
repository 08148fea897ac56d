package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"salonledger/internal/aggregate"
	"salonledger/internal/amqp"
	"salonledger/internal/cache"
	"salonledger/internal/core"
	"salonledger/internal/log"
	"salonledger/internal/report"
	ports "salonledger/internal/sheets"
	"salonledger/internal/sheets/xlsx"
	"salonledger/internal/storage"
)

var (
	ErrStaffExists   = errors.New("staff name already exists")
	ErrStaffNotFound = errors.New("staff name not found")
	ErrNotConfigured = errors.New("not configured")
)

// Publisher announces ledger writes to out-of-process exporters.
type Publisher interface {
	PublishLedgerChanged(ctx context.Context, msg *amqp.LedgerChangedMessage) error
}

// Filter narrows a transaction listing. Zero fields match everything.
type Filter struct {
	From core.Date
	To   core.Date
	Type core.Type
}

func (f Filter) predicates() []aggregate.Predicate {
	preds := []aggregate.Predicate{aggregate.InRange(f.From, f.To)}
	if f.Type != "" {
		preds = append(preds, aggregate.OfType(f.Type))
	}
	return preds
}

// PeriodSummary is the dashboard view of a date range.
type PeriodSummary struct {
	From              core.Date              `json:"from"`
	To                core.Date              `json:"to"`
	Summary           aggregate.Summary      `json:"summary"`
	IncomeByPayment   []aggregate.Group      `json:"income_by_payment"`
	ExpenseByCategory []aggregate.Group      `json:"expense_by_category"`
	ExpenseByPayment  []aggregate.Group      `json:"expense_by_payment"`
	Staff             []aggregate.StaffTotal `json:"staff"`
}

// WriteResult is returned by every transaction write. Export holds the
// outcome of the automatic re-export; the write stands even when it failed.
type WriteResult struct {
	Transaction core.Transaction `json:"transaction"`
	Export      ExportReport     `json:"export"`
}

// LedgerService validates, stores and exports transactions. Every
// operation runs under one lock so concurrent HTTP handlers see a
// single-threaded ledger.
type LedgerService struct {
	mu        sync.Mutex
	store     storage.Store
	exporter  *Exporter
	files     ports.FileWorkbookWriter
	publisher Publisher
	summaries cache.Cache[PeriodSummary]
	now       func() time.Time
}

type Option func(*LedgerService)

// WithPublisher enables change notifications after each write.
func WithPublisher(p Publisher) Option {
	return func(s *LedgerService) { s.publisher = p }
}

// WithSummaryCache memoizes Summary results until the next write.
func WithSummaryCache(c cache.Cache[PeriodSummary]) Option {
	return func(s *LedgerService) { s.summaries = c }
}

func WithClock(now func() time.Time) Option {
	return func(s *LedgerService) { s.now = now }
}

// NewLedgerService wires the store with the inline exporter and the writer
// used for filtered exports. files may be nil when filtered exports are
// not offered.
func NewLedgerService(store storage.Store, exporter *Exporter, files ports.FileWorkbookWriter, opts ...Option) *LedgerService {
	if exporter == nil {
		exporter = NewExporter(0)
	}
	s := &LedgerService{
		store:    store,
		exporter: exporter,
		files:    files,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create validates and appends t. When rememberStaff is set the staff name
// joins the staff list.
func (s *LedgerService) Create(ctx context.Context, t core.Transaction, rememberStaff bool) (WriteResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	t.ID = 0
	t.UpdatedAt = nil
	t.CreatedAt = core.NewTimestamp(now)
	if t.Date.IsZero() {
		t.Date = core.DateOf(now)
	}
	t = t.Canonical()
	if err := t.Validate(); err != nil {
		return WriteResult{}, err
	}

	stored, err := s.store.AppendTransaction(ctx, t)
	if err != nil {
		return WriteResult{}, fmt.Errorf("append transaction: %w", err)
	}
	logger := ledgerLogger(ctx)
	logger.InfoContext(ctx, "Transaction created", txFields(stored).WithOperation(log.OpCreate).ToSlice()...)

	if rememberStaff {
		if added, err := s.store.AddStaff(ctx, stored.StaffName); err != nil {
			logger.WarnContext(ctx, "Failed to remember staff name", log.FieldStaff, stored.StaffName, log.FieldError, err)
		} else if added {
			logger.InfoContext(ctx, "Staff name remembered", log.FieldStaff, stored.StaffName)
		}
	}

	return WriteResult{Transaction: stored, Export: s.afterWrite(ctx, amqp.ReasonCreate, stored.ID)}, nil
}

// Update replaces the transaction with the given id, keeping its creation
// time and stamping updated_at.
func (s *LedgerService) Update(ctx context.Context, id int64, t core.Transaction) (WriteResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	txs, err := s.store.LoadTransactions(ctx)
	if err != nil {
		return WriteResult{}, fmt.Errorf("load transactions: %w", err)
	}
	idx := core.IndexOf(txs, id)
	if idx < 0 {
		return WriteResult{}, &core.NotFoundError{ID: id}
	}

	updated := core.NewTimestamp(s.now())
	t.ID = id
	t.CreatedAt = txs[idx].CreatedAt
	t.UpdatedAt = &updated
	if t.Date.IsZero() {
		t.Date = txs[idx].Date
	}
	t = t.Canonical()
	if err := t.Validate(); err != nil {
		return WriteResult{}, err
	}

	if err := s.store.UpdateTransaction(ctx, t); err != nil {
		return WriteResult{}, fmt.Errorf("update transaction %d: %w", id, err)
	}
	ledgerLogger(ctx).InfoContext(ctx, "Transaction updated", txFields(t).WithOperation(log.OpUpdate).ToSlice()...)

	return WriteResult{Transaction: t, Export: s.afterWrite(ctx, amqp.ReasonUpdate, id)}, nil
}

func (s *LedgerService) Delete(ctx context.Context, id int64) (ExportReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.DeleteTransaction(ctx, id); err != nil {
		return ExportReport{}, fmt.Errorf("delete transaction %d: %w", id, err)
	}
	ledgerLogger(ctx).InfoContext(ctx, "Transaction deleted",
		log.FieldOperation, log.OpDelete,
		log.FieldTransactionID, id)
	return s.afterWrite(ctx, amqp.ReasonDelete, id), nil
}

// ClearAll removes every transaction. The staff list is kept.
func (s *LedgerService) ClearAll(ctx context.Context) (ExportReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.SaveTransactions(ctx, nil); err != nil {
		return ExportReport{}, fmt.Errorf("clear transactions: %w", err)
	}
	ledgerLogger(ctx).WarnContext(ctx, "All transactions cleared", log.FieldOperation, log.OpClear)
	return s.afterWrite(ctx, amqp.ReasonClear, 0), nil
}

// List returns the transactions matching f in append order.
func (s *LedgerService) List(ctx context.Context, f Filter) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.list(ctx, f)
}

func (s *LedgerService) list(ctx context.Context, f Filter) ([]core.Transaction, error) {
	txs, err := s.store.LoadTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}
	return aggregate.Filter(txs, f.predicates()...), nil
}

// Summary aggregates the transactions dated within [from, to].
func (s *LedgerService) Summary(ctx context.Context, from, to core.Date) (PeriodSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := from.String() + ".." + to.String()
	if s.summaries != nil {
		if sum, ok := s.summaries.Get(key); ok {
			return sum, nil
		}
	}

	txs, err := s.list(ctx, Filter{From: from, To: to})
	if err != nil {
		return PeriodSummary{}, err
	}
	income := aggregate.Filter(txs, aggregate.OfType(core.TypeIncome))
	expense := aggregate.Filter(txs, aggregate.OfType(core.TypeExpense))
	sum := PeriodSummary{
		From:              from,
		To:                to,
		Summary:           aggregate.Summarize(txs),
		IncomeByPayment:   aggregate.SumBy(income, aggregate.ByPaymentMethod),
		ExpenseByCategory: aggregate.SumBy(expense, aggregate.ByCategory),
		ExpenseByPayment:  aggregate.SumBy(expense, aggregate.ByPaymentMethod),
		Staff:             aggregate.StaffTotals(txs),
	}
	if s.summaries != nil {
		s.summaries.Set(key, sum)
	}
	return sum, nil
}

func (s *LedgerService) ListStaff(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.LoadStaff(ctx)
}

func (s *LedgerService) AddStaff(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	name = strings.TrimSpace(name)
	if name == "" {
		return &core.ValidationError{Field: "name", Reason: "must not be blank", Err: core.ErrEmptyStaff}
	}
	added, err := s.store.AddStaff(ctx, name)
	if err != nil {
		return fmt.Errorf("add staff: %w", err)
	}
	if !added {
		return fmt.Errorf("%w: %s", ErrStaffExists, name)
	}
	ledgerLogger(ctx).InfoContext(ctx, "Staff added", log.FieldStaff, name)
	return nil
}

// DeleteStaff removes name from the staff list. Transactions keep it.
func (s *LedgerService) DeleteStaff(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed, err := s.store.DeleteStaff(ctx, name)
	if err != nil {
		return fmt.Errorf("delete staff: %w", err)
	}
	if !removed {
		return fmt.Errorf("%w: %s", ErrStaffNotFound, name)
	}
	ledgerLogger(ctx).InfoContext(ctx, "Staff deleted", log.FieldStaff, name)
	return nil
}

// ExportAll rebuilds the workbook from the whole ledger and writes it to
// every sink.
func (s *LedgerService) ExportAll(ctx context.Context) (ExportReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	txs, err := s.store.LoadTransactions(ctx)
	if err != nil {
		return ExportReport{}, fmt.Errorf("load transactions: %w", err)
	}
	rep := s.exporter.Export(ctx, report.Build(txs))
	s.publish(ctx, amqp.ReasonExport, 0, len(txs))
	return rep, nil
}

// ExportFiltered writes the transactions matching f to a timestamped
// workbook next to the canonical export and returns its path.
func (s *LedgerService) ExportFiltered(ctx context.Context, f Filter) (string, error) {
	if s.files == nil {
		return "", fmt.Errorf("filtered export: %w", ErrNotConfigured)
	}
	txs, err := s.List(ctx, f)
	if err != nil {
		return "", err
	}
	name := xlsx.FilteredName(s.now())
	path, err := s.files.WriteWorkbookAs(ctx, report.Build(txs), name)
	if err != nil {
		return "", &core.ExportError{Sink: s.files.Name(), Err: err}
	}
	ledgerLogger(ctx).InfoContext(ctx, "Filtered export written",
		log.FieldOperation, log.OpExport,
		log.FieldSink, s.files.Name(),
		"path", path,
		"rows", len(txs))
	return path, nil
}

// afterWrite re-exports the whole ledger and notifies subscribers. Both are
// best effort; the caller's write has already succeeded.
func (s *LedgerService) afterWrite(ctx context.Context, reason string, id int64) ExportReport {
	if s.summaries != nil {
		s.summaries.Purge()
	}
	txs, err := s.store.LoadTransactions(ctx)
	if err != nil {
		ledgerLogger(ctx).ErrorContext(ctx, "Failed to reload ledger for export", log.FieldError, err)
		return ExportReport{Results: []SinkResult{{
			Sink:  "reload",
			Error: err.Error(),
			Err:   err,
		}}}
	}
	rep := s.exporter.Export(ctx, report.Build(txs))
	s.publish(ctx, reason, id, len(txs))
	return rep
}

func (s *LedgerService) publish(ctx context.Context, reason string, id int64, count int) {
	if s.publisher == nil {
		return
	}
	msg := amqp.NewLedgerChangedMessage(reason, id, count)
	if err := s.publisher.PublishLedgerChanged(ctx, msg); err != nil {
		// the local export already ran; the worker catches up on the next change
		ledgerLogger(ctx).ErrorContext(ctx, "Failed to publish ledger changed message",
			"reason", reason,
			log.FieldTransactionID, id,
			log.FieldError, err)
	}
}

// ledgerLogger returns the request logger, or the default one outside a
// request, tagged with the ledger component.
func ledgerLogger(ctx context.Context) *log.Logger {
	return log.FromContext(ctx).WithComponent(log.ComponentLedger)
}

func txFields(t core.Transaction) log.LogFields {
	return log.NewFields().WithTransaction(t.ID, string(t.Type), int64(t.Amount), t.StaffName)
}
