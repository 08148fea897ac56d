package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"salonledger/internal/core"
	"salonledger/internal/log"
	"salonledger/internal/report"
	ports "salonledger/internal/sheets"
)

// DefaultSinkTimeout bounds a single sink write.
const DefaultSinkTimeout = 60 * time.Second

// SinkResult is the outcome of one sink write.
type SinkResult struct {
	Sink       string `json:"sink"`
	OK         bool   `json:"ok"`
	Error      string `json:"error,omitempty"`
	DurationMS int64  `json:"duration_ms"`
	Err        error  `json:"-"`
}

// ExportReport collects the per-sink results of one export.
type ExportReport struct {
	Results []SinkResult `json:"results"`
	Rows    int          `json:"rows"`
}

// OK reports whether every sink succeeded.
func (r ExportReport) OK() bool {
	for _, res := range r.Results {
		if !res.OK {
			return false
		}
	}
	return true
}

// Err joins the errors of the failed sinks, or returns nil.
func (r ExportReport) Err() error {
	var errs []error
	for _, res := range r.Results {
		if res.Err != nil {
			errs = append(errs, res.Err)
		}
	}
	return errors.Join(errs...)
}

// Exporter writes a workbook to every configured sink. Sinks run
// concurrently and independently: a failing or panicking sink only
// affects its own result.
type Exporter struct {
	sinks   []ports.WorkbookWriter
	timeout time.Duration
}

func NewExporter(timeout time.Duration, sinks ...ports.WorkbookWriter) *Exporter {
	if timeout <= 0 {
		timeout = DefaultSinkTimeout
	}
	return &Exporter{sinks: sinks, timeout: timeout}
}

// Sinks returns the names of the configured sinks.
func (e *Exporter) Sinks() []string {
	names := make([]string, len(e.sinks))
	for i, s := range e.sinks {
		names[i] = s.Name()
	}
	return names
}

func (e *Exporter) Export(ctx context.Context, wb report.Workbook) ExportReport {
	rep := ExportReport{Results: make([]SinkResult, len(e.sinks))}
	for _, tbl := range wb.Tables {
		if tbl.Name == report.SheetAll && !tbl.IsPlaceholder() {
			rep.Rows = len(tbl.Rows)
		}
	}

	var g errgroup.Group
	for i, sink := range e.sinks {
		g.Go(func() error {
			rep.Results[i] = e.write(ctx, sink, wb)
			return nil
		})
	}
	_ = g.Wait()

	logger := log.FromContext(ctx).WithComponent(log.ComponentExport)
	for _, res := range rep.Results {
		if res.OK {
			logger.InfoContext(ctx, "Export sink succeeded", log.FieldSink, res.Sink, log.FieldDuration, res.DurationMS)
		} else {
			logger.ErrorContext(ctx, "Export sink failed", log.FieldSink, res.Sink, log.FieldError, res.Error)
		}
	}
	return rep
}

func (e *Exporter) write(ctx context.Context, sink ports.WorkbookWriter, wb report.Workbook) (res SinkResult) {
	res.Sink = sink.Name()
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			res.Err = &core.ExportError{Sink: res.Sink, Err: fmt.Errorf("panic: %v", r)}
		}
		res.DurationMS = time.Since(start).Milliseconds()
		res.OK = res.Err == nil
		if res.Err != nil {
			res.Error = res.Err.Error()
		}
	}()

	if err := sink.WriteWorkbook(ctx, wb); err != nil {
		res.Err = &core.ExportError{Sink: res.Sink, Err: err}
	}
	return res
}
