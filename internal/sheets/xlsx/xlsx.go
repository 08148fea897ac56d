// Package xlsx writes report workbooks to local .xlsx files.
package xlsx

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"salonledger/internal/log"
	"salonledger/internal/report"
	ports "salonledger/internal/sheets"
)

const (
	// CanonicalFile is overwritten by every full export.
	CanonicalFile = "so_thu_chi.xlsx"

	filteredPrefix = "so_thu_chi_loc_"
	defaultSheet   = "Sheet1"
	colWidth       = 18
)

// Writer exports workbooks into one directory.
type Writer struct {
	dir string
}

var _ ports.FileWorkbookWriter = (*Writer)(nil)

func New(dir string) (*Writer, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("missing export directory")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create export directory: %w", err)
	}
	return &Writer{dir: dir}, nil
}

func (w *Writer) Name() string { return "xlsx" }

func (w *Writer) Dir() string { return w.dir }

// Path returns the canonical export file path.
func (w *Writer) Path() string { return filepath.Join(w.dir, CanonicalFile) }

// FilteredName is the file name of a filtered export taken at now.
func FilteredName(now time.Time) string {
	return filteredPrefix + now.Format("20060102_150405") + ".xlsx"
}

// WriteWorkbook replaces the canonical export file.
func (w *Writer) WriteWorkbook(ctx context.Context, wb report.Workbook) error {
	_, err := w.WriteWorkbookAs(ctx, wb, CanonicalFile)
	return err
}

// WriteWorkbookAs writes wb to filename inside the export directory. The
// target is replaced only once the new file is complete.
func (w *Writer) WriteWorkbookAs(ctx context.Context, wb report.Workbook, filename string) (string, error) {
	if filename == "" || filepath.Base(filename) != filename || !strings.EqualFold(filepath.Ext(filename), ".xlsx") {
		return "", fmt.Errorf("invalid export file name %q", filename)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	f, err := render(wb)
	if err != nil {
		return "", err
	}
	defer f.Close()

	path := filepath.Join(w.dir, filename)
	tmp, err := os.CreateTemp(w.dir, ".export-*.xlsx")
	if err != nil {
		return "", fmt.Errorf("create temp export: %w", err)
	}
	tmpName := tmp.Name()
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("chmod temp export: %w", err)
	}
	if err := f.Write(tmp); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("write workbook: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("close temp export: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("replace %s: %w", path, err)
	}

	sheetsLogger(ctx).InfoContext(ctx, "Workbook exported", "path", path, "sheets", len(wb.Tables))
	return path, nil
}

func render(wb report.Workbook) (*excelize.File, error) {
	if len(wb.Tables) == 0 {
		return nil, errors.New("empty workbook")
	}
	f := excelize.NewFile()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("header style: %w", err)
	}

	for i, tbl := range wb.Tables {
		if i == 0 {
			if err := f.SetSheetName(defaultSheet, tbl.Name); err != nil {
				f.Close()
				return nil, fmt.Errorf("sheet %s: %w", tbl.Name, err)
			}
		} else if _, err := f.NewSheet(tbl.Name); err != nil {
			f.Close()
			return nil, fmt.Errorf("sheet %s: %w", tbl.Name, err)
		}
		if err := writeTable(f, tbl, bold); err != nil {
			f.Close()
			return nil, fmt.Errorf("sheet %s: %w", tbl.Name, err)
		}
	}
	f.SetActiveSheet(0)
	return f, nil
}

func writeTable(f *excelize.File, tbl report.Table, headerStyle int) error {
	for r, row := range tbl.Values() {
		for c, v := range row {
			v = cellValue(v)
			if s, ok := v.(string); ok && s == "" {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(tbl.Name, cell, v); err != nil {
				return err
			}
		}
	}

	if len(tbl.Headers) == 0 {
		return nil
	}
	last, err := excelize.ColumnNumberToName(len(tbl.Headers))
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(tbl.Name, "A1", last+"1", headerStyle); err != nil {
		return err
	}
	return f.SetColWidth(tbl.Name, "A", last, colWidth)
}

func cellValue(v any) any {
	switch x := v.(type) {
	case report.Attachment:
		return string(x)
	case nil:
		return ""
	}
	return v
}

func sheetsLogger(ctx context.Context) *log.Logger {
	return log.FromContext(ctx).WithComponent(log.ComponentSheets)
}
