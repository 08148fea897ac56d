package sheets

import (
	"context"

	"salonledger/internal/report"
)

// Ports for outbound export adapters.
type (
	// WorkbookWriter replaces the whole exported ledger with wb. Writes are
	// idempotent: writing the same workbook twice leaves the same result.
	WorkbookWriter interface {
		Name() string
		WriteWorkbook(ctx context.Context, wb report.Workbook) error
	}

	// FileWorkbookWriter additionally writes to a caller-chosen file name,
	// used for filtered exports next to the canonical file.
	FileWorkbookWriter interface {
		WorkbookWriter
		WriteWorkbookAs(ctx context.Context, wb report.Workbook, filename string) (path string, err error)
	}
)
