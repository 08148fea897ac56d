// Package report turns a transaction list into the fixed set of tables
// written by every export sink.
//
// Cells hold one of: string, int64 or Attachment. Sinks render the first
// two natively; Attachment is left to each sink (local files keep the
// relative path, remote sheets get a text placeholder).
package report

import (
	"salonledger/internal/aggregate"
	"salonledger/internal/core"
)

// Sheet names, in workbook order.
const (
	SheetSummary           = "Tổng hợp"
	SheetIncome            = "Thu"
	SheetIncomeByPayment   = "Thu theo PT"
	SheetExpense           = "Chi"
	SheetExpenseByCategory = "Chi theo DM"
	SheetExpenseByPayment  = "Chi theo PT"
	SheetAll               = "Tất cả"
	SheetPivot             = "Theo Format Excel"
)

// SheetNames lists every sheet in the order Build emits them.
var SheetNames = []string{
	SheetSummary,
	SheetIncome,
	SheetIncomeByPayment,
	SheetExpense,
	SheetExpenseByCategory,
	SheetExpenseByPayment,
	SheetAll,
	SheetPivot,
}

const (
	placeholderHeader  = "Thông báo"
	noIncomeData       = "Chưa có dữ liệu thu"
	noExpenseData      = "Chưa có dữ liệu chi"
	noTransactionsData = "Chưa có dữ liệu"
)

// Attachment is a relative path to an image attached to an expense.
type Attachment string

// Table is one sheet: a header row followed by data rows. Every row has
// exactly len(Headers) cells.
type Table struct {
	Name    string
	Headers []string
	Rows    [][]any
}

// Workbook is the full export, one table per sheet.
type Workbook struct {
	Tables []Table
}

// Table returns the table named name.
func (w Workbook) Table(name string) (Table, bool) {
	for _, t := range w.Tables {
		if t.Name == name {
			return t, true
		}
	}
	return Table{}, false
}

// Values returns headers and rows as a single grid.
func (t Table) Values() [][]any {
	grid := make([][]any, 0, len(t.Rows)+1)
	head := make([]any, len(t.Headers))
	for i, h := range t.Headers {
		head[i] = h
	}
	grid = append(grid, head)
	return append(grid, t.Rows...)
}

// IsPlaceholder reports whether t carries the "no data" row instead of data.
func (t Table) IsPlaceholder() bool {
	return len(t.Headers) == 1 && t.Headers[0] == placeholderHeader
}

// Build produces every table from txs. txs are assumed canonical, as
// returned by a Store; Build never fails.
func Build(txs []core.Transaction) Workbook {
	income := aggregate.Filter(txs, aggregate.OfType(core.TypeIncome))
	expense := aggregate.Filter(txs, aggregate.OfType(core.TypeExpense))

	return Workbook{Tables: []Table{
		summaryTable(txs),
		incomeTable(income),
		rollupTable(SheetIncomeByPayment, "Phương thức", income, aggregate.ByPaymentMethod, noIncomeData),
		expenseTable(expense),
		rollupTable(SheetExpenseByCategory, "Danh mục", expense, aggregate.ByCategory, noExpenseData),
		rollupTable(SheetExpenseByPayment, "Phương thức", expense, aggregate.ByPaymentMethod, noExpenseData),
		allTable(txs),
		pivotTable(txs),
	}}
}

func placeholder(name, message string) Table {
	return Table{
		Name:    name,
		Headers: []string{placeholderHeader},
		Rows:    [][]any{{message}},
	}
}

func summaryTable(txs []core.Transaction) Table {
	s := aggregate.Summarize(txs)
	return Table{
		Name:    SheetSummary,
		Headers: []string{"Loại", "Giá trị"},
		Rows: [][]any{
			{"Tổng Thu", int64(s.Income)},
			{"Tổng Chi", int64(s.Expense)},
			{"Số dư", int64(s.Balance)},
			{"HĐ dịch vụ", int64(s.Invoices.Service)},
			{"HĐ sản phẩm", int64(s.Invoices.Product)},
			{"Tổng HĐ", int64(s.Invoices.Total)},
		},
	}
}

func incomeTable(income []core.Transaction) Table {
	if len(income) == 0 {
		return placeholder(SheetIncome, noIncomeData)
	}
	t := Table{
		Name:    SheetIncome,
		Headers: []string{"Ngày", "Danh mục", "Số tiền", "Số HĐ", "Nhân viên", "Ghi chú", "Phương thức", "Thời gian tạo"},
	}
	for _, tx := range income {
		t.Rows = append(t.Rows, []any{
			tx.Date.Display(),
			tx.Category,
			int64(tx.Amount),
			int64(tx.InvoiceCount),
			tx.StaffName,
			tx.Description,
			string(tx.PaymentMethod),
			tx.CreatedAt.String(),
		})
	}
	return t
}

func expenseTable(expense []core.Transaction) Table {
	if len(expense) == 0 {
		return placeholder(SheetExpense, noExpenseData)
	}
	t := Table{
		Name: SheetExpense,
		Headers: []string{"Ngày", "Danh mục", "Số tiền", "Chi mua gì", "Nhân viên", "Lệnh sếp",
			"Ghi chú", "Phương thức", "Hình ảnh", "Thời gian tạo"},
	}
	for _, tx := range expense {
		t.Rows = append(t.Rows, []any{
			tx.Date.Display(),
			tx.Category,
			int64(tx.Amount),
			tx.PurchaseItem,
			tx.StaffName,
			tx.BossOrder,
			tx.Description,
			string(tx.PaymentMethod),
			attachmentCell(tx.AttachmentPath),
			tx.CreatedAt.String(),
		})
	}
	return t
}

func rollupTable(name, keyHeader string, txs []core.Transaction, key aggregate.Key, empty string) Table {
	if len(txs) == 0 {
		return placeholder(name, empty)
	}
	t := Table{Name: name, Headers: []string{keyHeader, "Tổng tiền"}}
	for _, g := range aggregate.SumBy(txs, key) {
		t.Rows = append(t.Rows, []any{g.Key, int64(g.Amount)})
	}
	return t
}

func allTable(txs []core.Transaction) Table {
	if len(txs) == 0 {
		return placeholder(SheetAll, noTransactionsData)
	}
	t := Table{
		Name: SheetAll,
		Headers: []string{"Ngày", "Loại", "Danh mục", "Số tiền", "Số HĐ", "Nhân viên", "Chi mua gì",
			"Lệnh sếp", "Ghi chú", "Phương thức", "Hình ảnh", "Số nợ", "Thời gian tạo"},
	}
	for _, tx := range txs {
		var invoices, debt any = "", ""
		if tx.Type == core.TypeIncome {
			invoices = int64(tx.InvoiceCount)
		}
		if tx.CarriesDebt() {
			debt = int64(tx.DebtAmount)
		}
		var item, boss, image any = "", "", ""
		if tx.Type == core.TypeExpense {
			item, boss, image = tx.PurchaseItem, tx.BossOrder, attachmentCell(tx.AttachmentPath)
		}
		t.Rows = append(t.Rows, []any{
			tx.Date.Display(),
			tx.Type.Label(),
			tx.Category,
			int64(tx.Amount),
			invoices,
			tx.StaffName,
			item,
			boss,
			tx.Description,
			string(tx.PaymentMethod),
			image,
			debt,
			tx.CreatedAt.String(),
		})
	}
	return t
}

func attachmentCell(path string) any {
	if path == "" {
		return ""
	}
	return Attachment(path)
}
