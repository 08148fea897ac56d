package report

import (
	"strings"

	"salonledger/internal/aggregate"
	"salonledger/internal/core"
)

// Pivot columns, mirroring the paper ledger.
const (
	colTransfer = iota
	colCard
	colCashExpense
	colExpenseNote
	colCashIncome
	colIncomeNote
	colTip
	colTipNote
	colAdvance
	colAdvanceNote
	colDebt
	pivotWidth
)

var pivotHeaders = [pivotWidth]string{
	colTransfer:    "Chuyển khoản",
	colCard:        "QT",
	colCashExpense: "CHI",
	colExpenseNote: "Nội dung chi",
	colCashIncome:  "THU",
	colIncomeNote:  "Nội dung thu",
	colTip:         "TIP",
	colTipNote:     "Nội dung TIP",
	colAdvance:     "CHI HỘ",
	colAdvanceNote: "Nội dung CHI HỘ",
	colDebt:        "NỢ",
}

// PivotAmountColumns are the indexes of the amount columns of the pivot
// table; all other columns are narratives.
var PivotAmountColumns = []int{colTransfer, colCard, colCashExpense, colCashIncome, colTip, colAdvance, colDebt}

// pivotTable emits one row per transaction, grouped by kind in the order
// income, expense, tip, advance and in stored order within each kind.
func pivotTable(txs []core.Transaction) Table {
	t := Table{Name: SheetPivot, Headers: pivotHeaders[:]}
	for _, typ := range core.Types {
		for _, tx := range aggregate.Filter(txs, aggregate.OfType(typ)) {
			t.Rows = append(t.Rows, pivotRow(tx))
		}
	}
	if len(t.Rows) == 0 {
		t.Rows = [][]any{blankRow(pivotWidth)}
	}
	return t
}

func pivotRow(tx core.Transaction) []any {
	row := blankRow(pivotWidth)
	amount := int64(tx.Amount)

	switch tx.Type {
	case core.TypeIncome:
		row[channelColumn(tx.PaymentMethod, colCashIncome)] = amount
		row[colIncomeNote] = firstNonBlank(tx.Description, tx.Category)
		if tx.CarriesDebt() && tx.DebtAmount > 0 {
			row[colDebt] = int64(tx.DebtAmount)
		}
	case core.TypeExpense:
		row[channelColumn(tx.PaymentMethod, colCashExpense)] = amount
		row[colExpenseNote] = firstNonBlank(tx.PurchaseItem, tx.Category)
	case core.TypeTip:
		row[colTip] = amount
		row[colTipNote] = tx.StaffName
	case core.TypeAdvance:
		row[colAdvance] = amount
		row[colAdvanceNote] = tx.StaffName
	}
	return row
}

// channelColumn routes non-cash payments to their shared columns; cash and
// unset methods fall back to the kind's own cash column.
func channelColumn(pm core.PaymentMethod, cash int) int {
	switch pm {
	case core.PaymentBankTransfer:
		return colTransfer
	case core.PaymentCard:
		return colCard
	}
	return cash
}

func blankRow(n int) []any {
	row := make([]any, n)
	for i := range row {
		row[i] = ""
	}
	return row
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
