package aggregate

import (
	"reflect"
	"testing"

	"salonledger/internal/core"
)

func tx(typ core.Type, category string, amount core.Money, pm core.PaymentMethod, day int) core.Transaction {
	return core.Transaction{
		Type:          typ,
		Category:      category,
		Amount:        amount,
		PaymentMethod: pm,
		StaffName:     "An",
		Date:          core.NewDate(2024, 1, day),
	}
}

func TestSummarizeBalanceIdentity(t *testing.T) {
	tests := []struct {
		name string
		txs  []core.Transaction
		want Summary
	}{
		{
			name: "empty",
			txs:  nil,
			want: Summary{},
		},
		{
			name: "mixed kinds",
			txs: []core.Transaction{
				tx(core.TypeIncome, core.CategoryServiceRevenue, 500000, core.PaymentCash, 1),
				tx(core.TypeExpense, "Đồ ăn", 120000, core.PaymentCash, 1),
				tx(core.TypeTip, core.CategoryTip, 50000, "", 2),
				tx(core.TypeAdvance, core.CategoryAdvance, 200000, "", 2),
				tx(core.TypeExpense, "Giữ xe", 5000, core.PaymentCard, 3),
			},
			want: Summary{
				Income: 500000, Expense: 125000, Tip: 50000, Advance: 200000,
				Balance: 375000, Count: 5,
			},
		},
		{
			name: "expense exceeds income",
			txs: []core.Transaction{
				tx(core.TypeIncome, core.CategoryOther, 10000, core.PaymentCash, 1),
				tx(core.TypeExpense, "Sửa chữa", 90000, core.PaymentCash, 1),
			},
			want: Summary{Income: 10000, Expense: 90000, Balance: -80000, Count: 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Summarize(tt.txs)
			if got != tt.want {
				t.Errorf("Summarize() = %+v, want %+v", got, tt.want)
			}
			if got.Balance != got.Income-got.Expense {
				t.Errorf("balance %d != income %d - expense %d", got.Balance, got.Income, got.Expense)
			}
		})
	}
}

func TestInvoicesOnlyRevenueCategories(t *testing.T) {
	service := tx(core.TypeIncome, core.CategoryServiceRevenue, 500000, core.PaymentCash, 1)
	service.InvoiceCount = 3
	other := tx(core.TypeIncome, core.CategoryOther, 200000, core.PaymentCash, 1)
	other.InvoiceCount = 5

	got := Invoices([]core.Transaction{service, other})
	want := InvoiceTotals{Service: 3, Product: 0, Total: 3}
	if got != want {
		t.Errorf("Invoices() = %+v, want %+v", got, want)
	}

	product := tx(core.TypeIncome, core.CategoryProductRevenue, 90000, core.PaymentCard, 2)
	product.InvoiceCount = 4
	got = Invoices([]core.Transaction{service, other, product})
	want = InvoiceTotals{Service: 3, Product: 4, Total: 7}
	if got != want {
		t.Errorf("Invoices() = %+v, want %+v", got, want)
	}
}

func TestSumBySortsByKey(t *testing.T) {
	txs := []core.Transaction{
		tx(core.TypeExpense, "Nước uống", 20000, core.PaymentCash, 1),
		tx(core.TypeExpense, "Đồ ăn", 30000, core.PaymentBankTransfer, 1),
		tx(core.TypeExpense, "Nước uống", 15000, core.PaymentCash, 2),
		tx(core.TypeExpense, "Giữ xe", 5000, core.PaymentCash, 2),
	}

	got := SumBy(txs, ByCategory)
	want := []Group{
		{Key: "Giữ xe", Amount: 5000, Count: 1},
		{Key: "Nước uống", Amount: 35000, Count: 2},
		{Key: "Đồ ăn", Amount: 30000, Count: 1},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SumBy(category) = %+v, want %+v", got, want)
	}

	got = SumBy(txs, ByPaymentMethod)
	want = []Group{
		{Key: string(core.PaymentBankTransfer), Amount: 30000, Count: 1},
		{Key: string(core.PaymentCash), Amount: 40000, Count: 3},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SumBy(payment) = %+v, want %+v", got, want)
	}

	if got := SumBy(nil, ByStaff); len(got) != 0 {
		t.Errorf("SumBy(nil) = %+v, want empty", got)
	}
}

func TestStaffTotals(t *testing.T) {
	a := tx(core.TypeIncome, core.CategoryServiceRevenue, 300000, core.PaymentCash, 1)
	a.StaffName = "Bình"
	a.InvoiceCount = 2
	b := tx(core.TypeTip, core.CategoryTip, 40000, "", 1)
	b.StaffName = "Bình"
	c := tx(core.TypeAdvance, core.CategoryAdvance, 100000, "", 1)
	c.StaffName = "An"
	d := tx(core.TypeExpense, "Đồ ăn", 25000, core.PaymentCash, 1)
	d.StaffName = "An"

	got := StaffTotals([]core.Transaction{a, b, c, d})
	want := []StaffTotal{
		{Name: "An", Expense: 25000, Advance: 100000, Count: 2},
		{Name: "Bình", Income: 300000, Tip: 40000, Invoices: 2, Count: 2},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("StaffTotals() = %+v, want %+v", got, want)
	}
}

func TestSummarizeDebt(t *testing.T) {
	debt := tx(core.TypeIncome, core.CategoryDebt, 300000, core.PaymentCash, 1)
	debt.DebtAmount = 150000
	stray := tx(core.TypeIncome, core.CategoryOther, 100000, core.PaymentCash, 1)
	stray.DebtAmount = 999

	got := Summarize([]core.Transaction{debt, stray})
	if got.Debt != 150000 {
		t.Errorf("Debt = %d, want 150000", got.Debt)
	}
}
