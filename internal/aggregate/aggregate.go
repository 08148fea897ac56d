// Package aggregate computes sums and groupings over transaction lists.
// Every function is pure and works in whole currency units.
package aggregate

import (
	"cmp"
	"slices"

	"salonledger/internal/core"
)

// Group is one row of a rollup: a key and the summed amount.
type Group struct {
	Key    string     `json:"key"`
	Amount core.Money `json:"amount"`
	Count  int        `json:"count"`
}

// InvoiceTotals counts invoices on revenue income only.
type InvoiceTotals struct {
	Service int `json:"service"`
	Product int `json:"product"`
	Total   int `json:"total"`
}

// Summary is the headline view of a transaction set.
type Summary struct {
	Income   core.Money    `json:"income"`
	Expense  core.Money    `json:"expense"`
	Tip      core.Money    `json:"tip"`
	Advance  core.Money    `json:"advance"`
	Debt     core.Money    `json:"debt"`
	Balance  core.Money    `json:"balance"`
	Invoices InvoiceTotals `json:"invoices"`
	Count    int           `json:"count"`
}

// StaffTotal holds per-kind sums for one staff member.
type StaffTotal struct {
	Name     string     `json:"name"`
	Income   core.Money `json:"income"`
	Expense  core.Money `json:"expense"`
	Tip      core.Money `json:"tip"`
	Advance  core.Money `json:"advance"`
	Invoices int        `json:"invoices"`
	Count    int        `json:"count"`
}

// Key selects the grouping field of a transaction.
type Key func(core.Transaction) string

var (
	ByCategory      Key = func(t core.Transaction) string { return t.Category }
	ByPaymentMethod Key = func(t core.Transaction) string { return string(t.PaymentMethod) }
	ByStaff         Key = func(t core.Transaction) string { return t.StaffName }
	ByDate          Key = func(t core.Transaction) string { return t.Date.String() }
	ByType          Key = func(t core.Transaction) string { return t.Type.Label() }
)

// SumByType adds the amounts of every transaction of kind typ.
func SumByType(txs []core.Transaction, typ core.Type) core.Money {
	var total core.Money
	for _, t := range txs {
		if t.Type == typ {
			total += t.Amount
		}
	}
	return total
}

// SumBy groups txs by key and returns the groups sorted ascending by key.
func SumBy(txs []core.Transaction, key Key) []Group {
	idx := map[string]int{}
	groups := []Group{}
	for _, t := range txs {
		k := key(t)
		i, ok := idx[k]
		if !ok {
			i = len(groups)
			idx[k] = i
			groups = append(groups, Group{Key: k})
		}
		groups[i].Amount += t.Amount
		groups[i].Count++
	}
	slices.SortFunc(groups, func(a, b Group) int { return cmp.Compare(a.Key, b.Key) })
	return groups
}

// Invoices sums invoice_count over income in the two revenue categories.
// Other categories contribute nothing whatever their stored count.
func Invoices(txs []core.Transaction) InvoiceTotals {
	var out InvoiceTotals
	for _, t := range txs {
		if t.Type != core.TypeIncome {
			continue
		}
		switch t.Category {
		case core.CategoryServiceRevenue:
			out.Service += t.InvoiceCount
		case core.CategoryProductRevenue:
			out.Product += t.InvoiceCount
		}
	}
	out.Total = out.Service + out.Product
	return out
}

// Summarize computes the headline totals. Balance is income minus expense.
func Summarize(txs []core.Transaction) Summary {
	s := Summary{
		Income:   SumByType(txs, core.TypeIncome),
		Expense:  SumByType(txs, core.TypeExpense),
		Tip:      SumByType(txs, core.TypeTip),
		Advance:  SumByType(txs, core.TypeAdvance),
		Invoices: Invoices(txs),
		Count:    len(txs),
	}
	s.Balance = s.Income - s.Expense
	for _, t := range txs {
		if t.CarriesDebt() {
			s.Debt += t.DebtAmount
		}
	}
	return s
}

// StaffTotals sums each kind per staff member, sorted by name. Records
// without a staff name are grouped under "".
func StaffTotals(txs []core.Transaction) []StaffTotal {
	idx := map[string]int{}
	out := []StaffTotal{}
	for _, t := range txs {
		i, ok := idx[t.StaffName]
		if !ok {
			i = len(out)
			idx[t.StaffName] = i
			out = append(out, StaffTotal{Name: t.StaffName})
		}
		st := &out[i]
		st.Count++
		switch t.Type {
		case core.TypeIncome:
			st.Income += t.Amount
			if t.QualifiesForInvoices() {
				st.Invoices += t.InvoiceCount
			}
		case core.TypeExpense:
			st.Expense += t.Amount
		case core.TypeTip:
			st.Tip += t.Amount
		case core.TypeAdvance:
			st.Advance += t.Amount
		}
	}
	slices.SortFunc(out, func(a, b StaffTotal) int { return cmp.Compare(a.Name, b.Name) })
	return out
}
