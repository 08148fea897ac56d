package core

import "strings"

// Canonical returns t with the type-specific invariants enforced: fixed
// category literals and no payment method for tip/advance, invoice counts
// only on revenue income, debt only on debt income, and expense-only fields
// cleared for the other kinds. It is applied on create, on edit and once
// to every record loaded from storage, so downstream code never has to
// branch on which fields an old record happened to carry.
func (t Transaction) Canonical() Transaction {
	t.Category = strings.TrimSpace(t.Category)
	t.StaffName = strings.TrimSpace(t.StaffName)
	t.PurchaseItem = strings.TrimSpace(t.PurchaseItem)
	t.BossOrder = strings.TrimSpace(t.BossOrder)
	t.PaymentMethod = PaymentMethod(strings.TrimSpace(string(t.PaymentMethod)))

	switch t.Type {
	case TypeTip:
		t.Category = CategoryTip
		t.PaymentMethod = ""
	case TypeAdvance:
		t.Category = CategoryAdvance
		t.PaymentMethod = ""
	}
	if !t.QualifiesForInvoices() {
		t.InvoiceCount = 0
	}
	if !t.CarriesDebt() {
		t.DebtAmount = 0
	}
	if t.Type != TypeExpense {
		t.PurchaseItem = ""
		t.BossOrder = ""
		t.AttachmentPath = ""
	}
	return t
}

// NormalizeLoaded canonicalizes records read from storage in place.
func NormalizeLoaded(txs []Transaction) []Transaction {
	for i := range txs {
		txs[i] = txs[i].Canonical()
	}
	return txs
}

// NextID returns the id for a new transaction: count+1, bumped past every
// id still present and past lastID, the highest id ever handed out. Ids of
// deleted or cleared transactions are therefore never reissued.
func NextID(txs []Transaction, lastID int64) int64 {
	next := max(int64(len(txs)), lastID) + 1
	for _, t := range txs {
		if t.ID >= next {
			next = t.ID + 1
		}
	}
	return next
}

// MaxID returns the highest id in txs, or 0.
func MaxID(txs []Transaction) int64 {
	var m int64
	for _, t := range txs {
		m = max(m, t.ID)
	}
	return m
}

// IndexOf returns the position of the transaction with the given id or -1.
func IndexOf(txs []Transaction, id int64) int {
	for i, t := range txs {
		if t.ID == id {
			return i
		}
	}
	return -1
}
