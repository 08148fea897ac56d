package aggregate

import "salonledger/internal/core"

// Predicate selects transactions.
type Predicate func(core.Transaction) bool

// Filter returns the transactions matching every predicate, in input order.
// The result never aliases txs.
func Filter(txs []core.Transaction, preds ...Predicate) []core.Transaction {
	out := make([]core.Transaction, 0, len(txs))
next:
	for _, t := range txs {
		for _, p := range preds {
			if p != nil && !p(t) {
				continue next
			}
		}
		out = append(out, t)
	}
	return out
}

func OfType(typ core.Type) Predicate {
	return func(t core.Transaction) bool { return t.Type == typ }
}

// InRange matches dates in [from, to], both inclusive. A zero bound is open.
func InRange(from, to core.Date) Predicate {
	return func(t core.Transaction) bool {
		if !from.IsZero() && t.Date.Compare(from) < 0 {
			return false
		}
		if !to.IsZero() && t.Date.Compare(to) > 0 {
			return false
		}
		return true
	}
}

func OnDate(day core.Date) Predicate {
	return func(t core.Transaction) bool { return t.Date.Compare(day) == 0 }
}

func FilterByDateRange(txs []core.Transaction, from, to core.Date) []core.Transaction {
	return Filter(txs, InRange(from, to))
}

func FilterByDate(txs []core.Transaction, day core.Date) []core.Transaction {
	return Filter(txs, OnDate(day))
}
