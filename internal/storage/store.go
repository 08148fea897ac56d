package storage

import (
	"context"

	"salonledger/internal/core"
)

// Store owns the transaction and staff collections. Implementations keep
// transactions in append order and staff sorted ascending.
type Store interface {
	// LoadTransactions returns every transaction, canonicalized. A missing
	// collection is created empty.
	LoadTransactions(ctx context.Context) ([]core.Transaction, error)
	// SaveTransactions atomically replaces the whole collection.
	SaveTransactions(ctx context.Context, txs []core.Transaction) error
	// AppendTransaction stores t at the end. A zero ID is assigned with
	// core.NextID against the stored high-water mark, so ids of deleted or
	// cleared transactions are never reissued. The stored transaction is
	// returned.
	AppendTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
	UpdateTransaction(ctx context.Context, t core.Transaction) error
	DeleteTransaction(ctx context.Context, id int64) error

	LoadStaff(ctx context.Context) ([]string, error)
	SaveStaff(ctx context.Context, names []string) error
	// AddStaff reports false when the trimmed name is blank or present.
	AddStaff(ctx context.Context, name string) (bool, error)
	// DeleteStaff reports false when the name is absent. Transactions
	// referencing the name are left untouched.
	DeleteStaff(ctx context.Context, name string) (bool, error)

	Close() error
}
