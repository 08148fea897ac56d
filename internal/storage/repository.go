package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"salonledger/internal/core"
	"salonledger/internal/log"

	_ "modernc.org/sqlite"
)

// SQLiteRepository is the alternative Store backend. Append order is kept
// in the position column; staff names rely on SQLite's binary collation,
// which sorts the same way as Go strings.
type SQLiteRepository struct {
	db   *sql.DB
	path string
}

var _ Store = (*SQLiteRepository)(nil)

const txColumns = `id, type, category, amount, description, payment_method, invoice_count,
	staff_name, purchase_item, boss_order, image_path, debt_amount, date, created_at, updated_at`

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, &core.StoreIOError{Op: "init", Path: dbPath, Err: fmt.Errorf("create db directory: %w", err)}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, &core.StoreIOError{Op: "open", Path: dbPath, Err: err}
	}
	// One writer; avoids SQLITE_BUSY between pooled connections.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, &core.StoreIOError{Op: "ping", Path: dbPath, Err: err}
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, &core.StoreIOError{Op: "migrate", Path: dbPath, Err: err}
	}

	return &SQLiteRepository{db: db, path: dbPath}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) ioErr(op string, err error) error {
	return &core.StoreIOError{Op: op, Path: r.path, Err: err}
}

func (r *SQLiteRepository) LoadTransactions(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+txColumns+` FROM transactions ORDER BY position, id`)
	if err != nil {
		return nil, r.ioErr("load", err)
	}
	defer rows.Close()

	txs := []core.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, r.ioErr("decode", err)
		}
		txs = append(txs, t)
	}
	if err := rows.Err(); err != nil {
		return nil, r.ioErr("load", err)
	}
	return core.NormalizeLoaded(txs), nil
}

func (r *SQLiteRepository) SaveTransactions(ctx context.Context, txs []core.Transaction) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return r.ioErr("save", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM transactions`); err != nil {
		return r.ioErr("save", err)
	}
	for i, t := range txs {
		if err := insertTransaction(ctx, tx, t, int64(i)); err != nil {
			return r.ioErr("save", err)
		}
	}
	if err := raiseLastID(ctx, tx, core.MaxID(txs)); err != nil {
		return r.ioErr("save", err)
	}
	if err := tx.Commit(); err != nil {
		return r.ioErr("save", err)
	}
	storageLogger(ctx).DebugContext(ctx, "Transactions saved to SQLite", "count", len(txs))
	return nil
}

func (r *SQLiteRepository) AppendTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Transaction{}, r.ioErr("append", err)
	}
	defer tx.Rollback()

	var count, maxID, maxPos, lastID int64
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(MAX(id), 0), COALESCE(MAX(position), -1),
			(SELECT COALESCE(MAX(last_id), 0) FROM meta)
		FROM transactions`).
		Scan(&count, &maxID, &maxPos, &lastID)
	if err != nil {
		return core.Transaction{}, r.ioErr("append", err)
	}
	if t.ID == 0 {
		t.ID = max(count, maxID, lastID) + 1
	}
	if err := insertTransaction(ctx, tx, t, maxPos+1); err != nil {
		return core.Transaction{}, r.ioErr("append", err)
	}
	if err := raiseLastID(ctx, tx, t.ID); err != nil {
		return core.Transaction{}, r.ioErr("append", err)
	}
	if err := tx.Commit(); err != nil {
		return core.Transaction{}, r.ioErr("append", err)
	}

	storageLogger(ctx).InfoContext(ctx, "Transaction saved to SQLite",
		log.NewFields().WithTransaction(t.ID, string(t.Type), int64(t.Amount), t.StaffName).ToSlice()...)
	return t, nil
}

// raiseLastID moves the id high-water mark up to id; it never lowers it.
func raiseLastID(ctx context.Context, tx *sql.Tx, id int64) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO meta (singleton, last_id) VALUES (1, ?)
		ON CONFLICT(singleton) DO UPDATE SET last_id = MAX(last_id, excluded.last_id)`, id)
	return err
}

func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, t core.Transaction) error {
	res, err := r.db.ExecContext(ctx, `UPDATE transactions SET
		type = ?, category = ?, amount = ?, description = ?, payment_method = ?, invoice_count = ?,
		staff_name = ?, purchase_item = ?, boss_order = ?, image_path = ?, debt_amount = ?,
		date = ?, created_at = ?, updated_at = ?
		WHERE id = ?`,
		string(t.Type), t.Category, int64(t.Amount), t.Description, string(t.PaymentMethod), t.InvoiceCount,
		t.StaffName, t.PurchaseItem, t.BossOrder, t.AttachmentPath, int64(t.DebtAmount),
		t.Date.String(), t.CreatedAt.String(), nullableTimestamp(t.UpdatedAt),
		t.ID)
	if err != nil {
		return r.ioErr("update", err)
	}
	return r.expectOne(res, t.ID, "update")
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return r.ioErr("delete", err)
	}
	return r.expectOne(res, id, "delete")
}

func (r *SQLiteRepository) expectOne(res sql.Result, id int64, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return r.ioErr(op, err)
	}
	if n == 0 {
		return &core.NotFoundError{ID: id}
	}
	return nil
}

func (r *SQLiteRepository) LoadStaff(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name FROM staff ORDER BY name`)
	if err != nil {
		return nil, r.ioErr("load staff", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, r.ioErr("load staff", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, r.ioErr("load staff", err)
	}
	return names, nil
}

func (r *SQLiteRepository) SaveStaff(ctx context.Context, names []string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return r.ioErr("save staff", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM staff`); err != nil {
		return r.ioErr("save staff", err)
	}
	for _, name := range core.NormalizeStaff(names) {
		if _, err := tx.ExecContext(ctx, `INSERT INTO staff (name) VALUES (?)`, name); err != nil {
			return r.ioErr("save staff", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return r.ioErr("save staff", err)
	}
	return nil
}

func (r *SQLiteRepository) AddStaff(ctx context.Context, name string) (bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return false, nil
	}
	res, err := r.db.ExecContext(ctx, `INSERT OR IGNORE INTO staff (name) VALUES (?)`, name)
	if err != nil {
		return false, r.ioErr("add staff", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, r.ioErr("add staff", err)
	}
	return n == 1, nil
}

func (r *SQLiteRepository) DeleteStaff(ctx context.Context, name string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM staff WHERE name = ?`, strings.TrimSpace(name))
	if err != nil {
		return false, r.ioErr("delete staff", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, r.ioErr("delete staff", err)
	}
	return n == 1, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertTransaction(ctx context.Context, db execer, t core.Transaction, position int64) error {
	_, err := db.ExecContext(ctx, `INSERT INTO transactions (position, `+txColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		position,
		t.ID, string(t.Type), t.Category, int64(t.Amount), t.Description, string(t.PaymentMethod), t.InvoiceCount,
		t.StaffName, t.PurchaseItem, t.BossOrder, t.AttachmentPath, int64(t.DebtAmount),
		t.Date.String(), t.CreatedAt.String(), nullableTimestamp(t.UpdatedAt))
	if err != nil {
		return fmt.Errorf("insert transaction %d: %w", t.ID, err)
	}
	return nil
}

func scanTransaction(rows *sql.Rows) (core.Transaction, error) {
	var (
		t                       core.Transaction
		typ, method, date, crAt string
		amount, debt            int64
		updAt                   sql.NullString
	)
	err := rows.Scan(&t.ID, &typ, &t.Category, &amount, &t.Description, &method, &t.InvoiceCount,
		&t.StaffName, &t.PurchaseItem, &t.BossOrder, &t.AttachmentPath, &debt, &date, &crAt, &updAt)
	if err != nil {
		return t, err
	}
	t.Type = core.Type(typ)
	t.PaymentMethod = core.PaymentMethod(method)
	t.Amount = core.Money(amount)
	t.DebtAmount = core.Money(debt)
	if t.Date, err = core.ParseDate(date); err != nil {
		return t, fmt.Errorf("transaction %d: %w", t.ID, err)
	}
	if t.CreatedAt, err = core.ParseTimestamp(crAt); err != nil {
		return t, fmt.Errorf("transaction %d: %w", t.ID, err)
	}
	if updAt.Valid && updAt.String != "" {
		ts, err := core.ParseTimestamp(updAt.String)
		if err != nil {
			return t, fmt.Errorf("transaction %d: %w", t.ID, err)
		}
		t.UpdatedAt = &ts
	}
	return t, nil
}

func nullableTimestamp(ts *core.Timestamp) any {
	if ts == nil || ts.IsZero() {
		return nil
	}
	return ts.String()
}
