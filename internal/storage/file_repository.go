package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"salonledger/internal/core"
	"salonledger/internal/log"
)

const (
	TransactionsFile = "transactions.json"
	StaffFile        = "staff.json"
	MetaFile         = "meta.json"
)

// fileMeta sits next to the collections and remembers the highest
// transaction id ever assigned.
type fileMeta struct {
	LastID int64 `json:"last_id"`
}

// FileRepository keeps both collections as pretty-printed UTF-8 JSON files
// in one directory. Writes go to a temp file that replaces the target only
// once fully written, so a failed save leaves the previous data intact.
type FileRepository struct {
	dir string
}

var _ Store = (*FileRepository)(nil)

func NewFileRepository(dir string) (*FileRepository, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &core.StoreIOError{Op: "init", Path: dir, Err: err}
	}
	return &FileRepository{dir: dir}, nil
}

func (r *FileRepository) transactionsPath() string { return filepath.Join(r.dir, TransactionsFile) }
func (r *FileRepository) staffPath() string        { return filepath.Join(r.dir, StaffFile) }
func (r *FileRepository) metaPath() string         { return filepath.Join(r.dir, MetaFile) }

func (r *FileRepository) Close() error { return nil }

func (r *FileRepository) LoadTransactions(ctx context.Context) ([]core.Transaction, error) {
	var txs []core.Transaction
	if err := r.readOrInit(ctx, r.transactionsPath(), &txs); err != nil {
		return nil, err
	}
	if txs == nil {
		txs = []core.Transaction{}
	}
	return core.NormalizeLoaded(txs), nil
}

func (r *FileRepository) SaveTransactions(ctx context.Context, txs []core.Transaction) error {
	if txs == nil {
		txs = []core.Transaction{}
	}
	if err := r.raiseLastID(core.MaxID(txs)); err != nil {
		return err
	}
	if err := writeJSONAtomic(r.transactionsPath(), txs); err != nil {
		return err
	}
	storageLogger(ctx).DebugContext(ctx, "Transactions saved", "path", r.transactionsPath(), "count", len(txs))
	return nil
}

func (r *FileRepository) AppendTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	txs, err := r.LoadTransactions(ctx)
	if err != nil {
		return core.Transaction{}, err
	}
	if t.ID == 0 {
		meta, err := r.readMeta()
		if err != nil {
			return core.Transaction{}, err
		}
		t.ID = core.NextID(txs, meta.LastID)
	}
	if err := r.SaveTransactions(ctx, append(txs, t)); err != nil {
		return core.Transaction{}, err
	}
	return t, nil
}

func (r *FileRepository) UpdateTransaction(ctx context.Context, t core.Transaction) error {
	txs, err := r.LoadTransactions(ctx)
	if err != nil {
		return err
	}
	i := core.IndexOf(txs, t.ID)
	if i < 0 {
		return &core.NotFoundError{ID: t.ID}
	}
	txs[i] = t
	return r.SaveTransactions(ctx, txs)
}

func (r *FileRepository) DeleteTransaction(ctx context.Context, id int64) error {
	txs, err := r.LoadTransactions(ctx)
	if err != nil {
		return err
	}
	i := core.IndexOf(txs, id)
	if i < 0 {
		return &core.NotFoundError{ID: id}
	}
	return r.SaveTransactions(ctx, append(txs[:i], txs[i+1:]...))
}

func (r *FileRepository) LoadStaff(ctx context.Context) ([]string, error) {
	var names []string
	if err := r.readOrInit(ctx, r.staffPath(), &names); err != nil {
		return nil, err
	}
	return core.NormalizeStaff(names), nil
}

func (r *FileRepository) SaveStaff(_ context.Context, names []string) error {
	return writeJSONAtomic(r.staffPath(), core.NormalizeStaff(names))
}

func (r *FileRepository) AddStaff(ctx context.Context, name string) (bool, error) {
	names, err := r.LoadStaff(ctx)
	if err != nil {
		return false, err
	}
	out, ok := core.InsertStaff(names, name)
	if !ok {
		return false, nil
	}
	return true, r.SaveStaff(ctx, out)
}

func (r *FileRepository) DeleteStaff(ctx context.Context, name string) (bool, error) {
	names, err := r.LoadStaff(ctx)
	if err != nil {
		return false, err
	}
	out, ok := core.RemoveStaff(names, name)
	if !ok {
		return false, nil
	}
	return true, r.SaveStaff(ctx, out)
}

func (r *FileRepository) readMeta() (fileMeta, error) {
	var meta fileMeta
	data, err := os.ReadFile(r.metaPath())
	if errors.Is(err, fs.ErrNotExist) {
		return meta, nil
	}
	if err != nil {
		return meta, &core.StoreIOError{Op: "read", Path: r.metaPath(), Err: err}
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return meta, &core.StoreIOError{Op: "decode", Path: r.metaPath(), Err: err}
	}
	return meta, nil
}

// raiseLastID records id as the high-water mark unless a higher one is
// already stored. It is written before the collection, so the mark never
// trails the data.
func (r *FileRepository) raiseLastID(id int64) error {
	meta, err := r.readMeta()
	if err != nil {
		return err
	}
	if id <= meta.LastID {
		return nil
	}
	return writeJSONAtomic(r.metaPath(), fileMeta{LastID: id})
}

// readOrInit decodes path into v, creating the file with an empty list
// when it does not exist yet.
func (r *FileRepository) readOrInit(ctx context.Context, path string, v any) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		storageLogger(ctx).InfoContext(ctx, "Creating empty collection", "path", path)
		return writeJSONAtomic(path, []any{})
	}
	if err != nil {
		return &core.StoreIOError{Op: "read", Path: path, Err: err}
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return &core.StoreIOError{Op: "decode", Path: path, Err: err}
	}
	return nil
}

func writeJSONAtomic(path string, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return &core.StoreIOError{Op: "encode", Path: path, Err: err}
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return &core.StoreIOError{Op: "write", Path: path, Err: err}
	}
	tmpName := tmp.Name()
	fail := func(err error) error {
		tmp.Close()
		os.Remove(tmpName)
		return &core.StoreIOError{Op: "write", Path: path, Err: err}
	}
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		return fail(err)
	}
	if err := tmp.Sync(); err != nil {
		return fail(err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return &core.StoreIOError{Op: "write", Path: path, Err: err}
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return &core.StoreIOError{Op: "replace", Path: path, Err: fmt.Errorf("rename %s: %w", tmpName, err)}
	}
	return nil
}

// storageLogger tags store log lines with the storage component.
func storageLogger(ctx context.Context) *log.Logger {
	return log.FromContext(ctx).WithComponent(log.ComponentStorage)
}
