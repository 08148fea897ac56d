package backend

import (
	"context"
	"path/filepath"
	"testing"

	"salonledger/internal/config"
	"salonledger/internal/core"
)

func TestFactory_CreateStore(t *testing.T) {
	tests := []struct {
		name string
		cfg  func(dir string) Config
	}{
		{"json", func(dir string) Config { return Config{Type: JSONBackend, DataDir: dir} }},
		{"sqlite", func(dir string) Config { return Config{Type: SQLiteBackend, DataDir: dir} }},
		{"sqlite explicit path", func(dir string) Config {
			return Config{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(dir, "db", "x.db")}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			res, err := NewFactory(nil).CreateStore(ctx, tt.cfg(t.TempDir()))
			if err != nil {
				t.Fatalf("CreateStore() error: %v", err)
			}
			defer res.Cleanup()

			stored, err := res.Store.AppendTransaction(ctx, core.Transaction{
				Type: core.TypeTip, Category: core.CategoryTip, Amount: 10000,
				StaffName: "An", Date: core.NewDate(2024, 1, 1),
			})
			if err != nil {
				t.Fatalf("AppendTransaction() error: %v", err)
			}
			if stored.ID != 1 {
				t.Errorf("ID = %d, want 1", stored.ID)
			}
		})
	}
}

func TestFactory_InvalidConfig(t *testing.T) {
	tests := []Config{
		{Type: "memory", DataDir: "x"},
		{Type: JSONBackend},
		{Type: SQLiteBackend},
	}
	for _, cfg := range tests {
		if _, err := NewFactory(nil).CreateStore(context.Background(), cfg); err == nil {
			t.Errorf("CreateStore(%+v) should fail", cfg)
		}
	}
}

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Error("nil config should fail")
	}

	cfg, err := FromAppConfig(&config.Config{StoreBackend: "sqlite", DataDir: "d", SQLiteDBPath: "d/l.db"})
	if err != nil {
		t.Fatalf("FromAppConfig() error: %v", err)
	}
	if cfg.Type != SQLiteBackend || cfg.sqlitePath() != "d/l.db" {
		t.Errorf("FromAppConfig() = %+v", cfg)
	}

	if _, err := FromAppConfig(&config.Config{StoreBackend: "sheets"}); err == nil {
		t.Error("unknown backend should fail")
	}
}
