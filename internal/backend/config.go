package backend

import (
	"errors"
	"fmt"
	"path/filepath"

	"salonledger/internal/config"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, errors.New("app config is nil")
	}

	backendType := BackendType(appConfig.StoreBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.StoreBackend)
	}

	return Config{
		Type:         backendType,
		DataDir:      appConfig.DataDir,
		SQLiteDBPath: appConfig.SQLiteDBPath,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}

	switch c.Type {
	case JSONBackend:
		if c.DataDir == "" {
			return errors.New("data directory is required for json backend")
		}
	case SQLiteBackend:
		if c.SQLiteDBPath == "" && c.DataDir == "" {
			return errors.New("SQLite database path is required for sqlite backend")
		}
	}

	return nil
}

func (c Config) sqlitePath() string {
	if c.SQLiteDBPath != "" {
		return c.SQLiteDBPath
	}
	return filepath.Join(c.DataDir, "ledger.db")
}

// GetBackendTypeStrings returns all valid backend type strings
func GetBackendTypeStrings() []string {
	return []string{JSONBackend.String(), SQLiteBackend.String()}
}
