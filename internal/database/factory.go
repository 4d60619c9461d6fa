package database

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/tsg-Selina-Varshney/EMS/internal/config"
	"github.com/tsg-Selina-Varshney/EMS/internal/ems"
)

// FileName is the name of the state database inside the data directory.
const FileName = "ems.db"

// NewDatabaseFromConfig opens the state database described by cfg.
func NewDatabaseFromConfig(cfg config.DatabaseConfig, clock ems.Clock) (*SQLiteDatabase, error) {
	switch cfg.Type {
	case "sqlite":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for sqlite database")
		}
		if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
			return nil, fmt.Errorf("creating data dir: %w", err)
		}
		return NewSQLiteDatabase(filepath.Join(cfg.DataDir, FileName), clock)
	case "memory":
		return NewSQLiteDatabase(memoryPath, clock)
	default:
		return nil, fmt.Errorf("unknown database type: %s", cfg.Type)
	}
}
