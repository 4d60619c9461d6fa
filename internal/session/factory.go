package session

import (
	"fmt"

	"github.com/tsg-Selina-Varshney/EMS/internal/config"
	"github.com/tsg-Selina-Varshney/EMS/internal/ems"
)

// NewStoreFromConfig creates the session store selected by cfg.Type. enc is
// only used when cfg.Encrypt is set; db is only used for type=sqlite.
func NewStoreFromConfig(cfg config.SessionConfig, enc ems.Encryptor, db BlobStore) (ems.SessionStore, error) {
	if !cfg.Encrypt {
		enc = nil
	} else if enc == nil {
		return nil, fmt.Errorf("session encryption requested but no encryptor is configured")
	}

	switch cfg.Type {
	case "file", "":
		if cfg.Path == "" {
			return nil, fmt.Errorf("path required for file session store")
		}
		return NewFileStore(cfg.Path, enc), nil
	case "sqlite":
		if db == nil {
			return nil, fmt.Errorf("sqlite session store requires a database")
		}
		return NewDatabaseStore(db, enc), nil
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown session type: %s", cfg.Type)
	}
}
