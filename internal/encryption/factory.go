package encryption

import (
	"fmt"

	"github.com/tsg-Selina-Varshney/EMS/internal/config"
	"github.com/tsg-Selina-Varshney/EMS/internal/ems"
)

// NewEncryptorFromConfig creates an Encryptor based on the configuration type.
// Type "none" yields a nil Encryptor: data is stored in plaintext.
func NewEncryptorFromConfig(cfg config.EncryptionConfig) (ems.Encryptor, error) {
	switch cfg.Type {
	case "age", "":
		return NewAgeEncryptor(cfg), nil
	case "test":
		return NewTestEncryptor(), nil
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown encryption type: %q", cfg.Type)
	}
}
