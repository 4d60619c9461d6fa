package testutil

import (
	"github.com/tsg-Selina-Varshney/EMS/internal/ems"
	"github.com/tsg-Selina-Varshney/EMS/internal/encryption"
)

// NewTestEncryptor returns the reversible, keyless encryptor used in tests.
func NewTestEncryptor() ems.Encryptor {
	return encryption.NewTestEncryptor()
}
