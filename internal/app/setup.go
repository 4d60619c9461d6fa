package app

import (
	"fmt"

	"github.com/tsg-Selina-Varshney/EMS/internal/config"
	"github.com/tsg-Selina-Varshney/EMS/internal/encryption"
)

// InitConfig writes a fresh config file from the defaults and generates the
// session encryption keys. It refuses to overwrite an existing config.
func InitConfig(defaults map[string]string) (*config.Config, error) {
	apiURL := defaults["api_url"]
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	cfg := config.NewConfig(defaults["base_dir"], apiURL)
	if err := config.Init(defaults["config_path"], cfg); err != nil {
		return nil, err
	}
	if err := SetupEncryption(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SetupEncryption generates key material for the configured encryptor. It is
// a no-op for type "none" and when keys already exist.
func SetupEncryption(cfg *config.Config) error {
	enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
	if err != nil {
		return fmt.Errorf("creating encryptor: %w", err)
	}
	if enc == nil {
		return nil
	}
	if err := enc.Setup(); err != nil {
		return fmt.Errorf("setting up encryption: %w", err)
	}
	return nil
}
