package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// DefaultAPIURL is used by `ems config init` when EMS_API_URL is unset.
const DefaultAPIURL = "http://localhost:8000"

// GetDefaults returns application default paths, checking environment variables first.
// Environment variables:
//   - EMS_CONFIG_PATH: config file location (default: ~/.config/ems.toml)
//   - EMS_HOME: base directory for ems data (default: ~/.local/share/ems)
//   - EMS_API_URL: overrides api.base_url of the config file
func GetDefaults() (map[string]string, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, err
	}

	baseDir, err := getBaseDir()
	if err != nil {
		return nil, err
	}

	return map[string]string{
		"config_path": configPath,
		"base_dir":    baseDir,
		"log_dir":     filepath.Join(baseDir, "log"),
		"api_url":     os.Getenv("EMS_API_URL"),
	}, nil
}

// getConfigPath returns the config file path, checking EMS_CONFIG_PATH env var first,
// then falling back to the default ~/.config/ems.toml.
func getConfigPath() (string, error) {
	if path := os.Getenv("EMS_CONFIG_PATH"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "ems.toml"), nil
}

// getBaseDir returns the base directory for ems data, checking EMS_HOME env var first,
// then falling back to the XDG default ~/.local/share/ems.
func getBaseDir() (string, error) {
	if path := os.Getenv("EMS_HOME"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".local", "share", "ems"), nil
}
