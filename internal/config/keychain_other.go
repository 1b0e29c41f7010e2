//go:build !darwin

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// secretsFilePath stands in for a keychain on platforms without one:
// {"service": {"account": "value"}}.
func secretsFilePath() string {
	dir := os.Getenv("XDG_DATA_HOME")
	if dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, ".local", "share")
		} else {
			dir = "."
		}
	}
	return filepath.Join(dir, secretService, "secrets.json")
}

func readSecret(service, account string) (string, error) {
	data, err := os.ReadFile(secretsFilePath())
	if err != nil {
		return "", fmt.Errorf("secret store not available: %w", err)
	}
	var secrets map[string]map[string]string
	if err := json.Unmarshal(data, &secrets); err != nil {
		return "", fmt.Errorf("parsing secrets file: %w", err)
	}
	val, ok := secrets[service][account]
	if !ok {
		return "", fmt.Errorf("secret %s/%s not found", service, account)
	}
	return strings.TrimSpace(val), nil
}
