//go:build darwin

package config

import (
	"fmt"
	"os/exec"
	"strings"
)

// readSecret looks the secret up in the login keychain.
func readSecret(service, account string) (string, error) {
	out, err := exec.Command("security", "find-generic-password", "-s", service, "-a", account, "-w").Output()
	if err != nil {
		return "", fmt.Errorf("keychain item %s/%s: %w", service, account, err)
	}
	return strings.TrimSpace(string(out)), nil
}
