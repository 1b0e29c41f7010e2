//go:build darwin

package config

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

const defaultsDomain = "com.interviewd.app"

func defaultDataDir() string {
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, "Library", "Application Support", "interviewd")
	}
	return "interviewd-data"
}

func apiKeyHint() string {
	return fmt.Sprintf(" or macOS Keychain (service: %s, account: %s)", secretService, secretAccount)
}

// defaultsBackend keeps keys in the app's UserDefaults domain as strings.
type defaultsBackend struct {
	domain string
}

func newPlatformBackend() ConfigBackend {
	return &defaultsBackend{domain: defaultsDomain}
}

func (b *defaultsBackend) run(args ...string) (string, error) {
	out, err := exec.Command("defaults", args...).CombinedOutput()
	return strings.TrimSpace(string(out)), err
}

// Get treats exit status 1 from `defaults read` as an absent key.
func (b *defaultsBackend) Get(key string) (string, bool, error) {
	out, err := b.run("read", b.domain, key)
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
			return "", false, nil
		}
		return "", false, fmt.Errorf("defaults read %s: %w (%s)", key, err, out)
	}
	return out, true, nil
}

func (b *defaultsBackend) Set(key, val string) error {
	if out, err := b.run("write", b.domain, key, "-string", val); err != nil {
		return fmt.Errorf("defaults write %s: %w (%s)", key, err, out)
	}
	return nil
}

func (b *defaultsBackend) Delete(key string) error {
	if out, err := b.run("delete", b.domain, key); err != nil {
		return fmt.Errorf("defaults delete %s: %w (%s)", key, err, out)
	}
	return nil
}
