//go:build !darwin

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
)

func defaultDataDir() string {
	dir := os.Getenv("XDG_DATA_HOME")
	if dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, ".local", "share")
		} else {
			return "interviewd-data"
		}
	}
	return filepath.Join(dir, "interviewd")
}

func apiKeyHint() string {
	return ""
}

// fileBackend stores config as a flat JSON object keyed by dotted names.
// Hand-edited files may hold numbers or booleans; they read back as strings.
type fileBackend struct {
	path string
	data map[string]any
}

func newPlatformBackend() ConfigBackend {
	return openFileBackend(configFilePath())
}

func openFileBackend(path string) *fileBackend {
	b := &fileBackend{path: path, data: make(map[string]any)}
	b.load()
	return b
}

func configFilePath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, ".config")
		} else {
			dir = "."
		}
	}
	return filepath.Join(dir, "interviewd", "config.json")
}

func (b *fileBackend) load() {
	data, err := os.ReadFile(b.path)
	if errors.Is(err, fs.ErrNotExist) {
		return
	}
	if err == nil {
		err = json.Unmarshal(data, &b.data)
	}
	if err != nil {
		slog.Warn("ignoring config file", "path", b.path, "error", err)
	}
}

func (b *fileBackend) Get(key string) (string, bool, error) {
	switch v := b.data[key].(type) {
	case nil:
		return "", false, nil
	case string:
		return v, true, nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true, nil
	case bool:
		return strconv.FormatBool(v), true, nil
	default:
		return "", true, fmt.Errorf("%s holds a %T, want a scalar", key, v)
	}
}

func (b *fileBackend) Set(key, val string) error {
	b.data[key] = val
	return b.flush()
}

func (b *fileBackend) Delete(key string) error {
	delete(b.data, key)
	return b.flush()
}

func (b *fileBackend) flush() error {
	if err := os.MkdirAll(filepath.Dir(b.path), 0o700); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	data, err := json.MarshalIndent(b.data, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(b.path, data, 0o600)
}
