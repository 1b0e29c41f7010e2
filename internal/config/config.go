package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Engine    EngineConfig
	Ollama    OllamaConfig
	Proxy     ProxyConfig
	Storage   StorageConfig
	Log       LogConfig
	Interview InterviewConfig
}

type ServerConfig struct {
	Port int
}

// EngineConfig selects the inference provider: "openrouter" or "ollama".
type EngineConfig struct {
	Provider string
}

type OllamaConfig struct {
	BaseURL   string
	FastModel string
	DeepModel string
}

type ProxyConfig struct {
	OpenRouterAPIKey string
	FastModel        string
	DeepModel        string
}

type StorageConfig struct {
	DataDir string
}

type LogConfig struct {
	Level string
}

// InterviewConfig bounds the external calls made during a turn. Analysis
// covers classification and evaluation; generation covers the interviewer
// reply and the final report.
type InterviewConfig struct {
	AnalysisTimeout   time.Duration
	GenerationTimeout time.Duration
}

// FastModel returns the model used for classification and grading under the
// configured provider.
func (c Config) FastModel() string {
	if c.Engine.Provider == "ollama" {
		return c.Ollama.FastModel
	}
	return c.Proxy.FastModel
}

// DeepModel returns the model used for interviewer replies and reports.
func (c Config) DeepModel() string {
	if c.Engine.Provider == "ollama" {
		return c.Ollama.DeepModel
	}
	return c.Proxy.DeepModel
}

func defaults() Config {
	return Config{
		Server: ServerConfig{Port: 5000},
		Engine: EngineConfig{Provider: "openrouter"},
		Ollama: OllamaConfig{
			BaseURL:   "http://localhost:11434",
			FastModel: "phi3.5",
			DeepModel: "mistral-nemo",
		},
		Proxy: ProxyConfig{
			FastModel: "openai/gpt-oss-20b",
			DeepModel: "openai/gpt-oss-20b",
		},
		Storage: StorageConfig{DataDir: defaultDataDir()},
		Log:     LogConfig{Level: "info"},
		Interview: InterviewConfig{
			AnalysisTimeout:   15 * time.Second,
			GenerationTimeout: 60 * time.Second,
		},
	}
}

// Load reads configuration from the platform-native backend, a .env file in
// the working directory, environment variables, and the platform secret store.
//
// On macOS the backend is UserDefaults (domain: com.interviewd.app) and
// secrets fall back to macOS Keychain.
// Elsewhere the backend is a JSON file at $XDG_CONFIG_HOME/interviewd/config.json
// and secrets come from the environment or $XDG_DATA_HOME/interviewd/secrets.json.
//
// Environment variables (INTERVIEWD_*) override backend values on all
// platforms. Values from .env never replace variables already set.
func Load() (Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return Config{}, err
	}
	return loadWith(newPlatformBackend(), keychainReader{})
}

func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("reading %s: %w", path, err)
}

// keychain abstracts Keychain access for testing.
type keychain interface {
	Get(service, account string) (string, error)
}

func loadWith(b ConfigBackend, kc keychain) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}
	applyEnvOverrides(&cfg)

	if cfg.Proxy.OpenRouterAPIKey == "" {
		if key, err := kc.Get(secretService, secretAccount); err == nil && key != "" {
			cfg.Proxy.OpenRouterAPIKey = key
		}
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Engine.Provider {
	case "ollama":
	case "openrouter":
		if c.Proxy.OpenRouterAPIKey == "" {
			return fmt.Errorf("missing required config: OpenRouter API key. "+
				"Set it via environment variable INTERVIEWD_OPENROUTER_API_KEY%s, "+
				"or switch engine.provider to ollama", apiKeyHint())
		}
	default:
		return fmt.Errorf("invalid engine.provider %q: want openrouter or ollama", c.Engine.Provider)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d", c.Server.Port)
	}
	if c.Interview.AnalysisTimeout <= 0 || c.Interview.GenerationTimeout <= 0 {
		return fmt.Errorf("interview timeouts must be positive")
	}
	return nil
}

// keychainReader reads from the platform secret store.
type keychainReader struct{}

func (keychainReader) Get(service, account string) (string, error) {
	return readSecret(service, account)
}
