package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type keyType int

const (
	kString keyType = iota
	kInt
	kDuration
)

type keySpec struct {
	key     string
	typ     keyType
	env     string
	secret  bool
	apply   func(cfg *Config, v any)
	extract func(cfg Config) any
}

var specs = []keySpec{
	{
		key: "server.port", typ: kInt, env: "INTERVIEWD_SERVER_PORT",
		apply:   func(cfg *Config, v any) { cfg.Server.Port = v.(int) },
		extract: func(cfg Config) any { return cfg.Server.Port },
	},
	{
		key: "engine.provider", typ: kString, env: "INTERVIEWD_ENGINE_PROVIDER",
		apply:   func(cfg *Config, v any) { cfg.Engine.Provider = v.(string) },
		extract: func(cfg Config) any { return cfg.Engine.Provider },
	},
	{
		key: "ollama.base_url", typ: kString, env: "INTERVIEWD_OLLAMA_BASE_URL",
		apply:   func(cfg *Config, v any) { cfg.Ollama.BaseURL = v.(string) },
		extract: func(cfg Config) any { return cfg.Ollama.BaseURL },
	},
	{
		key: "ollama.fast_model", typ: kString, env: "INTERVIEWD_OLLAMA_FAST_MODEL",
		apply:   func(cfg *Config, v any) { cfg.Ollama.FastModel = v.(string) },
		extract: func(cfg Config) any { return cfg.Ollama.FastModel },
	},
	{
		key: "ollama.deep_model", typ: kString, env: "INTERVIEWD_OLLAMA_DEEP_MODEL",
		apply:   func(cfg *Config, v any) { cfg.Ollama.DeepModel = v.(string) },
		extract: func(cfg Config) any { return cfg.Ollama.DeepModel },
	},
	{
		key: "proxy.openrouter_api_key", typ: kString, env: "INTERVIEWD_OPENROUTER_API_KEY",
		secret:  true,
		apply:   func(cfg *Config, v any) { cfg.Proxy.OpenRouterAPIKey = v.(string) },
		extract: func(cfg Config) any { return cfg.Proxy.OpenRouterAPIKey },
	},
	{
		key: "proxy.fast_model", typ: kString, env: "INTERVIEWD_PROXY_FAST_MODEL",
		apply:   func(cfg *Config, v any) { cfg.Proxy.FastModel = v.(string) },
		extract: func(cfg Config) any { return cfg.Proxy.FastModel },
	},
	{
		key: "proxy.deep_model", typ: kString, env: "INTERVIEWD_PROXY_DEEP_MODEL",
		apply:   func(cfg *Config, v any) { cfg.Proxy.DeepModel = v.(string) },
		extract: func(cfg Config) any { return cfg.Proxy.DeepModel },
	},
	{
		key: "storage.data_dir", typ: kString, env: "INTERVIEWD_STORAGE_DATA_DIR",
		apply:   func(cfg *Config, v any) { cfg.Storage.DataDir = v.(string) },
		extract: func(cfg Config) any { return cfg.Storage.DataDir },
	},
	{
		key: "log.level", typ: kString, env: "INTERVIEWD_LOG_LEVEL",
		apply:   func(cfg *Config, v any) { cfg.Log.Level = v.(string) },
		extract: func(cfg Config) any { return cfg.Log.Level },
	},
	{
		key: "interview.analysis_timeout", typ: kDuration, env: "INTERVIEWD_ANALYSIS_TIMEOUT",
		apply:   func(cfg *Config, v any) { cfg.Interview.AnalysisTimeout = v.(time.Duration) },
		extract: func(cfg Config) any { return cfg.Interview.AnalysisTimeout },
	},
	{
		key: "interview.generation_timeout", typ: kDuration, env: "INTERVIEWD_GENERATION_TIMEOUT",
		apply:   func(cfg *Config, v any) { cfg.Interview.GenerationTimeout = v.(time.Duration) },
		extract: func(cfg Config) any { return cfg.Interview.GenerationTimeout },
	},
}

func lookupSpec(key string) (keySpec, bool) {
	for _, s := range specs {
		if s.key == key {
			return s, true
		}
	}
	return keySpec{}, false
}

// parse converts a stored or environment value to the key's type.
func (s keySpec) parse(raw string) (any, error) {
	raw = strings.TrimSpace(raw)
	switch s.typ {
	case kInt:
		i, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid integer for %s: %w", s.key, err)
		}
		return i, nil
	case kDuration:
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid duration for %s: %w", s.key, err)
		}
		return d, nil
	}
	return raw, nil
}

func applyBackend(cfg *Config, b ConfigBackend) error {
	for _, s := range specs {
		if s.secret {
			continue
		}
		raw, ok, err := b.Get(s.key)
		if err != nil {
			return fmt.Errorf("reading %s: %w", s.key, err)
		}
		if !ok || raw == "" {
			continue
		}
		v, err := s.parse(raw)
		if err != nil {
			slog.Warn("ignoring stored config value", "key", s.key, "value", raw, "error", err)
			continue
		}
		s.apply(cfg, v)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	for _, s := range specs {
		raw := os.Getenv(s.env)
		if raw == "" {
			continue
		}
		v, err := s.parse(raw)
		if err != nil {
			slog.Warn("ignoring environment value", "env", s.env, "value", raw, "error", err)
			continue
		}
		s.apply(cfg, v)
	}
}
