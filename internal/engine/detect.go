package engine

import (
	"fmt"

	"github.com/kalambet/interviewd/internal/proxy"
)

// Provider names accepted by Detect.
const (
	ProviderOpenRouter = "openrouter"
	ProviderOllama     = "ollama"
)

// DetectConfig holds parameters for backend selection.
type DetectConfig struct {
	Provider         string
	OllamaBaseURL    string
	OpenRouterAPIKey string
}

// Detect returns the Engine for the configured provider.
func Detect(cfg DetectConfig) (Engine, error) {
	switch cfg.Provider {
	case ProviderOllama:
		return NewOllamaEngine(cfg.OllamaBaseURL), nil
	case ProviderOpenRouter, "":
		if cfg.OpenRouterAPIKey == "" {
			return nil, fmt.Errorf("openrouter provider requires an API key")
		}
		return NewOpenRouterEngine(proxy.NewClient(cfg.OpenRouterAPIKey)), nil
	default:
		return nil, fmt.Errorf("unknown engine provider %q", cfg.Provider)
	}
}
