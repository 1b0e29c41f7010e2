package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/kalambet/interviewd/internal/proxy"
)

// OpenRouterEngine serves chat through the hosted OpenRouter API.
type OpenRouterEngine struct {
	client *proxy.Client
}

// NewOpenRouterEngine wraps an existing proxy client.
func NewOpenRouterEngine(client *proxy.Client) *OpenRouterEngine {
	return &OpenRouterEngine{client: client}
}

// Chat maps a Schema to response_format json_object and lists the expected
// keys in a trailing system message, since OpenRouter models do not all
// accept a full JSON schema.
func (e *OpenRouterEngine) Chat(ctx context.Context, req ChatRequest) (string, error) {
	cr := proxy.CompletionRequest{
		Model:    req.Model,
		Messages: make([]proxy.Message, 0, len(req.Messages)+1),
	}
	for _, m := range req.Messages {
		cr.Messages = append(cr.Messages, proxy.Message{Role: m.Role, Content: m.Content})
	}
	if req.Temperature > 0 {
		t := req.Temperature
		cr.Temperature = &t
	}
	if req.Schema != nil {
		cr.ResponseFormat = &proxy.ResponseFormat{Type: "json_object"}
		cr.Messages = append(cr.Messages, proxy.Message{Role: "system", Content: schemaHint(req.Schema)})
	}
	return e.client.Complete(ctx, cr)
}

func schemaHint(s *Schema) string {
	var b strings.Builder
	b.WriteString("Respond with a single JSON object with these keys:")
	for _, k := range s.Required {
		p := s.Properties[k]
		fmt.Fprintf(&b, "\n- %s (%s)", k, p.Type)
		if p.Description != "" {
			fmt.Fprintf(&b, ": %s", p.Description)
		}
	}
	return b.String()
}

func (e *OpenRouterEngine) IsRunning(ctx context.Context) bool {
	_, err := e.client.ListModels(ctx)
	return err == nil
}

func (e *OpenRouterEngine) ListModels(ctx context.Context) ([]string, error) {
	models, err := e.client.ListModels(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(models))
	for i, m := range models {
		names[i] = m.ID
	}
	return names, nil
}

func (e *OpenRouterEngine) HasModel(ctx context.Context, name string) bool {
	names, err := e.ListModels(ctx)
	if err != nil {
		return false
	}
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

// PullModel fails: hosted models cannot be downloaded.
func (e *OpenRouterEngine) PullModel(_ context.Context, name string, _ func(PullProgress)) error {
	return fmt.Errorf("model %s is not offered by OpenRouter", name)
}
