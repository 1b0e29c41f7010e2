// Package profiler classifies candidate behavior with a fast model.
package profiler

import (
	"context"
	"fmt"
	"strings"

	"github.com/kalambet/interviewd/internal/engine"
	"github.com/kalambet/interviewd/internal/interview"
)

const temperature = 0.1

// Chatter runs one chat completion.
type Chatter interface {
	Chat(ctx context.Context, req engine.ChatRequest) (string, error)
}

// Profiler implements interview.Classifier.
type Profiler struct {
	client Chatter
	model  string
}

// New creates a Profiler using the given client and model name.
func New(client Chatter, model string) *Profiler {
	return &Profiler{client: client, model: model}
}

// Classify labels the utterance. Silence never reaches the model. Transport
// and parse failures are returned as errors; missing or invalid fields are
// defaulted one by one.
func (p *Profiler) Classify(ctx context.Context, in interview.ClassifyInput) (interview.Classification, error) {
	if interview.IsSilence(in.Utterance) {
		return interview.SilentClassification(), nil
	}

	out, err := p.client.Chat(ctx, engine.ChatRequest{
		Model:       p.model,
		Messages:    BuildPrompt(in.Utterance, in.Recent),
		Schema:      classificationSchema(),
		Temperature: temperature,
	})
	if err != nil {
		return interview.Classification{}, fmt.Errorf("classification chat: %w", err)
	}

	f, err := engine.DecodeFields(out)
	if err != nil {
		return interview.Classification{}, fmt.Errorf("decoding classification: %w", err)
	}
	return normalize(f), nil
}

var (
	personas = map[string]bool{
		interview.PersonaNormal:    true,
		interview.PersonaConfused:  true,
		interview.PersonaEfficient: true,
		interview.PersonaChatty:    true,
		interview.PersonaEdgeCase:  true,
	}
	sentiments = map[string]bool{"positive": true, "neutral": true, "negative": true}
)

func normalize(f engine.Fields) interview.Classification {
	c := interview.DefaultClassification()
	if v, ok := f.String("persona"); ok && personas[label(v)] {
		c.Persona = label(v)
	}
	if v, ok := f.Bool("is_relevant"); ok {
		c.IsRelevant = v
	}
	if v, ok := f.String("sentiment"); ok && sentiments[label(v)] {
		c.Sentiment = label(v)
	}
	if v, ok := f.Float("confidence"); ok {
		c.Confidence = min(max(v, 0), 1)
	}
	if v, ok := f.Strings("risk_flags"); ok {
		c.RiskFlags = v
	}
	if v, ok := f.String("advice"); ok {
		c.Advice = v
	}
	return c
}

func label(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
