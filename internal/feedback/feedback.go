// Package feedback writes the end-of-interview report.
package feedback

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kalambet/interviewd/internal/engine"
	"github.com/kalambet/interviewd/internal/interview"
)

const temperature = 0.7

// Chatter runs one chat completion.
type Chatter interface {
	Chat(ctx context.Context, req engine.ChatRequest) (string, error)
}

// Writer implements interview.FeedbackWriter.
type Writer struct {
	client Chatter
	model  string
}

// New creates a Writer using the given client and model name.
func New(client Chatter, model string) *Writer {
	return &Writer{client: client, model: model}
}

// Write generates the report. A failed or empty generation yields a
// template report built from the statistics, never an error.
func (w *Writer) Write(ctx context.Context, in interview.FeedbackInput) (string, error) {
	out, err := w.client.Chat(ctx, engine.ChatRequest{
		Model:       w.model,
		Messages:    BuildPrompt(in),
		Temperature: temperature,
	})
	if err != nil {
		slog.Warn("feedback generation failed, using fallback report", "error", err)
		return Fallback(in.Stats), nil
	}
	out = strings.TrimSpace(out)
	if out == "" {
		slog.Warn("feedback generation returned nothing, using fallback report")
		return Fallback(in.Stats), nil
	}
	return out, nil
}

// Fallback is the report used when the model is unavailable.
func Fallback(st interview.Stats) string {
	return fmt.Sprintf(`# Interview Feedback Report

## Overall Assessment
Average Score: %.1f/100

## Strengths
- Stayed engaged throughout the interview
- Communicated professionally

## Areas for Improvement
- Keep building technical depth
- Practice explaining complex concepts clearly

## Recommendations
1. Review the technical fundamentals for the role
2. Practice answering with the STAR method
3. Prepare specific examples from past experience`, st.Average)
}
