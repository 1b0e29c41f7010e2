// Package grader scores candidate answers with a fast model.
package grader

import (
	"context"
	"fmt"
	"math"

	"github.com/kalambet/interviewd/internal/engine"
	"github.com/kalambet/interviewd/internal/interview"
)

const temperature = 0.1

// Chatter runs one chat completion.
type Chatter interface {
	Chat(ctx context.Context, req engine.ChatRequest) (string, error)
}

// Grader implements interview.Evaluator.
type Grader struct {
	client Chatter
	model  string
}

// New creates a Grader using the given client and model name.
func New(client Chatter, model string) *Grader {
	return &Grader{client: client, model: model}
}

// Evaluate grades one answer. Missing or mistyped fields take the default
// evaluation's values and the score is clamped to [0,100].
func (g *Grader) Evaluate(ctx context.Context, in interview.EvaluateInput) (interview.Evaluation, error) {
	out, err := g.client.Chat(ctx, engine.ChatRequest{
		Model:       g.model,
		Messages:    BuildPrompt(in),
		Schema:      evaluationSchema(),
		Temperature: temperature,
	})
	if err != nil {
		return interview.Evaluation{}, fmt.Errorf("evaluation chat: %w", err)
	}

	f, err := engine.DecodeFields(out)
	if err != nil {
		return interview.Evaluation{}, fmt.Errorf("decoding evaluation: %w", err)
	}

	e := interview.DefaultEvaluation()
	if v, ok := f.Float("score"); ok {
		e.Score = interview.ClampScore(int(math.Round(min(max(v, -1), 101))))
	}
	if v, ok := f.Bool("is_correct"); ok {
		e.IsCorrect = v
	}
	if v, ok := f.Bool("requires_followup"); ok {
		e.RequiresFollowup = v
	}
	if v, ok := f.String("feedback_internal"); ok {
		e.FeedbackInternal = v
	}
	return e, nil
}
