// Package interviewer generates the interviewer's next turn with the deep model.
package interviewer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kalambet/interviewd/internal/engine"
	"github.com/kalambet/interviewd/internal/interview"
)

const temperature = 0.7

const (
	analysisMarker = "[ANALYSIS]"
	responseMarker = "[RESPONSE]"
)

// ErrEmptyReply is returned when the model produced no spoken response.
var ErrEmptyReply = errors.New("empty interviewer reply")

// Chatter runs one chat completion.
type Chatter interface {
	Chat(ctx context.Context, req engine.ChatRequest) (string, error)
}

// Interviewer implements interview.Responder.
type Interviewer struct {
	client Chatter
	model  string
}

// New creates an Interviewer using the given client and model name.
func New(client Chatter, model string) *Interviewer {
	return &Interviewer{client: client, model: model}
}

// Respond produces the next interviewer turn.
func (iv *Interviewer) Respond(ctx context.Context, in interview.RespondInput) (interview.Turn, error) {
	out, err := iv.client.Chat(ctx, engine.ChatRequest{
		Model:       iv.model,
		Messages:    BuildPrompt(in),
		Temperature: temperature,
	})
	if err != nil {
		return interview.Turn{}, fmt.Errorf("interviewer chat: %w", err)
	}

	turn := ParseTurn(out)
	if turn.Reply == "" {
		return interview.Turn{}, ErrEmptyReply
	}
	return turn, nil
}

// ParseTurn splits model output into analysis and reply. Without a response
// marker the whole text, minus any analysis marker, is the reply.
func ParseTurn(raw string) interview.Turn {
	raw = strings.TrimSpace(raw)

	before, after, found := strings.Cut(raw, responseMarker)
	if !found {
		if rest, ok := strings.CutPrefix(raw, analysisMarker); ok {
			return interview.Turn{Reply: strings.TrimSpace(rest)}
		}
		return interview.Turn{Reply: raw}
	}

	analysis := before
	if i := strings.Index(analysis, analysisMarker); i >= 0 {
		analysis = analysis[i+len(analysisMarker):]
	}
	return interview.Turn{
		Analysis: strings.TrimSpace(analysis),
		Reply:    strings.TrimSpace(after),
	}
}
