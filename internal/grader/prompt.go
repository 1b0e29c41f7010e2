package grader

import (
	"fmt"
	"strings"

	"github.com/kalambet/interviewd/internal/engine"
	"github.com/kalambet/interviewd/internal/interview"
)

const (
	jdExcerpt     = 300
	resumeExcerpt = 300
)

const systemPromptTemplate = `You are the grader in a mock job interview. Score the candidate's answer against the job description and the current question. Output a single JSON object and nothing else.

Criteria:
1. Score the answer from 0 to 100.
2. Decide whether to follow up:
   - vague, short or partly wrong answers: requires_followup = true
   - detailed and correct answers: requires_followup = false

[Job description]
%s

[Candidate background]
%s

[Current question]
%s`

// BuildPrompt constructs the chat messages for grading one answer.
func BuildPrompt(in interview.EvaluateInput) []engine.Message {
	question := in.Question
	if question == "" {
		question = "Introduction: tell me about yourself."
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, systemPromptTemplate, excerpt(in.JobDescription, jdExcerpt), excerpt(in.Resume, resumeExcerpt), question)
	if len(in.Scores) > 0 {
		fmt.Fprintf(&sb, "\n\n[Previous scores]\n%v", in.Scores)
	}

	return []engine.Message{
		{Role: "system", Content: sb.String()},
		{Role: "user", Content: "Candidate answer: " + in.Utterance},
	}
}

func excerpt(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

func evaluationSchema() *engine.Schema {
	return &engine.Schema{
		Type: "object",
		Properties: map[string]engine.SchemaProperty{
			"score":             {Type: "integer", Description: "0 to 100"},
			"is_correct":        {Type: "boolean"},
			"requires_followup": {Type: "boolean", Description: "true if the same question should be probed further"},
			"feedback_internal": {Type: "string", Description: "Brief reason for the score"},
		},
		Required: []string{"score", "is_correct", "requires_followup", "feedback_internal"},
	}
}
