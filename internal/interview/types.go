package interview

import (
	"context"

	"github.com/kalambet/interviewd/internal/session"
)

// Persona labels produced by the classifier.
const (
	PersonaNormal    = "normal"
	PersonaConfused  = "confused"
	PersonaEfficient = "efficient"
	PersonaChatty    = "chatty"
	PersonaEdgeCase  = "edge_case"
	PersonaSilent    = "silent"
)

// Risk tags that mark a turn for the anomaly log.
const (
	RiskMemorization  = "memorization"
	RiskKnowledgeGap  = "knowledge_gap"
	RiskContradiction = "contradiction"
	RiskRuleEvasion   = "rule_evasion"
	RiskRedFlag       = "red_flag"
)

// Classification is the behavioral read of one candidate utterance.
type Classification struct {
	Persona    string   `json:"persona"`
	IsRelevant bool     `json:"is_relevant"`
	Sentiment  string   `json:"sentiment"`
	Confidence float64  `json:"confidence"`
	RiskFlags  []string `json:"risk_flags,omitempty"`
	Advice     string   `json:"advice,omitempty"`
}

// DefaultClassification is used when the classifier fails.
func DefaultClassification() Classification {
	return Classification{Persona: PersonaNormal, IsRelevant: true, Sentiment: "neutral", Confidence: 0.5}
}

// SilentClassification is assigned to silence-sentinel turns without calling
// the classifier.
func SilentClassification() Classification {
	return Classification{
		Persona:   PersonaSilent,
		Sentiment: "neutral",
		Advice:    "Candidate is away. Prompt them gently and repeat the last question.",
	}
}

// Evaluation is the grader's verdict on one answer. Evaluated is false when
// grading was skipped; such a result records no score.
type Evaluation struct {
	Score            int    `json:"score"`
	IsCorrect        bool   `json:"is_correct"`
	RequiresFollowup bool   `json:"requires_followup"`
	FeedbackInternal string `json:"feedback_internal,omitempty"`
	Evaluated        bool   `json:"evaluated"`
}

// DefaultEvaluation is used when the grader fails.
func DefaultEvaluation() Evaluation {
	return Evaluation{Score: 50, IsCorrect: true, Evaluated: true}
}

// ClampScore limits a score to [0,100].
func ClampScore(s int) int {
	return min(max(s, 0), 100)
}

// Turn is one synthesized interviewer move.
type Turn struct {
	Analysis string `json:"analysis"`
	Reply    string `json:"reply"`
}

// ClassifyInput is what the classifier sees.
type ClassifyInput struct {
	Utterance string
	Recent    []session.Message
}

// EvaluateInput is what the grader sees.
type EvaluateInput struct {
	Utterance      string
	Question       string
	JobDescription string
	Resume         string
	Scores         []int
}

// RespondInput is what the reply generator sees.
type RespondInput struct {
	Utterance      string
	History        []session.Message
	Resume         string
	JobDescription string
	Role           Role
	Classification Classification
	Evaluation     Evaluation
	Phase          Phase
	QuestionCount  int
}

// FeedbackInput is what the report writer sees.
type FeedbackInput struct {
	History        []session.Message
	Resume         string
	JobDescription string
	Role           Role
	Scores         []int
	Stats          Stats
	QuestionCount  int
}

// Classifier labels candidate behavior.
type Classifier interface {
	Classify(ctx context.Context, in ClassifyInput) (Classification, error)
}

// Evaluator scores answers.
type Evaluator interface {
	Evaluate(ctx context.Context, in EvaluateInput) (Evaluation, error)
}

// Responder produces the next interviewer turn.
type Responder interface {
	Respond(ctx context.Context, in RespondInput) (Turn, error)
}

// FeedbackWriter produces the final report text.
type FeedbackWriter interface {
	Write(ctx context.Context, in FeedbackInput) (string, error)
}
