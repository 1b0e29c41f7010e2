package interview

import (
	"strings"

	"github.com/kalambet/interviewd/internal/session"
)

// SilenceSentinel is sent by clients when the candidate did not answer in time.
const SilenceSentinel = "[SYSTEM_TIMEOUT]"

// MaxQuestions ends the interview once reached, with or without an end phrase.
const MaxQuestions = 12

var endPhrases = []string{
	"end interview",
	"finish interview",
	"conclude interview",
	"that's all",
	"i'm done",
	"wrap up",
	"get feedback",
	"show feedback",
	"interview complete",
}

// IsSilence reports whether text carries the silence sentinel.
func IsSilence(text string) bool {
	return strings.Contains(text, SilenceSentinel)
}

// IsEndPhrase reports whether text asks to end the interview.
func IsEndPhrase(text string) bool {
	lower := strings.ToLower(text)
	for _, p := range endPhrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// ShouldTerminate decides, before any service is called, whether this turn
// ends the interview. Nothing is terminated before the first resolved question.
func ShouldTerminate(rec *session.Record, text string) bool {
	if rec.Terminated || rec.QuestionCount <= 0 {
		return false
	}
	return rec.QuestionCount >= MaxQuestions || IsEndPhrase(text)
}

// ShouldAdvance reports whether a turn resolved the current question. A
// skipped evaluation has RequiresFollowup false, so an irrelevant but
// non-silent turn still advances.
func ShouldAdvance(started bool, c Classification, e Evaluation) bool {
	return started && c.Persona != PersonaSilent && !e.RequiresFollowup
}

// NeedsEvaluation reports whether the grader should see this turn.
func NeedsEvaluation(started bool, c Classification) bool {
	return started && c.IsRelevant && c.Persona != PersonaSilent
}
