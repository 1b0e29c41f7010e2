package interview

import "github.com/kalambet/interviewd/internal/session"

// Phase is a named stage of the interview.
type Phase string

const (
	PhaseIntroduction Phase = "Introduction"
	PhaseTechnical    Phase = "Technical"
	PhaseBehavioral   Phase = "Behavioral"
	PhaseDeepDive     Phase = "Deep_Dive"
	PhaseFeedback     Phase = "Feedback"
)

// PhaseFor maps a resolved-question count to its phase. Negative counts are
// treated as zero.
func PhaseFor(count int) Phase {
	switch {
	case count <= 0:
		return PhaseIntroduction
	case count <= 3:
		return PhaseTechnical
	case count <= 6:
		return PhaseBehavioral
	case count <= 9:
		return PhaseDeepDive
	default:
		return PhaseFeedback
	}
}

// PhaseOf returns the phase of rec. A terminated session is always in Feedback.
func PhaseOf(rec *session.Record) Phase {
	if rec.Terminated {
		return PhaseFeedback
	}
	return PhaseFor(rec.QuestionCount)
}
