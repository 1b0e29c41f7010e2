package feedback

import (
	"fmt"
	"strings"

	"github.com/kalambet/interviewd/internal/engine"
	"github.com/kalambet/interviewd/internal/interview"
	"github.com/kalambet/interviewd/internal/session"
)

const (
	historyWindow  = 20
	entryExcerpt   = 200
	contextExcerpt = 1000
)

const systemPromptTemplate = `You are an interview feedback analyst. Give a strict but fair post-interview report that helps the candidate understand their real level and what to do next. Call out knowledge gaps, memorized answers and contradictions explicitly.

[Candidate profile]
%s

[Target role: %s]
%s

[Interview statistics]
- Total questions: %d
- Average score: %.1f/100
- Highest score: %d/100
- Lowest score: %d/100
- Score range: %d points
- Excellent (90+): %d, Good (70-89): %d, Satisfactory (50-69): %d, Needs improvement (<50): %d

[Conversation]
%s

Write a markdown report with these sections:
1. Executive summary
2. Performance breakdown
3. Strengths, with examples
4. Improvement areas, with examples
5. STAR method evaluation
6. Technical competency map
7. Communication and soft skills
8. Actionable recommendations
9. Final assessment: role fit and readiness`

const userPrompt = "Generate the post-interview feedback report for the interview above."

// BuildPrompt constructs the chat messages for the final report.
func BuildPrompt(in interview.FeedbackInput) []engine.Message {
	st := in.Stats
	sys := fmt.Sprintf(systemPromptTemplate,
		excerpt(in.Resume, contextExcerpt),
		in.Role.Name,
		excerpt(in.JobDescription, contextExcerpt),
		in.QuestionCount,
		st.Average,
		st.Max,
		st.Min,
		st.Max-st.Min,
		st.Distribution.Excellent,
		st.Distribution.Good,
		st.Distribution.Satisfactory,
		st.Distribution.NeedsImprovement,
		conversation(in.History),
	)
	return []engine.Message{
		{Role: "system", Content: sys},
		{Role: "user", Content: userPrompt},
	}
}

// conversation renders the last entries as Q/A lines.
func conversation(history []session.Message) string {
	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}
	var sb strings.Builder
	for _, m := range history {
		prefix := "A: "
		if m.Role == session.RoleInterviewer {
			prefix = "Q: "
		}
		sb.WriteString(prefix)
		sb.WriteString(excerpt(m.Content, entryExcerpt))
		sb.WriteByte('\n')
	}
	return strings.TrimRight(sb.String(), "\n")
}

func excerpt(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
