// Package session holds interview session state and a store that serializes
// access per session id.
package session

import "time"

// Speaker roles in the dialogue history.
const (
	RoleCandidate   = "candidate"
	RoleInterviewer = "interviewer"
)

// Message is one dialogue entry. Analysis is only set on interviewer turns.
type Message struct {
	Role     string    `json:"role"`
	Content  string    `json:"content"`
	Analysis string    `json:"analysis,omitempty"`
	At       time.Time `json:"at"`
}

// Flag records a candidate utterance that was classified as unusual.
type Flag struct {
	Excerpt  string    `json:"excerpt"`
	Category string    `json:"category"`
	RiskTags []string  `json:"risk_tags,omitempty"`
	At       time.Time `json:"at"`
}

// Record is the full state of one interview. The phase is derived from
// QuestionCount and is never stored.
type Record struct {
	ID             string `json:"session_id"`
	ResumeText     string `json:"-"`
	JobDescription string `json:"-"`
	Role           string `json:"role"`

	QuestionCount   int       `json:"question_count"`
	Started         bool      `json:"started"`
	Terminated      bool      `json:"terminated"`
	CurrentQuestion string    `json:"current_question,omitempty"`
	Scores          []int     `json:"scores"`
	History         []Message `json:"history"`
	EdgeCases       []Flag    `json:"edge_cases"`
	Anomalies       []Flag    `json:"anomalies"`
	FinalReport     string    `json:"final_report,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasContext reports whether both resume and job description are present.
func (r *Record) HasContext() bool {
	return r.ResumeText != "" && r.JobDescription != ""
}

// Append adds a dialogue entry stamped with the current time.
func (r *Record) Append(role, content, analysis string) {
	r.History = append(r.History, Message{Role: role, Content: content, Analysis: analysis, At: time.Now().UTC()})
}

// Clone returns a deep copy that shares no slices with r.
func (r *Record) Clone() *Record {
	c := *r
	c.Scores = append([]int(nil), r.Scores...)
	c.History = append([]Message(nil), r.History...)
	c.EdgeCases = cloneFlags(r.EdgeCases)
	c.Anomalies = cloneFlags(r.Anomalies)
	return &c
}

func cloneFlags(in []Flag) []Flag {
	if in == nil {
		return nil
	}
	out := make([]Flag, len(in))
	for i, f := range in {
		out[i] = f
		out[i].RiskTags = append([]string(nil), f.RiskTags...)
	}
	return out
}
