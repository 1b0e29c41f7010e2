package storage

import (
	"errors"
	"time"

	"github.com/kalambet/interviewd/internal/session"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateID is returned when saving under an id that is already taken.
	ErrDuplicateID = errors.New("id already exists")
)

// SavedSession is an immutable archive snapshot of an interview. History is
// only populated by GetSavedSession.
type SavedSession struct {
	ID            string            `json:"id"`
	SessionID     string            `json:"session_id"`
	SavedAt       time.Time         `json:"saved_at"`
	Role          string            `json:"role"`
	Phase         string            `json:"phase"`
	QuestionCount int               `json:"question_count"`
	AverageScore  float64           `json:"average_score"`
	Scores        []int             `json:"scores"`
	ResumeExcerpt string            `json:"resume_excerpt,omitempty"`
	JDExcerpt     string            `json:"jd_excerpt,omitempty"`
	History       []session.Message `json:"history,omitempty"`
	EdgeCaseCount int               `json:"edge_case_count"`
	AnomalyCount  int               `json:"anomaly_count"`
	Report        string            `json:"report,omitempty"`
}
