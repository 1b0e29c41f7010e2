package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Fixed-width so that text ordering matches time ordering.
const timeFormat = "2006-01-02T15:04:05.000000Z07:00"

// SaveSession inserts a snapshot. An existing id yields ErrDuplicateID.
func (s *Store) SaveSession(ctx context.Context, ss SavedSession) error {
	scores, err := json.Marshal(nonNilInts(ss.Scores))
	if err != nil {
		return fmt.Errorf("encoding scores: %w", err)
	}
	history, err := json.Marshal(ss.History)
	if err != nil {
		return fmt.Errorf("encoding history: %w", err)
	}
	if ss.History == nil {
		history = []byte("[]")
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO saved_sessions (id, session_id, saved_at, role, phase, question_count, average_score, scores,
			resume_excerpt, jd_excerpt, history, edge_case_count, anomaly_count, report)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING`,
		ss.ID, ss.SessionID, ss.SavedAt.UTC().Format(timeFormat), ss.Role, ss.Phase, ss.QuestionCount,
		ss.AverageScore, string(scores), ss.ResumeExcerpt, ss.JDExcerpt, string(history),
		ss.EdgeCaseCount, ss.AnomalyCount, ss.Report,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrDuplicateID
	}
	return nil
}

// GetSavedSession returns the full snapshot including history.
func (s *Store) GetSavedSession(ctx context.Context, id string) (SavedSession, error) {
	var ss SavedSession
	var savedAt, scores, history string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, session_id, saved_at, role, phase, question_count, average_score, scores,
			resume_excerpt, jd_excerpt, history, edge_case_count, anomaly_count, report
		FROM saved_sessions WHERE id = ?`, id,
	).Scan(&ss.ID, &ss.SessionID, &savedAt, &ss.Role, &ss.Phase, &ss.QuestionCount, &ss.AverageScore, &scores,
		&ss.ResumeExcerpt, &ss.JDExcerpt, &history, &ss.EdgeCaseCount, &ss.AnomalyCount, &ss.Report)
	if errors.Is(err, sql.ErrNoRows) {
		return SavedSession{}, ErrNotFound
	}
	if err != nil {
		return SavedSession{}, err
	}

	if ss.SavedAt, err = time.Parse(timeFormat, savedAt); err != nil {
		return SavedSession{}, fmt.Errorf("parsing saved_at: %w", err)
	}
	if err := json.Unmarshal([]byte(scores), &ss.Scores); err != nil {
		return SavedSession{}, fmt.Errorf("decoding scores: %w", err)
	}
	if err := json.Unmarshal([]byte(history), &ss.History); err != nil {
		return SavedSession{}, fmt.Errorf("decoding history: %w", err)
	}
	return ss, nil
}

// ListSavedSessions returns snapshots without excerpts, history or report,
// newest first.
func (s *Store) ListSavedSessions(ctx context.Context, limit, offset int) ([]SavedSession, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, saved_at, role, phase, question_count, average_score, scores, edge_case_count, anomaly_count
		FROM saved_sessions ORDER BY saved_at DESC, rowid DESC LIMIT ? OFFSET ?`, limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := []SavedSession{}
	for rows.Next() {
		var ss SavedSession
		var savedAt, scores string
		if err := rows.Scan(&ss.ID, &ss.SessionID, &savedAt, &ss.Role, &ss.Phase, &ss.QuestionCount,
			&ss.AverageScore, &scores, &ss.EdgeCaseCount, &ss.AnomalyCount); err != nil {
			return nil, err
		}
		if ss.SavedAt, err = time.Parse(timeFormat, savedAt); err != nil {
			return nil, fmt.Errorf("parsing saved_at: %w", err)
		}
		if err := json.Unmarshal([]byte(scores), &ss.Scores); err != nil {
			return nil, fmt.Errorf("decoding scores: %w", err)
		}
		results = append(results, ss)
	}
	return results, rows.Err()
}

// DeleteSavedSession removes a snapshot.
func (s *Store) DeleteSavedSession(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM saved_sessions WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func nonNilInts(in []int) []int {
	if in == nil {
		return []int{}
	}
	return in
}
