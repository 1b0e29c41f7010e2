package interview

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kalambet/interviewd/internal/session"
	"github.com/kalambet/interviewd/internal/storage"
)

const (
	excerptSize        = 500
	savedHistoryLimit  = 50
	savedMessageLength = 1000
	defaultListLimit   = 50
)

var errNoArchive = errors.New("session archive is not configured")

// Save snapshots the live session into the archive. archiveID is minted when
// empty; reusing an existing id fails with storage.ErrDuplicateID.
func (o *Orchestrator) Save(ctx context.Context, sessionID, archiveID string) (storage.SavedSession, error) {
	if o.archive == nil {
		return storage.SavedSession{}, errNoArchive
	}
	rec, ok := o.sessions.Get(sessionID)
	if !ok {
		return storage.SavedSession{}, ErrSessionNotFound
	}
	if archiveID == "" {
		archiveID = uuid.NewString()
	}

	saved := snapshotOf(rec, archiveID, time.Now().UTC())
	if err := o.archive.SaveSession(ctx, saved); err != nil {
		return storage.SavedSession{}, fmt.Errorf("saving session %s: %w", archiveID, err)
	}
	return saved, nil
}

// Load returns an archived session.
func (o *Orchestrator) Load(ctx context.Context, archiveID string) (storage.SavedSession, error) {
	if o.archive == nil {
		return storage.SavedSession{}, errNoArchive
	}
	saved, err := o.archive.GetSavedSession(ctx, archiveID)
	if errors.Is(err, storage.ErrNotFound) {
		return storage.SavedSession{}, ErrArchiveNotFound
	}
	if err != nil {
		return storage.SavedSession{}, fmt.Errorf("loading session %s: %w", archiveID, err)
	}
	return saved, nil
}

// List returns archived session summaries, newest first.
func (o *Orchestrator) List(ctx context.Context, limit, offset int) ([]storage.SavedSession, error) {
	if o.archive == nil {
		return nil, errNoArchive
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	return o.archive.ListSavedSessions(ctx, limit, max(offset, 0))
}

// DeleteSaved removes an archived session.
func (o *Orchestrator) DeleteSaved(ctx context.Context, archiveID string) error {
	if o.archive == nil {
		return errNoArchive
	}
	err := o.archive.DeleteSavedSession(ctx, archiveID)
	if errors.Is(err, storage.ErrNotFound) {
		return ErrArchiveNotFound
	}
	return err
}

func snapshotOf(rec *session.Record, id string, at time.Time) storage.SavedSession {
	history := lastN(rec.History, savedHistoryLimit)
	for i := range history {
		history[i].Content = head(history[i].Content, savedMessageLength)
		history[i].Analysis = head(history[i].Analysis, savedMessageLength)
	}

	return storage.SavedSession{
		ID:            id,
		SessionID:     rec.ID,
		SavedAt:       at,
		Role:          rec.Role,
		Phase:         string(PhaseOf(rec)),
		QuestionCount: rec.QuestionCount,
		AverageScore:  Summarize(rec.Scores).Average,
		Scores:        append([]int{}, rec.Scores...),
		ResumeExcerpt: head(rec.ResumeText, excerptSize),
		JDExcerpt:     head(rec.JobDescription, excerptSize),
		History:       history,
		EdgeCaseCount: len(rec.EdgeCases),
		AnomalyCount:  len(rec.Anomalies),
		Report:        rec.FinalReport,
	}
}
