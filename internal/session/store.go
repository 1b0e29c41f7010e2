package session

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type entry struct {
	mu  sync.Mutex
	rec *Record
}

// Store keeps live sessions in memory. The map lock is held only for lookup
// and insert; each session has its own lock held for the whole of Do, so
// turns on distinct ids never wait on each other.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*entry
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{sessions: make(map[string]*entry)}
}

// NewID mints an opaque session id.
func NewID() string {
	return uuid.NewString()
}

// Ensure returns id, minting a new one when id is empty, and creates a blank
// record for it if none exists.
func (s *Store) Ensure(id string) string {
	if id == "" {
		id = NewID()
	}
	s.entry(id, true)
	return id
}

func (s *Store) entry(id string, create bool) *entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[id]
	if !ok && create {
		now := time.Now().UTC()
		e = &entry{rec: &Record{ID: id, CreatedAt: now, UpdatedAt: now}}
		s.sessions[id] = e
	}
	return e
}

// Do runs fn with exclusive access to the record for id, creating a blank
// record first if needed. Changes fn makes are kept.
func (s *Store) Do(id string, fn func(*Record) error) error {
	e := s.entry(id, true)
	e.mu.Lock()
	defer e.mu.Unlock()
	err := fn(e.rec)
	e.rec.UpdatedAt = time.Now().UTC()
	return err
}

// Get returns a copy of the record for id.
func (s *Store) Get(id string) (*Record, bool) {
	e := s.entry(id, false)
	if e == nil {
		return nil, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rec.Clone(), true
}

// Reset replaces the record for id with a fresh one holding only the given
// context. Counters, history and logs are cleared.
func (s *Store) Reset(id, resume, jd, role string) {
	e := s.entry(id, true)
	e.mu.Lock()
	defer e.mu.Unlock()
	now := time.Now().UTC()
	e.rec = &Record{
		ID:             id,
		ResumeText:     resume,
		JobDescription: jd,
		Role:           role,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// Delete forgets id. It reports whether the id existed.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	return ok
}

// IDs returns the live session ids in sorted order.
func (s *Store) IDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
