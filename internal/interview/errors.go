package interview

import "errors"

var (
	// ErrMissingContext is returned by Start when the resume or job
	// description is empty.
	ErrMissingContext = errors.New("resume and job description are required")

	// ErrNoQuestions is returned by Feedback before any question has been
	// resolved.
	ErrNoQuestions = errors.New("no questions have been asked yet")

	// ErrSessionNotFound is returned for operations on an unknown live session.
	ErrSessionNotFound = errors.New("session not found")

	// ErrArchiveNotFound is returned by Load for an unknown archive id.
	ErrArchiveNotFound = errors.New("saved session not found")

	// ErrSynthesis wraps failures of the reply or report generator. There is
	// no fallback reply, so these surface to the caller.
	ErrSynthesis = errors.New("response synthesis failed")
)
