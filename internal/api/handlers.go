package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"

	"github.com/kalambet/interviewd/internal/document"
	"github.com/kalambet/interviewd/internal/interview"
	"github.com/kalambet/interviewd/internal/storage"
)

const (
	maxRequestBodySize = 1 << 20  // 1MB
	maxUploadSize      = 10 << 20 // 10MB
)

// Deps holds what the HTTP handlers need.
type Deps struct {
	Interviews *interview.Orchestrator
}

// NewHandler returns the interview REST API.
func NewHandler(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", handleHealth(deps))
	r.Get("/get-roles", handleRoles)

	r.Post("/upload-context", handleUploadContext(deps))
	r.Post("/chat", handleChat(deps))
	r.Post("/get-feedback", handleFeedback(deps))
	r.Post("/reset", handleReset(deps))
	r.Get("/session/{id}", handleSnapshot(deps))
	r.Delete("/session/{id}", handleEndSession(deps))

	r.Post("/save-session", handleSaveSession(deps))
	r.Get("/load-session/{id}", handleLoadSession(deps))
	r.Get("/list-sessions", handleListSessions(deps))
	r.Delete("/delete-session/{id}", handleDeleteSession(deps))

	r.Post("/export-pdf", handleExportPDF(deps))

	return r
}

// UploadContextResponse is returned by POST /upload-context.
type UploadContextResponse struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
	Role      string `json:"role"`
}

// ChatRequest is the body of POST /chat. History is accepted for
// compatibility and ignored; the server keeps the dialogue.
type ChatRequest struct {
	SessionID string            `json:"session_id"`
	Message   string            `json:"message"`
	History   []json.RawMessage `json:"history,omitempty"`
}

// SessionRequest names a live session.
type SessionRequest struct {
	SessionID string `json:"session_id"`
}

// SaveRequest is the body of POST /save-session.
type SaveRequest struct {
	SessionID string `json:"session_id"`
	ID        string `json:"id,omitempty"`
}

// ExportRequest is the body of POST /export-pdf. Report overrides the
// session's report text when set.
type ExportRequest struct {
	SessionID string `json:"session_id"`
	Report    string `json:"report,omitempty"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status       string `json:"status"`
	LiveSessions int    `json:"live_sessions"`
}

func handleHealth(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, HealthResponse{
			Status:       "ok",
			LiveSessions: len(deps.Interviews.LiveSessions()),
		})
	}
}

func handleRoles(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, interview.Roles())
}

func handleUploadContext(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
		defer r.Body.Close()

		in, err := parseContext(r)
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}

		id, err := deps.Interviews.Start(r.Context(), in)
		if errors.Is(err, interview.ErrMissingContext) {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "resume and jd are required")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to start interview: %v", err)
			return
		}

		writeJSON(w, http.StatusOK, UploadContextResponse{
			Status:    "success",
			Message:   "Byte is ready.",
			SessionID: id,
			Role:      interview.RoleFor(in.Role).ID,
		})
	}
}

// parseContext reads upload fields from a multipart form or a JSON body.
func parseContext(r *http.Request) (interview.StartInput, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var body struct {
			SessionID string `json:"session_id"`
			Resume    string `json:"resume"`
			JD        string `json:"jd"`
			Role      string `json:"role"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return interview.StartInput{}, fmt.Errorf("invalid request body: %w", err)
		}
		return interview.StartInput{
			SessionID:      body.SessionID,
			Resume:         body.Resume,
			JobDescription: body.JD,
			Role:           body.Role,
		}, nil
	}

	if err := r.ParseMultipartForm(maxUploadSize); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return interview.StartInput{}, fmt.Errorf("invalid form: %w", err)
	}

	in := interview.StartInput{
		SessionID:      r.FormValue("session_id"),
		Resume:         r.FormValue("resume_text"),
		JobDescription: r.FormValue("jd"),
		Role:           r.FormValue("role"),
	}

	file, _, err := r.FormFile("resume")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return in, nil
	}
	if err != nil {
		return interview.StartInput{}, fmt.Errorf("reading resume: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return interview.StartInput{}, fmt.Errorf("reading resume: %w", err)
	}
	text, err := resumeText(data)
	if err != nil {
		return interview.StartInput{}, err
	}
	in.Resume = text
	return in, nil
}

func resumeText(data []byte) (string, error) {
	if document.IsPDF(data) {
		text, err := document.ExtractText(bytes.NewReader(data), int64(len(data)))
		if err != nil {
			return "", fmt.Errorf("extracting resume text: %w", err)
		}
		return text, nil
	}
	if !utf8.Valid(data) {
		return "", errors.New("resume must be a PDF or UTF-8 text file")
	}
	return string(data), nil
}

func handleChat(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ChatRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if strings.TrimSpace(req.Message) == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "message is required")
			return
		}

		res, err := deps.Interviews.Turn(r.Context(), req.SessionID, req.Message)
		if err != nil {
			interviewError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func handleFeedback(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SessionRequest
		if !decodeBody(w, r, &req) {
			return
		}

		report, err := deps.Interviews.Feedback(r.Context(), req.SessionID)
		if err != nil {
			interviewError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, report)
	}
}

func handleReset(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SessionRequest
		if !decodeOptionalBody(w, r, &req) {
			return
		}

		id := deps.Interviews.Reset(r.Context(), req.SessionID)
		writeJSON(w, http.StatusOK, map[string]string{"status": "reset", "session_id": id})
	}
}

func handleSnapshot(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := deps.Interviews.Snapshot(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			interviewError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, snap)
	}
}

func handleEndSession(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := deps.Interviews.End(r.Context(), chi.URLParam(r, "id")); err != nil {
			interviewError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ended"})
	}
}

func handleSaveSession(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SaveRequest
		if !decodeBody(w, r, &req) {
			return
		}

		saved, err := deps.Interviews.Save(r.Context(), req.SessionID, req.ID)
		if err != nil {
			interviewError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, saved)
	}
}

func handleLoadSession(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		saved, err := deps.Interviews.Load(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			interviewError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, saved)
	}
}

func handleListSessions(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := parseIntParam(r, "limit", 20, 100)
		offset := parseIntParam(r, "offset", 0, 0)

		sessions, err := deps.Interviews.List(r.Context(), limit, offset)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to list sessions: %v", err)
			return
		}
		if sessions == nil {
			sessions = []storage.SavedSession{}
		}
		writeJSON(w, http.StatusOK, sessions)
	}
}

func handleDeleteSession(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := deps.Interviews.DeleteSaved(r.Context(), chi.URLParam(r, "id")); err != nil {
			interviewError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	}
}

func handleExportPDF(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ExportRequest
		if !decodeBody(w, r, &req) {
			return
		}

		report, err := exportReport(r, deps, req)
		if err != nil {
			interviewError(w, err)
			return
		}

		var buf bytes.Buffer
		if err := document.RenderReport(&buf, *report); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to render pdf: %v", err)
			return
		}

		name := "interview-report.pdf"
		if report.SessionID != "" {
			name = "interview-report-" + report.SessionID + ".pdf"
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
		w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
		w.Write(buf.Bytes())
	}
}

// exportReport picks the report to render: the caller's text, then the
// session's final report, then a freshly generated one.
func exportReport(r *http.Request, deps Deps, req ExportRequest) (*interview.Report, error) {
	if req.SessionID == "" {
		if req.Report == "" {
			return nil, errMissingReport
		}
		return &interview.Report{Text: req.Report, Role: interview.RoleFor("")}, nil
	}

	snap, err := deps.Interviews.Snapshot(r.Context(), req.SessionID)
	if err != nil {
		return nil, err
	}
	rec := snap.Record

	text := req.Report
	if text == "" {
		text = rec.FinalReport
	}
	if text == "" {
		return deps.Interviews.Feedback(r.Context(), req.SessionID)
	}
	return &interview.Report{
		SessionID:     rec.ID,
		Role:          interview.RoleFor(rec.Role),
		Text:          text,
		Stats:         interview.Summarize(rec.Scores),
		QuestionCount: rec.QuestionCount,
	}, nil
}

var errMissingReport = errors.New("session_id or report is required")

// interviewError maps orchestrator errors onto HTTP statuses.
func interviewError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, interview.ErrSessionNotFound):
		httpError(w, http.StatusNotFound, "not_found", "session not found")
	case errors.Is(err, interview.ErrArchiveNotFound):
		httpError(w, http.StatusNotFound, "not_found", "saved session not found")
	case errors.Is(err, storage.ErrDuplicateID):
		httpError(w, http.StatusConflict, "conflict", "saved session id already exists")
	case errors.Is(err, interview.ErrNoQuestions):
		httpError(w, http.StatusBadRequest, "invalid_request_error", "no questions have been asked yet")
	case errors.Is(err, interview.ErrMissingContext), errors.Is(err, errMissingReport):
		httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
	case errors.Is(err, interview.ErrSynthesis):
		httpError(w, http.StatusBadGateway, "api_error", "%v", err)
	default:
		httpError(w, http.StatusInternalServerError, "api_error", "%v", err)
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
		return false
	}
	return true
}

// decodeOptionalBody is decodeBody for endpoints that accept an empty body.
func decodeOptionalBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
		return false
	}
	return true
}

func parseIntParam(r *http.Request, key string, defaultVal, maxVal int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return defaultVal
	}
	if maxVal > 0 && v > maxVal {
		return maxVal
	}
	return v
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}
