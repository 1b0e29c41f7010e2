package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/kalambet/interviewd/internal/interview"
	"github.com/kalambet/interviewd/internal/session"
	"github.com/kalambet/interviewd/internal/storage"
)

// --- stubs ---

type stubClassifier struct{}

func (stubClassifier) Classify(_ context.Context, _ interview.ClassifyInput) (interview.Classification, error) {
	return interview.Classification{Persona: interview.PersonaNormal, IsRelevant: true, Sentiment: "positive", Confidence: 0.8}, nil
}

type stubEvaluator struct{}

func (stubEvaluator) Evaluate(_ context.Context, _ interview.EvaluateInput) (interview.Evaluation, error) {
	return interview.Evaluation{Score: 80, IsCorrect: true}, nil
}

type stubResponder struct {
	mu  sync.Mutex
	err error
}

func (s *stubResponder) Respond(_ context.Context, in interview.RespondInput) (interview.Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return interview.Turn{}, s.err
	}
	return interview.Turn{Analysis: "strategy", Reply: "Next question for phase " + string(in.Phase)}, nil
}

func (s *stubResponder) fail(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

type stubWriter struct{}

func (stubWriter) Write(_ context.Context, in interview.FeedbackInput) (string, error) {
	return "# Report\nAnswered well.", nil
}

// --- helpers ---

type testEnv struct {
	handler    http.Handler
	interviews *interview.Orchestrator
	responder  *stubResponder
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	responder := &stubResponder{}
	o := interview.New(session.NewStore(), store, interview.Services{
		Classifier: stubClassifier{},
		Evaluator:  stubEvaluator{},
		Responder:  responder,
		Writer:     stubWriter{},
	}, interview.Options{})

	return &testEnv{
		handler:    NewHandler(Deps{Interviews: o}),
		interviews: o,
		responder:  responder,
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	e.handler.ServeHTTP(rr, req)
	return rr
}

// start uploads context through the API and returns the session id.
func (e *testEnv) start(t *testing.T) string {
	t.Helper()
	rr := e.do(t, http.MethodPost, "/upload-context", map[string]string{
		"resume": "Go developer, 5 years",
		"jd":     "Senior backend engineer",
		"role":   "software_engineer",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("upload status = %d, body = %s", rr.Code, rr.Body.String())
	}
	var resp UploadContextResponse
	decode(t, rr, &resp)
	return resp.SessionID
}

func (e *testEnv) chat(t *testing.T, id, msg string) interview.TurnResult {
	t.Helper()
	rr := e.do(t, http.MethodPost, "/chat", ChatRequest{SessionID: id, Message: msg})
	if rr.Code != http.StatusOK {
		t.Fatalf("chat status = %d, body = %s", rr.Code, rr.Body.String())
	}
	var res interview.TurnResult
	decode(t, rr, &res)
	return res
}

func multipartRequest(t *testing.T, fields map[string]string, fileName string, file []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("writing field: %v", err)
		}
	}
	if fileName != "" {
		fw, err := mw.CreateFormFile("resume", fileName)
		if err != nil {
			t.Fatalf("creating form file: %v", err)
		}
		fw.Write(file)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/upload-context", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(v); err != nil {
		t.Fatalf("decoding response: %v (body %q)", err, rr.Body.String())
	}
}

func errorType(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Message string `json:"message"`
			Type    string `json:"type"`
		} `json:"error"`
	}
	decode(t, rr, &body)
	if body.Error.Message == "" {
		t.Errorf("error message is empty")
	}
	return body.Error.Type
}

var errUpstream = errors.New("upstream unavailable")

func contains(s, sub string) bool { return strings.Contains(s, sub) }
