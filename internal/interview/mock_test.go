package interview

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/kalambet/interviewd/internal/session"
)

type mockClassifier struct {
	mu     sync.Mutex
	calls  int
	inputs []ClassifyInput
	fn     func(ctx context.Context, in ClassifyInput) (Classification, error)
}

func (m *mockClassifier) Classify(ctx context.Context, in ClassifyInput) (Classification, error) {
	m.mu.Lock()
	m.calls++
	m.inputs = append(m.inputs, in)
	fn := m.fn
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx, in)
	}
	return Classification{Persona: PersonaNormal, IsRelevant: true, Sentiment: "positive", Confidence: 0.9}, nil
}

func (m *mockClassifier) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type mockEvaluator struct {
	mu     sync.Mutex
	calls  int
	inputs []EvaluateInput
	fn     func(ctx context.Context, in EvaluateInput) (Evaluation, error)
}

func (m *mockEvaluator) Evaluate(ctx context.Context, in EvaluateInput) (Evaluation, error) {
	m.mu.Lock()
	m.calls++
	m.inputs = append(m.inputs, in)
	fn := m.fn
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx, in)
	}
	return Evaluation{Score: 75, IsCorrect: true}, nil
}

func (m *mockEvaluator) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type mockResponder struct {
	mu    sync.Mutex
	calls int
	last  RespondInput
	fn    func(ctx context.Context, in RespondInput) (Turn, error)
}

func (m *mockResponder) Respond(ctx context.Context, in RespondInput) (Turn, error) {
	m.mu.Lock()
	m.calls++
	m.last = in
	fn := m.fn
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx, in)
	}
	return Turn{
		Analysis: fmt.Sprintf("- Current Phase: %s", in.Phase),
		Reply:    fmt.Sprintf("Question %d: describe a system you built.", in.QuestionCount+1),
	}, nil
}

func (m *mockResponder) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type mockWriter struct {
	mu    sync.Mutex
	calls int
	last  FeedbackInput
	err   error
}

func (m *mockWriter) Write(_ context.Context, in FeedbackInput) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.last = in
	if m.err != nil {
		return "", m.err
	}
	return fmt.Sprintf("# Interview Feedback Report\nAverage Score: %.1f/100", in.Stats.Average), nil
}

type harness struct {
	store *session.Store
	orch  *Orchestrator
	cls   *mockClassifier
	eval  *mockEvaluator
	resp  *mockResponder
	fb    *mockWriter
}

func newHarness(archive Archive) *harness {
	h := &harness{
		store: session.NewStore(),
		cls:   &mockClassifier{},
		eval:  &mockEvaluator{},
		resp:  &mockResponder{},
		fb:    &mockWriter{},
	}
	h.orch = New(h.store, archive, Services{
		Classifier: h.cls,
		Evaluator:  h.eval,
		Responder:  h.resp,
		Writer:     h.fb,
	}, Options{AnalysisTimeout: 50 * time.Millisecond, GenerationTimeout: time.Second})
	return h
}

func (h *harness) start(id string) string {
	got, err := h.orch.Start(context.Background(), StartInput{
		SessionID:      id,
		Resume:         "Senior Go engineer, 8 years building distributed systems.",
		JobDescription: "Backend engineer for a payments platform.",
		Role:           "software_engineer",
	})
	if err != nil {
		panic(err)
	}
	return got
}

// scoresByTurn makes the evaluator return the given scores in order.
func scoresByTurn(scores ...int) func(context.Context, EvaluateInput) (Evaluation, error) {
	var mu sync.Mutex
	i := 0
	return func(context.Context, EvaluateInput) (Evaluation, error) {
		mu.Lock()
		defer mu.Unlock()
		s := scores[i%len(scores)]
		i++
		return Evaluation{Score: s, IsCorrect: true}, nil
	}
}

var errService = errors.New("service unavailable")
