package proxy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func newTestClient(url string) *Client {
	c := NewClientWithBaseURL("test-key", url)
	c.backoff = time.Millisecond
	return c
}

func TestComplete_ReturnsFirstChoice(t *testing.T) {
	var captured CompletionRequest
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&captured)
		fmt.Fprint(w, `{"choices":[{"message":{"role":"assistant","content":"Hello!"}}]}`)
	}))
	defer srv.Close()

	temp := 0.7
	got, err := newTestClient(srv.URL).Complete(context.Background(), CompletionRequest{
		Model:          "openai/gpt-oss-20b",
		Messages:       []Message{{Role: "user", Content: "hi"}},
		Temperature:    &temp,
		ResponseFormat: &ResponseFormat{Type: "json_object"},
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got != "Hello!" {
		t.Errorf("content = %q, want Hello!", got)
	}
	if auth != "Bearer test-key" {
		t.Errorf("Authorization = %q", auth)
	}
	if captured.Temperature == nil || *captured.Temperature != 0.7 {
		t.Errorf("temperature = %v, want 0.7", captured.Temperature)
	}
	if captured.ResponseFormat == nil || captured.ResponseFormat.Type != "json_object" {
		t.Errorf("response_format = %+v", captured.ResponseFormat)
	}
}

func TestComplete_RetriesOn429(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, `{"choices":[{"message":{"role":"assistant","content":"ok"}}]}`)
	}))
	defer srv.Close()

	got, err := newTestClient(srv.URL).Complete(context.Background(), CompletionRequest{Model: "m"})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got != "ok" {
		t.Errorf("content = %q, want ok", got)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
}

func TestComplete_GivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Complete(context.Background(), CompletionRequest{Model: "m"})
	if err == nil {
		t.Fatal("expected error after retries")
	}
	if calls.Load() != maxRetries {
		t.Errorf("calls = %d, want %d", calls.Load(), maxRetries)
	}
}

func TestComplete_NoRetryOnServerError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	if _, err := newTestClient(srv.URL).Complete(context.Background(), CompletionRequest{Model: "m"}); err == nil {
		t.Fatal("expected error for 500")
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}

func TestComplete_EmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"choices":[]}`)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Complete(context.Background(), CompletionRequest{Model: "m"})
	if !errors.Is(err, ErrEmptyCompletion) {
		t.Errorf("err = %v, want ErrEmptyCompletion", err)
	}
}

func TestListModels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `{"data":[{"id":"openai/gpt-oss-20b"},{"id":"mistralai/mistral-nemo"}]}`)
	}))
	defer srv.Close()

	models, err := newTestClient(srv.URL).ListModels(context.Background())
	if err != nil {
		t.Fatalf("ListModels: %v", err)
	}
	if len(models) != 2 || models[0].ID != "openai/gpt-oss-20b" {
		t.Errorf("models = %+v", models)
	}
}
