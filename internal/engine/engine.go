package engine

import "context"

// Engine abstracts an inference backend. The interview agents talk to this
// interface rather than to a concrete HTTP client.
type Engine interface {
	// Chat runs one completion and returns the assistant's content.
	Chat(ctx context.Context, req ChatRequest) (string, error)

	// IsRunning reports whether the backend is reachable.
	IsRunning(ctx context.Context) bool

	// ListModels returns the names of the models the backend can serve.
	ListModels(ctx context.Context) ([]string, error)

	// HasModel reports whether the given model name can be served.
	HasModel(ctx context.Context, name string) bool

	// PullModel makes a model available. The optional callback receives progress updates.
	PullModel(ctx context.Context, name string, onProgress func(PullProgress)) error
}
