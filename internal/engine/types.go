package engine

// Message represents a chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Schema describes the expected JSON output structure for structured chat responses.
type Schema struct {
	Type       string                    `json:"type"`
	Properties map[string]SchemaProperty `json:"properties"`
	Required   []string                  `json:"required,omitempty"`
}

// SchemaProperty describes a single field within a Schema.
type SchemaProperty struct {
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

// ChatRequest is a single non-streaming completion. A nil Schema means free
// text; Temperature zero leaves the backend default in place.
type ChatRequest struct {
	Model       string
	Messages    []Message
	Schema      *Schema
	Temperature float64
}

// PullProgress reports download progress for a model pull operation.
type PullProgress struct {
	Status    string
	Total     int64
	Completed int64
}
