package types

// ChatRequest is the body of POST /api/chat. Context is an open map the
// caller may attach; the pipeline does not currently read it.
type ChatRequest struct {
	Message   string         `json:"message"`
	SessionID string         `json:"session_id"`
	Context   map[string]any `json:"context"`
}

// DefaultSessionID is used when a chat request omits session_id.
const DefaultSessionID = "default"

// StreamData is a single SSE chunk. During streaming only Text is set; the
// closing event carries Done and the rendered HTML of the full answer.
type StreamData struct {
	Text     string `json:"text,omitempty"`
	Done     bool   `json:"done,omitempty"`
	Rendered string `json:"rendered,omitempty"`
}

// HealthResponse is the static health check payload.
type HealthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Model   string `json:"model"`
}

// RootResponse describes the service and its endpoints.
type RootResponse struct {
	Message   string            `json:"message"`
	Version   string            `json:"version"`
	Model     string            `json:"model"`
	Features  []string          `json:"features"`
	Endpoints map[string]string `json:"endpoints"`
}

// ClearMemoryResponse acknowledges a session clear, reporting whether a
// session was actually found and removed.
type ClearMemoryResponse struct {
	Message string `json:"message"`
	Cleared bool   `json:"cleared"`
}
