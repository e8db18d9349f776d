package chatapi

// ModelsResponse is the body of GET /api/models.
type ModelsResponse struct {
	Models []string `json:"models"`
}

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	SessionID              string `json:"session_id"`
	Message                string `json:"message"`
	ModelType              string `json:"model_type"`
	MemoryMode             string `json:"memory_mode"`
	InitialContext         string `json:"initial_context"`
	UseContextPersistently bool   `json:"use_context_persistently"`
}

// ChatResponse is the body of POST /api/chat. Exactly one of Response or
// Error is expected to be set.
type ChatResponse struct {
	Response string `json:"response,omitempty"`
	Error    string `json:"error,omitempty"`
	Success  bool   `json:"success,omitempty"`
}

// ClearRequest is the body of POST /api/clear.
type ClearRequest struct {
	SessionID string `json:"session_id"`
}
