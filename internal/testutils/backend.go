package testutils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// ChatCall is a /api/chat request body as received by the fake backend.
type ChatCall struct {
	SessionID              string `json:"session_id"`
	Message                string `json:"message"`
	ModelType              string `json:"model_type"`
	MemoryMode             string `json:"memory_mode"`
	InitialContext         string `json:"initial_context"`
	UseContextPersistently bool   `json:"use_context_persistently"`
}

// ChatReply decides how the fake backend answers one chat call.
// A nil Body with Raw set writes Raw verbatim.
type ChatReply struct {
	Status int
	Body   map[string]any
	Raw    string
}

// FakeBackend is an in-process stand-in for the chat service.
// It records every call and lets tests script replies and block chat
// requests mid-flight.
type FakeBackend struct {
	Server *httptest.Server

	mu           sync.Mutex
	models       []string
	modelsStatus int
	clearStatus  int
	reply        func(ChatCall) ChatReply
	chatCalls    []ChatCall
	clearCalls   []string
	modelCalls   int

	gate    chan struct{}
	entered chan struct{}
}

// NewFakeBackend starts a fake backend offering chatgpt and gemini that
// echoes every message back.
func NewFakeBackend() *FakeBackend {
	b := &FakeBackend{
		models:       []string{"chatgpt", "gemini"},
		modelsStatus: http.StatusOK,
		clearStatus:  http.StatusOK,
		reply: func(call ChatCall) ChatReply {
			return ChatReply{
				Status: http.StatusOK,
				Body:   map[string]any{"response": "echo: " + call.Message, "success": true},
			}
		},
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Route("/api", func(r chi.Router) {
		r.Get("/models", b.handleModels)
		r.Post("/chat", b.handleChat)
		r.Post("/clear", b.handleClear)
	})

	b.Server = httptest.NewServer(r)
	return b
}

// URL returns the server root.
func (b *FakeBackend) URL() string {
	return b.Server.URL
}

// Close shuts the server down, releasing any blocked chat call first.
func (b *FakeBackend) Close() {
	b.mu.Lock()
	if b.gate != nil {
		close(b.gate)
		b.gate = nil
	}
	b.mu.Unlock()
	b.Server.Close()
}

// SetModels changes the /api/models listing.
func (b *FakeBackend) SetModels(models ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.models = models
}

// SetModelsStatus makes /api/models answer with the given status.
func (b *FakeBackend) SetModelsStatus(status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.modelsStatus = status
}

// SetClearStatus makes /api/clear answer with the given status.
func (b *FakeBackend) SetClearStatus(status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clearStatus = status
}

// SetReply replaces the chat reply function.
func (b *FakeBackend) SetReply(fn func(ChatCall) ChatReply) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.reply = fn
}

// Block makes subsequent chat calls wait until Release is called. The
// returned channel receives once per chat call that has arrived and is waiting.
func (b *FakeBackend) Block() <-chan struct{} {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.gate = make(chan struct{})
	b.entered = make(chan struct{}, 16)
	return b.entered
}

// Release lets blocked chat calls proceed.
func (b *FakeBackend) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.gate != nil {
		close(b.gate)
		b.gate = nil
	}
}

// ChatCalls returns the chat requests received so far.
func (b *FakeBackend) ChatCalls() []ChatCall {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]ChatCall(nil), b.chatCalls...)
}

// ClearCalls returns the session ids received by /api/clear.
func (b *FakeBackend) ClearCalls() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.clearCalls...)
}

// ModelCalls returns how many times /api/models was hit.
func (b *FakeBackend) ModelCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.modelCalls
}

func (b *FakeBackend) handleModels(w http.ResponseWriter, _ *http.Request) {
	b.mu.Lock()
	b.modelCalls++
	status := b.modelsStatus
	models := append([]string(nil), b.models...)
	b.mu.Unlock()

	if status != http.StatusOK {
		writeJSON(w, status, map[string]any{"error": "models unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"models": models})
}

func (b *FakeBackend) handleChat(w http.ResponseWriter, r *http.Request) {
	var call ChatCall
	if err := json.NewDecoder(r.Body).Decode(&call); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid JSON"})
		return
	}

	b.mu.Lock()
	b.chatCalls = append(b.chatCalls, call)
	gate := b.gate
	entered := b.entered
	reply := b.reply
	b.mu.Unlock()

	if gate != nil {
		entered <- struct{}{}
		select {
		case <-gate:
		case <-r.Context().Done():
			return
		}
	}

	if call.Message == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Message is required"})
		return
	}

	out := reply(call)
	if out.Status == 0 {
		out.Status = http.StatusOK
	}
	if out.Body == nil {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(out.Status)
		_, _ = w.Write([]byte(out.Raw))
		return
	}
	writeJSON(w, out.Status, out.Body)
}

func (b *FakeBackend) handleClear(w http.ResponseWriter, r *http.Request) {
	var body struct {
		SessionID string `json:"session_id"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)

	b.mu.Lock()
	b.clearCalls = append(b.clearCalls, body.SessionID)
	status := b.clearStatus
	b.mu.Unlock()

	if status != http.StatusOK {
		writeJSON(w, status, map[string]any{"error": "clear failed"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Conversation cleared"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
