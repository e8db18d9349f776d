package chatapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"flexchat/internal/testutils"
	"flexchat/internal/version"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*Client, *testutils.FakeBackend) {
	t.Helper()
	backend := testutils.NewFakeBackend()
	t.Cleanup(backend.Close)

	client, err := NewClient(backend.URL())
	require.NoError(t, err)
	return client, backend
}

func TestNewClient(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"http url", "http://localhost:5001", false},
		{"https url with trailing slash", "https://chat.example.com/", false},
		{"empty", "   ", true},
		{"missing scheme", "localhost:5001", true},
		{"unsupported scheme", "ftp://example.com", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, client)
				return
			}
			require.NoError(t, err)
			assert.NotContains(t, client.BaseURL()[len("https://"):], "//")
		})
	}

	_, err := NewClient("")
	assert.ErrorIs(t, err, ErrEmptyURL)
}

func TestClient_Models(t *testing.T) {
	client, backend := newTestClient(t)
	backend.SetModels("gemini", "chatgpt", "claude")

	models, err := client.Models(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"gemini", "chatgpt", "claude"}, models)
	assert.Equal(t, 1, backend.ModelCalls())
}

func TestClient_Models_StatusError(t *testing.T) {
	client, backend := newTestClient(t)
	backend.SetModelsStatus(http.StatusInternalServerError)

	models, err := client.Models(context.Background())
	assert.Nil(t, models)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)
	assert.Equal(t, "/api/models", statusErr.Path)
}

func TestClient_Chat_SendsAllFields(t *testing.T) {
	client, backend := newTestClient(t)

	resp, err := client.Chat(context.Background(), ChatRequest{
		SessionID:              "session_1_abc",
		Message:                "hello",
		ModelType:              "gemini",
		MemoryMode:             "memoryless",
		InitialContext:         "be brief",
		UseContextPersistently: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "echo: hello", resp.Response)
	assert.Empty(t, resp.Error)

	calls := backend.ChatCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, testutils.ChatCall{
		SessionID:              "session_1_abc",
		Message:                "hello",
		ModelType:              "gemini",
		MemoryMode:             "memoryless",
		InitialContext:         "be brief",
		UseContextPersistently: true,
	}, calls[0])
}

func TestClient_Chat_APIError(t *testing.T) {
	client, backend := newTestClient(t)
	backend.SetReply(func(testutils.ChatCall) testutils.ChatReply {
		return testutils.ChatReply{Body: map[string]any{"error": "Rate limit reached. Please wait a moment and try again."}}
	})

	resp, err := client.Chat(context.Background(), ChatRequest{Message: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "Rate limit reached. Please wait a moment and try again.", resp.Error)
}

func TestClient_Chat_APIErrorWithFailureStatus(t *testing.T) {
	client, _ := newTestClient(t)

	// The fake backend rejects empty messages with 400 and an error body.
	resp, err := client.Chat(context.Background(), ChatRequest{Message: ""})
	require.NoError(t, err)
	assert.Equal(t, "Message is required", resp.Error)
}

func TestClient_Chat_FailureStatusWithoutErrorBody(t *testing.T) {
	client, backend := newTestClient(t)
	backend.SetReply(func(testutils.ChatCall) testutils.ChatReply {
		return testutils.ChatReply{Status: http.StatusBadGateway, Raw: "upstream down"}
	})

	resp, err := client.Chat(context.Background(), ChatRequest{Message: "hi"})
	assert.Nil(t, resp)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusBadGateway, statusErr.StatusCode)
}

func TestClient_Chat_InvalidJSON(t *testing.T) {
	client, backend := newTestClient(t)
	backend.SetReply(func(testutils.ChatCall) testutils.ChatReply {
		return testutils.ChatReply{Raw: "<html>oops</html>"}
	})

	resp, err := client.Chat(context.Background(), ChatRequest{Message: "hi"})
	assert.Nil(t, resp)
	assert.ErrorContains(t, err, "failed to decode chat response")
}

func TestClient_Chat_TransportFailure(t *testing.T) {
	backend := testutils.NewFakeBackend()
	client, err := NewClient(backend.URL())
	require.NoError(t, err)
	backend.Close()

	resp, err := client.Chat(context.Background(), ChatRequest{Message: "hi"})
	assert.Nil(t, resp)
	assert.ErrorContains(t, err, "failed to execute HTTP request")
}

func TestClient_Clear(t *testing.T) {
	client, backend := newTestClient(t)

	require.NoError(t, client.Clear(context.Background(), "session_9_xyz"))
	assert.Equal(t, []string{"session_9_xyz"}, backend.ClearCalls())

	backend.SetClearStatus(http.StatusInternalServerError)
	err := client.Clear(context.Background(), "session_9_xyz")
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.MethodPost, statusErr.Method)
}

func TestClient_WithTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	client, err := NewClient(server.URL, WithTimeout(50*time.Millisecond))
	require.NoError(t, err)

	_, err = client.Models(context.Background())
	assert.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestClient_BasePathPrefix(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`{"models":["chatgpt"]}`))
	}))
	defer server.Close()

	client, err := NewClient(server.URL + "/chatbot/")
	require.NoError(t, err)

	_, err = client.Models(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "/chatbot/api/models", gotPath)
}

func TestClient_SendsUserAgent(t *testing.T) {
	var got string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte(`{"models":[]}`))
	}))
	defer server.Close()

	client, err := NewClient(server.URL)
	require.NoError(t, err)

	_, err = client.Models(context.Background())
	require.NoError(t, err)
	assert.Equal(t, version.UserAgent(), got)
}
