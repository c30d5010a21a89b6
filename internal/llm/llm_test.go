package llm

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ankigen/internal/config"
)

func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testGenerationConfig() config.GenerationConfig {
	return config.GenerationConfig{
		MaxRetries:        3,
		RetryDelaySeconds: 0,
		Temperature:       0.3,
		MaxTokens:         2048,
		CardsPerSection:   5,
		MinCardQuality:    0.7,
		SectionMaxTokens:  1500,
		WorkerCount:       3,
	}
}

func TestFlattenConversation(t *testing.T) {
	conversation := []Message{
		{Role: RoleSystem, Content: "You make flashcards."},
		{Role: RoleUser, Content: "Make some."},
		{Role: RoleAssistant, Content: "Q: ..."},
		{Role: "tool", Content: "ignored"},
	}

	got := flattenConversation(conversation)

	assert.Equal(t,
		"System: You make flashcards.\n\nUser: Make some.\n\nAssistant: Q: ...\n\n",
		got)
}

func TestOpenAIBackendCall(t *testing.T) {
	var gotReq chatRequest
	var gotAuth string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat/completions", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"  Q: What?\nA: That.  "}}]}`))
	}))
	defer server.Close()

	b := newOpenAIBackend(config.OpenAIConfig{
		BaseURL: server.URL,
		APIKey:  "sk-test",
		Model:   "gpt-3.5-turbo",
	}, testGenerationConfig())

	reply, err := b.call(context.Background(), []Message{
		{Role: RoleSystem, Content: "sys"},
		{Role: RoleUser, Content: "usr"},
	})

	require.NoError(t, err)
	// Content is trimmed, and the first choice wins.
	assert.Equal(t, "Q: What?\nA: That.", reply)
	assert.Equal(t, "Bearer sk-test", gotAuth)
	assert.Equal(t, "gpt-3.5-turbo", gotReq.Model)
	assert.Equal(t, 0.3, gotReq.Temperature)
	assert.Equal(t, 2048, gotReq.MaxTokens)
	require.Len(t, gotReq.Messages, 2)
	assert.Equal(t, RoleSystem, gotReq.Messages[0].Role)
}

func TestOpenRouterBackendCall(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer or-test", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"hello"}}]}`))
	}))
	defer server.Close()

	b := newOpenRouterBackend(config.OpenRouterConfig{
		BaseURL: server.URL,
		APIKey:  "or-test",
		Model:   "meta-llama/llama-3.2-3b-instruct:free",
	}, testGenerationConfig())

	reply, err := b.call(context.Background(), []Message{{Role: RoleUser, Content: "hi"}})

	require.NoError(t, err)
	assert.Equal(t, "hello", reply)
}

func TestChatBackendErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"non-2xx status", http.StatusInternalServerError, `boom`, ErrRequestFailed},
		{"malformed body", http.StatusOK, `{not json`, ErrRequestFailed},
		{"no choices", http.StatusOK, `{"choices":[]}`, ErrEmptyResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			b := newOpenAIBackend(config.OpenAIConfig{
				BaseURL: server.URL,
				APIKey:  "k",
				Model:   "m",
			}, testGenerationConfig())

			_, err := b.call(context.Background(), []Message{{Role: RoleUser, Content: "hi"}})
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestOllamaBackendCall(t *testing.T) {
	var gotBody map[string]interface{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = w.Write([]byte(`{"model":"llama3.2","response":"pong","done":true}` + "\n"))
	}))
	defer server.Close()

	b, err := newOllamaBackend(config.OllamaConfig{
		BaseURL: server.URL,
		Model:   "llama3.2",
	}, testGenerationConfig())
	require.NoError(t, err)

	reply, err := b.call(context.Background(), []Message{
		{Role: RoleSystem, Content: "sys"},
		{Role: RoleUser, Content: "ping"},
	})

	require.NoError(t, err)
	assert.Equal(t, "pong", reply)
	assert.Equal(t, "llama3.2", gotBody["model"])
	assert.Contains(t, gotBody["prompt"], "System: sys")
	assert.Contains(t, gotBody["prompt"], "User: ping")
}

func TestNewRejectsUnsupportedProvider(t *testing.T) {
	cfg := &config.Config{Provider: "claude", Generation: testGenerationConfig()}

	svc, err := New(cfg, setupTestLogger())

	assert.Nil(t, svc)
	assert.ErrorIs(t, err, ErrUnsupportedProvider)
}

func TestNewRejectsNilLogger(t *testing.T) {
	cfg := &config.Config{Provider: config.ProviderOllama}

	svc, err := New(cfg, nil)

	assert.Nil(t, svc)
	assert.Error(t, err)
}
