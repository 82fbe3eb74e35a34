package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsUnknownProvider(t *testing.T) {
	_, err := New(context.Background(), ProviderConfig{Provider: "llama", APIKey: "key"})
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrUnknownProvider))
}

func TestNewRequiresAPIKey(t *testing.T) {
	_, err := New(context.Background(), ProviderConfig{Provider: "gemini"})
	require.Error(t, err)

	_, err = New(context.Background(), ProviderConfig{Provider: "openai"})
	require.Error(t, err)
}

func TestFirstTextJoinsPartsOfFirstCandidateWithContent(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: nil},
			{Content: &genai.Content{Parts: []genai.Part{genai.Text("Good answer. "), genai.Text("Score: 7/10")}}},
			{Content: &genai.Content{Parts: []genai.Part{genai.Text("ignored")}}},
		},
	}
	require.Equal(t, "Good answer. Score: 7/10", firstText(resp))
	require.Equal(t, "", firstText(nil))
	require.Equal(t, "", firstText(&genai.GenerateContentResponse{}))
}

func newOpenAITestServer(t *testing.T, status int, body any) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "gpt-4o-mini", req["model"])

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		require.NoError(t, json.NewEncoder(w).Encode(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestOpenAIEngineSubmitReturnsCompletionText(t *testing.T) {
	server := newOpenAITestServer(t, http.StatusOK, map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1,
		"model":   "gpt-4o-mini",
		"choices": []map[string]any{{
			"index":         0,
			"message":       map[string]any{"role": "assistant", "content": "Solid answer.\nScore: 8/10"},
			"finish_reason": "stop",
		}},
		"usage": map[string]any{"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15},
	})

	engine, err := NewOpenAIEngine(OpenAIConfig{APIKey: "test-key", BaseURL: server.URL, Logger: zerolog.Nop()})
	require.NoError(t, err)
	require.Equal(t, "openai", engine.Name())
	require.Equal(t, "gpt-4o-mini", engine.Model())

	text, err := engine.Submit(context.Background(), "prompt")
	require.NoError(t, err)
	require.Equal(t, "Solid answer.\nScore: 8/10", text)
}

func TestOpenAIEngineSubmitWithoutChoicesIsNoContent(t *testing.T) {
	server := newOpenAITestServer(t, http.StatusOK, map[string]any{
		"id":      "chatcmpl-2",
		"object":  "chat.completion",
		"model":   "gpt-4o-mini",
		"choices": []map[string]any{},
	})

	engine, err := NewOpenAIEngine(OpenAIConfig{APIKey: "test-key", BaseURL: server.URL})
	require.NoError(t, err)

	_, err = engine.Submit(context.Background(), "prompt")
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrNoContent))
}

func TestOpenAIEngineSubmitPropagatesAPIErrors(t *testing.T) {
	server := newOpenAITestServer(t, http.StatusTooManyRequests, map[string]any{
		"error": map[string]any{"message": "quota exceeded", "type": "insufficient_quota"},
	})

	engine, err := NewOpenAIEngine(OpenAIConfig{APIKey: "test-key", BaseURL: server.URL})
	require.NoError(t, err)

	_, err = engine.Submit(context.Background(), "prompt")
	require.Error(t, err)
	require.False(t, errors.Is(err, ErrNoContent))
	require.Contains(t, err.Error(), "quota exceeded")
}
