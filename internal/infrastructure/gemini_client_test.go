package infrastructure

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeminiClient_GenerateResponse(t *testing.T) {
	var gotPath, gotKey string
	var gotBody geminiRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"Hello, "},{"text":"world"}]},"finishReason":"STOP"}]}`))
	}))
	defer srv.Close()

	client := NewGeminiClient(GeminiConfig{
		APIKey:       "secret",
		Model:        "models/gemini-test",
		BaseURL:      srv.URL + "/",
		SystemPrompt: "Be brief.",
	})

	out, err := client.GenerateResponse(context.Background(), "say hello please")
	require.NoError(t, err)
	assert.Equal(t, "Hello, world", out)
	assert.Equal(t, "/v1beta/models/gemini-test:generateContent", gotPath)
	assert.Equal(t, "secret", gotKey)
	require.Len(t, gotBody.Contents, 1)
	assert.Equal(t, "Be brief.\n\nUser:\nsay hello please", gotBody.Contents[0].Parts[0].Text)
}

func TestGeminiClient_ErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"code":429,"message":"quota exceeded","status":"RESOURCE_EXHAUSTED"}}`))
	}))
	defer srv.Close()

	client := NewGeminiClient(GeminiConfig{APIKey: "k", Model: "m", BaseURL: srv.URL})
	_, err := client.GenerateResponse(context.Background(), "hello there friend")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
	assert.Contains(t, err.Error(), "RESOURCE_EXHAUSTED")
}

func TestGeminiClient_BlockedPrompt(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"promptFeedback":{"blockReason":"SAFETY"}}`))
	}))
	defer srv.Close()

	client := NewGeminiClient(GeminiConfig{APIKey: "k", Model: "m", BaseURL: srv.URL})
	_, err := client.GenerateResponse(context.Background(), "hello there friend")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SAFETY")
}

func TestGeminiClient_MissingKeyFailsOnFirstUse(t *testing.T) {
	client := NewGeminiClient(GeminiConfig{Model: "m"})
	_, err := client.GenerateResponse(context.Background(), "hello there friend")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api key required")
}
