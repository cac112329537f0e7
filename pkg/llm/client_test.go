package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewClient_RequiresEndpointAndModel(t *testing.T) {
	logger := zap.NewNop()

	_, err := NewClient(&Config{Model: "mistral"}, logger)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "endpoint")

	_, err = NewClient(&Config{Endpoint: "http://localhost:11434/v1"}, logger)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model")
}

func TestClient_Generate_ReturnsContent(t *testing.T) {
	var gotPath string
	var gotBody map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"choices": [{"message": {"role": "assistant", "content": "SELECT 1"}}],
			"usage": {"prompt_tokens": 10, "completion_tokens": 2, "total_tokens": 12}
		}`))
	}))
	defer server.Close()

	client, err := NewClient(&Config{Endpoint: server.URL, Model: "mistral"}, zap.NewNop())
	require.NoError(t, err)

	content, err := client.Generate(context.Background(), "prompt", "system", 0)
	require.NoError(t, err)

	assert.Equal(t, "SELECT 1", content)
	assert.Equal(t, "/chat/completions", gotPath)
	assert.Equal(t, "mistral", gotBody["model"])
	// The pipeline contract is a non-streaming request.
	assert.NotEqual(t, true, gotBody["stream"])
}

func TestClient_Generate_SingleAttemptOnServerError(t *testing.T) {
	var calls int

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, `{"error": {"message": "boom"}}`, http.StatusInternalServerError)
	}))
	defer server.Close()

	client, err := NewClient(&Config{Endpoint: server.URL, Model: "mistral"}, zap.NewNop())
	require.NoError(t, err)

	_, err = client.Generate(context.Background(), "prompt", "system", 0)
	require.Error(t, err)

	var llmErr *Error
	require.ErrorAs(t, err, &llmErr)
	assert.Equal(t, ErrorTypeEndpoint, llmErr.Type)
	assert.Equal(t, 1, calls, "exactly one inference attempt per request")
}

func TestClient_Generate_EmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices": []}`))
	}))
	defer server.Close()

	client, err := NewClient(&Config{Endpoint: server.URL, Model: "mistral"}, zap.NewNop())
	require.NoError(t, err)

	_, err = client.Generate(context.Background(), "prompt", "system", 0)
	require.Error(t, err)
	assert.Equal(t, ErrorTypeResponse, GetErrorType(err))
}
