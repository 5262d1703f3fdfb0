package llmprovider_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentmap-go/agentmap/agent/builtin"
	"github.com/agentmap-go/agentmap/llmprovider"
)

func fakeOpenAIServer(t *testing.T, reply string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-test",
			"object":  "chat.completion",
			"created": 1,
			"model":   req.Model,
			"choices": []map[string]any{
				{
					"index": 0,
					"message": map[string]any{
						"role":    "assistant",
						"content": reply,
					},
					"finish_reason": "stop",
				},
			},
		})
	}))
	t.Cleanup(server.Close)
	return server
}

func TestOpenAIProviderCallChatReturnsModelReply(t *testing.T) {
	server := fakeOpenAIServer(t, "hello from the model")
	provider := llmprovider.NewOpenAIProviderWithConfig("test-key", server.URL+"/v1")

	out, err := provider.CallChat(t.Context(), "openai", "gpt-4o-mini", 0.5, []builtin.Message{
		{Role: "system", Content: "be helpful"},
		{Role: "user", Content: "hi"},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "hello from the model", out)
}

func TestOpenAIProviderDefaultsModelWhenUnset(t *testing.T) {
	server := fakeOpenAIServer(t, "ok")
	provider := llmprovider.NewOpenAIProviderWithConfig("test-key", server.URL+"/v1")

	out, err := provider.CallChat(t.Context(), "openai", "", 0.2, []builtin.Message{{Role: "user", Content: "hi"}}, nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
}

func TestOpenAIProviderSurfacesHTTPErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
	}))
	t.Cleanup(server.Close)

	provider := llmprovider.NewOpenAIProviderWithConfig("test-key", server.URL+"/v1")
	_, err := provider.CallChat(t.Context(), "openai", "gpt-4o-mini", 0.5, []builtin.Message{{Role: "user", Content: "hi"}}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "openai chat completion")
}
