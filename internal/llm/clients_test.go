package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func chatCompletionsResponse(content string) map[string]any {
	return map[string]any{
		"choices": []map[string]any{
			{
				"message":       map[string]any{"content": content},
				"finish_reason": "stop",
			},
		},
		"usage": map[string]any{
			"prompt_tokens":     12,
			"completion_tokens": 7,
			"total_tokens":      19,
		},
	}
}

func TestOpenAIClientComplete(t *testing.T) {
	var gotAuth, gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		_ = json.NewEncoder(w).Encode(chatCompletionsResponse("hello"))
	}))
	defer server.Close()

	client, err := NewOpenAIClient("gpt-4o", Config{APIKey: "sk-test", BaseURL: server.URL})
	require.NoError(t, err)
	require.Equal(t, "gpt-4o", client.Model())

	resp, err := client.Complete(context.Background(), CompletionRequest{
		Messages: []Message{{Role: "user", Content: "hi"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "hello", resp.Content)
	assert.Equal(t, "stop", resp.StopReason)
	assert.Equal(t, 19, resp.Usage.TotalTokens)
	assert.Equal(t, "Bearer sk-test", gotAuth)
	assert.Equal(t, "/chat/completions", gotPath)
}

func TestOpenAIClientRequiresAPIKey(t *testing.T) {
	_, err := NewOpenAIClient("gpt-4o", Config{})
	require.Error(t, err)
}

func TestOpenAIClientUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": {"message": "rate limited"}}`, http.StatusTooManyRequests)
	}))
	defer server.Close()

	client, err := NewOpenAIClient("gpt-4o", Config{APIKey: "sk-test", BaseURL: server.URL})
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), CompletionRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 429")
}

func TestAzureClientComplete(t *testing.T) {
	var gotKey, gotPath, gotVersion string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("api-key")
		gotPath = r.URL.Path
		gotVersion = r.URL.Query().Get("api-version")
		_ = json.NewEncoder(w).Encode(chatCompletionsResponse("azure says hi"))
	}))
	defer server.Close()

	client, err := NewAzureClient("gpt-4o", Config{
		APIKey:     "az-key",
		Endpoint:   server.URL + "/",
		APIVersion: "2024-02-01",
		Deployment: "gpt-4o-prod",
	})
	require.NoError(t, err)

	resp, err := client.Complete(context.Background(), CompletionRequest{
		Messages: []Message{{Role: "user", Content: "hi"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "azure says hi", resp.Content)
	assert.Equal(t, "az-key", gotKey)
	assert.Equal(t, "/openai/deployments/gpt-4o-prod/chat/completions", gotPath)
	assert.Equal(t, "2024-02-01", gotVersion)
}

func TestAzureClientRequiredSettings(t *testing.T) {
	base := Config{APIKey: "k", Endpoint: "https://e", APIVersion: "v", Deployment: "d"}

	for name, mutate := range map[string]func(*Config){
		"endpoint":    func(c *Config) { c.Endpoint = "" },
		"api key":     func(c *Config) { c.APIKey = "" },
		"api version": func(c *Config) { c.APIVersion = "" },
		"deployment":  func(c *Config) { c.Deployment = "" },
	} {
		t.Run(name, func(t *testing.T) {
			cfg := base
			mutate(&cfg)
			_, err := NewAzureClient("gpt-4o", cfg)
			require.Error(t, err)
		})
	}
}

func TestAnthropicClientComplete(t *testing.T) {
	var gotKey, gotVersion string
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-api-key")
		gotVersion = r.Header.Get("anthropic-version")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"content":     []map[string]any{{"type": "text", "text": "claude says hi"}},
			"stop_reason": "end_turn",
			"usage":       map[string]any{"input_tokens": 10, "output_tokens": 5},
		})
	}))
	defer server.Close()

	client, err := NewAnthropicClient("claude-sonnet-4", Config{APIKey: "ant-key", BaseURL: server.URL})
	require.NoError(t, err)

	resp, err := client.Complete(context.Background(), CompletionRequest{
		Messages: []Message{
			{Role: "system", Content: "you are a hunter"},
			{Role: "user", Content: "hi"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "claude says hi", resp.Content)
	assert.Equal(t, "end_turn", resp.StopReason)
	assert.Equal(t, 15, resp.Usage.TotalTokens)
	assert.Equal(t, "ant-key", gotKey)
	assert.Equal(t, "2023-06-01", gotVersion)

	assert.Equal(t, "you are a hunter", gotBody["system"])
	msgs := gotBody["messages"].([]any)
	require.Len(t, msgs, 1)
}

func TestRateLimitWrapper(t *testing.T) {
	mock := NewMockClient("gpt-4o", "ok")
	client := WrapWithRateLimit(mock, rate.Every(time.Hour), 2)

	for i := 0; i < 2; i++ {
		_, err := client.Complete(context.Background(), CompletionRequest{})
		require.NoError(t, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := client.Complete(ctx, CompletionRequest{})
	require.Error(t, err)
	assert.Equal(t, 2, mock.Calls())
}

func TestRateLimitWrapperDisabled(t *testing.T) {
	mock := NewMockClient("gpt-4o")
	assert.Same(t, Client(mock), WrapWithRateLimit(mock, 0, 1))
}

func TestMockClientSequence(t *testing.T) {
	mock := NewMockClient("test", "first", "second")

	resp, err := mock.Complete(context.Background(), CompletionRequest{
		Messages: []Message{{Role: "user", Content: "q"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "first", resp.Content)

	resp, _ = mock.Complete(context.Background(), CompletionRequest{})
	assert.Equal(t, "second", resp.Content)

	// Past the end it repeats the last response.
	resp, _ = mock.Complete(context.Background(), CompletionRequest{})
	assert.Equal(t, "second", resp.Content)
	assert.Equal(t, 3, mock.Calls())
	assert.Equal(t, "test", mock.Model())
}
