package providers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ai-visibility/backend/config"
	"github.com/ai-visibility/backend/metrics"
	"github.com/ai-visibility/backend/visibility"
)

func testOpenAIConfig(baseURL string) config.OpenAIConfig {
	return config.OpenAIConfig{
		APIKey:       "sk-test",
		BaseURL:      baseURL,
		Model:        "gpt-3.5-turbo",
		MaxTokens:    500,
		Temperature:  0.7,
		SystemPrompt: "You are a helpful assistant providing information about companies.",
	}
}

func TestOpenAI_Query(t *testing.T) {
	var got openai.ChatCompletionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"cmpl-1","object":"chat.completion","created":1,"model":"gpt-3.5-turbo",
			"choices":[{"index":0,"message":{"role":"assistant","content":"Acme builds rockets."},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	provider := NewOpenAI(testOpenAIConfig(srv.URL + "/v1/"))
	answer, err := provider.Query(context.Background(), "What does Acme do?", visibility.ChatGPT, "Acme")
	require.NoError(t, err)

	assert.Equal(t, "Acme builds rockets.", answer)
	assert.Equal(t, "gpt-3.5-turbo", got.Model)
	assert.Equal(t, 500, got.MaxTokens)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, openai.ChatMessageRoleSystem, got.Messages[0].Role)
	assert.Equal(t, "What does Acme do?", got.Messages[1].Content)
}

func TestOpenAI_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.Header.Get("Authorization") == "Bearer sk-empty" {
			w.Write([]byte(`{"id":"cmpl-2","object":"chat.completion","created":1,"model":"gpt-3.5-turbo","choices":[]}`))
			return
		}
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"quota exceeded","type":"insufficient_quota"}}`))
	}))
	defer srv.Close()

	_, err := NewOpenAI(testOpenAIConfig(srv.URL+"/v1")).Query(context.Background(), "q", visibility.ChatGPT, "Acme")
	assert.ErrorContains(t, err, "quota exceeded")

	cfg := testOpenAIConfig(srv.URL + "/v1")
	cfg.APIKey = "sk-empty"
	_, err = NewOpenAI(cfg).Query(context.Background(), "q", visibility.ChatGPT, "Acme")
	assert.ErrorIs(t, err, ErrEmptyCompletion)
}

func TestSimulated(t *testing.T) {
	answer, err := Simulated{}.Query(context.Background(), "What does Acme do?", visibility.Claude, "Acme")
	require.NoError(t, err)
	assert.Equal(t,
		"Simulated Claude response for: What does Acme do?. Claude would provide detailed analysis about Acme with focus on accuracy and helpfulness.",
		answer)

	_, err = Simulated{}.Query(context.Background(), "q", visibility.Platform("bard"), "Acme")
	assert.ErrorIs(t, err, visibility.ErrUnknownPlatform)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Simulated{}.Query(ctx, "q", visibility.Claude, "Acme")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestInstrumented_CountsCalls(t *testing.T) {
	failing := visibility.ProviderFunc(func(context.Context, string, visibility.Platform, string) (string, error) {
		return "", errors.New("unavailable")
	})

	errorsBefore := testutil.ToFloat64(metrics.ProviderCalls.WithLabelValues("perplexity", "error"))
	successBefore := testutil.ToFloat64(metrics.ProviderCalls.WithLabelValues("perplexity", "success"))

	_, err := Instrument(failing, nil).Query(context.Background(), "q", visibility.Perplexity, "Acme")
	assert.ErrorContains(t, err, "unavailable")
	_, err = Instrument(Simulated{}, nil).Query(context.Background(), "q", visibility.Perplexity, "Acme")
	require.NoError(t, err)

	assert.Equal(t, errorsBefore+1, testutil.ToFloat64(metrics.ProviderCalls.WithLabelValues("perplexity", "error")))
	assert.Equal(t, successBefore+1, testutil.ToFloat64(metrics.ProviderCalls.WithLabelValues("perplexity", "success")))
}

func TestNewRegistry_WithoutKeySimulatesEverything(t *testing.T) {
	registry, err := NewRegistry(config.OpenAIConfig{}, nil)
	require.NoError(t, err)

	for _, p := range visibility.Platforms {
		provider, err := registry.Provider(p)
		require.NoError(t, err)
		answer, err := provider.Query(context.Background(), "What does Acme do?", p, "Acme")
		require.NoError(t, err)
		assert.Contains(t, answer, "Simulated")
	}
}

func TestNewRegistry_WithKeyUsesOpenAI(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"c","object":"chat.completion","created":1,"model":"m",
			"choices":[{"index":0,"message":{"role":"assistant","content":"real answer"},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	registry, err := NewRegistry(testOpenAIConfig(srv.URL+"/v1"), nil)
	require.NoError(t, err)

	for _, p := range []visibility.Platform{visibility.ChatGPT, visibility.SearchGPT} {
		provider, err := registry.Provider(p)
		require.NoError(t, err)
		answer, err := provider.Query(context.Background(), "q", p, "Acme")
		require.NoError(t, err)
		assert.Equal(t, "real answer", answer)
	}
	assert.Equal(t, 2, calls)

	claude, err := registry.Provider(visibility.Claude)
	require.NoError(t, err)
	answer, err := claude.Query(context.Background(), "q", visibility.Claude, "Acme")
	require.NoError(t, err)
	assert.Contains(t, answer, "Simulated Claude")
}
