// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/threadseeker/pkg/types"
)

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{"bare", `{"a":1}`, `{"a":1}`, false},
		{"prose around", "Sure! Here you go:\n{\"a\": \"x\"}\nHope it helps", `{"a": "x"}`, false},
		{"code fence", "```json\n{\"a\": {\"b\": 2}}\n```", `{"a": {"b": 2}}`, false},
		{"brace in string", `{"a": "}{"} trailing`, `{"a": "}{"}`, false},
		{"escaped quote", `{"a": "say \"hi\" }"}`, `{"a": "say \"hi\" }"}`, false},
		{"none", "no json here", "", true},
		{"unbalanced", `{"a": 1`, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSONObject(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrNoJSON)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWithDefaults(t *testing.T) {
	cfg := WithDefaults(types.ProviderConfig{Kind: types.ProviderGroq})
	assert.Equal(t, "groq", cfg.Name)
	assert.Equal(t, "llama-3.1-8b-instant", cfg.Model)
	assert.Equal(t, defaultMaxTokens, cfg.MaxTokens)
	assert.Equal(t, defaultTimeout, cfg.Timeout)

	cfg = WithDefaults(types.ProviderConfig{Kind: types.ProviderGemini, Name: "backup", Model: "m"})
	assert.Equal(t, "backup", cfg.Name)
	assert.Equal(t, "m", cfg.Model)
}

func TestNewProviderValidation(t *testing.T) {
	ctx := context.Background()
	for _, kind := range []types.ProviderKind{types.ProviderGroq, types.ProviderOpenAI, types.ProviderGemini, types.ProviderClaude} {
		t.Run(string(kind), func(t *testing.T) {
			_, err := NewProvider(ctx, types.ProviderConfig{Kind: kind})
			assert.ErrorIs(t, err, ErrMissingAPIKey)
		})
	}

	_, err := NewProvider(ctx, types.ProviderConfig{Kind: "watson"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported")

	p, err := NewProvider(ctx, types.ProviderConfig{Kind: types.ProviderOllama})
	require.NoError(t, err)
	assert.Equal(t, "ollama", p.Name())

	p, err = NewProvider(ctx, types.ProviderConfig{Kind: types.ProviderClaude, APIKey: "k"})
	require.NoError(t, err)
	assert.IsType(t, &ClaudeProvider{}, p)
}

// chatServer answers OpenAI chat completion requests with content and
// records the decoded request.
func chatServer(t *testing.T, content string, got *map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		if got != nil {
			require.NoError(t, json.Unmarshal(body, got))
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1,
			"model":   "test-model",
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": content},
				"finish_reason": "stop",
			}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenAIProviderGenerate(t *testing.T) {
	var req map[string]any
	srv := chatServer(t, "  hello there \n", &req)

	p, err := NewProvider(context.Background(), types.ProviderConfig{
		Kind:    types.ProviderGroq,
		Name:    "primary",
		APIKey:  "test-key",
		BaseURL: srv.URL + "/v1",
		Model:   "test-model",
	})
	require.NoError(t, err)
	assert.Equal(t, "primary", p.Name())

	got, err := p.Generate(context.Background(), "be terse", "say hello")
	require.NoError(t, err)
	assert.Equal(t, "hello there", got)

	assert.Equal(t, "test-model", req["model"])
	msgs, ok := req["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
	assert.Equal(t, "say hello", msgs[1].(map[string]any)["content"])
}

func TestOpenAIProviderEmptyContent(t *testing.T) {
	srv := chatServer(t, "   ", nil)
	p := NewOpenAIProvider(types.ProviderConfig{Kind: types.ProviderOpenAI, APIKey: "test-key", BaseURL: srv.URL + "/v1"})

	_, err := p.Generate(context.Background(), "", "x")
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestOpenAIProviderHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"rate limited","type":"rate_limit"}}`))
	}))
	defer srv.Close()

	p := NewOpenAIProvider(types.ProviderConfig{Kind: types.ProviderOpenAI, APIKey: "test-key", BaseURL: srv.URL + "/v1"})
	_, err := p.Generate(context.Background(), "", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat completion")
}

func TestClaudeProviderGenerate(t *testing.T) {
	var req map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &req))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "msg_1", "type": "message", "role": "assistant", "model": "m",
			"content": [{"type": "text", "text": "{\"ok\": true}"}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 3, "output_tokens": 4}
		}`))
	}))
	defer srv.Close()

	p := NewClaudeProvider(types.ProviderConfig{Kind: types.ProviderClaude, APIKey: "test-key", BaseURL: srv.URL, Model: "m"})
	got, err := p.Generate(context.Background(), "system text", "prompt text")
	require.NoError(t, err)
	assert.Equal(t, `{"ok": true}`, got)
	assert.Equal(t, "system text", req["system"])
	assert.Equal(t, "m", req["model"])
}
