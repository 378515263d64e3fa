// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ai wraps the LLM providers used for query generation and result
// synthesis behind one Provider interface. Groq, OpenAI and Ollama share the
// OpenAI-compatible client; Gemini and Claude use their own SDKs.
package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pdiddy/threadseeker/pkg/types"
)

var (
	// ErrEmptyResponse is returned when a provider answers without text.
	ErrEmptyResponse = errors.New("provider returned an empty response")

	// ErrNoJSON is returned by ExtractJSONObject when the text holds no object.
	ErrNoJSON = errors.New("no JSON object in response")

	// ErrMissingAPIKey is returned by NewProvider for hosted providers
	// configured without a key.
	ErrMissingAPIKey = errors.New("api key not configured")
)

// Provider generates text from a system instruction and a user prompt.
type Provider interface {
	Name() string
	Generate(ctx context.Context, system, prompt string) (string, error)
}

// Timed pairs a provider with its per-call budget.
type Timed struct {
	Provider
	Timeout time.Duration
}

// Default endpoints and models per provider kind.
const (
	GroqBaseURL   = "https://api.groq.com/openai/v1"
	OllamaBaseURL = "http://localhost:11434/v1"

	defaultMaxTokens = 300
	defaultTimeout   = 10 * time.Second
)

var defaultModels = map[types.ProviderKind]string{
	types.ProviderGroq:   "llama-3.1-8b-instant",
	types.ProviderOpenAI: "gpt-4o-mini",
	types.ProviderOllama: "llama3.1",
	types.ProviderGemini: "gemini-1.5-flash",
	types.ProviderClaude: "claude-3-5-haiku-latest",
}

// WithDefaults fills unset provider fields.
func WithDefaults(cfg types.ProviderConfig) types.ProviderConfig {
	if cfg.Name == "" {
		cfg.Name = string(cfg.Kind)
	}
	if cfg.Model == "" {
		cfg.Model = defaultModels[cfg.Kind]
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return cfg
}

// NewProvider builds the provider described by cfg.
func NewProvider(ctx context.Context, cfg types.ProviderConfig) (Provider, error) {
	cfg = WithDefaults(cfg)

	switch cfg.Kind {
	case types.ProviderGroq, types.ProviderOpenAI:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("%s: %w", cfg.Name, ErrMissingAPIKey)
		}
		if cfg.Kind == types.ProviderGroq && cfg.BaseURL == "" {
			cfg.BaseURL = GroqBaseURL
		}
		return NewOpenAIProvider(cfg), nil

	case types.ProviderOllama:
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = OllamaBaseURL
		}
		if !strings.HasSuffix(baseURL, "/v1") {
			baseURL = strings.TrimRight(baseURL, "/") + "/v1"
		}
		cfg.BaseURL = baseURL
		if cfg.APIKey == "" {
			// Ollama ignores the key but the client requires one.
			cfg.APIKey = "ollama"
		}
		return NewOpenAIProvider(cfg), nil

	case types.ProviderGemini:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("%s: %w", cfg.Name, ErrMissingAPIKey)
		}
		return NewGeminiProvider(ctx, cfg)

	case types.ProviderClaude:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("%s: %w", cfg.Name, ErrMissingAPIKey)
		}
		return NewClaudeProvider(cfg), nil

	default:
		return nil, fmt.Errorf("unsupported ai provider kind %q", cfg.Kind)
	}
}

// ExtractJSONObject returns the first balanced {...} object in text. Models
// often wrap JSON in prose or code fences; this strips both.
func ExtractJSONObject(text string) (string, error) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", ErrNoJSON
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], nil
			}
		}
	}
	return "", ErrNoJSON
}
