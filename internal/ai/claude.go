// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/liushuangls/go-anthropic/v2"

	"github.com/pdiddy/threadseeker/pkg/types"
)

// ClaudeProvider calls the Anthropic Messages API.
type ClaudeProvider struct {
	name        string
	client      *anthropic.Client
	model       string
	maxTokens   int
	temperature float32
}

// NewClaudeProvider returns a provider for cfg. BaseURL, when set, replaces
// the API root (e.g. "https://api.anthropic.com/v1").
func NewClaudeProvider(cfg types.ProviderConfig) *ClaudeProvider {
	cfg = WithDefaults(cfg)
	var opts []anthropic.ClientOption
	if cfg.BaseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(cfg.BaseURL))
	}
	return &ClaudeProvider{
		name:        cfg.Name,
		client:      anthropic.NewClient(cfg.APIKey, opts...),
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
	}
}

// Name returns the provider label.
func (p *ClaudeProvider) Name() string { return p.name }

// Generate sends prompt as a single user message.
func (p *ClaudeProvider) Generate(ctx context.Context, system, prompt string) (string, error) {
	temp := p.temperature
	resp, err := p.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:  anthropic.Model(p.model),
		System: system,
		Messages: []anthropic.Message{
			{
				Role:    anthropic.RoleUser,
				Content: []anthropic.MessageContent{anthropic.NewTextMessageContent(prompt)},
			},
		},
		MaxTokens:   p.maxTokens,
		Temperature: &temp,
	})
	if err != nil {
		return "", fmt.Errorf("create message: %w", err)
	}

	var sb strings.Builder
	for _, c := range resp.Content {
		if c.Text != nil {
			sb.WriteString(*c.Text)
		}
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
