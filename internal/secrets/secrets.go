// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API keys and credentials from a directory of plain-text files.
// Each file in the directory represents one secret: the filename is the key name and the
// file contents (trimmed) are the value.
//
// Recognized key files: groq-api-key, openai-api-key, gemini-api-key,
// anthropic-api-key, github-token, redis-password.
package secrets

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/threadseeker/pkg/types"
)

// Key file names.
const (
	GroqAPIKey      = "groq-api-key"
	OpenAIAPIKey    = "openai-api-key"
	GeminiAPIKey    = "gemini-api-key"
	AnthropicAPIKey = "anthropic-api-key"
	GitHubToken     = "github-token"
	RedisPassword   = "redis-password"
)

// providerKeys maps provider kinds to the secret holding their API key.
var providerKeys = map[types.ProviderKind]string{
	types.ProviderGroq:   GroqAPIKey,
	types.ProviderOpenAI: OpenAIAPIKey,
	types.ProviderGemini: GeminiAPIKey,
	types.ProviderClaude: AnthropicAPIKey,
}

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory or missing files are not errors; Load returns an empty map.
// Unreadable files are logged and skipped.
func Load(dir string, logger *slog.Logger) (map[string]string, error) {
	if logger == nil {
		logger = slog.Default()
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			logger.Warn("could not read secret", "name", name, "error", err)
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// Apply fills empty credential fields in cfg from secrets. Values already set
// by the config file or environment win.
func Apply(cfg *types.Config, secrets map[string]string) {
	for i := range cfg.AI.Providers {
		p := &cfg.AI.Providers[i]
		if p.APIKey != "" {
			continue
		}
		if name, ok := providerKeys[p.Kind]; ok {
			p.APIKey = secrets[name]
		}
	}
	if cfg.Sources.GitHubToken == "" {
		cfg.Sources.GitHubToken = secrets[GitHubToken]
	}
	if cfg.Cache.RedisPassword == "" {
		cfg.Cache.RedisPassword = secrets[RedisPassword]
	}
}
