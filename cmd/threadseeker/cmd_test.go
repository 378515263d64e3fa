// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/threadseeker/pkg/types"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestBuildAppSkipsProvidersWithoutKeys(t *testing.T) {
	cfg := types.DefaultConfig()
	cfg.Cache.Backend = types.CacheNone
	cfg.AI.Providers = []types.ProviderConfig{
		{Kind: types.ProviderGroq},
		{Kind: types.ProviderOllama, Name: "local"},
	}

	a, err := buildApp(context.Background(), cfg, discardLogger())
	require.NoError(t, err)
	defer a.Close()

	h := a.engine.Health()
	assert.Equal(t, []string{"local"}, h.QueryProviders)
	assert.Equal(t, []string{"github", "huggingface", "reddit"}, h.Sources)
	assert.Equal(t, "none", h.Cache.Backend)
}

func TestBuildAppRunsUncachedWhenRedisIsDown(t *testing.T) {
	cfg := types.DefaultConfig()
	cfg.Cache.Backend = types.CacheRedis
	cfg.Cache.RedisAddr = "127.0.0.1:1"

	a, err := buildApp(context.Background(), cfg, discardLogger())
	require.NoError(t, err)
	require.NotNil(t, a)
	defer a.Close()

	assert.Equal(t, "none", a.engine.Health().Cache.Backend)
}

func TestBuildAppErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*types.Config)
		wantErr string
	}{
		{"missing policy file", func(c *types.Config) { c.Engine.PolicyFile = "/nonexistent/policy.yaml" }, "reading policy"},
		{"bad intent weights", func(c *types.Config) {
			c.Engine.IntentWeights = map[types.Intent]map[types.Source]float64{
				types.IntentGeneral: {types.SourceRepo: 0.9},
			}
		}, "invalid intent weights"},
		{"unknown cache", func(c *types.Config) { c.Cache.Backend = "memcached" }, "unknown cache backend"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := types.DefaultConfig()
			cfg.Cache.Backend = types.CacheNone
			tt.mutate(&cfg)
			_, err := buildApp(context.Background(), cfg, discardLogger())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestWriteResponse(t *testing.T) {
	resp := &types.SearchResponse{
		Query:  "nextjs auth",
		Intent: types.IntentProjectSearch,
		Ranked: []types.RankedEntry{{
			Rank:  1,
			Score: 88.5,
			Record: types.ResultRecord{
				Source: types.SourceRepo, Title: "acme/next-auth", Identifier: "https://github.com/acme/next-auth",
				Stars: 1200, Status: types.StatusActive,
			},
		}},
		Summary:         "Search complete.",
		SummaryProvider: "rule-based",
		Errors:          []string{"reddit: timed out after 15s: context deadline exceeded"},
	}

	var table bytes.Buffer
	require.NoError(t, writeResponse(&table, resp, formatTable))
	out := table.String()
	assert.Contains(t, out, "acme/next-auth")
	assert.Contains(t, out, "1200★ active")
	assert.Contains(t, out, "Summary (rule-based):")
	assert.Contains(t, out, "  - reddit: timed out")

	var js bytes.Buffer
	require.NoError(t, writeResponse(&js, resp, formatJSON))
	assert.Contains(t, js.String(), `"query": "nextjs auth"`)

	var y bytes.Buffer
	require.NoError(t, writeResponse(&y, resp, formatYAML))
	assert.Contains(t, y.String(), "query: nextjs auth")

	var empty bytes.Buffer
	require.NoError(t, writeResponse(&empty, &types.SearchResponse{Query: "x"}, formatTable))
	assert.Contains(t, empty.String(), "No results found.")
}

func TestCheckFormat(t *testing.T) {
	assert.NoError(t, checkFormat("json"))
	assert.Error(t, checkFormat("xml"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab...", truncate("abcdefgh", 5))
}
