// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package sources implements the platform adapters that turn a generated
// sub-query into normalized result records: GitHub repositories, Hugging
// Face models and Reddit discussions. Each adapter issues at most one
// upstream request per search and reports failures as errors; it never
// panics past its boundary.
package sources

import (
	"context"
	"log/slog"
	"time"

	"github.com/pdiddy/threadseeker/internal/httputil"
	"github.com/pdiddy/threadseeker/pkg/types"
)

// Adapter searches one platform.
type Adapter interface {
	// Name labels the adapter in logs and error strings.
	Name() string

	// Source is the record kind the adapter produces.
	Source() types.Source

	// Search returns at most limit records for query.
	Search(ctx context.Context, query string, limit int) ([]types.ResultRecord, error)
}

// Status age thresholds for repositories.
const (
	activeWithin     = 30 * 24 * time.Hour
	maintainedWithin = 180 * 24 * time.Hour
	staleWithin      = 730 * 24 * time.Hour
)

// descriptionLimit caps descriptions copied from upstream payloads.
const descriptionLimit = 300

// New builds the adapters enabled in cfg, in canonical source order. Each
// adapter gets its own HTTP client so rate limits are tracked per platform.
func New(cfg types.SourcesConfig, logger *slog.Logger) []Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	var adapters []Adapter
	if cfg.EnableGitHub {
		adapters = append(adapters, &GitHubAdapter{
			Client: httputil.NewClient(cfg.HTTPConfig, cfg.RequestsPerMinute),
			Token:  cfg.GitHubToken,
			Logger: logger,
		})
	}
	if cfg.EnableHuggingFace {
		adapters = append(adapters, &HuggingFaceAdapter{
			Client: httputil.NewClient(cfg.HTTPConfig, cfg.RequestsPerMinute),
			Logger: logger,
		})
	}
	if cfg.EnableReddit {
		adapters = append(adapters, &RedditAdapter{
			Client:         httputil.NewClient(cfg.HTTPConfig, cfg.RequestsPerMinute),
			CommentThreads: cfg.RedditCommentThreads,
			Logger:         logger,
		})
	}
	return adapters
}

// StatusFromAge derives a repository status from its last push time. A zero
// time yields StatusUnknown.
func StatusFromAge(updated, now time.Time) types.ProjectStatus {
	if updated.IsZero() {
		return types.StatusUnknown
	}
	age := now.Sub(updated)
	switch {
	case age <= activeWithin:
		return types.StatusActive
	case age <= maintainedWithin:
		return types.StatusMaintained
	case age <= staleWithin:
		return types.StatusStale
	default:
		return types.StatusAbandoned
	}
}

func clampLimit(limit, max int) int {
	if limit <= 0 {
		return 8
	}
	if limit > max {
		return max
	}
	return limit
}

// truncate shortens s to at most n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func nonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
