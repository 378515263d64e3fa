// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package engine

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pdiddy/threadseeker/pkg/types"
)

const trendingKey = "trending"

// trendingQueries returns the fixed platform queries for the trending view.
func trendingQueries(year int) types.GeneratedQueries {
	return types.GeneratedQueries{
		Queries: map[types.Source]string{
			types.SourceRepo:       fmt.Sprintf("stars:>500 pushed:>%d-01-01", year),
			types.SourceModel:      "llm",
			types.SourceDiscussion: fmt.Sprintf("(subreddit:programming OR subreddit:webdev) %d", year),
		},
		Reasoning: "fixed trending queries",
		Provider:  "trending",
	}
}

// Trending returns popular recent projects, models and discussions. It is
// cached separately from searches with its own TTL.
func (e *Engine) Trending(ctx context.Context) (*types.SearchResponse, error) {
	data, err := e.TrendingJSON(ctx)
	if err != nil {
		return nil, err
	}
	return decode(data)
}

// TrendingJSON returns the serialized trending view.
func (e *Engine) TrendingJSON(ctx context.Context) ([]byte, error) {
	if data, ok := e.cache.Get(ctx, trendingKey); ok {
		return data, nil
	}
	return e.shared(ctx, trendingKey, func(runCtx context.Context) ([]byte, error) {
		resp := e.trending(runCtx)
		data, err := json.Marshal(resp)
		if err != nil {
			return nil, fmt.Errorf("encoding trending: %w", err)
		}
		if e.cacheable(resp) {
			e.cache.Set(runCtx, trendingKey, data, e.trendingTTL)
		}
		return data, nil
	})
}

func (e *Engine) trending(ctx context.Context) *types.SearchResponse {
	start := e.now()
	ctx, span := e.tracer.Start(ctx, "engine.trending")
	defer span.End()

	queries := trendingQueries(start.Year())
	// Fetch twice the kept count so dropping flagged discussions still
	// leaves a full list.
	fetched, errs := e.fetch(ctx, queries, e.trendingFetchLimit())

	for src, records := range fetched {
		if src == types.SourceDiscussion {
			records = withoutWarnings(records)
		}
		if len(records) > e.trendingPerSource {
			records = records[:e.trendingPerSource]
		}
		fetched[src] = records
	}

	weights := e.classifier.Weights(types.IntentGeneral)
	results, ranked := e.rank(fetched, "", weights)
	if errs == nil {
		errs = []string{}
	}

	return &types.SearchResponse{
		Query:           trendingKey,
		Results:         results,
		Ranked:          ranked,
		Intent:          types.IntentGeneral,
		SourceWeights:   weights,
		Queries:         queries,
		Summary:         fmt.Sprintf("Explore trending projects, models, and discussions from %s %d.", start.Month(), start.Year()),
		SummaryProvider: "template",
		DurationMS:      e.now().Sub(start).Milliseconds(),
		Errors:          errs,
	}
}

func (e *Engine) trendingFetchLimit() int {
	return max(e.limit, 2*e.trendingPerSource)
}

func withoutWarnings(records []types.ResultRecord) []types.ResultRecord {
	kept := make([]types.ResultRecord, 0, len(records))
	for _, r := range records {
		if !r.HasWarning {
			kept = append(kept, r)
		}
	}
	return kept
}
