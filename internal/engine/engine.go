// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package engine orchestrates one search: cache lookup, intent
// classification, query generation, parallel source fetches, relevance
// scoring, fusion, synthesis and cache write. Only input validation fails a
// request; every other failure is collected into the response's errors.
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/pdiddy/threadseeker/internal/cache"
	"github.com/pdiddy/threadseeker/internal/intent"
	"github.com/pdiddy/threadseeker/internal/querygen"
	"github.com/pdiddy/threadseeker/internal/ranking"
	"github.com/pdiddy/threadseeker/internal/sources"
	"github.com/pdiddy/threadseeker/internal/synth"
	"github.com/pdiddy/threadseeker/pkg/types"
)

var (
	// ErrEmptyQuery is returned for queries that are empty after trimming.
	ErrEmptyQuery = errors.New("query is empty")

	// ErrQueryTooLong is returned for queries over the configured length.
	ErrQueryTooLong = errors.New("query is too long")
)

// Defaults applied by New when Options leaves a field zero.
const (
	DefaultMaxQueryLength    = 1000
	DefaultLimit             = 8
	DefaultFetchTimeout      = 15 * time.Second
	DefaultCacheTTL          = 600 * time.Second
	DefaultTrendingTTL       = 1800 * time.Second
	DefaultTrendingPerSource = 6
)

const (
	searchKeyPrefix = "search:"
	tracerName      = "github.com/pdiddy/threadseeker/internal/engine"
)

// Deps are the collaborators an Engine drives. Nil fields select
// rule-based or disabled defaults.
type Deps struct {
	Classifier  *intent.Classifier
	Generator   *querygen.Generator
	Synthesizer *synth.Synthesizer
	Adapters    []sources.Adapter
	Cache       *cache.Cache
}

// Options tunes an Engine.
type Options struct {
	// MaxQueryLength is the longest accepted trimmed query, in runes.
	MaxQueryLength int

	// Limit is the number of records requested from each adapter.
	Limit int

	// FetchTimeout is the independent budget of each source fetch.
	FetchTimeout time.Duration

	CacheTTL    time.Duration
	TrendingTTL time.Duration

	// TrendingPerSource caps each source list in the trending view.
	TrendingPerSource int

	// Policy overrides ranking.DefaultPolicy when non-nil.
	Policy *ranking.Policy

	// Now supplies the clock for scoring and durations. Defaults to time.Now.
	Now func() time.Time

	Logger *slog.Logger
}

// Engine runs searches. It is safe for concurrent use; the cache is the only
// state shared between requests.
type Engine struct {
	classifier  *intent.Classifier
	generator   *querygen.Generator
	synthesizer *synth.Synthesizer
	adapters    []sources.Adapter
	cache       *cache.Cache

	maxQueryLength    int
	limit             int
	fetchTimeout      time.Duration
	cacheTTL          time.Duration
	trendingTTL       time.Duration
	trendingPerSource int
	policy            ranking.Policy
	now               func() time.Time
	logger            *slog.Logger
	tracer            trace.Tracer

	group singleflight.Group
}

// New returns an engine over deps.
func New(deps Deps, opts Options) *Engine {
	e := &Engine{
		classifier:        deps.Classifier,
		generator:         deps.Generator,
		synthesizer:       deps.Synthesizer,
		adapters:          deps.Adapters,
		cache:             deps.Cache,
		maxQueryLength:    orDefault(opts.MaxQueryLength, DefaultMaxQueryLength),
		limit:             orDefault(opts.Limit, DefaultLimit),
		fetchTimeout:      orDefault(opts.FetchTimeout, DefaultFetchTimeout),
		cacheTTL:          orDefault(opts.CacheTTL, DefaultCacheTTL),
		trendingTTL:       orDefault(opts.TrendingTTL, DefaultTrendingTTL),
		trendingPerSource: orDefault(opts.TrendingPerSource, DefaultTrendingPerSource),
		policy:            ranking.DefaultPolicy(),
		now:               opts.Now,
		logger:            opts.Logger,
		tracer:            otel.Tracer(tracerName),
	}
	if opts.Policy != nil {
		e.policy = *opts.Policy
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	if e.classifier == nil {
		e.classifier = intent.Default()
	}
	if e.generator == nil {
		e.generator = querygen.New(nil, querygen.Options{Now: e.now, Logger: e.logger})
	}
	if e.synthesizer == nil {
		e.synthesizer = synth.New(nil, synth.Options{Logger: e.logger})
	}
	return e
}

func orDefault[T int | time.Duration](v, def T) T {
	if v <= 0 {
		return def
	}
	return v
}

// ValidateQuery trims query and checks it against the length limit.
func (e *Engine) ValidateQuery(query string) (string, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return "", ErrEmptyQuery
	}
	if n := utf8.RuneCountInString(q); n > e.maxQueryLength {
		return "", fmt.Errorf("%w: %d characters, limit %d", ErrQueryTooLong, n, e.maxQueryLength)
	}
	return q, nil
}

// Search returns the response for query, from cache when possible.
func (e *Engine) Search(ctx context.Context, query string) (*types.SearchResponse, error) {
	data, err := e.SearchJSON(ctx, query)
	if err != nil {
		return nil, err
	}
	return decode(data)
}

// SearchJSON returns the serialized response for query. A cache hit returns
// the stored bytes unchanged, so repeated queries within the TTL produce
// byte-identical payloads.
//
// Concurrent misses for the same normalized query share one pipeline run.
// The run is detached from ctx: a caller that gives up gets ctx.Err(), but
// the fetch completes and still populates the cache.
func (e *Engine) SearchJSON(ctx context.Context, query string) ([]byte, error) {
	q, err := e.ValidateQuery(query)
	if err != nil {
		return nil, err
	}
	key := searchKeyPrefix + q

	if data, ok := e.cache.Get(ctx, key); ok {
		e.logger.Info("search served from cache", "query", q)
		return data, nil
	}

	return e.shared(ctx, cache.NormalizeKey(key), func(runCtx context.Context) ([]byte, error) {
		resp := e.run(runCtx, q)
		data, err := json.Marshal(resp)
		if err != nil {
			return nil, fmt.Errorf("encoding response: %w", err)
		}
		if e.cacheable(resp) {
			e.cache.Set(runCtx, key, data, e.cacheTTL)
		}
		return data, nil
	})
}

// shared runs fn once per key across concurrent callers on a context that
// ignores the caller's cancellation.
func (e *Engine) shared(ctx context.Context, key string, fn func(context.Context) ([]byte, error)) ([]byte, error) {
	runCtx := context.WithoutCancel(ctx)
	ch := e.group.DoChan(key, func() (any, error) {
		return fn(runCtx)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		if r.Shared {
			e.logger.Debug("joined in-flight search", "key", key)
		}
		return r.Val.([]byte), nil
	}
}

// cacheable reports whether resp should be stored. A response where every
// source failed is not cached so the next request tries upstream again.
func (e *Engine) cacheable(resp *types.SearchResponse) bool {
	if len(e.adapters) == 0 {
		return true
	}
	failed := 0
	for _, a := range e.adapters {
		if list, ok := resp.Results[a.Source()]; !ok || list == nil {
			failed++
		}
	}
	return failed < len(e.adapters)
}

// run executes the uncached pipeline. It never fails: upstream, AI and
// cache problems end up in the response's errors.
func (e *Engine) run(ctx context.Context, q string) *types.SearchResponse {
	start := e.now()
	ctx, span := e.tracer.Start(ctx, "engine.search", trace.WithAttributes(attribute.String("query", q)))
	defer span.End()

	in := e.classifier.Classify(q)
	span.SetAttributes(attribute.String("intent", string(in.Intent)))

	queries, genErrs := e.generator.Generate(ctx, q, in)

	fetched, fetchErrs := e.fetch(ctx, queries, e.limit)
	results, ranked := e.rank(fetched, q, in.SourceWeights)

	summary, provider, synthErrs := e.synthesizer.Summarize(ctx, synth.Input{Query: q, Ranked: ranked})

	errs := make([]string, 0, len(genErrs)+len(fetchErrs)+len(synthErrs))
	errs = append(errs, genErrs...)
	errs = append(errs, fetchErrs...)
	errs = append(errs, synthErrs...)

	resp := &types.SearchResponse{
		Query:           q,
		Results:         results,
		Ranked:          ranked,
		Intent:          in.Intent,
		SourceWeights:   in.SourceWeights,
		Queries:         queries,
		Summary:         summary,
		SummaryProvider: provider,
		DurationMS:      e.now().Sub(start).Milliseconds(),
		Errors:          errs,
	}

	span.SetAttributes(
		attribute.Int("ranked", len(ranked)),
		attribute.Int("errors", len(errs)),
	)
	e.logger.Info("search complete",
		"query", q,
		"intent", in.Intent,
		"ranked", len(ranked),
		"errors", len(errs),
		"query_provider", queries.Provider,
		"summary_provider", provider,
		"duration_ms", resp.DurationMS)
	return resp
}

// rank dedupes fetched records across sources, orders each source by
// relevance and fuses them. Sources that failed stay absent from results.
func (e *Engine) rank(fetched map[types.Source][]types.ResultRecord, q string, weights map[types.Source]float64) (map[types.Source][]types.ResultRecord, []types.RankedEntry) {
	deduped, removed := ranking.Dedupe(fetched)
	if removed > 0 {
		e.logger.Debug("removed duplicate records", "count", removed)
	}

	scorer := ranking.NewScorer(e.policy, e.now())
	perSource := make(map[types.Source][]ranking.Scored, len(deduped))
	results := make(map[types.Source][]types.ResultRecord, len(deduped))
	for _, src := range types.AllSources {
		records, ok := deduped[src]
		if !ok {
			continue
		}
		scored := ranking.ScoreSource(scorer, records, q, weights[src])
		perSource[src] = scored
		results[src] = ranking.Records(scored)
	}
	return results, ranking.Fuse(perSource, weights, e.policy)
}

// Health describes the engine's configured collaborators.
type Health struct {
	Sources            []string    `json:"sources"`
	QueryProviders     []string    `json:"query_providers"`
	SynthesisProviders []string    `json:"synthesis_providers"`
	Cache              cache.Stats `json:"cache"`
}

// Health reports adapters, AI tiers and cache counters.
func (e *Engine) Health() Health {
	h := Health{
		Sources:            make([]string, 0, len(e.adapters)),
		QueryProviders:     e.generator.Tiers(),
		SynthesisProviders: e.synthesizer.Tiers(),
		Cache:              e.cache.Stats(),
	}
	for _, a := range e.adapters {
		h.Sources = append(h.Sources, a.Name())
	}
	return h
}

func decode(data []byte) (*types.SearchResponse, error) {
	var resp types.SearchResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return &resp, nil
}
