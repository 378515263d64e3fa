// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package querygen turns a user query into one search string per source.
// AI providers are tried in order; a deterministic rule-based generator is
// the last tier and always succeeds.
package querygen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/pdiddy/threadseeker/internal/ai"
	"github.com/pdiddy/threadseeker/internal/failover"
	"github.com/pdiddy/threadseeker/internal/ranking"
	"github.com/pdiddy/threadseeker/pkg/types"
)

// ErrInvalidQuery marks generated output that failed validation.
var ErrInvalidQuery = errors.New("invalid generated query")

// Stage labels query generation failures.
const Stage = "querygen"

// DefaultMaxLength caps each generated query when no limit is configured.
const DefaultMaxLength = 256

// Request is the input to one generation.
type Request struct {
	Query  string
	Intent types.IntentResult
}

// Options configures a Generator.
type Options struct {
	// MaxLength caps each per-source query (default DefaultMaxLength).
	MaxLength int

	// Timeout bounds each provider call when the provider has no own timeout.
	Timeout time.Duration

	// Now supplies the clock for recency markers. Defaults to time.Now.
	Now func() time.Time

	Logger *slog.Logger
}

// Generator produces per-source queries through a failover chain.
type Generator struct {
	chain  *failover.Chain[Request, types.GeneratedQueries]
	maxLen int
	now    func() time.Time
	logger *slog.Logger
}

// New builds a generator that tries providers in order before falling back
// to RuleBased.
func New(providers []ai.Timed, opts Options) *Generator {
	g := &Generator{
		maxLen: opts.MaxLength,
		now:    opts.Now,
		logger: opts.Logger,
	}
	if g.maxLen <= 0 {
		g.maxLen = DefaultMaxLength
	}
	if g.now == nil {
		g.now = time.Now
	}
	if g.logger == nil {
		g.logger = slog.Default()
	}

	tiers := make([]failover.Tier[Request, types.GeneratedQueries], 0, len(providers))
	for _, p := range providers {
		tiers = append(tiers, failover.Tier[Request, types.GeneratedQueries]{
			Name:    p.Name(),
			Attempt: g.aiTier(p.Provider),
			Timeout: p.Timeout,
		})
	}

	terminal := func(r Request) types.GeneratedQueries {
		return RuleBased(r.Query, g.now(), g.maxLen)
	}
	// terminal is non-nil so New cannot fail.
	g.chain, _ = failover.New(failover.Options{
		Stage:   Stage,
		Timeout: opts.Timeout,
		Logger:  g.logger,
	}, terminal, tiers...)
	return g
}

// Generate returns per-source queries and the failures of any tier tried
// before the one that succeeded, formatted as "querygen/<tier>: <error>".
func (g *Generator) Generate(ctx context.Context, query string, intent types.IntentResult) (types.GeneratedQueries, []string) {
	out := g.chain.Run(ctx, Request{Query: query, Intent: intent})
	q := out.Value
	q.Provider = out.Tier
	g.logger.Debug("generated queries", "provider", q.Provider,
		"repo", q.Queries[types.SourceRepo],
		"model", q.Queries[types.SourceModel],
		"discussion", q.Queries[types.SourceDiscussion])
	return q, out.Errors()
}

// Tiers names the AI providers tried before the rule-based fallback.
func (g *Generator) Tiers() []string { return g.chain.Tiers() }

// aiResponse is the JSON object providers are asked to return.
type aiResponse struct {
	RepoQuery       string `json:"repo_query"`
	ModelQuery      string `json:"model_query"`
	DiscussionQuery string `json:"discussion_query"`
	Reasoning       string `json:"reasoning"`
}

func (g *Generator) aiTier(p ai.Provider) func(context.Context, Request) (types.GeneratedQueries, error) {
	return func(ctx context.Context, r Request) (types.GeneratedQueries, error) {
		now := g.now()
		guidance, ok := intentGuidance[r.Intent.Intent]
		if !ok {
			guidance = intentGuidance[types.IntentGeneral]
		}
		prompt, err := renderPrompt(promptData{
			Query:    r.Query,
			Intent:   r.Intent.Intent,
			Guidance: guidance,
			Month:    now.Format("January 2006"),
			Year:     now.Year(),
			MaxLen:   g.maxLen,
		})
		if err != nil {
			return types.GeneratedQueries{}, fmt.Errorf("rendering prompt: %w", err)
		}

		text, err := p.Generate(ctx, systemPrompt, prompt)
		if err != nil {
			return types.GeneratedQueries{}, err
		}
		return ParseResponse(text, g.maxLen)
	}
}

// ParseResponse extracts and validates the provider's JSON answer.
func ParseResponse(text string, maxLen int) (types.GeneratedQueries, error) {
	obj, err := ai.ExtractJSONObject(text)
	if err != nil {
		return types.GeneratedQueries{}, err
	}
	var resp aiResponse
	if err := json.Unmarshal([]byte(obj), &resp); err != nil {
		return types.GeneratedQueries{}, fmt.Errorf("parsing provider JSON: %w", err)
	}

	q := types.GeneratedQueries{
		Queries: map[types.Source]string{
			types.SourceRepo:       strings.TrimSpace(resp.RepoQuery),
			types.SourceModel:      strings.TrimSpace(resp.ModelQuery),
			types.SourceDiscussion: strings.TrimSpace(resp.DiscussionQuery),
		},
		Reasoning: strings.TrimSpace(resp.Reasoning),
	}
	if err := Validate(q, maxLen); err != nil {
		return types.GeneratedQueries{}, err
	}
	return q, nil
}

// Validate checks that every source has a non-empty query of at most maxLen
// characters.
func Validate(q types.GeneratedQueries, maxLen int) error {
	for _, src := range types.AllSources {
		s := strings.TrimSpace(q.Queries[src])
		if s == "" {
			return fmt.Errorf("%w: empty %s query", ErrInvalidQuery, src)
		}
		if maxLen > 0 && utf8.RuneCountInString(s) > maxLen {
			return fmt.Errorf("%w: %s query longer than %d characters", ErrInvalidQuery, src, maxLen)
		}
	}
	return nil
}

// techVocabulary lists languages and frameworks recognized in queries.
// Recognized terms lead the repository query.
var techVocabulary = map[string]bool{
	"python": true, "javascript": true, "typescript": true, "java": true,
	"go": true, "golang": true, "rust": true, "c++": true, "cpp": true,
	"c#": true, "ruby": true, "php": true, "kotlin": true, "swift": true,
	"scala": true, "elixir": true, "haskell": true, "dart": true, "zig": true,
	"react": true, "nextjs": true, "vue": true, "svelte": true, "angular": true,
	"django": true, "flask": true, "fastapi": true, "rails": true, "spring": true,
	"express": true, "node": true, "nodejs": true, "deno": true, "flutter": true,
	"pytorch": true, "tensorflow": true, "jax": true, "langchain": true,
	"docker": true, "kubernetes": true, "terraform": true, "postgres": true,
	"postgresql": true, "redis": true, "sqlite": true, "mongodb": true,
	"graphql": true, "grpc": true, "wasm": true, "webassembly": true,
	"llm": true, "rag": true, "transformers": true,
}

// RuleBased derives per-source queries from the user query without any
// provider. It recognizes technology terms, keeps the remaining keywords and
// appends the current year as a recency marker.
func RuleBased(query string, now time.Time, maxLen int) types.GeneratedQueries {
	if maxLen <= 0 {
		maxLen = DefaultMaxLength
	}
	year := strconv.Itoa(now.Year())
	query = strings.Join(strings.Fields(query), " ")

	keywords := ranking.Keywords(query)
	var tech, rest []string
	for _, k := range keywords {
		if techVocabulary[k] {
			tech = append(tech, k)
		} else {
			rest = append(rest, k)
		}
	}
	terms := strings.Join(append(tech, rest...), " ")
	if terms == "" {
		terms = query
	}

	return types.GeneratedQueries{
		Queries: map[types.Source]string{
			types.SourceRepo:       withSuffix(terms, year+" active", maxLen),
			types.SourceModel:      withSuffix(terms, year+" latest", maxLen),
			types.SourceDiscussion: withSuffix(query, year, maxLen),
		},
		Reasoning: fmt.Sprintf("Rule-based queries built from recognized technology terms and keywords, with %s as the recency marker.", year),
	}
}

// withSuffix appends suffix to base, shortening base at a word boundary so
// the result fits in maxLen characters.
func withSuffix(base, suffix string, maxLen int) string {
	room := maxLen - utf8.RuneCountInString(suffix) - 1
	if room <= 0 {
		return truncateWords(suffix, maxLen)
	}
	base = truncateWords(base, room)
	if base == "" {
		return suffix
	}
	return base + " " + suffix
}

// truncateWords shortens s to at most n characters, cutting at the last
// space when one exists.
func truncateWords(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	cut := string(runes[:n])
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimSpace(cut)
}
