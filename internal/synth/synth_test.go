// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package synth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/threadseeker/internal/ai"
	"github.com/pdiddy/threadseeker/pkg/types"
)

type fakeProvider struct {
	name   string
	reply  string
	err    error
	prompt string
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Generate(_ context.Context, _, prompt string) (string, error) {
	f.prompt = prompt
	return f.reply, f.err
}

func entry(rank int, r types.ResultRecord) types.RankedEntry {
	return types.RankedEntry{Record: r, Rank: rank, OriginalRank: rank, Score: float64(100 - rank)}
}

func sampleRanked() []types.RankedEntry {
	return []types.RankedEntry{
		entry(1, types.ResultRecord{Source: types.SourceRepo, Identifier: "https://github.com/a/auth", Title: "a/auth", Status: types.StatusActive}),
		entry(2, types.ResultRecord{Source: types.SourceDiscussion, Identifier: "https://reddit.com/1", Title: "Auth in Next", HasWarning: true}),
		entry(3, types.ResultRecord{Source: types.SourceRepo, Identifier: "https://github.com/b/old", Title: "b/old", Status: types.StatusAbandoned}),
		entry(4, types.ResultRecord{Source: types.SourceModel, Identifier: "https://huggingface.co/m", Title: "org/m"}),
		entry(5, types.ResultRecord{Source: types.SourceDiscussion, Identifier: "https://reddit.com/2", Title: "Which auth lib"}),
	}
}

func TestRuleBasedSummary(t *testing.T) {
	got := RuleBasedSummary(Input{Query: "nextjs auth", Ranked: sampleRanked()})
	assert.Equal(t,
		"Search complete: found 2 repositories (1 active), 1 model, 2 discussions (1 with community warnings). Top result: a/auth (repo).",
		got)
}

func TestRuleBasedSummaryEmpty(t *testing.T) {
	got := RuleBasedSummary(Input{Query: "zzz"})
	assert.Equal(t, `No relevant results found for "zzz". Try refining your search with more specific technical terms.`, got)
}

func TestRuleBasedSummaryFallsBackToIdentifier(t *testing.T) {
	ranked := []types.RankedEntry{entry(1, types.ResultRecord{Source: types.SourceModel, Identifier: "https://huggingface.co/x"})}
	got := RuleBasedSummary(Input{Query: "q", Ranked: ranked})
	assert.Equal(t, "Search complete: found 1 model. Top result: https://huggingface.co/x (model).", got)
}

func TestSummarizeUsesPrimary(t *testing.T) {
	primary := &fakeProvider{name: "groq", reply: "  Use a/auth.  "}
	s := New([]ai.Timed{{Provider: primary}}, Options{TopN: 2})

	summary, provider, errs := s.Summarize(context.Background(), Input{Query: "nextjs auth", Ranked: sampleRanked()})
	assert.Equal(t, "Use a/auth.", summary)
	assert.Equal(t, "groq", provider)
	assert.Empty(t, errs)

	assert.Contains(t, primary.prompt, `"nextjs auth"`)
	assert.Contains(t, primary.prompt, "1. [repo] a/auth (active)")
	assert.Contains(t, primary.prompt, "2. [discussion] Auth in Next COMMUNITY WARNING")
	assert.NotContains(t, primary.prompt, "b/old")
}

func TestSummarizePromptQuotesTopComment(t *testing.T) {
	primary := &fakeProvider{name: "groq", reply: "ok"}
	s := New([]ai.Timed{{Provider: primary}}, Options{})

	ranked := []types.RankedEntry{entry(1, types.ResultRecord{
		Source: types.SourceDiscussion, Identifier: "https://reddit.com/3", Title: "lib-x thoughts",
		TopComments: []types.Comment{{Author: "a", Score: 9, Body: "switched to lib-y"}, {Author: "b", Score: 2, Body: "same"}},
	})}
	_, _, _ = s.Summarize(context.Background(), Input{Query: "lib-x", Ranked: ranked})
	assert.Contains(t, primary.prompt, `1. [discussion] lib-x thoughts | Top comment: "switched to lib-y"`)
	assert.NotContains(t, primary.prompt, `"same"`)
}

func TestSummarizeFallsBack(t *testing.T) {
	tests := []struct {
		name      string
		providers []ai.Timed
		wantTier  string
		wantErrs  []string
	}{
		{
			name:     "no providers",
			wantTier: "rule-based",
		},
		{
			name: "primary fails backup answers",
			providers: []ai.Timed{
				{Provider: &fakeProvider{name: "groq", err: errors.New("429")}},
				{Provider: &fakeProvider{name: "gemini", reply: "ok"}},
			},
			wantTier: "gemini",
			wantErrs: []string{"synthesis/groq: 429"},
		},
		{
			name: "all providers fail",
			providers: []ai.Timed{
				{Provider: &fakeProvider{name: "groq", err: errors.New("429")}},
				{Provider: &fakeProvider{name: "gemini", reply: "   "}},
			},
			wantTier: "rule-based",
			wantErrs: []string{"synthesis/groq: 429", "synthesis/gemini: provider returned an empty response"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(tt.providers, Options{Timeout: time.Second})
			summary, provider, errs := s.Summarize(context.Background(), Input{Query: "q", Ranked: sampleRanked()})
			require.NotEmpty(t, summary)
			assert.Equal(t, tt.wantTier, provider)
			assert.Equal(t, tt.wantErrs, errs)
		})
	}
}

func TestSummarizeEmptySkipsProviders(t *testing.T) {
	primary := &fakeProvider{name: "groq", reply: "AI says: great options exist."}
	s := New([]ai.Timed{{Provider: primary}}, Options{})

	summary, provider, errs := s.Summarize(context.Background(), Input{Query: "zzz"})
	assert.Equal(t, RuleBasedSummary(Input{Query: "zzz"}), summary)
	assert.Equal(t, "rule-based", provider)
	assert.Empty(t, errs)
	assert.Empty(t, primary.prompt, "provider must not be called for an empty result set")
}
