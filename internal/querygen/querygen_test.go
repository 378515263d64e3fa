// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package querygen

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/threadseeker/internal/ai"
	"github.com/pdiddy/threadseeker/pkg/types"
)

var fixedNow = time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

// fakeProvider returns a canned reply or error and counts calls.
type fakeProvider struct {
	name   string
	reply  string
	err    error
	delay  time.Duration
	calls  int
	prompt string
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Generate(ctx context.Context, _, prompt string) (string, error) {
	f.calls++
	f.prompt = prompt
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.reply, f.err
}

const goodReply = `Here you go:
{"repo_query": "nextjs auth 2026 active", "model_query": "auth model latest", "discussion_query": "nextjs auth 2026", "reasoning": "recency"}`

var projectIntent = types.IntentResult{
	Intent:        types.IntentProjectSearch,
	SourceWeights: map[types.Source]float64{types.SourceRepo: 0.7, types.SourceDiscussion: 0.2, types.SourceModel: 0.1},
}

func TestGeneratePrimarySucceeds(t *testing.T) {
	primary := &fakeProvider{name: "groq", reply: goodReply}
	backup := &fakeProvider{name: "gemini", reply: goodReply}
	g := New([]ai.Timed{{Provider: primary}, {Provider: backup}}, Options{Now: clock})

	q, errs := g.Generate(context.Background(), "nextjs authentication project", projectIntent)
	assert.Empty(t, errs)
	assert.Equal(t, "groq", q.Provider)
	assert.Equal(t, "nextjs auth 2026 active", q.Queries[types.SourceRepo])
	assert.Equal(t, "recency", q.Reasoning)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 0, backup.calls)
	assert.Contains(t, primary.prompt, `"nextjs authentication project"`)
	assert.Contains(t, primary.prompt, "May 2026")
	assert.Contains(t, primary.prompt, "project_search")
}

func TestGenerateCascades(t *testing.T) {
	tests := []struct {
		name      string
		primary   *fakeProvider
		backup    *fakeProvider
		wantTier  string
		wantErrs  int
		errSubstr string
	}{
		{
			name:      "primary error",
			primary:   &fakeProvider{name: "groq", err: errors.New("quota exceeded")},
			backup:    &fakeProvider{name: "gemini", reply: goodReply},
			wantTier:  "gemini",
			wantErrs:  1,
			errSubstr: "querygen/groq: quota exceeded",
		},
		{
			name:      "primary malformed",
			primary:   &fakeProvider{name: "groq", reply: "I cannot help with that"},
			backup:    &fakeProvider{name: "gemini", reply: goodReply},
			wantTier:  "gemini",
			wantErrs:  1,
			errSubstr: "no JSON object",
		},
		{
			name:      "primary missing field",
			primary:   &fakeProvider{name: "groq", reply: `{"repo_query": "x", "model_query": "y"}`},
			backup:    &fakeProvider{name: "gemini", reply: goodReply},
			wantTier:  "gemini",
			wantErrs:  1,
			errSubstr: "empty discussion query",
		},
		{
			name:      "both fail",
			primary:   &fakeProvider{name: "groq", err: errors.New("down")},
			backup:    &fakeProvider{name: "gemini", reply: "{not json}"},
			wantTier:  "rule-based",
			wantErrs:  2,
			errSubstr: "querygen/gemini",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New([]ai.Timed{{Provider: tt.primary}, {Provider: tt.backup}}, Options{Now: clock})
			q, errs := g.Generate(context.Background(), "nextjs authentication project", projectIntent)
			assert.Equal(t, tt.wantTier, q.Provider)
			require.Len(t, errs, tt.wantErrs)
			assert.Contains(t, strings.Join(errs, "\n"), tt.errSubstr)
			require.NoError(t, Validate(q, DefaultMaxLength))
		})
	}
}

func TestGeneratePrimaryTimeout(t *testing.T) {
	slow := &fakeProvider{name: "groq", reply: goodReply, delay: time.Second}
	g := New([]ai.Timed{{Provider: slow, Timeout: 20 * time.Millisecond}}, Options{Now: clock})

	start := time.Now()
	q, errs := g.Generate(context.Background(), "rust web framework", projectIntent)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.Equal(t, "rule-based", q.Provider)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "deadline exceeded")
}

func TestGenerateNoProviders(t *testing.T) {
	g := New(nil, Options{Now: clock})
	q, errs := g.Generate(context.Background(), "rust web framework", projectIntent)
	assert.Nil(t, errs)
	assert.Equal(t, "rule-based", q.Provider)
}

func TestGenerateRejectsOverlongAIQuery(t *testing.T) {
	long := `{"repo_query": "` + strings.Repeat("a", 40) + `", "model_query": "m", "discussion_query": "d"}`
	g := New([]ai.Timed{{Provider: &fakeProvider{name: "groq", reply: long}}}, Options{Now: clock, MaxLength: 32})

	q, errs := g.Generate(context.Background(), "vector database", projectIntent)
	assert.Equal(t, "rule-based", q.Provider)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "longer than 32")
}

func TestRuleBased(t *testing.T) {
	q := RuleBased("Best vector database for Python apps", fixedNow, DefaultMaxLength)
	assert.Equal(t, "python best vector database apps 2026 active", q.Queries[types.SourceRepo])
	assert.Equal(t, "python best vector database apps 2026 latest", q.Queries[types.SourceModel])
	assert.Equal(t, "Best vector database for Python apps 2026", q.Queries[types.SourceDiscussion])
	assert.Contains(t, q.Reasoning, "2026")
	require.NoError(t, Validate(q, DefaultMaxLength))
}

func TestRuleBasedOnlyStopwords(t *testing.T) {
	q := RuleBased("how to do it", fixedNow, DefaultMaxLength)
	assert.Equal(t, "how to do it 2026 active", q.Queries[types.SourceRepo])
	require.NoError(t, Validate(q, DefaultMaxLength))
}

func TestRuleBasedAlwaysValid(t *testing.T) {
	queries := []string{
		"",
		"   ",
		"x",
		strings.Repeat("kubernetes operator ", 100),
		strings.Repeat("日本語 ", 200),
		strings.Repeat("a", 1000),
	}
	for _, query := range queries {
		for _, maxLen := range []int{8, 32, DefaultMaxLength} {
			q := RuleBased(query, fixedNow, maxLen)
			require.NoError(t, Validate(q, maxLen), "query %q maxLen %d", query, maxLen)
			for _, s := range q.Queries {
				assert.LessOrEqual(t, utf8.RuneCountInString(s), maxLen)
			}
		}
	}
}

func TestValidate(t *testing.T) {
	valid := types.GeneratedQueries{Queries: map[types.Source]string{
		types.SourceRepo: "a", types.SourceModel: "b", types.SourceDiscussion: "c",
	}}
	require.NoError(t, Validate(valid, 10))

	missing := types.GeneratedQueries{Queries: map[types.Source]string{types.SourceRepo: "a"}}
	assert.ErrorIs(t, Validate(missing, 10), ErrInvalidQuery)

	blank := types.GeneratedQueries{Queries: map[types.Source]string{
		types.SourceRepo: "a", types.SourceModel: "  ", types.SourceDiscussion: "c",
	}}
	assert.ErrorIs(t, Validate(blank, 10), ErrInvalidQuery)
}
