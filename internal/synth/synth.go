// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package synth writes the short verdict attached to every search response.
// Providers are tried in order; a template summary is the last tier.
package synth

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"text/template"
	"time"

	"github.com/pdiddy/threadseeker/internal/ai"
	"github.com/pdiddy/threadseeker/internal/failover"
	"github.com/pdiddy/threadseeker/pkg/types"
)

// Stage labels synthesis failures.
const Stage = "synthesis"

// DefaultTopN is the number of ranked entries shown to providers.
const DefaultTopN = 5

const systemPrompt = "You are a real-time technical research advisor. Synthesize findings into actionable insight and say how recent the information is."

var synthPromptTmpl = template.Must(template.New("synth").Parse(`You are helping a developer find existing solutions using real-time data.

USER QUERY: "{{.Query}}"

Top results, ranked by relevance across code repositories, models and discussions:
{{- range .Entries}}
{{.Rank}}. [{{.Record.Source}}] {{.Record.Title}}{{with .Record.Status}} ({{.}}){{end}}{{if .Record.HasWarning}} COMMUNITY WARNING{{end}}{{with .Record.Description}}: {{.}}{{end}}{{with .Record.TopComments}} | Top comment: "{{(index . 0).Body}}"{{end}}
{{- end}}

In 3-4 sentences: is there a strong existing solution to build on, what is the best starting point among the top results, are there community warnings or recent trends, and how fresh is this information? Start with the bottom line.
`))

// Input is what a synthesizer summarizes.
type Input struct {
	Query  string
	Ranked []types.RankedEntry
}

// Options configures a Synthesizer.
type Options struct {
	// TopN limits the entries sent to providers (default DefaultTopN).
	TopN int

	// Timeout bounds each provider call when the provider has no own timeout.
	Timeout time.Duration

	Logger *slog.Logger
}

// Synthesizer produces summaries through a failover chain.
type Synthesizer struct {
	chain *failover.Chain[Input, string]
	topN  int
}

// New builds a synthesizer that tries providers in order before falling
// back to RuleBasedSummary.
func New(providers []ai.Timed, opts Options) *Synthesizer {
	s := &Synthesizer{topN: opts.TopN}
	if s.topN <= 0 {
		s.topN = DefaultTopN
	}

	tiers := make([]failover.Tier[Input, string], 0, len(providers))
	for _, p := range providers {
		tiers = append(tiers, failover.Tier[Input, string]{
			Name:    p.Name(),
			Attempt: s.aiTier(p.Provider),
			Timeout: p.Timeout,
		})
	}
	s.chain, _ = failover.New(failover.Options{
		Stage:   Stage,
		Timeout: opts.Timeout,
		Logger:  opts.Logger,
	}, RuleBasedSummary, tiers...)
	return s
}

// Summarize returns the summary, the tier that wrote it, and the failures of
// tiers tried before it. An empty ranked list always gets the rule-based
// no-results summary without consulting any provider.
func (s *Synthesizer) Summarize(ctx context.Context, in Input) (summary, provider string, errs []string) {
	if len(in.Ranked) == 0 {
		return RuleBasedSummary(in), failover.DefaultTerminalName, nil
	}
	out := s.chain.Run(ctx, in)
	return out.Value, out.Tier, out.Errors()
}

// Tiers names the AI providers tried before the rule-based summary.
func (s *Synthesizer) Tiers() []string { return s.chain.Tiers() }

func (s *Synthesizer) aiTier(p ai.Provider) func(context.Context, Input) (string, error) {
	return func(ctx context.Context, in Input) (string, error) {
		entries := in.Ranked
		if len(entries) > s.topN {
			entries = entries[:s.topN]
		}
		var buf bytes.Buffer
		err := synthPromptTmpl.Execute(&buf, struct {
			Query   string
			Entries []types.RankedEntry
		}{in.Query, entries})
		if err != nil {
			return "", fmt.Errorf("rendering prompt: %w", err)
		}

		text, err := p.Generate(ctx, systemPrompt, buf.String())
		if err != nil {
			return "", err
		}
		text = strings.TrimSpace(text)
		if text == "" {
			return "", ai.ErrEmptyResponse
		}
		return text, nil
	}
}

// RuleBasedSummary builds a template summary from the ranked list. It never
// fails and never returns an empty string.
func RuleBasedSummary(in Input) string {
	if len(in.Ranked) == 0 {
		return fmt.Sprintf("No relevant results found for %q. Try refining your search with more specific technical terms.", in.Query)
	}

	var repos, active, models, discussions, warnings int
	for _, e := range in.Ranked {
		switch e.Record.Source {
		case types.SourceRepo:
			repos++
			if e.Record.Status == types.StatusActive {
				active++
			}
		case types.SourceModel:
			models++
		case types.SourceDiscussion:
			discussions++
			if e.Record.HasWarning {
				warnings++
			}
		}
	}

	var parts []string
	if repos > 0 {
		p := plural(repos, "repository", "repositories")
		if active > 0 {
			p += fmt.Sprintf(" (%d active)", active)
		}
		parts = append(parts, p)
	}
	if models > 0 {
		parts = append(parts, plural(models, "model", "models"))
	}
	if discussions > 0 {
		p := plural(discussions, "discussion", "discussions")
		if warnings > 0 {
			p += fmt.Sprintf(" (%d with community warnings)", warnings)
		}
		parts = append(parts, p)
	}

	top := in.Ranked[0].Record
	title := top.Title
	if title == "" {
		title = top.Identifier
	}
	return fmt.Sprintf("Search complete: found %s. Top result: %s (%s).",
		strings.Join(parts, ", "), title, top.Source)
}

func plural(n int, one, many string) string {
	if n == 1 {
		return "1 " + one
	}
	return fmt.Sprintf("%d %s", n, many)
}
