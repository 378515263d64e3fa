// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package intent classifies a free-text query into an intent and maps the
// intent to a fixed per-source weight table.
//
// Classification is a pure function over an ordered rule table: every rule
// whose pattern matches adds its points to its intent, the highest total wins,
// and ties resolve by PriorityOrder. A query matching nothing is general.
package intent

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/pdiddy/threadseeker/pkg/types"
)

// Rule awards Points to Intent when Pattern matches the lowercased query.
type Rule struct {
	Intent  types.Intent
	Pattern *regexp.Regexp
	Points  int
}

// PriorityOrder breaks ties between intents with equal non-zero scores.
// Earlier entries win.
var PriorityOrder = []types.Intent{
	types.IntentProjectSearch,
	types.IntentModelSearch,
	types.IntentTroubleshooting,
	types.IntentHowTo,
	types.IntentComparison,
	types.IntentRecommendation,
	types.IntentGeneral,
}

// WeightTable maps each intent to its source weights.
type WeightTable map[types.Intent]map[types.Source]float64

// DefaultWeights returns the built-in intent to source weight table.
func DefaultWeights() WeightTable {
	return WeightTable{
		types.IntentProjectSearch:   {types.SourceRepo: 0.70, types.SourceDiscussion: 0.20, types.SourceModel: 0.10},
		types.IntentHowTo:           {types.SourceRepo: 0.30, types.SourceDiscussion: 0.60, types.SourceModel: 0.10},
		types.IntentRecommendation:  {types.SourceRepo: 0.25, types.SourceDiscussion: 0.60, types.SourceModel: 0.15},
		types.IntentComparison:      {types.SourceRepo: 0.40, types.SourceDiscussion: 0.40, types.SourceModel: 0.20},
		types.IntentTroubleshooting: {types.SourceRepo: 0.20, types.SourceDiscussion: 0.70, types.SourceModel: 0.10},
		types.IntentModelSearch:     {types.SourceRepo: 0.20, types.SourceDiscussion: 0.10, types.SourceModel: 0.70},
		types.IntentGeneral:         {types.SourceRepo: 0.40, types.SourceDiscussion: 0.40, types.SourceModel: 0.20},
	}
}

const weightEpsilon = 1e-6

// Validate checks that every intent has non-negative weights for all
// sources summing to 1.
func (t WeightTable) Validate() error {
	for _, in := range PriorityOrder {
		w, ok := t[in]
		if !ok {
			return fmt.Errorf("intent %s: missing weights", in)
		}
		sum := 0.0
		for _, s := range types.AllSources {
			v, ok := w[s]
			if !ok {
				return fmt.Errorf("intent %s: missing weight for source %s", in, s)
			}
			if v < 0 || math.IsNaN(v) {
				return fmt.Errorf("intent %s: weight for %s is negative", in, s)
			}
			sum += v
		}
		if math.Abs(sum-1) > weightEpsilon {
			return fmt.Errorf("intent %s: weights sum to %.4f, want 1", in, sum)
		}
	}
	return nil
}

// Merge returns a copy of t with the intents present in override replaced.
func (t WeightTable) Merge(override map[types.Intent]map[types.Source]float64) WeightTable {
	out := make(WeightTable, len(t))
	for in, w := range t {
		out[in] = copyWeights(w)
	}
	for in, w := range override {
		out[in] = copyWeights(w)
	}
	return out
}

func copyWeights(w map[types.Source]float64) map[types.Source]float64 {
	c := make(map[types.Source]float64, len(w))
	for s, v := range w {
		c[s] = v
	}
	return c
}

// DefaultRules returns the built-in rule table. Each pattern is worth one point.
func DefaultRules() []Rule {
	groups := []struct {
		intent   types.Intent
		patterns []string
	}{
		{types.IntentProjectSearch, []string{
			`\b(project|projects|repo|repos|repository|code|implementation|example|template|boilerplate|starter)\b`,
			`\b(github|clone|fork|open[- ]source)\b`,
			`\b(does .+ exist|is there an? |find .+ project)`,
		}},
		{types.IntentHowTo, []string{
			`\bhow (to|do|can)\b`,
			`\bwhat is the (best )?(way|method|approach)\b`,
			`\b(guide|tutorial|steps|learn|build|create|make|setup)\b`,
			`\bcan (i|you|we)\b`,
		}},
		{types.IntentRecommendation, []string{
			`\b(best|top|recommend|recommendation|suggestion|should i|which|better|vs)\b`,
			`\bwhat .+ (use|choose)\b`,
		}},
		{types.IntentComparison, []string{
			`\bvs\.?(\s|$)|\bversus\b`,
			`\b(compare|comparison|difference between|which is better)\b`,
		}},
		{types.IntentTroubleshooting, []string{
			`\b(error|issue|problem|bug|fix|broken|not working|help|solve|crash|crashes|exception)\b`,
			`\b(why .+ not|how to fix|debugging|debug)\b`,
		}},
		{types.IntentModelSearch, []string{
			`\b(model|models|llm|llms|transformer|neural network|ai model|ml model)\b`,
			`\b(gpt|bert|llama|mistral|stable diffusion|clip|whisper)\b`,
			`\b(hugging ?face|hf|pretrained|fine-?tuned?)\b`,
		}},
	}

	var rules []Rule
	for _, g := range groups {
		for _, p := range g.patterns {
			rules = append(rules, Rule{
				Intent:  g.intent,
				Pattern: regexp.MustCompile(`(?i)` + p),
				Points:  1,
			})
		}
	}
	return rules
}

// Classifier maps queries to intents. It holds no mutable state and is safe
// for concurrent use.
type Classifier struct {
	rules   []Rule
	weights WeightTable
}

// New returns a classifier using rules and weights. Nil arguments select the
// defaults. It returns an error if the weight table is invalid.
func New(rules []Rule, weights WeightTable) (*Classifier, error) {
	if rules == nil {
		rules = DefaultRules()
	}
	if weights == nil {
		weights = DefaultWeights()
	}
	if err := weights.Validate(); err != nil {
		return nil, fmt.Errorf("invalid intent weights: %w", err)
	}
	return &Classifier{rules: rules, weights: weights}, nil
}

// Default returns a classifier with the built-in rules and weights.
func Default() *Classifier {
	c, err := New(nil, nil)
	if err != nil {
		panic(err)
	}
	return c
}

// Scores returns the accumulated points per intent for query.
func (c *Classifier) Scores(query string) map[types.Intent]int {
	q := strings.ToLower(strings.TrimSpace(query))
	scores := make(map[types.Intent]int)
	for _, r := range c.rules {
		if r.Pattern.MatchString(q) {
			scores[r.Intent] += r.Points
		}
	}
	return scores
}

// Classify returns the winning intent for query and its source weights.
func (c *Classifier) Classify(query string) types.IntentResult {
	scores := c.Scores(query)

	winner := types.IntentGeneral
	best := 0
	for _, in := range PriorityOrder {
		if scores[in] > best {
			best = scores[in]
			winner = in
		}
	}

	return types.IntentResult{
		Intent:        winner,
		SourceWeights: copyWeights(c.weights[winner]),
	}
}

// Weights returns the source weights for in, falling back to general.
func (c *Classifier) Weights(in types.Intent) map[types.Source]float64 {
	if w, ok := c.weights[in]; ok {
		return copyWeights(w)
	}
	return copyWeights(c.weights[types.IntentGeneral])
}
