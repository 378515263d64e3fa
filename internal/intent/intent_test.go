// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package intent

import (
	"math"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/threadseeker/pkg/types"
)

func TestClassify(t *testing.T) {
	c := Default()

	tests := []struct {
		name  string
		query string
		want  types.Intent
	}{
		{"project search", "nextjs authentication project", types.IntentProjectSearch},
		{"how to", "how to build a REST API", types.IntentHowTo},
		{"troubleshooting beats how to", "how to fix cuda out of memory error", types.IntentTroubleshooting},
		{"model search", "pretrained llama model for summarization", types.IntentModelSearch},
		{"comparison wins tie with recommendation", "react vs vue", types.IntentComparison},
		{"recommendation", "recommend a state management library", types.IntentRecommendation},
		{"general when nothing matches", "quantum entanglement", types.IntentGeneral},
		{"case insensitive", "HOW TO Setup Kubernetes", types.IntentHowTo},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify(tt.query)
			assert.Equal(t, tt.want, got.Intent)
		})
	}
}

func TestClassifyScenarioWeights(t *testing.T) {
	c := Default()

	got := c.Classify("nextjs authentication project")
	assert.Equal(t, types.IntentProjectSearch, got.Intent)
	assert.Equal(t, map[types.Source]float64{
		types.SourceRepo: 0.70, types.SourceDiscussion: 0.20, types.SourceModel: 0.10,
	}, got.SourceWeights)

	got = c.Classify("how to build a REST API")
	assert.Equal(t, types.IntentHowTo, got.Intent)
	assert.Equal(t, map[types.Source]float64{
		types.SourceRepo: 0.30, types.SourceDiscussion: 0.60, types.SourceModel: 0.10,
	}, got.SourceWeights)
}

func TestClassifyDeterministic(t *testing.T) {
	c := Default()
	queries := []string{
		"best llm for coding",
		"does a rust csv parser exist",
		"why is my docker build not working",
		"",
	}
	for _, q := range queries {
		first := c.Classify(q)
		for i := 0; i < 20; i++ {
			assert.Equal(t, first, c.Classify(q), "query %q", q)
		}
	}
}

func TestClassifyResultIsIsolated(t *testing.T) {
	c := Default()
	got := c.Classify("react vs vue")
	got.SourceWeights[types.SourceRepo] = 99

	again := c.Classify("react vs vue")
	assert.Equal(t, 0.40, again.SourceWeights[types.SourceRepo])
}

func TestTieBreakFollowsPriority(t *testing.T) {
	// One point for every intent: the highest priority intent must win.
	var rules []Rule
	for _, in := range PriorityOrder[:len(PriorityOrder)-1] {
		rules = append(rules, Rule{Intent: in, Pattern: regexp.MustCompile(`x`), Points: 1})
	}
	c, err := New(rules, nil)
	require.NoError(t, err)
	assert.Equal(t, types.IntentProjectSearch, c.Classify("x").Intent)

	// Drop project_search: model_search is next.
	c, err = New(rules[1:], nil)
	require.NoError(t, err)
	assert.Equal(t, types.IntentModelSearch, c.Classify("x").Intent)
}

func TestHigherScoreBeatsPriority(t *testing.T) {
	rules := []Rule{
		{Intent: types.IntentProjectSearch, Pattern: regexp.MustCompile(`a`), Points: 1},
		{Intent: types.IntentRecommendation, Pattern: regexp.MustCompile(`a`), Points: 2},
	}
	c, err := New(rules, nil)
	require.NoError(t, err)
	assert.Equal(t, types.IntentRecommendation, c.Classify("a").Intent)
}

func TestDefaultWeightsSumToOne(t *testing.T) {
	table := DefaultWeights()
	require.NoError(t, table.Validate())
	for in, w := range table {
		sum := 0.0
		for _, v := range w {
			assert.GreaterOrEqual(t, v, 0.0, "intent %s", in)
			sum += v
		}
		assert.InDelta(t, 1.0, sum, 1e-9, "intent %s", in)
	}
}

func TestWeightTableValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(WeightTable)
		errMsg string
	}{
		{"missing intent", func(w WeightTable) { delete(w, types.IntentHowTo) }, "missing weights"},
		{"missing source", func(w WeightTable) { delete(w[types.IntentHowTo], types.SourceModel) }, "missing weight for source"},
		{"negative", func(w WeightTable) {
			w[types.IntentHowTo] = map[types.Source]float64{types.SourceRepo: 1.2, types.SourceDiscussion: -0.2, types.SourceModel: 0}
		}, "negative"},
		{"bad sum", func(w WeightTable) { w[types.IntentHowTo][types.SourceRepo] = 0.9 }, "sum to"},
		{"nan", func(w WeightTable) { w[types.IntentHowTo][types.SourceRepo] = math.NaN() }, "negative"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := DefaultWeights()
			tt.mutate(w)
			err := w.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestWeightTableValidateTolerance(t *testing.T) {
	w := DefaultWeights()
	w[types.IntentHowTo][types.SourceRepo] += weightEpsilon / 2
	assert.NoError(t, w.Validate())

	w[types.IntentHowTo][types.SourceRepo] += 2 * weightEpsilon
	assert.Error(t, w.Validate())
}

func TestMergeOverridesIntent(t *testing.T) {
	override := map[types.Intent]map[types.Source]float64{
		types.IntentGeneral: {types.SourceRepo: 0.5, types.SourceDiscussion: 0.3, types.SourceModel: 0.2},
	}
	merged := DefaultWeights().Merge(override)
	require.NoError(t, merged.Validate())

	c, err := New(nil, merged)
	require.NoError(t, err)
	assert.Equal(t, 0.5, c.Classify("quantum entanglement").SourceWeights[types.SourceRepo])
	assert.Equal(t, 0.70, c.Weights(types.IntentProjectSearch)[types.SourceRepo])
}

func TestNewRejectsInvalidWeights(t *testing.T) {
	w := DefaultWeights()
	w[types.IntentGeneral][types.SourceRepo] = 0
	_, err := New(nil, w)
	require.Error(t, err)
}
