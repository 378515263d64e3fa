// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Intent is the inferred purpose behind a query.
type Intent string

const (
	IntentProjectSearch   Intent = "project_search"
	IntentHowTo           Intent = "how_to"
	IntentRecommendation  Intent = "recommendation"
	IntentComparison      Intent = "comparison"
	IntentTroubleshooting Intent = "troubleshooting"
	IntentModelSearch     Intent = "model_search"
	IntentGeneral         Intent = "general"
)

// IntentResult is the classifier output for one query.
type IntentResult struct {
	Intent Intent `json:"intent" yaml:"intent"`

	// SourceWeights maps each source to a non-negative weight. Weights sum to 1.
	SourceWeights map[Source]float64 `json:"source_weights" yaml:"source_weights"`
}

// Weight returns the weight for s, or 0 when s is absent.
func (r IntentResult) Weight(s Source) float64 {
	return r.SourceWeights[s]
}
