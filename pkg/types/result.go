// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the threadseeker pipeline:
// normalized result records from each platform, intent classification output,
// ranked entries, and the response payload returned to callers and cached.
package types

import "time"

// Source identifies the kind of platform a record came from.
type Source string

const (
	SourceRepo       Source = "repo"
	SourceModel      Source = "model"
	SourceDiscussion Source = "discussion"
)

// AllSources lists sources in canonical order. Fusion uses this order as the
// stable insertion order when every other tie-break is exhausted.
var AllSources = []Source{SourceRepo, SourceModel, SourceDiscussion}

// Valid reports whether s is one of the known sources.
func (s Source) Valid() bool {
	switch s {
	case SourceRepo, SourceModel, SourceDiscussion:
		return true
	}
	return false
}

// ProjectStatus is the maintenance state of a code repository.
type ProjectStatus string

const (
	StatusActive     ProjectStatus = "active"
	StatusMaintained ProjectStatus = "maintained"
	StatusUnknown    ProjectStatus = "unknown"
	StatusStale      ProjectStatus = "stale"
	StatusAbandoned  ProjectStatus = "abandoned"
)

// Sentiment is the community tone of a discussion thread.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentMixed    Sentiment = "mixed"
	SentimentNegative Sentiment = "negative"
)

// ResultRecord is one normalized result from a source adapter. Records are
// built fresh per query and never mutated after construction.
//
// Common fields apply to every source. The remaining fields are populated
// only by the adapter for the matching source and stay zero otherwise.
type ResultRecord struct {
	// Source is the platform kind that produced this record.
	Source Source `json:"source" yaml:"source"`

	// Identifier is the canonical URL of the result, unique within a source.
	Identifier string `json:"identifier" yaml:"identifier"`

	Title       string   `json:"title" yaml:"title"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Tags        []string `json:"tags,omitempty" yaml:"tags,omitempty"`

	// UpdatedAt is the last update (repos, models) or post time (discussions).
	// The zero value means the age is unknown.
	UpdatedAt time.Time `json:"updated_at,omitzero" yaml:"updated_at,omitempty"`

	// Repository fields.
	Stars    int           `json:"stars,omitempty" yaml:"stars,omitempty"`
	Language string        `json:"language,omitempty" yaml:"language,omitempty"`
	Status   ProjectStatus `json:"status,omitempty" yaml:"status,omitempty"`

	// Model hub fields.
	Downloads   int    `json:"downloads,omitempty" yaml:"downloads,omitempty"`
	Likes       int    `json:"likes,omitempty" yaml:"likes,omitempty"`
	PipelineTag string `json:"pipeline_tag,omitempty" yaml:"pipeline_tag,omitempty"`
	HasDemo     bool   `json:"has_demo,omitempty" yaml:"has_demo,omitempty"`

	// Discussion fields.
	Upvotes       int       `json:"upvotes,omitempty" yaml:"upvotes,omitempty"`
	Comments      int       `json:"comments,omitempty" yaml:"comments,omitempty"`
	Community     string    `json:"community,omitempty" yaml:"community,omitempty"`
	Sentiment     Sentiment `json:"sentiment,omitempty" yaml:"sentiment,omitempty"`
	HasWarning    bool      `json:"has_warning,omitempty" yaml:"has_warning,omitempty"`
	WarningReason string    `json:"warning_reason,omitempty" yaml:"warning_reason,omitempty"`
	TopComments   []Comment `json:"top_comments,omitempty" yaml:"top_comments,omitempty"`
}

// Comment is a notable reply in a discussion thread.
type Comment struct {
	Author    string    `json:"author" yaml:"author"`
	Score     int       `json:"score" yaml:"score"`
	Body      string    `json:"body" yaml:"body"`
	Sentiment Sentiment `json:"sentiment" yaml:"sentiment"`
}

// RankedEntry wraps a record with its fused score and positions.
type RankedEntry struct {
	Record ResultRecord `json:"record" yaml:"record"`

	// Score is the final fused score used for ordering.
	Score float64 `json:"score" yaml:"score"`

	// Rank is the 1-based position in the fused list.
	Rank int `json:"rank" yaml:"rank"`

	// OriginalRank is the 1-based position within the record's own source
	// list after per-source relevance ordering.
	OriginalRank int `json:"original_rank" yaml:"original_rank"`
}

// GeneratedQueries holds one platform search string per source.
type GeneratedQueries struct {
	Queries   map[Source]string `json:"queries" yaml:"queries"`
	Reasoning string            `json:"reasoning,omitempty" yaml:"reasoning,omitempty"`

	// Provider names the generation tier that produced the queries.
	Provider string `json:"provider" yaml:"provider"`
}

// SearchResponse is the full payload for one query. It is what callers
// receive and what the cache stores.
type SearchResponse struct {
	Query string `json:"query" yaml:"query"`

	// Results holds each source's records ordered by relevance.
	Results map[Source][]ResultRecord `json:"results" yaml:"results"`

	// Ranked is the fused, globally ordered list.
	Ranked []RankedEntry `json:"ranked" yaml:"ranked"`

	Intent        Intent             `json:"intent" yaml:"intent"`
	SourceWeights map[Source]float64 `json:"source_weights" yaml:"source_weights"`
	Queries       GeneratedQueries   `json:"generated_queries" yaml:"generated_queries"`

	Summary         string `json:"summary" yaml:"summary"`
	SummaryProvider string `json:"summary_provider" yaml:"summary_provider"`

	DurationMS int64 `json:"duration_ms" yaml:"duration_ms"`

	// Errors lists non-fatal failures collected while building the response.
	Errors []string `json:"errors" yaml:"errors"`
}
