// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ranking scores heterogeneous result records on one scale and fuses
// per-source lists into a single ordered list.
//
// A record's score is
//
//	(weight*BaseScale + textMatch + popularityLog) * popularityStep * recency * quality
//
// with the multipliers applied in exactly that order. Each factor is exposed
// through Breakdown so it can be tested in isolation.
package ranking

import (
	"math"
	"strings"
	"time"

	"github.com/pdiddy/threadseeker/pkg/types"
)

// Breakdown shows every factor that contributed to a score.
type Breakdown struct {
	Base       float64 `json:"base"`
	TextMatch  float64 `json:"text_match"`
	Popularity float64 `json:"popularity"`

	PopularityMultiplier float64 `json:"popularity_multiplier"`
	RecencyMultiplier    float64 `json:"recency_multiplier"`
	QualityMultiplier    float64 `json:"quality_multiplier"`

	Total float64 `json:"total"`
}

// Scorer computes relevance scores. It is a pure function of its inputs and
// the fixed reference time, and is safe for concurrent use.
type Scorer struct {
	policy Policy
	now    time.Time
}

// NewScorer returns a scorer using policy, with record ages measured from now.
func NewScorer(policy Policy, now time.Time) *Scorer {
	policy.normalize()
	return &Scorer{policy: policy, now: now}
}

// Score returns the non-negative relevance score of rec for query, given the
// intent weight of rec's source.
func (s *Scorer) Score(rec types.ResultRecord, query string, weight float64) float64 {
	return s.Breakdown(rec, query, weight).Total
}

// Breakdown returns the score of rec together with each contributing factor.
func (s *Scorer) Breakdown(rec types.ResultRecord, query string, weight float64) Breakdown {
	q := parseQuery(query)

	b := Breakdown{
		Base:                 nonNegative(weight) * s.policy.BaseScale,
		TextMatch:            s.textMatch(rec, q),
		PopularityMultiplier: 1,
		RecencyMultiplier:    s.recencyMultiplier(rec),
		QualityMultiplier:    s.qualityMultiplier(rec),
	}
	b.Popularity, b.PopularityMultiplier = s.popularity(rec)

	total := b.Base + b.TextMatch + b.Popularity
	total *= b.PopularityMultiplier
	total *= b.RecencyMultiplier
	total *= b.QualityMultiplier
	b.Total = nonNegative(total)
	return b
}

func (s *Scorer) textMatch(rec types.ResultRecord, q queryTerms) float64 {
	title := newField(rec.Title)
	desc := newField(rec.Description)

	tagParts := append([]string(nil), rec.Tags...)
	tagParts = append(tagParts, strings.ReplaceAll(rec.PipelineTag, "-", " "), rec.Language, rec.Community)
	tags := newField(tagParts...)

	score := s.policy.Fields.Title*float64(title.overlap(q)) +
		s.policy.Fields.Description*float64(desc.overlap(q)) +
		s.policy.Fields.Tags*float64(tags.overlap(q))

	if q.phrase != "" {
		for _, f := range []field{title, desc, tags} {
			if f.contains(q.phrase) {
				score += s.policy.PhraseBonus
				break
			}
		}
	}
	return score
}

// popularityMetrics returns the dominant and secondary popularity metric of rec.
func popularityMetrics(rec types.ResultRecord) (primary, secondary float64) {
	switch rec.Source {
	case types.SourceRepo:
		return float64(max(rec.Stars, 0)), 0
	case types.SourceModel:
		return float64(max(rec.Downloads, 0)), float64(max(rec.Likes, 0))
	case types.SourceDiscussion:
		return float64(max(rec.Upvotes, 0)), float64(max(rec.Comments, 0))
	}
	return 0, 0
}

func (s *Scorer) popularity(rec types.ResultRecord) (bonus, multiplier float64) {
	pol, ok := s.policy.Popularity[rec.Source]
	if !ok {
		return 0, 1
	}
	primary, secondary := popularityMetrics(rec)
	bonus = pol.LogScale*math.Log10(primary+1) + pol.SecondaryLogScale*math.Log10(secondary+1)

	multiplier = 1
	for _, st := range pol.Steps {
		if primary >= st.Min {
			multiplier = st.Multiplier
		}
	}
	return bonus, multiplier
}

func (s *Scorer) recencyMultiplier(rec types.ResultRecord) float64 {
	if rec.UpdatedAt.IsZero() {
		return 1
	}
	ageDays := s.now.Sub(rec.UpdatedAt).Hours() / 24
	if ageDays < 0 {
		ageDays = 0
	}
	for _, b := range s.policy.Recency {
		if ageDays <= b.MaxAgeDays {
			return b.Multiplier
		}
	}
	if len(s.policy.Recency) == 0 {
		return 1
	}
	return s.policy.AgedMultiplier
}

func (s *Scorer) qualityMultiplier(rec types.ResultRecord) float64 {
	m := 1.0
	switch rec.Source {
	case types.SourceRepo:
		status := rec.Status
		if status == "" {
			status = types.StatusUnknown
		}
		if v, ok := s.policy.Status[status]; ok {
			m *= v
		}
	case types.SourceModel:
		if rec.HasDemo {
			m *= s.policy.DemoMultiplier
		}
	case types.SourceDiscussion:
		if rec.HasWarning {
			m *= s.policy.WarningMultiplier
		}
		if v, ok := s.policy.Sentiment[rec.Sentiment]; ok {
			m *= v
		}
	}
	return m
}

func nonNegative(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	return v
}
