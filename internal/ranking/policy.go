// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ranking

import (
	"fmt"
	"os"
	"sort"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/threadseeker/pkg/types"
)

// Step raises a popularity multiplier once the dominant metric reaches Min.
type Step struct {
	Min        float64 `yaml:"min"`
	Multiplier float64 `yaml:"multiplier"`
}

// Popularity configures the popularity bonus for one source. The primary
// metric drives both the log bonus and the step multiplier; the secondary
// metric only adds a log bonus.
type Popularity struct {
	LogScale          float64 `yaml:"log_scale"`
	SecondaryLogScale float64 `yaml:"secondary_log_scale"`
	Steps             []Step  `yaml:"steps"`
}

// AgeBucket applies Multiplier to records at most MaxAgeDays old.
type AgeBucket struct {
	MaxAgeDays float64 `yaml:"max_age_days"`
	Multiplier float64 `yaml:"multiplier"`
}

// FieldWeights scales keyword overlap per record field.
type FieldWeights struct {
	Title       float64 `yaml:"title"`
	Description float64 `yaml:"description"`
	Tags        float64 `yaml:"tags"`
}

// Policy holds every tunable constant used by the scorer and the fuser.
type Policy struct {
	// BaseScale multiplies the intent weight of the record's source.
	BaseScale float64 `yaml:"base_scale"`

	Fields FieldWeights `yaml:"fields"`

	// PhraseBonus is added once when the whole query phrase appears in any field.
	PhraseBonus float64 `yaml:"phrase_bonus"`

	Popularity map[types.Source]Popularity `yaml:"popularity"`

	// Recency buckets are checked from youngest to oldest. Records older than
	// every bucket receive AgedMultiplier. Records of unknown age always get 1.
	Recency        []AgeBucket `yaml:"recency"`
	AgedMultiplier float64     `yaml:"aged_multiplier"`

	Status            map[types.ProjectStatus]float64 `yaml:"status"`
	Sentiment         map[types.Sentiment]float64     `yaml:"sentiment"`
	WarningMultiplier float64                         `yaml:"warning_multiplier"`
	DemoMultiplier    float64                         `yaml:"demo_multiplier"`

	// PositionPenalty is subtracted per within-source rank during fusion.
	PositionPenalty float64 `yaml:"position_penalty"`
}

// DefaultPolicy returns the built-in scoring policy.
func DefaultPolicy() Policy {
	return Policy{
		BaseScale: 100,
		Fields: FieldWeights{
			Title:       5,
			Description: 3,
			Tags:        5,
		},
		PhraseBonus: 10,
		Popularity: map[types.Source]Popularity{
			types.SourceRepo: {
				LogScale: 2.0,
				Steps: []Step{
					{Min: 500, Multiplier: 1.1},
					{Min: 1000, Multiplier: 1.2},
					{Min: 5000, Multiplier: 1.3},
					{Min: 10000, Multiplier: 1.4},
				},
			},
			types.SourceModel: {
				LogScale:          1.5,
				SecondaryLogScale: 1.0,
				Steps: []Step{
					{Min: 1000, Multiplier: 1.1},
					{Min: 10000, Multiplier: 1.2},
					{Min: 100000, Multiplier: 1.3},
					{Min: 1000000, Multiplier: 1.4},
				},
			},
			types.SourceDiscussion: {
				LogScale:          1.5,
				SecondaryLogScale: 1.0,
				Steps: []Step{
					{Min: 50, Multiplier: 1.1},
					{Min: 100, Multiplier: 1.2},
					{Min: 500, Multiplier: 1.3},
					{Min: 1000, Multiplier: 1.4},
				},
			},
		},
		Recency: []AgeBucket{
			{MaxAgeDays: 7, Multiplier: 1.5},
			{MaxAgeDays: 30, Multiplier: 1.3},
			{MaxAgeDays: 90, Multiplier: 1.15},
			{MaxAgeDays: 365, Multiplier: 1.05},
			{MaxAgeDays: 730, Multiplier: 1.0},
		},
		AgedMultiplier: 0.6,
		Status: map[types.ProjectStatus]float64{
			types.StatusActive:     1.3,
			types.StatusMaintained: 1.15,
			types.StatusUnknown:    1.0,
			types.StatusStale:      0.6,
			types.StatusAbandoned:  0.2,
		},
		Sentiment: map[types.Sentiment]float64{
			types.SentimentPositive: 1.1,
			types.SentimentNeutral:  1.0,
			types.SentimentMixed:    1.0,
			types.SentimentNegative: 0.8,
		},
		WarningMultiplier: 0.5,
		DemoMultiplier:    1.2,
		PositionPenalty:   0.5,
	}
}

// Validate checks that the policy cannot produce negative or non-finite scores.
func (p Policy) Validate() error {
	if p.BaseScale < 0 {
		return fmt.Errorf("base_scale must be non-negative")
	}
	if p.Fields.Title < 0 || p.Fields.Description < 0 || p.Fields.Tags < 0 {
		return fmt.Errorf("field weights must be non-negative")
	}
	if p.PhraseBonus < 0 || p.PositionPenalty < 0 {
		return fmt.Errorf("phrase_bonus and position_penalty must be non-negative")
	}
	for s, pop := range p.Popularity {
		if pop.LogScale < 0 || pop.SecondaryLogScale < 0 {
			return fmt.Errorf("popularity %s: log scales must be non-negative", s)
		}
		for _, st := range pop.Steps {
			if st.Multiplier <= 0 {
				return fmt.Errorf("popularity %s: step multiplier must be positive", s)
			}
		}
	}
	for _, b := range p.Recency {
		if b.Multiplier <= 0 {
			return fmt.Errorf("recency bucket %.0fd: multiplier must be positive", b.MaxAgeDays)
		}
	}
	if p.AgedMultiplier <= 0 || p.WarningMultiplier <= 0 || p.DemoMultiplier <= 0 {
		return fmt.Errorf("aged, warning and demo multipliers must be positive")
	}
	for st, m := range p.Status {
		if m <= 0 {
			return fmt.Errorf("status %s: multiplier must be positive", st)
		}
	}
	for se, m := range p.Sentiment {
		if m <= 0 {
			return fmt.Errorf("sentiment %s: multiplier must be positive", se)
		}
	}
	return nil
}

// normalize sorts steps and buckets ascending so lookups can scan in order.
// It replaces the slices and the popularity map rather than editing them, so
// a Policy value shared between goroutines is never written.
func (p *Policy) normalize() {
	pops := make(map[types.Source]Popularity, len(p.Popularity))
	for s, pop := range p.Popularity {
		steps := append([]Step(nil), pop.Steps...)
		sort.SliceStable(steps, func(i, j int) bool { return steps[i].Min < steps[j].Min })
		pop.Steps = steps
		pops[s] = pop
	}
	p.Popularity = pops

	buckets := append([]AgeBucket(nil), p.Recency...)
	sort.SliceStable(buckets, func(i, j int) bool { return buckets[i].MaxAgeDays < buckets[j].MaxAgeDays })
	p.Recency = buckets
}

// LoadPolicy reads a YAML policy file. Fields absent from the file keep
// their DefaultPolicy values.
func LoadPolicy(path string) (Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, fmt.Errorf("reading policy %s: %w", path, err)
	}

	p := DefaultPolicy()
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Policy{}, fmt.Errorf("parsing policy %s: %w", path, err)
	}
	if err := p.Validate(); err != nil {
		return Policy{}, fmt.Errorf("invalid policy %s: %w", path, err)
	}
	p.normalize()
	return p, nil
}
