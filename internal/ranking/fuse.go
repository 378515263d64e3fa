// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ranking

import (
	"sort"
	"strings"

	"github.com/pdiddy/threadseeker/pkg/types"
)

// Scored pairs a record with its relevance score.
type Scored struct {
	Record types.ResultRecord
	Score  float64
}

// NormalizeIdentifier returns the comparison form of a record URL: lowercased,
// without scheme, "www." prefix, fragment, or trailing slash.
func NormalizeIdentifier(id string) string {
	s := strings.ToLower(strings.TrimSpace(id))
	if i := strings.Index(s, "://"); i >= 0 {
		s = s[i+3:]
	}
	s = strings.TrimPrefix(s, "www.")
	if i := strings.IndexByte(s, '#'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimRight(s, "/")
}

// Dedupe removes records whose normalized identifier was already seen,
// scanning sources in canonical order and keeping the first occurrence.
// Records without an identifier are kept. It returns the filtered lists and
// the number of records removed.
func Dedupe(lists map[types.Source][]types.ResultRecord) (map[types.Source][]types.ResultRecord, int) {
	seen := make(map[string]bool)
	out := make(map[types.Source][]types.ResultRecord, len(lists))
	removed := 0

	for _, src := range types.AllSources {
		records, ok := lists[src]
		if !ok {
			continue
		}
		kept := make([]types.ResultRecord, 0, len(records))
		for _, r := range records {
			key := NormalizeIdentifier(r.Identifier)
			if key != "" {
				if seen[key] {
					removed++
					continue
				}
				seen[key] = true
			}
			kept = append(kept, r)
		}
		out[src] = kept
	}
	return out, removed
}

// ScoreSource scores every record of one source and returns them ordered by
// descending score. Equal scores keep adapter order.
func ScoreSource(s *Scorer, records []types.ResultRecord, query string, weight float64) []Scored {
	scored := make([]Scored, len(records))
	for i, r := range records {
		scored[i] = Scored{Record: r, Score: s.Score(r, query, weight)}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	return scored
}

// Fuse merges per-source scored lists into one ranked list. Each list must
// already be in per-source relevance order; a record's position there is its
// original rank. The fused score subtracts originalRank*PositionPenalty,
// floored at zero. Ordering is by fused score, then source weight, then
// original rank, then insertion order (sources in canonical order).
func Fuse(perSource map[types.Source][]Scored, weights map[types.Source]float64, policy Policy) []types.RankedEntry {
	type candidate struct {
		entry  types.RankedEntry
		weight float64
	}

	seen := make(map[string]bool)
	var cands []candidate
	for _, src := range types.AllSources {
		for i, sc := range perSource[src] {
			key := NormalizeIdentifier(sc.Record.Identifier)
			if key != "" {
				if seen[key] {
					continue
				}
				seen[key] = true
			}
			rank := i + 1
			cands = append(cands, candidate{
				entry: types.RankedEntry{
					Record:       sc.Record,
					Score:        nonNegative(sc.Score - float64(rank)*policy.PositionPenalty),
					OriginalRank: rank,
				},
				weight: weights[src],
			})
		}
	}

	sort.SliceStable(cands, func(i, j int) bool {
		a, b := cands[i], cands[j]
		if a.entry.Score != b.entry.Score {
			return a.entry.Score > b.entry.Score
		}
		if a.weight != b.weight {
			return a.weight > b.weight
		}
		return a.entry.OriginalRank < b.entry.OriginalRank
	})

	ranked := make([]types.RankedEntry, len(cands))
	for i, c := range cands {
		c.entry.Rank = i + 1
		ranked[i] = c.entry
	}
	return ranked
}

// Records strips scores from a scored list, keeping order.
func Records(scored []Scored) []types.ResultRecord {
	out := make([]types.ResultRecord, len(scored))
	for i, s := range scored {
		out[i] = s.Record
	}
	return out
}
