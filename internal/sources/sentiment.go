// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"regexp"
	"strings"

	"github.com/pdiddy/threadseeker/pkg/types"
)

var negativeCues = compileCues(
	`\bdoesn'?t work\b`,
	`\bbroken\b`,
	`\bdeprecated\b`,
	`\babandoned\b`,
	`\bdon'?t use\b`,
	`\bwaste of time\b`,
	`\bterrible\b`,
	`\bhorrible\b`,
	`\bgarbage\b`,
	`\buseless\b`,
	`\bscam\b`,
	`\bmalware\b`,
	`\bvulnerab(?:le|ility)\b`,
	`\bbug(?:gy|s)\b`,
	`\bnot maintained\b`,
	`\bno longer works\b`,
	`\bdead project\b`,
)

var positiveCues = compileCues(
	`\bworks great\b`,
	`\bhighly recommend\b`,
	`\bamazing\b`,
	`\bexcellent\b`,
	`\bperfect\b`,
	`\bawesome\b`,
	`\blove (?:it|this)\b`,
	`\bbest\b`,
	`\bfantastic\b`,
)

func compileCues(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(p)
	}
	return out
}

// maxReasonCues caps how many negative phrases a warning reason lists.
const maxReasonCues = 3

// AnalyzeSentiment classifies discussion text and, for negative or mixed
// text, returns a short warning reason naming the phrases that triggered it.
//
// Two or more negative cues make the text negative. A single negative cue
// with no positive cue makes it mixed. Two or more positive cues with fewer
// than two negative cues make it positive. Anything else is neutral.
func AnalyzeSentiment(text string) (types.Sentiment, string) {
	lower := strings.ToLower(text)

	var negatives []string
	for _, re := range negativeCues {
		if m := re.FindString(lower); m != "" {
			negatives = append(negatives, m)
		}
	}
	positives := 0
	for _, re := range positiveCues {
		if re.MatchString(lower) {
			positives++
		}
	}

	switch {
	case len(negatives) >= 2:
		if len(negatives) > maxReasonCues {
			negatives = negatives[:maxReasonCues]
		}
		return types.SentimentNegative, "Community concerns: " + strings.Join(negatives, ", ")
	case len(negatives) == 1 && positives == 0:
		return types.SentimentMixed, "Mixed feedback: " + negatives[0]
	case positives >= 2:
		return types.SentimentPositive, ""
	default:
		return types.SentimentNeutral, ""
	}
}
