// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package querygen

import (
	"bytes"
	"text/template"

	"github.com/pdiddy/threadseeker/pkg/types"
)

// systemPrompt is sent as the system instruction to every provider.
const systemPrompt = "You are a search query optimization assistant. Always respond with valid JSON only."

// intentGuidance steers the provider toward the sources the intent favors.
var intentGuidance = map[types.Intent]string{
	types.IntentProjectSearch:   "Focus on concrete implementations and code examples. Prioritize code repositories.",
	types.IntentHowTo:           "Focus on tutorials, guides and discussions. Prioritize discussions and repository examples.",
	types.IntentRecommendation:  "Focus on community opinions and comparisons. Prioritize discussions.",
	types.IntentComparison:      "Focus on detailed comparisons and benchmarks. Balance discussions and repositories.",
	types.IntentTroubleshooting: "Focus on solutions and discussions. Prioritize discussions.",
	types.IntentModelSearch:     "Focus on AI models and pretrained weights. Prioritize the model hub.",
	types.IntentGeneral:         "Balance all sources equally.",
}

var queryPromptTmpl = template.Must(template.New("querygen").Parse(`You are a search optimization expert focused on finding the most recent information. Today is {{.Month}}.

USER QUERY: "{{.Query}}"
DETECTED INTENT: {{.Intent}}
STRATEGY: {{.Guidance}}

Generate one search query for each platform:
1. Code repositories (GitHub): exact technical terms, primary libraries or frameworks, programming language. Include "{{.Year}}", "active" or "maintained" to surface fresh projects.
2. Model hub (Hugging Face): model types, task names such as "text-generation" or "image-classification", architecture names. Include "{{.Year}}" or "latest".
3. Discussions (Reddit): recent community threads. Include "{{.Year}}" or "recent", plus words like "best" or "recommendation" when they fit.

Rules:
- Every query must carry a recency marker.
- Use exact technical terminology.
- Keep each query under {{.MaxLen}} characters.

Respond only with this JSON object:
{"repo_query": "...", "model_query": "...", "discussion_query": "...", "reasoning": "one sentence"}
`))

type promptData struct {
	Query    string
	Intent   types.Intent
	Guidance string
	Month    string
	Year     int
	MaxLen   int
}

func renderPrompt(d promptData) (string, error) {
	var buf bytes.Buffer
	if err := queryPromptTmpl.Execute(&buf, d); err != nil {
		return "", err
	}
	return buf.String(), nil
}
