// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/threadseeker/internal/httputil"
	"github.com/pdiddy/threadseeker/pkg/types"
)

// huggingFaceModelsBase is the Hugging Face model listing endpoint. Declared
// as a var so tests can substitute an httptest server.
var huggingFaceModelsBase = "https://huggingface.co/api/models"

// huggingFaceSite prefixes model ids to form canonical URLs.
const huggingFaceSite = "https://huggingface.co/"

// HuggingFaceAdapter searches the Hugging Face model hub.
type HuggingFaceAdapter struct {
	Client *httputil.Client
	Logger *slog.Logger
}

// Name returns the adapter identifier.
func (a *HuggingFaceAdapter) Name() string { return "huggingface" }

// Source returns types.SourceModel.
func (a *HuggingFaceAdapter) Source() types.Source { return types.SourceModel }

type hfModel struct {
	ID           string    `json:"id"`
	ModelID      string    `json:"modelId"`
	Downloads    int       `json:"downloads"`
	Likes        int       `json:"likes"`
	PipelineTag  string    `json:"pipeline_tag"`
	Tags         []string  `json:"tags"`
	LastModified time.Time `json:"lastModified"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Search lists models matching query, most downloaded first.
func (a *HuggingFaceAdapter) Search(ctx context.Context, query string, limit int) ([]types.ResultRecord, error) {
	if query == "" {
		return nil, fmt.Errorf("empty Hugging Face query")
	}
	limit = clampLimit(limit, 100)

	params := url.Values{
		"search":    {query},
		"limit":     {strconv.Itoa(limit)},
		"sort":      {"downloads"},
		"direction": {"-1"},
	}

	var models []hfModel
	if err := a.Client.GetJSON(ctx, huggingFaceModelsBase+"?"+params.Encode(), nil, &models); err != nil {
		return nil, fmt.Errorf("Hugging Face search: %w", err)
	}

	records := make([]types.ResultRecord, 0, len(models))
	for _, m := range models {
		id := m.ID
		if id == "" {
			id = m.ModelID
		}
		if id == "" {
			continue
		}
		updated := m.LastModified
		if updated.IsZero() {
			updated = m.CreatedAt
		}
		records = append(records, types.ResultRecord{
			Source:      types.SourceModel,
			Identifier:  huggingFaceSite + id,
			Title:       id,
			Description: modelDescription(m),
			Tags:        filterTags(m.Tags),
			UpdatedAt:   updated,
			Downloads:   nonNegative(m.Downloads),
			Likes:       nonNegative(m.Likes),
			PipelineTag: m.PipelineTag,
			HasDemo:     hasTag(m.Tags, "has_space"),
		})
		if len(records) >= limit {
			break
		}
	}
	if a.Logger != nil {
		a.Logger.Debug("huggingface search", "query", query, "returned", len(records))
	}
	return records, nil
}

// modelDescription summarizes a model from its listing metadata, which
// carries no free-text description.
func modelDescription(m hfModel) string {
	var parts []string
	if m.PipelineTag != "" {
		parts = append(parts, strings.ReplaceAll(m.PipelineTag, "-", " ")+" model")
	}
	for _, t := range m.Tags {
		if lib, ok := strings.CutPrefix(t, "library:"); ok {
			parts = append(parts, "library "+lib)
		}
	}
	return strings.Join(parts, ", ")
}

// filterTags drops the hub's namespaced bookkeeping tags (license:, region:,
// base_model: and similar) and keeps descriptive ones.
func filterTags(tags []string) []string {
	var out []string
	for _, t := range tags {
		if strings.Contains(t, ":") || t == "has_space" {
			continue
		}
		out = append(out, t)
	}
	return out
}

func hasTag(tags []string, want string) bool {
	for _, t := range tags {
		if t == want {
			return true
		}
	}
	return false
}
