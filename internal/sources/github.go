// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"github.com/pdiddy/threadseeker/internal/httputil"
	"github.com/pdiddy/threadseeker/pkg/types"
)

// githubSearchBase is the GitHub repository search endpoint. Declared as a
// var so tests can substitute an httptest server.
var githubSearchBase = "https://api.github.com/search/repositories"

// GitHubAdapter searches public GitHub repositories.
type GitHubAdapter struct {
	Client *httputil.Client

	// Token is optional; authenticated requests get a higher rate limit.
	Token string

	// Now defaults to time.Now and drives status derivation.
	Now    func() time.Time
	Logger *slog.Logger
}

// Name returns the adapter identifier.
func (a *GitHubAdapter) Name() string { return "github" }

// Source returns types.SourceRepo.
func (a *GitHubAdapter) Source() types.Source { return types.SourceRepo }

type githubResponse struct {
	TotalCount int          `json:"total_count"`
	Items      []githubRepo `json:"items"`
}

type githubRepo struct {
	FullName    string    `json:"full_name"`
	HTMLURL     string    `json:"html_url"`
	Description string    `json:"description"`
	Stars       int       `json:"stargazers_count"`
	Language    string    `json:"language"`
	Topics      []string  `json:"topics"`
	PushedAt    time.Time `json:"pushed_at"`
	Archived    bool      `json:"archived"`
	Fork        bool      `json:"fork"`
}

// Search queries the GitHub search API sorted by best match.
func (a *GitHubAdapter) Search(ctx context.Context, query string, limit int) ([]types.ResultRecord, error) {
	if query == "" {
		return nil, fmt.Errorf("empty GitHub query")
	}
	limit = clampLimit(limit, 100)

	params := url.Values{
		"q":        {query},
		"per_page": {strconv.Itoa(limit)},
	}
	headers := map[string]string{
		"Accept":               "application/vnd.github+json",
		"X-GitHub-Api-Version": "2022-11-28",
	}
	if a.Token != "" {
		headers["Authorization"] = "Bearer " + a.Token
	}

	var resp githubResponse
	if err := a.Client.GetJSON(ctx, githubSearchBase+"?"+params.Encode(), headers, &resp); err != nil {
		return nil, fmt.Errorf("GitHub search: %w", err)
	}

	now := time.Now
	if a.Now != nil {
		now = a.Now
	}
	ref := now()

	records := make([]types.ResultRecord, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.HTMLURL == "" {
			continue
		}
		status := StatusFromAge(item.PushedAt, ref)
		if item.Archived {
			status = types.StatusAbandoned
		}
		records = append(records, types.ResultRecord{
			Source:      types.SourceRepo,
			Identifier:  item.HTMLURL,
			Title:       item.FullName,
			Description: truncate(item.Description, descriptionLimit),
			Tags:        item.Topics,
			UpdatedAt:   item.PushedAt,
			Stars:       nonNegative(item.Stars),
			Language:    item.Language,
			Status:      status,
		})
		if len(records) >= limit {
			break
		}
	}
	if a.Logger != nil {
		a.Logger.Debug("github search", "query", query, "total", resp.TotalCount, "returned", len(records))
	}
	return records, nil
}
