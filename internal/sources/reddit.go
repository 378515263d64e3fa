// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/threadseeker/internal/httputil"
	"github.com/pdiddy/threadseeker/pkg/types"
)

// redditSearchBase is the Reddit JSON search endpoint. Declared as a var so
// tests can substitute an httptest server.
var redditSearchBase = "https://www.reddit.com/search.json"

// redditThreadBase prefixes permalinks when fetching a thread's comments.
var redditThreadBase = "https://www.reddit.com"

// redditSite prefixes permalinks to form canonical URLs.
const redditSite = "https://www.reddit.com"

const (
	// commentsScanned bounds how many top-level replies are read per thread.
	commentsScanned = 10
	maxTopComments  = 3
	commentLimit    = 300
	threadFetchers  = 3
)

// RedditAdapter searches Reddit posts from the past year. When
// CommentThreads is positive, the first CommentThreads posts also get their
// comments fetched: the replies feed the sentiment and warning of the
// record and up to three upvoted replies become TopComments.
type RedditAdapter struct {
	Client         *httputil.Client
	CommentThreads int
	Logger         *slog.Logger
}

// Name returns the adapter identifier.
func (a *RedditAdapter) Name() string { return "reddit" }

// Source returns types.SourceDiscussion.
func (a *RedditAdapter) Source() types.Source { return types.SourceDiscussion }

type redditListing struct {
	Data struct {
		Children []struct {
			Kind string     `json:"kind"`
			Data redditPost `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type redditPost struct {
	Title       string  `json:"title"`
	Permalink   string  `json:"permalink"`
	Subreddit   string  `json:"subreddit"`
	Selftext    string  `json:"selftext"`
	Score       int     `json:"score"`
	NumComments int     `json:"num_comments"`
	CreatedUTC  float64 `json:"created_utc"`
	LinkFlair   string  `json:"link_flair_text"`
	Over18      bool    `json:"over_18"`
}

// redditThread is the two-listing array served for a permalink: the post
// followed by its replies.
type redditThread []struct {
	Data struct {
		Children []struct {
			Kind string        `json:"kind"`
			Data redditComment `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type redditComment struct {
	Author string `json:"author"`
	Body   string `json:"body"`
	Score  int    `json:"score"`
}

// Search queries Reddit's search listing sorted by relevance.
func (a *RedditAdapter) Search(ctx context.Context, query string, limit int) ([]types.ResultRecord, error) {
	if query == "" {
		return nil, fmt.Errorf("empty Reddit query")
	}
	limit = clampLimit(limit, 100)

	params := url.Values{
		"q":     {query},
		"limit": {strconv.Itoa(limit)},
		"sort":  {"relevance"},
		"t":     {"year"},
		"type":  {"link"},
	}

	var listing redditListing
	if err := a.Client.GetJSON(ctx, redditSearchBase+"?"+params.Encode(), nil, &listing); err != nil {
		return nil, fmt.Errorf("Reddit search: %w", err)
	}

	var posts []redditPost
	for _, child := range listing.Data.Children {
		if child.Kind != "t3" {
			continue
		}
		p := child.Data
		if p.Permalink == "" || p.Over18 {
			continue
		}
		posts = append(posts, p)
		if len(posts) >= limit {
			break
		}
	}

	records := make([]types.ResultRecord, len(posts))
	var g errgroup.Group
	g.SetLimit(threadFetchers)
	for i, p := range posts {
		if i >= a.CommentThreads {
			records[i] = discussionRecord(p, nil)
			continue
		}
		g.Go(func() error {
			comments, err := a.thread(ctx, p.Permalink)
			if err != nil && a.Logger != nil {
				a.Logger.Debug("reddit thread fetch failed, using post text only", "permalink", p.Permalink, "error", err)
			}
			records[i] = discussionRecord(p, comments)
			return nil
		})
	}
	g.Wait()

	if a.Logger != nil {
		a.Logger.Debug("reddit search", "query", query, "returned", len(records))
	}
	return records, nil
}

// thread fetches the replies of one post.
func (a *RedditAdapter) thread(ctx context.Context, permalink string) ([]redditComment, error) {
	params := url.Values{
		"limit": {strconv.Itoa(commentsScanned)},
		"sort":  {"top"},
	}
	rawURL := redditThreadBase + strings.TrimSuffix(permalink, "/") + ".json?" + params.Encode()

	var thread redditThread
	if err := a.Client.GetJSON(ctx, rawURL, nil, &thread); err != nil {
		return nil, fmt.Errorf("Reddit thread: %w", err)
	}
	if len(thread) < 2 {
		return nil, nil
	}

	var comments []redditComment
	for _, child := range thread[1].Data.Children {
		if len(comments) >= commentsScanned {
			break
		}
		if child.Kind != "t1" {
			continue
		}
		c := child.Data
		if c.Body == "" || c.Body == "[deleted]" || c.Body == "[removed]" {
			continue
		}
		comments = append(comments, c)
	}
	return comments, nil
}

// discussionRecord builds the record for a post. Sentiment covers the post
// text and any fetched replies.
func discussionRecord(p redditPost, comments []redditComment) types.ResultRecord {
	text := p.Title + "\n" + p.Selftext
	var top []types.Comment
	for _, c := range comments {
		text += "\n" + c.Body
		if len(top) < maxTopComments && c.Score > 0 {
			sentiment, _ := AnalyzeSentiment(c.Body)
			top = append(top, types.Comment{
				Author:    c.Author,
				Score:     c.Score,
				Body:      truncate(c.Body, commentLimit),
				Sentiment: sentiment,
			})
		}
	}

	sentiment, reason := AnalyzeSentiment(text)
	r := types.ResultRecord{
		Source:      types.SourceDiscussion,
		Identifier:  redditSite + strings.TrimSuffix(p.Permalink, "/"),
		Title:       p.Title,
		Description: truncate(strings.TrimSpace(p.Selftext), descriptionLimit),
		Upvotes:     nonNegative(p.Score),
		Comments:    nonNegative(p.NumComments),
		Community:   "r/" + p.Subreddit,
		Sentiment:   sentiment,
		TopComments: top,
	}
	if p.LinkFlair != "" {
		r.Tags = []string{strings.ToLower(p.LinkFlair)}
	}
	if p.CreatedUTC > 0 {
		sec, frac := math.Modf(p.CreatedUTC)
		r.UpdatedAt = time.Unix(int64(sec), int64(frac*1e9)).UTC()
	}
	if sentiment == types.SentimentNegative || sentiment == types.SentimentMixed {
		r.HasWarning = true
		r.WarningReason = reason
	}
	return r
}
