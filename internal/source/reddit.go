package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/NeoSkosana/AI-driven-PVS/internal/model"
)

const (
	redditBaseURL    = "https://www.reddit.com"
	redditPageSize   = 100
	redditMaxPages   = 3 // max 300 results per term
	httpTimeout      = 15 * time.Second
	defaultRedditQPS = 1 // public API allowance without OAuth
)

// RedditAdapter searches Reddit's public JSON API for discussion posts.
// A local rate limiter keeps requests under the provider allowance; an HTTP
// 429 is surfaced as RateLimitedError so the collector can back off per term.
type RedditAdapter struct {
	baseURL   string
	userAgent string
	client    *http.Client
	limiter   *rate.Limiter
}

// NewRedditAdapter constructs an adapter. baseURL may be empty for the
// public API; userAgent is required by Reddit's rules.
func NewRedditAdapter(baseURL, userAgent string) *RedditAdapter {
	if baseURL == "" {
		baseURL = redditBaseURL
	}
	return &RedditAdapter{
		baseURL:   baseURL,
		userAgent: userAgent,
		client:    &http.Client{Timeout: httpTimeout},
		limiter:   rate.NewLimiter(rate.Limit(defaultRedditQPS), 1),
	}
}

// redditListing mirrors the top-level search.json response.
type redditListing struct {
	Data struct {
		After    string `json:"after"`
		Children []struct {
			Data redditPost `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// redditPost mirrors the fields of a single post we care about.
type redditPost struct {
	Name        string  `json:"name"` // fullname, e.g. "t3_abc123"
	Title       string  `json:"title"`
	Selftext    string  `json:"selftext"`
	Score       int     `json:"score"`
	NumComments int     `json:"num_comments"`
	Author      string  `json:"author"`
	CreatedUTC  float64 `json:"created_utc"`
}

// Search retrieves up to limit posts matching term, iterating result pages
// until the limit or redditMaxPages is reached.
func (a *RedditAdapter) Search(ctx context.Context, term string, limit int) ([]model.EvidenceItem, error) {
	var items []model.EvidenceItem
	after := ""

	for page := 0; page < redditMaxPages && len(items) < limit; page++ {
		batch, next, err := a.searchPage(ctx, term, limit-len(items), after)
		if err != nil {
			return items, err
		}
		items = append(items, batch...)
		if next == "" || len(batch) == 0 {
			break
		}
		after = next
	}

	return items, nil
}

func (a *RedditAdapter) searchPage(ctx context.Context, term string, limit int, after string) ([]model.EvidenceItem, string, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, "", err
	}

	if limit > redditPageSize {
		limit = redditPageSize
	}

	params := url.Values{}
	params.Set("q", term)
	params.Set("limit", strconv.Itoa(limit))
	params.Set("sort", "top")
	params.Set("t", "year")
	params.Set("raw_json", "1")
	if after != "" {
		params.Set("after", after)
	}

	reqURL := a.baseURL + "/search.json?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", a.userAgent)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read body: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, "", &RateLimitedError{RetryAfter: retryAfter(resp)}
	case resp.StatusCode >= 500:
		return nil, "", fmt.Errorf("%w: reddit returned %d", ErrUnavailable, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, "", fmt.Errorf("reddit returned %d: %s", resp.StatusCode, string(body))
	}

	var listing redditListing
	if err := json.Unmarshal(body, &listing); err != nil {
		return nil, "", fmt.Errorf("json unmarshal: %w", err)
	}

	items := make([]model.EvidenceItem, 0, len(listing.Data.Children))
	for _, child := range listing.Data.Children {
		p := child.Data
		items = append(items, model.EvidenceItem{
			ID:           p.Name,
			Text:         p.Title + " " + p.Selftext,
			Score:        p.Score,
			CommentCount: p.NumComments,
			Author:       p.Author,
			CreatedAt:    time.Unix(int64(p.CreatedUTC), 0).UTC(),
			QueryTerm:    term,
		})
	}

	return items, listing.Data.After, nil
}

// retryAfter reads the Retry-After header, defaulting to 60s when absent.
func retryAfter(resp *http.Response) time.Duration {
	if v := resp.Header.Get("Retry-After"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return 60 * time.Second
}
