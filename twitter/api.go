package twitter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"

	"github.com/smallnest/xagent/log"
)

const defaultAPIBaseURL = "https://api.x.com/2/tweets/search/recent"

// APIClient fetches posts through the X API v2 recent-search endpoint using
// bearer-token authentication.
type APIClient struct {
	bearerToken string
	baseURL     string
	count       int
	httpClient  *http.Client
	logger      log.Logger
}

var _ Fetcher = (*APIClient)(nil)

// APIOption configures an APIClient.
type APIOption func(*APIClient)

// WithAPIBaseURL overrides the search endpoint URL.
func WithAPIBaseURL(baseURL string) APIOption {
	return func(c *APIClient) {
		c.baseURL = baseURL
	}
}

// WithAPICount sets how many posts to request per keyword (10-100).
func WithAPICount(count int) APIOption {
	return func(c *APIClient) {
		if count < 10 {
			count = 10
		}
		if count > 100 {
			count = 100
		}
		c.count = count
	}
}

// WithAPIHTTPClient sets a custom HTTP client.
func WithAPIHTTPClient(hc *http.Client) APIOption {
	return func(c *APIClient) {
		c.httpClient = hc
	}
}

// WithAPILogger sets the logger.
func WithAPILogger(logger log.Logger) APIOption {
	return func(c *APIClient) {
		c.logger = logger
	}
}

// NewAPIClient creates an API fetcher. If bearerToken is empty it falls back
// to the TWITTER_BEARER_TOKEN environment variable.
func NewAPIClient(bearerToken string, opts ...APIOption) (*APIClient, error) {
	if bearerToken == "" {
		bearerToken = os.Getenv("TWITTER_BEARER_TOKEN")
	}
	if bearerToken == "" {
		return nil, fmt.Errorf("TWITTER_BEARER_TOKEN not set")
	}

	c := &APIClient{
		bearerToken: bearerToken,
		baseURL:     defaultAPIBaseURL,
		count:       20,
		httpClient:  http.DefaultClient,
		logger:      log.GetDefaultLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// searchResponse mirrors the API v2 recent-search payload fields we consume.
type searchResponse struct {
	Data []struct {
		ID            string `json:"id"`
		Text          string `json:"text"`
		AuthorID      string `json:"author_id"`
		CreatedAt     string `json:"created_at"`
		PublicMetrics struct {
			LikeCount       int `json:"like_count"`
			RetweetCount    int `json:"retweet_count"`
			ReplyCount      int `json:"reply_count"`
			ImpressionCount int `json:"impression_count"`
		} `json:"public_metrics"`
		Entities struct {
			Hashtags []struct {
				Tag string `json:"tag"`
			} `json:"hashtags"`
			Mentions []struct {
				Username string `json:"username"`
			} `json:"mentions"`
		} `json:"entities"`
	} `json:"data"`
	Includes struct {
		Users []struct {
			ID       string `json:"id"`
			Name     string `json:"name"`
			Username string `json:"username"`
		} `json:"users"`
	} `json:"includes"`
}

// Search fetches posts for every keyword and merges the results. A keyword
// whose search fails is skipped; only an all-empty outcome is a *FetchError.
func (c *APIClient) Search(ctx context.Context, keywords []string) ([]Post, error) {
	var posts []Post
	var lastErr error

	for _, keyword := range keywords {
		c.logger.Info("searching X for keyword: %s", keyword)

		found, err := c.searchKeyword(ctx, keyword)
		if err != nil {
			// Credential rejections will not recover on the next keyword.
			var fetchErr *FetchError
			if errors.As(err, &fetchErr) && fetchErr.authFailure {
				return nil, err
			}
			c.logger.Warn("keyword %q search failed: %v", keyword, err)
			lastErr = err
			continue
		}
		posts = append(posts, found...)
	}

	if len(posts) == 0 {
		if lastErr != nil {
			return nil, &FetchError{Reason: "failed to retrieve any tweets", Err: lastErr}
		}
		return nil, &FetchError{Reason: "no tweets found for the given keywords"}
	}
	return posts, nil
}

func (c *APIClient) searchKeyword(ctx context.Context, keyword string) ([]Post, error) {
	params := url.Values{}
	params.Set("query", keyword)
	params.Set("max_results", fmt.Sprintf("%d", c.count))
	params.Set("tweet.fields", "id,text,author_id,created_at,public_metrics,entities")
	params.Set("user.fields", "id,name,username")
	params.Set("expansions", "author_id")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.bearerToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{Reason: "X API unreachable", Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, &FetchError{
			Reason:      fmt.Sprintf("API authentication failed (status %d)", resp.StatusCode),
			authFailure: true,
		}
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &FetchError{Reason: "API rate limit exceeded"}
	case resp.StatusCode != http.StatusOK:
		return nil, &FetchError{Reason: fmt.Sprintf("X API returned status %d", resp.StatusCode)}
	}

	var result searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	users := make(map[string]struct{ name, username string }, len(result.Includes.Users))
	for _, u := range result.Includes.Users {
		users[u.ID] = struct{ name, username string }{u.Name, u.Username}
	}

	posts := make([]Post, 0, len(result.Data))
	for _, tweet := range result.Data {
		author := users[tweet.AuthorID]
		post := Post{
			ID:        tweet.ID,
			Author:    author.name,
			Username:  author.username,
			Text:      tweet.Text,
			CreatedAt: tweet.CreatedAt,
			Likes:     tweet.PublicMetrics.LikeCount,
			Retweets:  tweet.PublicMetrics.RetweetCount,
			Replies:   tweet.PublicMetrics.ReplyCount,
			Views:     tweet.PublicMetrics.ImpressionCount,
		}
		if author.username != "" {
			post.URL = fmt.Sprintf("https://x.com/%s/status/%s", author.username, tweet.ID)
		}
		for _, h := range tweet.Entities.Hashtags {
			post.Hashtags = append(post.Hashtags, "#"+h.Tag)
		}
		for _, m := range tweet.Entities.Mentions {
			post.Mentions = append(post.Mentions, "@"+m.Username)
		}
		posts = append(posts, post)
	}
	return posts, nil
}
