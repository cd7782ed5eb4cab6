package twitter

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"

	"github.com/smallnest/xagent/log"
)

// ScrapeClient fetches posts by scraping a nitter-compatible search
// front-end. It needs no credentials and serves as the fallback fetcher when
// no API bearer token is configured.
type ScrapeClient struct {
	baseURL    string
	httpClient *http.Client
	sanitizer  *bluemonday.Policy
	logger     log.Logger
}

var _ Fetcher = (*ScrapeClient)(nil)

// ScrapeOption configures a ScrapeClient.
type ScrapeOption func(*ScrapeClient)

// WithScrapeHTTPClient sets a custom HTTP client.
func WithScrapeHTTPClient(hc *http.Client) ScrapeOption {
	return func(c *ScrapeClient) {
		c.httpClient = hc
	}
}

// WithScrapeLogger sets the logger.
func WithScrapeLogger(logger log.Logger) ScrapeOption {
	return func(c *ScrapeClient) {
		c.logger = logger
	}
}

// NewScrapeClient creates a scraping fetcher against the given search
// front-end base URL (e.g. a nitter instance).
func NewScrapeClient(baseURL string, opts ...ScrapeOption) (*ScrapeClient, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("scrape base URL is required")
	}

	c := &ScrapeClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
		sanitizer:  bluemonday.StrictPolicy(),
		logger:     log.GetDefaultLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Search scrapes the search result page for every keyword and merges the
// parsed posts. An all-empty outcome is a *FetchError, matching the API
// fetcher's contract.
func (c *ScrapeClient) Search(ctx context.Context, keywords []string) ([]Post, error) {
	var posts []Post
	var lastErr error

	for _, keyword := range keywords {
		c.logger.Info("scraping search page for keyword: %s", keyword)

		found, err := c.scrapeKeyword(ctx, keyword)
		if err != nil {
			c.logger.Warn("keyword %q scrape failed: %v", keyword, err)
			lastErr = err
			continue
		}
		posts = append(posts, found...)
	}

	if len(posts) == 0 {
		if lastErr != nil {
			return nil, &FetchError{Reason: "failed to scrape any tweets", Err: lastErr}
		}
		return nil, &FetchError{Reason: "no tweets found for the given keywords"}
	}
	return posts, nil
}

func (c *ScrapeClient) scrapeKeyword(ctx context.Context, keyword string) ([]Post, error) {
	params := url.Values{}
	params.Set("q", keyword)
	params.Set("f", "tweets")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "xagent/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{Reason: "search front-end unreachable", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{Reason: fmt.Sprintf("search front-end returned status %d", resp.StatusCode)}
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse search page: %w", err)
	}

	var posts []Post
	doc.Find(".timeline-item").Each(func(i int, item *goquery.Selection) {
		body := item.Find(".tweet-content").First()
		if body.Length() == 0 {
			return
		}
		text := strings.TrimSpace(c.sanitizer.Sanitize(body.Text()))
		if text == "" {
			return
		}

		post := Post{
			Author:   strings.TrimSpace(item.Find(".fullname").First().Text()),
			Username: strings.TrimPrefix(strings.TrimSpace(item.Find(".username").First().Text()), "@"),
			Text:     text,
		}
		if href, ok := item.Find(".tweet-link").First().Attr("href"); ok {
			post.URL = c.baseURL + href
			post.ID = tweetIDFromPath(href)
		}
		if ts, ok := item.Find(".tweet-date a").First().Attr("title"); ok {
			post.CreatedAt = ts
		}
		item.Find(".tweet-stats .tweet-stat").Each(func(j int, stat *goquery.Selection) {
			value := parseStatCount(stat.Text())
			switch {
			case stat.Find(".icon-heart").Length() > 0:
				post.Likes = value
			case stat.Find(".icon-retweet").Length() > 0:
				post.Retweets = value
			case stat.Find(".icon-comment").Length() > 0:
				post.Replies = value
			}
		})
		for _, word := range strings.Fields(text) {
			if strings.HasPrefix(word, "#") && len(word) > 1 {
				post.Hashtags = append(post.Hashtags, word)
			}
		}
		posts = append(posts, post)
	})

	return posts, nil
}

// tweetIDFromPath extracts the status ID from a path like
// /user/status/12345#m.
func tweetIDFromPath(path string) string {
	if idx := strings.Index(path, "/status/"); idx >= 0 {
		id := path[idx+len("/status/"):]
		if hash := strings.IndexByte(id, '#'); hash >= 0 {
			id = id[:hash]
		}
		return id
	}
	return ""
}

func parseStatCount(s string) int {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
