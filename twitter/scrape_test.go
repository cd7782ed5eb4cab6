package twitter

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleSearchPage = `<html><body>
<div class="timeline-item">
	<a class="tweet-link" href="/ada/status/100#m"></a>
	<a class="fullname">Ada</a>
	<a class="username">@ada</a>
	<div class="tweet-content">AI trends are fascinating! #AI</div>
	<span class="tweet-date"><a title="Aug 30, 2025 · 10:00 AM UTC"></a></span>
	<div class="tweet-stats">
		<span class="tweet-stat"><span class="icon-comment"></span> 3</span>
		<span class="tweet-stat"><span class="icon-retweet"></span> 7</span>
		<span class="tweet-stat"><span class="icon-heart"></span> 1,042</span>
	</div>
</div>
<div class="timeline-item">
	<div class="tweet-content"></div>
</div>
</body></html>`

func TestScrapeClientSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "AI trends", r.URL.Query().Get("q"))
		w.Write([]byte(sampleSearchPage))
	}))
	defer srv.Close()

	client, err := NewScrapeClient(srv.URL)
	require.NoError(t, err)

	posts, err := client.Search(context.Background(), []string{"AI trends"})
	require.NoError(t, err)
	require.Len(t, posts, 1)

	post := posts[0]
	assert.Equal(t, "Ada", post.Author)
	assert.Equal(t, "ada", post.Username)
	assert.Equal(t, "100", post.ID)
	assert.Equal(t, "AI trends are fascinating! #AI", post.Text)
	assert.Equal(t, "Aug 30, 2025 · 10:00 AM UTC", post.CreatedAt)
	assert.Equal(t, 1042, post.Likes)
	assert.Equal(t, 7, post.Retweets)
	assert.Equal(t, 3, post.Replies)
	assert.Equal(t, []string{"#AI"}, post.Hashtags)
}

func TestScrapeClientEmptyPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body></body></html>`))
	}))
	defer srv.Close()

	client, err := NewScrapeClient(srv.URL)
	require.NoError(t, err)

	_, err = client.Search(context.Background(), []string{"anything"})
	var fetchErr *FetchError
	assert.True(t, errors.As(err, &fetchErr))
}

func TestScrapeClientServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client, err := NewScrapeClient(srv.URL)
	require.NoError(t, err)

	_, err = client.Search(context.Background(), []string{"anything"})
	var fetchErr *FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Contains(t, fetchErr.Error(), "502")
}

func TestTweetIDFromPath(t *testing.T) {
	assert.Equal(t, "100", tweetIDFromPath("/ada/status/100#m"))
	assert.Equal(t, "100", tweetIDFromPath("/ada/status/100"))
	assert.Equal(t, "", tweetIDFromPath("/about"))
}
