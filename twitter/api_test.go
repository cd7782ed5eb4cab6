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

const sampleSearchResponse = `{
	"data": [
		{
			"id": "100",
			"text": "AI trends are fascinating! #AI",
			"author_id": "1",
			"created_at": "2025-08-30T10:00:00Z",
			"public_metrics": {"like_count": 42, "retweet_count": 7, "reply_count": 3, "impression_count": 1000},
			"entities": {
				"hashtags": [{"tag": "AI"}],
				"mentions": [{"username": "openai"}]
			}
		},
		{
			"id": "101",
			"text": "New developments in machine learning.",
			"author_id": "2",
			"created_at": "2025-08-30T11:00:00Z",
			"public_metrics": {"like_count": 5, "retweet_count": 1, "reply_count": 0, "impression_count": 200}
		}
	],
	"includes": {
		"users": [
			{"id": "1", "name": "Ada", "username": "ada"},
			{"id": "2", "name": "Bo", "username": "bo"}
		]
	}
}`

func TestAPIClientSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer token123", r.Header.Get("Authorization"))
		assert.Equal(t, "AI trends", r.URL.Query().Get("query"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(sampleSearchResponse))
	}))
	defer srv.Close()

	client, err := NewAPIClient("token123", WithAPIBaseURL(srv.URL))
	require.NoError(t, err)

	posts, err := client.Search(context.Background(), []string{"AI trends"})
	require.NoError(t, err)
	require.Len(t, posts, 2)

	assert.Equal(t, "100", posts[0].ID)
	assert.Equal(t, "Ada", posts[0].Author)
	assert.Equal(t, "ada", posts[0].Username)
	assert.Equal(t, 42, posts[0].Likes)
	assert.Equal(t, "https://x.com/ada/status/100", posts[0].URL)
	assert.Equal(t, []string{"#AI"}, posts[0].Hashtags)
	assert.Equal(t, []string{"@openai"}, posts[0].Mentions)

	assert.Equal(t, "Bo", posts[1].Author)
	assert.Empty(t, posts[1].Hashtags)
}

func TestAPIClientAuthFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client, err := NewAPIClient("bad-token", WithAPIBaseURL(srv.URL))
	require.NoError(t, err)

	_, err = client.Search(context.Background(), []string{"AI trends", "ML"})
	var fetchErr *FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Contains(t, fetchErr.Error(), "authentication failed")
}

func TestAPIClientEmptyResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": []}`))
	}))
	defer srv.Close()

	client, err := NewAPIClient("token123", WithAPIBaseURL(srv.URL))
	require.NoError(t, err)

	_, err = client.Search(context.Background(), []string{"nothing matches this"})
	var fetchErr *FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Contains(t, fetchErr.Error(), "no tweets found")
}

func TestAPIClientSkipsFailingKeyword(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.URL.Query().Get("query") == "broken" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(sampleSearchResponse))
	}))
	defer srv.Close()

	client, err := NewAPIClient("token123", WithAPIBaseURL(srv.URL))
	require.NoError(t, err)

	posts, err := client.Search(context.Background(), []string{"broken", "AI trends"})
	require.NoError(t, err)
	assert.Len(t, posts, 2)
	assert.Equal(t, 2, calls)
}

func TestAPIClientRequiresToken(t *testing.T) {
	t.Setenv("TWITTER_BEARER_TOKEN", "")
	_, err := NewAPIClient("")
	assert.Error(t, err)
}
