package rag

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smallnest/xagent/twitter"
)

type fakeFetcher struct {
	posts []twitter.Post
	err   error
}

func (f *fakeFetcher) Search(ctx context.Context, keywords []string) ([]twitter.Post, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.posts, nil
}

func TestPipelineRetriever(t *testing.T) {
	fetcher := &fakeFetcher{posts: []twitter.Post{
		{ID: "1", Author: "Ada", Text: "AI trends are fascinating, new machine learning developments"},
		{ID: "2", Author: "Bo", Text: "sourdough bread baking tips for beginners"},
		{ID: "3", Author: "Cy", Text: "AI trends in machine learning research this week"},
	}}

	r := NewPipelineRetriever(fetcher, NewHashEmbedder(256), WithTopK(2))

	docs, err := r.Retrieve(context.Background(), "AI trends machine learning")
	require.NoError(t, err)
	require.Len(t, docs, 2)

	// The two AI posts should outrank the baking one.
	for _, doc := range docs {
		assert.Contains(t, doc.Content, "AI trends")
	}
}

func TestPipelineRetrieverPropagatesFetchError(t *testing.T) {
	fetcher := &fakeFetcher{err: &twitter.FetchError{Reason: "auth failed"}}
	r := NewPipelineRetriever(fetcher, NewHashEmbedder(64))

	_, err := r.Retrieve(context.Background(), "anything")
	var fetchErr *twitter.FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Contains(t, fetchErr.Error(), "auth failed")
}

func TestPipelineRetrieverZeroPostsIsNotAnError(t *testing.T) {
	fetcher := &fakeFetcher{posts: nil}
	r := NewPipelineRetriever(fetcher, NewHashEmbedder(64))

	docs, err := r.Retrieve(context.Background(), "anything")
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestPipelineRetrieverChunkMetadata(t *testing.T) {
	fetcher := &fakeFetcher{posts: []twitter.Post{
		{ID: "42", Author: "Ada", Username: "ada", Text: "short tweet"},
	}}
	r := NewPipelineRetriever(fetcher, NewHashEmbedder(64))

	docs, err := r.Retrieve(context.Background(), "short tweet")
	require.NoError(t, err)
	require.NotEmpty(t, docs)
	assert.Equal(t, "42", docs[0].Metadata["parent_id"])
	assert.Equal(t, "Ada", docs[0].Metadata["author"])
}

func TestPipelineRetrieverTopKBound(t *testing.T) {
	posts := make([]twitter.Post, 30)
	for i := range posts {
		posts[i] = twitter.Post{Text: "AI trends update number"}
	}
	r := NewPipelineRetriever(&fakeFetcher{posts: posts}, NewHashEmbedder(64))

	docs, err := r.Retrieve(context.Background(), "AI trends")
	require.NoError(t, err)
	assert.LessOrEqual(t, len(docs), 10)
}
