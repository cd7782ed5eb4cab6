package rag

import (
	"context"
	"fmt"

	"github.com/smallnest/xagent/log"
	"github.com/smallnest/xagent/twitter"
)

// Retriever returns the chunks most relevant to a question.
type Retriever interface {
	Retrieve(ctx context.Context, question string) ([]Document, error)
}

// PipelineRetriever runs the full fetch-split-embed-search pipeline per call:
// the question is the search keyword, the fetched posts are chunked and
// embedded into a fresh in-memory index, and the top-K chunks come back
// ranked by similarity.
//
// A fetch failure propagates as *twitter.FetchError. Zero posts surviving
// chunking is not an error; the result is simply empty.
type PipelineRetriever struct {
	fetcher  twitter.Fetcher
	splitter *RecursiveCharacterTextSplitter
	embedder Embedder
	topK     int
	logger   log.Logger
}

var _ Retriever = (*PipelineRetriever)(nil)

// RetrieverOption configures a PipelineRetriever.
type RetrieverOption func(*PipelineRetriever)

// WithTopK sets how many chunks a retrieval returns.
func WithTopK(k int) RetrieverOption {
	return func(r *PipelineRetriever) {
		if k > 0 {
			r.topK = k
		}
	}
}

// WithSplitter overrides the default tweet-sized splitter.
func WithSplitter(splitter *RecursiveCharacterTextSplitter) RetrieverOption {
	return func(r *PipelineRetriever) {
		r.splitter = splitter
	}
}

// WithRetrieverLogger sets the logger.
func WithRetrieverLogger(logger log.Logger) RetrieverOption {
	return func(r *PipelineRetriever) {
		r.logger = logger
	}
}

// NewPipelineRetriever creates a retriever over the given fetcher and embedder.
func NewPipelineRetriever(fetcher twitter.Fetcher, embedder Embedder, opts ...RetrieverOption) *PipelineRetriever {
	r := &PipelineRetriever{
		fetcher:  fetcher,
		splitter: NewRecursiveCharacterTextSplitter(),
		embedder: embedder,
		topK:     10,
		logger:   log.GetDefaultLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Retrieve fetches posts for the question and returns the top-K most similar
// chunks, ranked descending.
func (r *PipelineRetriever) Retrieve(ctx context.Context, question string) ([]Document, error) {
	posts, err := r.fetcher.Search(ctx, []string{question})
	if err != nil {
		return nil, err
	}
	r.logger.Info("fetched %d posts for question %q", len(posts), question)

	docs := make([]Document, 0, len(posts))
	for i, post := range posts {
		id := post.ID
		if id == "" {
			id = fmt.Sprintf("post_%d", i)
		}
		docs = append(docs, Document{
			ID:       id,
			Content:  post.Format(),
			Metadata: post.Metadata(),
		})
	}

	chunks := r.splitter.SplitDocuments(docs)
	if len(chunks) == 0 {
		r.logger.Warn("no chunks produced from %d posts", len(posts))
		return nil, nil
	}

	store := NewInMemoryVectorStore(r.embedder)
	if err := store.Add(ctx, chunks); err != nil {
		return nil, fmt.Errorf("failed to index chunks: %w", err)
	}

	queryEmbedding, err := r.embedder.EmbedDocument(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("failed to embed question: %w", err)
	}

	results, err := store.Search(ctx, queryEmbedding, r.topK)
	if err != nil {
		return nil, fmt.Errorf("similarity search failed: %w", err)
	}

	retrieved := make([]Document, len(results))
	for i, result := range results {
		retrieved[i] = result.Document
	}
	r.logger.Debug("retrieved %d of %d chunks", len(retrieved), store.Len())
	return retrieved, nil
}
